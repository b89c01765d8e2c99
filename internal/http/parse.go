package http

import (
	"errors"
	"strings"
	"time"
)

var (
	errInvalidDate = errors.New("날짜는 YYYY-MM-DD 형식으로 지정해 주세요.")
	errInvalidTime = errors.New("일시는 RFC 3339 형식으로 지정해 주세요.")
)

func parseDateField(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return time.Time{}, errInvalidDate
	}
	return parsed, nil
}

func parseOptionalDateField(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := parseDateField(*value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseTimeField(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, errInvalidTime
	}
	return parsed, nil
}

func parseOptionalTimeField(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := parseTimeField(*value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
