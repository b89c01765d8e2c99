package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/workdesk/internal/persistence"
)

// Geocoder resolves coordinates to a human-readable address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, latitude, longitude float64) (string, error)
}

// AttendanceService records check-ins and check-outs. The reverse geocode is
// best effort: a failed lookup leaves the address empty and never fails the
// operation.
type AttendanceService struct {
	attendance  persistence.AttendanceRepository
	geocoder    Geocoder
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAttendanceService constructs an AttendanceService with the provided dependencies.
func NewAttendanceService(attendance persistence.AttendanceRepository, geocoder Geocoder, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AttendanceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AttendanceService{
		attendance:  attendance,
		geocoder:    geocoder,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *AttendanceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AttendanceService", operation, attrs...)
}

// CheckIn opens today's attendance record for the principal. A second check-in
// without a check-out is a conflict.
func (s *AttendanceService) CheckIn(ctx context.Context, principal Principal, latitude, longitude float64) (record persistence.AttendanceRecord, err error) {
	if s == nil {
		err = fmt.Errorf("AttendanceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CheckIn", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "check-in failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("record_id", record.ID).InfoContext(ctx, "checked in")
	}()

	now := s.now()
	record = persistence.AttendanceRecord{
		ID:        s.idGenerator(),
		UserID:    principal.UserID,
		Date:      now.UTC().Format("2006-01-02"),
		CheckIn:   now,
		Latitude:  latitude,
		Longitude: longitude,
		Address:   s.resolveAddress(ctx, logger, latitude, longitude),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err = mapRepoError("check in", s.attendance.CreateAttendance(ctx, record)); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			err = ErrConflict
		}
		record = persistence.AttendanceRecord{}
	}
	return
}

// CheckOut closes today's open record.
func (s *AttendanceService) CheckOut(ctx context.Context, principal Principal, latitude, longitude float64) (record persistence.AttendanceRecord, err error) {
	if s == nil {
		err = fmt.Errorf("AttendanceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CheckOut", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "check-out failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("record_id", record.ID).InfoContext(ctx, "checked out")
	}()

	now := s.now()
	record, err = s.attendance.GetOpenAttendance(ctx, principal.UserID, now.UTC().Format("2006-01-02"))
	if err != nil {
		err = mapRepoError("check out", err)
		record = persistence.AttendanceRecord{}
		return
	}

	checkOut := now
	record.CheckOut = &checkOut
	record.UpdatedAt = now
	if address := s.resolveAddress(ctx, logger, latitude, longitude); address != "" && record.Address == "" {
		record.Address = address
	}

	if err = mapRepoError("check out", s.attendance.UpdateAttendance(ctx, record)); err != nil {
		record = persistence.AttendanceRecord{}
	}
	return
}

// ListAttendance returns the principal's records; admins may list any user.
func (s *AttendanceService) ListAttendance(ctx context.Context, principal Principal, userID string) ([]persistence.AttendanceRecord, error) {
	if s == nil {
		return nil, fmt.Errorf("AttendanceService is nil")
	}
	if userID == "" {
		userID = principal.UserID
	}
	if !principal.IsAdmin && userID != principal.UserID {
		return nil, ErrUnauthorized
	}

	records, err := s.attendance.ListAttendance(ctx, userID)
	if err != nil {
		return nil, mapRepoError("list attendance", err)
	}
	return records, nil
}

func (s *AttendanceService) resolveAddress(ctx context.Context, logger *slog.Logger, latitude, longitude float64) string {
	if s.geocoder == nil {
		return ""
	}
	address, err := s.geocoder.ReverseGeocode(ctx, latitude, longitude)
	if err != nil {
		logger.WarnContext(ctx, "reverse geocode failed", "error", err)
		return ""
	}
	return address
}
