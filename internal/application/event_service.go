package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/workdesk/internal/persistence"
)

// Calendar event sources.
const (
	EventSourceApp      = "app"
	EventSourceImported = "imported"
	EventSourceWelfare  = "welfare"
)

// EventService manages calendar events. Imported events arrive through
// ImportEvents with source=imported; welfare bookings create their own events
// through the welfare service.
type EventService struct {
	events      persistence.EventRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEventService constructs an EventService with the provided dependencies.
func NewEventService(events persistence.EventRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EventService{
		events:      events,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *EventService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EventService", operation, attrs...)
}

// CreateEvent creates an app-sourced event owned by the principal.
func (s *EventService) CreateEvent(ctx context.Context, principal Principal, input EventInput) (event persistence.CalendarEvent, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateEvent", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "event creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("event_id", event.ID).InfoContext(ctx, "event created")
	}()

	if err = validateEventInput(input); err != nil {
		return
	}

	now := s.now()
	event = persistence.CalendarEvent{
		ID:        s.idGenerator(),
		OwnerID:   principal.UserID,
		ProjectID: input.ProjectID,
		Title:     strings.TrimSpace(input.Title),
		Start:     input.Start,
		End:       input.End,
		Source:    EventSourceApp,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = mapRepoError("create event", s.events.CreateEvent(ctx, event)); err != nil {
		event = persistence.CalendarEvent{}
	}
	return
}

// UpdateEvent rewrites an event. Only the owner or an admin may update, and
// welfare-sourced events are managed by their booking.
func (s *EventService) UpdateEvent(ctx context.Context, principal Principal, eventID string, input EventInput) (event persistence.CalendarEvent, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}

	event, err = s.events.GetEvent(ctx, eventID)
	if err != nil {
		err = mapRepoError("update event", err)
		return
	}
	if !principal.IsAdmin && event.OwnerID != principal.UserID {
		err = ErrUnauthorized
		event = persistence.CalendarEvent{}
		return
	}
	if event.Source == EventSourceWelfare {
		err = ErrConflict
		event = persistence.CalendarEvent{}
		return
	}
	if err = validateEventInput(input); err != nil {
		event = persistence.CalendarEvent{}
		return
	}

	event.ProjectID = input.ProjectID
	event.Title = strings.TrimSpace(input.Title)
	event.Start = input.Start
	event.End = input.End
	event.UpdatedAt = s.now()

	if err = mapRepoError("update event", s.events.UpdateEvent(ctx, event)); err != nil {
		event = persistence.CalendarEvent{}
	}
	return
}

// ListEvents returns the principal's events within the optional window.
func (s *EventService) ListEvents(ctx context.Context, principal Principal, startsAfter, endsBefore *time.Time) ([]persistence.CalendarEvent, error) {
	if s == nil {
		return nil, fmt.Errorf("EventService is nil")
	}
	events, err := s.events.ListEvents(ctx, persistence.EventFilter{
		OwnerID:     principal.UserID,
		StartsAfter: startsAfter,
		EndsBefore:  endsBefore,
	})
	if err != nil {
		return nil, mapRepoError("list events", err)
	}
	return events, nil
}

// DeleteEvent removes an event owned by the principal.
func (s *EventService) DeleteEvent(ctx context.Context, principal Principal, eventID string) error {
	if s == nil {
		return fmt.Errorf("EventService is nil")
	}

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return mapRepoError("delete event", err)
	}
	if !principal.IsAdmin && event.OwnerID != principal.UserID {
		return ErrUnauthorized
	}
	return mapRepoError("delete event", s.events.DeleteEvent(ctx, eventID))
}

// ImportEvents records externally pushed calendar entries for the principal.
// Each record is stored with source=imported; failures are independent.
func (s *EventService) ImportEvents(ctx context.Context, principal Principal, inputs []EventInput) (imported []persistence.CalendarEvent, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ImportEvents", "principal_id", principal.UserID, "count", len(inputs))

	now := s.now()
	for _, input := range inputs {
		if vErr := validateEventInput(input); vErr != nil {
			err = vErr
			imported = nil
			return
		}
		event := persistence.CalendarEvent{
			ID:        s.idGenerator(),
			OwnerID:   principal.UserID,
			ProjectID: input.ProjectID,
			Title:     strings.TrimSpace(input.Title),
			Start:     input.Start,
			End:       input.End,
			Source:    EventSourceImported,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err = mapRepoError("import events", s.events.CreateEvent(ctx, event)); err != nil {
			logger.ErrorContext(ctx, "event import failed", "error", err, "error_kind", ErrorKind(err))
			imported = nil
			return
		}
		imported = append(imported, event)
	}
	logger.InfoContext(ctx, "events imported", "imported", len(imported))
	return
}

func validateEventInput(input EventInput) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "일정 제목을 입력해 주세요")
	}
	if input.Start.IsZero() || input.End.IsZero() {
		vErr.add("start", "일정 시간을 입력해 주세요")
	} else if !input.End.After(input.Start) {
		vErr.add("end", "종료 시각은 시작 시각 이후여야 합니다")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
