package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/workdesk/internal/booking"
	"github.com/example/workdesk/internal/persistence"
)

// WelfareService manages training session bookings and locker assignments.
// Booking is the one operation with an in-flight duplicate-submit guard: a
// second identical request is rejected while the first is still running.
type WelfareService struct {
	welfare     persistence.WelfareRepository
	events      persistence.EventRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewWelfareService constructs a WelfareService with the provided dependencies.
func NewWelfareService(welfare persistence.WelfareRepository, events persistence.EventRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *WelfareService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &WelfareService{
		welfare:     welfare,
		events:      events,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
		inFlight:    make(map[string]struct{}),
	}
}

func (s *WelfareService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "WelfareService", operation, attrs...)
}

// BookSession books the date+slot for the principal. An occupied slot is a
// conflict and creates nothing; a successful booking creates exactly one
// session and one welfare-sourced calendar event.
func (s *WelfareService) BookSession(ctx context.Context, principal Principal, date, slot string) (session persistence.TrainingSession, err error) {
	if s == nil {
		err = fmt.Errorf("WelfareService is nil")
		return
	}

	logger := s.loggerWith(ctx, "BookSession", "principal_id", principal.UserID, "date", date, "slot", slot)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session booking failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("session_id", session.ID).InfoContext(ctx, "session booked")
	}()

	var window booking.SlotWindow
	window, err = booking.ParseSlot(date, slot)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("slot", "예약 시간이 올바르지 않습니다")
		err = vErr
		return
	}

	key := date + "|" + slot
	if !s.acquire(key) {
		err = ErrConflict
		return
	}
	defer s.release(key)

	var existing []persistence.TrainingSession
	existing, err = s.welfare.ListTrainingSessions(ctx, date)
	if err != nil {
		err = mapRepoError("book session", err)
		return
	}
	if booking.SlotTaken(existing, date, slot) {
		err = ErrConflict
		return
	}

	now := s.now()
	eventID := s.idGenerator()
	session = persistence.TrainingSession{
		ID:        s.idGenerator(),
		UserID:    principal.UserID,
		Date:      date,
		Slot:      slot,
		EventID:   &eventID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = mapRepoError("book session", s.welfare.CreateTrainingSession(ctx, session)); err != nil {
		// The repository's date+slot uniqueness rule caught a race the
		// pre-check missed; surface it as the same conflict.
		if errors.Is(err, ErrAlreadyExists) {
			err = ErrConflict
		}
		session = persistence.TrainingSession{}
		return
	}

	event := persistence.CalendarEvent{
		ID:        eventID,
		OwnerID:   principal.UserID,
		Title:     "피트니스 세션 " + slot,
		Start:     window.Start,
		End:       window.End,
		Source:    EventSourceWelfare,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if createErr := s.events.CreateEvent(ctx, event); createErr != nil {
		// Keep the booking authoritative; the calendar entry is derived.
		logger.ErrorContext(ctx, "welfare event creation failed", "error", createErr)
	}
	return
}

// CancelSession removes a booking and its derived calendar event.
func (s *WelfareService) CancelSession(ctx context.Context, principal Principal, sessionID string) error {
	if s == nil {
		return fmt.Errorf("WelfareService is nil")
	}

	sessions, err := s.welfare.ListTrainingSessions(ctx, "")
	if err != nil {
		return mapRepoError("cancel session", err)
	}
	for _, session := range sessions {
		if session.ID != sessionID {
			continue
		}
		if !principal.IsAdmin && session.UserID != principal.UserID {
			return ErrUnauthorized
		}
		if err := mapRepoError("cancel session", s.welfare.DeleteTrainingSession(ctx, sessionID)); err != nil {
			return err
		}
		if session.EventID != nil {
			if err := s.events.DeleteEvent(ctx, *session.EventID); err != nil {
				s.loggerWith(ctx, "CancelSession").ErrorContext(ctx, "welfare event deletion failed", "error", err)
			}
		}
		return nil
	}
	return ErrNotFound
}

// ListSessions returns bookings for a date, or all when date is empty.
func (s *WelfareService) ListSessions(ctx context.Context, principal Principal, date string) ([]persistence.TrainingSession, error) {
	if s == nil {
		return nil, fmt.Errorf("WelfareService is nil")
	}
	sessions, err := s.welfare.ListTrainingSessions(ctx, date)
	if err != nil {
		return nil, mapRepoError("list sessions", err)
	}
	return sessions, nil
}

// CreateLocker registers a locker. Admin only.
func (s *WelfareService) CreateLocker(ctx context.Context, principal Principal, label string) (persistence.Locker, error) {
	if s == nil {
		return persistence.Locker{}, fmt.Errorf("WelfareService is nil")
	}
	if !principal.IsAdmin {
		return persistence.Locker{}, ErrUnauthorized
	}
	if strings.TrimSpace(label) == "" {
		vErr := &ValidationError{}
		vErr.add("label", "사물함 번호를 입력해 주세요")
		return persistence.Locker{}, vErr
	}

	now := s.now()
	locker := persistence.Locker{
		ID:        s.idGenerator(),
		Label:     strings.TrimSpace(label),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := mapRepoError("create locker", s.welfare.CreateLocker(ctx, locker)); err != nil {
		return persistence.Locker{}, err
	}
	return locker, nil
}

// AssignLocker gives the locker to a user; an already assigned locker is a
// conflict.
func (s *WelfareService) AssignLocker(ctx context.Context, principal Principal, lockerID, userID string) (persistence.Locker, error) {
	if s == nil {
		return persistence.Locker{}, fmt.Errorf("WelfareService is nil")
	}

	locker, err := s.welfare.GetLocker(ctx, lockerID)
	if err != nil {
		return persistence.Locker{}, mapRepoError("assign locker", err)
	}
	if locker.AssigneeID != nil {
		return persistence.Locker{}, ErrConflict
	}

	locker.AssigneeID = &userID
	locker.UpdatedAt = s.now()
	if err := mapRepoError("assign locker", s.welfare.UpdateLocker(ctx, locker)); err != nil {
		return persistence.Locker{}, err
	}
	return locker, nil
}

// ReleaseLocker clears the locker's assignee. The assignee or an admin may
// release.
func (s *WelfareService) ReleaseLocker(ctx context.Context, principal Principal, lockerID string) (persistence.Locker, error) {
	if s == nil {
		return persistence.Locker{}, fmt.Errorf("WelfareService is nil")
	}

	locker, err := s.welfare.GetLocker(ctx, lockerID)
	if err != nil {
		return persistence.Locker{}, mapRepoError("release locker", err)
	}
	if locker.AssigneeID == nil {
		return locker, nil
	}
	if !principal.IsAdmin && *locker.AssigneeID != principal.UserID {
		return persistence.Locker{}, ErrUnauthorized
	}

	locker.AssigneeID = nil
	locker.UpdatedAt = s.now()
	if err := mapRepoError("release locker", s.welfare.UpdateLocker(ctx, locker)); err != nil {
		return persistence.Locker{}, err
	}
	return locker, nil
}

// ListLockers returns all lockers.
func (s *WelfareService) ListLockers(ctx context.Context, principal Principal) ([]persistence.Locker, error) {
	if s == nil {
		return nil, fmt.Errorf("WelfareService is nil")
	}
	lockers, err := s.welfare.ListLockers(ctx)
	if err != nil {
		return nil, mapRepoError("list lockers", err)
	}
	return lockers, nil
}

func (s *WelfareService) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inFlight[key]; ok {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

func (s *WelfareService) release(key string) {
	s.mu.Lock()
	delete(s.inFlight, key)
	s.mu.Unlock()
}
