package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/workdesk/internal/persistence"
	"github.com/example/workdesk/internal/testfixtures"
)

func TestWelfareService_BookSession(t *testing.T) {
	t.Parallel()

	newService := func(welfare *welfareRepositoryStub, events *eventRepositoryStub) *WelfareService {
		ids := testfixtures.NewIDGenerator("welfare")
		clock := testfixtures.NewClock(time.Time{})
		return NewWelfareService(welfare, events, ids.NextFunc(), clock.NowFunc(), nil)
	}

	t.Run("creates exactly one session and its calendar event", func(t *testing.T) {
		t.Parallel()

		welfare := newWelfareRepositoryStub()
		events := newEventRepositoryStub()
		svc := newService(welfare, events)

		session, err := svc.BookSession(context.Background(), Principal{UserID: "user-1"}, "2025-03-10", "18:00-19:00")
		if err != nil {
			t.Fatalf("BookSession failed: %v", err)
		}
		if len(welfare.sessions) != 1 {
			t.Fatalf("expected one session, got %d", len(welfare.sessions))
		}
		if session.EventID == nil {
			t.Fatal("expected the session to reference its calendar event")
		}
		event, ok := events.events[*session.EventID]
		if !ok {
			t.Fatalf("expected calendar event %q to exist", *session.EventID)
		}
		if event.Source != EventSourceWelfare {
			t.Fatalf("expected welfare source, got %q", event.Source)
		}
		wantStart := time.Date(2025, time.March, 10, 18, 0, 0, 0, time.UTC)
		wantEnd := time.Date(2025, time.March, 10, 19, 0, 0, 0, time.UTC)
		if !event.Start.Equal(wantStart) || !event.End.Equal(wantEnd) {
			t.Fatalf("event window mismatch: start=%v end=%v", event.Start, event.End)
		}
		if event.OwnerID != "user-1" {
			t.Fatalf("expected the booker to own the event, got %q", event.OwnerID)
		}
	})

	t.Run("rejects an occupied slot without creating anything", func(t *testing.T) {
		t.Parallel()

		welfare := newWelfareRepositoryStub()
		events := newEventRepositoryStub()
		svc := newService(welfare, events)

		if _, err := svc.BookSession(context.Background(), Principal{UserID: "user-1"}, "2025-03-10", "18:00-19:00"); err != nil {
			t.Fatalf("first booking failed: %v", err)
		}
		if _, err := svc.BookSession(context.Background(), Principal{UserID: "user-2"}, "2025-03-10", "18:00-19:00"); !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
		if len(welfare.sessions) != 1 {
			t.Fatalf("the rejected booking must not create a session, got %d", len(welfare.sessions))
		}
		if len(events.events) != 1 {
			t.Fatalf("the rejected booking must not create an event, got %d", len(events.events))
		}
	})

	t.Run("maps a repository uniqueness race to a conflict", func(t *testing.T) {
		t.Parallel()

		welfare := newWelfareRepositoryStub()
		welfare.createSessionErr = persistence.ErrDuplicate
		svc := newService(welfare, newEventRepositoryStub())

		if _, err := svc.BookSession(context.Background(), Principal{UserID: "user-1"}, "2025-03-10", "18:00-19:00"); !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("rejects malformed slots with a validation error", func(t *testing.T) {
		t.Parallel()

		svc := newService(newWelfareRepositoryStub(), newEventRepositoryStub())

		_, err := svc.BookSession(context.Background(), Principal{UserID: "user-1"}, "2025-03-10", "저녁")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected a validation error, got %v", err)
		}
	})

	t.Run("keeps the booking when the event write fails", func(t *testing.T) {
		t.Parallel()

		welfare := newWelfareRepositoryStub()
		events := newEventRepositoryStub()
		events.createErr = errors.New("calendar down")
		svc := newService(welfare, events)

		if _, err := svc.BookSession(context.Background(), Principal{UserID: "user-1"}, "2025-03-10", "18:00-19:00"); err != nil {
			t.Fatalf("booking must survive event failures, got %v", err)
		}
		if len(welfare.sessions) != 1 {
			t.Fatalf("expected the session to persist, got %d", len(welfare.sessions))
		}
	})
}

func TestWelfareService_CancelSession(t *testing.T) {
	t.Parallel()

	t.Run("removes the booking and its derived event", func(t *testing.T) {
		t.Parallel()

		welfare := newWelfareRepositoryStub()
		events := newEventRepositoryStub()
		svc := NewWelfareService(welfare, events, testfixtures.NewIDGenerator("welfare").NextFunc(), testfixtures.NewClock(time.Time{}).NowFunc(), nil)

		session, err := svc.BookSession(context.Background(), Principal{UserID: "user-1"}, "2025-03-10", "18:00-19:00")
		if err != nil {
			t.Fatalf("BookSession failed: %v", err)
		}

		if err := svc.CancelSession(context.Background(), Principal{UserID: "user-1"}, session.ID); err != nil {
			t.Fatalf("CancelSession failed: %v", err)
		}
		if len(welfare.sessions) != 0 {
			t.Fatalf("expected the session to be removed, got %d", len(welfare.sessions))
		}
		if len(events.deleted) != 1 || events.deleted[0] != *session.EventID {
			t.Fatalf("expected the derived event to be deleted, got %v", events.deleted)
		}
	})

	t.Run("only the booker or an admin may cancel", func(t *testing.T) {
		t.Parallel()

		welfare := newWelfareRepositoryStub()
		svc := NewWelfareService(welfare, newEventRepositoryStub(), testfixtures.NewIDGenerator("welfare").NextFunc(), testfixtures.NewClock(time.Time{}).NowFunc(), nil)

		session, err := svc.BookSession(context.Background(), Principal{UserID: "user-1"}, "2025-03-10", "18:00-19:00")
		if err != nil {
			t.Fatalf("BookSession failed: %v", err)
		}

		if err := svc.CancelSession(context.Background(), Principal{UserID: "user-2"}, session.ID); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if err := svc.CancelSession(context.Background(), Principal{UserID: "admin", IsAdmin: true}, session.ID); err != nil {
			t.Fatalf("admin cancel failed: %v", err)
		}
	})
}

func TestWelfareService_Lockers(t *testing.T) {
	t.Parallel()

	newService := func(welfare *welfareRepositoryStub) *WelfareService {
		return NewWelfareService(welfare, newEventRepositoryStub(), testfixtures.NewIDGenerator("locker").NextFunc(), testfixtures.NewClock(time.Time{}).NowFunc(), nil)
	}

	t.Run("creation is admin only", func(t *testing.T) {
		t.Parallel()

		svc := newService(newWelfareRepositoryStub())
		if _, err := svc.CreateLocker(context.Background(), Principal{UserID: "user-1"}, "A-01"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if _, err := svc.CreateLocker(context.Background(), Principal{UserID: "admin", IsAdmin: true}, "A-01"); err != nil {
			t.Fatalf("CreateLocker failed: %v", err)
		}
	})

	t.Run("an assigned locker cannot be assigned again", func(t *testing.T) {
		t.Parallel()

		welfare := newWelfareRepositoryStub()
		svc := newService(welfare)
		admin := Principal{UserID: "admin", IsAdmin: true}

		locker, err := svc.CreateLocker(context.Background(), admin, "A-01")
		if err != nil {
			t.Fatalf("CreateLocker failed: %v", err)
		}
		if _, err := svc.AssignLocker(context.Background(), admin, locker.ID, "user-1"); err != nil {
			t.Fatalf("AssignLocker failed: %v", err)
		}
		if _, err := svc.AssignLocker(context.Background(), admin, locker.ID, "user-2"); !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("release is restricted to the assignee or an admin", func(t *testing.T) {
		t.Parallel()

		welfare := newWelfareRepositoryStub()
		svc := newService(welfare)
		admin := Principal{UserID: "admin", IsAdmin: true}

		locker, err := svc.CreateLocker(context.Background(), admin, "A-01")
		if err != nil {
			t.Fatalf("CreateLocker failed: %v", err)
		}
		if _, err := svc.AssignLocker(context.Background(), admin, locker.ID, "user-1"); err != nil {
			t.Fatalf("AssignLocker failed: %v", err)
		}

		if _, err := svc.ReleaseLocker(context.Background(), Principal{UserID: "user-2"}, locker.ID); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		released, err := svc.ReleaseLocker(context.Background(), Principal{UserID: "user-1"}, locker.ID)
		if err != nil {
			t.Fatalf("ReleaseLocker failed: %v", err)
		}
		if released.AssigneeID != nil {
			t.Fatalf("expected the assignee to be cleared, got %v", *released.AssigneeID)
		}
	})
}
