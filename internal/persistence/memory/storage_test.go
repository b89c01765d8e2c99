package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/workdesk/internal/persistence"
	"github.com/example/workdesk/internal/testfixtures"
)

func TestStorage_SnapshotRestoreAndSeedMerge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ref := testfixtures.ReferenceTime()
	dir := t.TempDir()

	store, err := Open(dir, Snapshot{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.CreateTodo(ctx, persistence.PersonalTodo{ID: "todo-1", OwnerID: "user-1", Title: "스냅샷 전", CreatedAt: ref, UpdatedAt: ref}); err != nil {
		t.Fatalf("CreateTodo failed: %v", err)
	}
	if err := store.CreateLocker(ctx, persistence.Locker{ID: "locker-1", Label: "A-01", CreatedAt: ref, UpdatedAt: ref}); err != nil {
		t.Fatalf("CreateLocker failed: %v", err)
	}
	// Sessions are not on the snapshot allow-list and must not survive.
	if _, err := store.CreateSession(ctx, persistence.Session{ID: "s-1", UserID: "user-1", Token: "tok", ExpiresAt: ref.Add(time.Hour)}); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	seed := Snapshot{
		Todos: []persistence.PersonalTodo{
			{ID: "todo-1", OwnerID: "user-1", Title: "시드가 덮으면 안 됨", CreatedAt: ref, UpdatedAt: ref},
			{ID: "todo-2", OwnerID: "user-1", Title: "시드 전용", CreatedAt: ref, UpdatedAt: ref},
		},
	}
	restored, err := Open(dir, seed)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer restored.Close()

	todos, err := restored.ListTodos(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListTodos failed: %v", err)
	}
	if len(todos) != 2 {
		t.Fatalf("expected the snapshot and seed to merge into two todos, got %d", len(todos))
	}
	byID := map[string]persistence.PersonalTodo{}
	for _, todo := range todos {
		byID[todo.ID] = todo
	}
	if byID["todo-1"].Title != "스냅샷 전" {
		t.Fatalf("snapshot record must win over the seed, got %q", byID["todo-1"].Title)
	}
	if byID["todo-2"].Title != "시드 전용" {
		t.Fatalf("seed-only record must be added, got %q", byID["todo-2"].Title)
	}

	lockers, err := restored.ListLockers(ctx)
	if err != nil {
		t.Fatalf("ListLockers failed: %v", err)
	}
	if len(lockers) != 1 || lockers[0].ID != "locker-1" {
		t.Fatalf("expected the locker to survive the restart, got %+v", lockers)
	}

	if _, err := restored.GetSession(ctx, "tok"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("sessions must not survive a restart, got %v", err)
	}
}

func TestStorage_TrainingSessionSlotUniqueness(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ref := testfixtures.ReferenceTime()
	store, err := Open("", Snapshot{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	first := persistence.TrainingSession{ID: "ts-1", UserID: "user-1", Date: "2025-03-10", Slot: "18:00-19:00", CreatedAt: ref, UpdatedAt: ref}
	if err := store.CreateTrainingSession(ctx, first); err != nil {
		t.Fatalf("CreateTrainingSession failed: %v", err)
	}
	second := persistence.TrainingSession{ID: "ts-2", UserID: "user-2", Date: "2025-03-10", Slot: "18:00-19:00", CreatedAt: ref, UpdatedAt: ref}
	if err := store.CreateTrainingSession(ctx, second); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for an occupied slot, got %v", err)
	}
	other := persistence.TrainingSession{ID: "ts-3", UserID: "user-2", Date: "2025-03-10", Slot: "19:00-20:00", CreatedAt: ref, UpdatedAt: ref}
	if err := store.CreateTrainingSession(ctx, other); err != nil {
		t.Fatalf("a different slot must be bookable, got %v", err)
	}
}

func TestStorage_UserEmailUniqueness(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := Open("", Snapshot{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := store.CreateUser(ctx, persistence.User{ID: "user-1", Email: "dup@example.com"}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := store.CreateUser(ctx, persistence.User{ID: "user-2", Email: "dup@example.com"}); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for a reused email, got %v", err)
	}
	// Updating an unrelated user to the taken email must also fail.
	if err := store.CreateUser(ctx, persistence.User{ID: "user-3", Email: "other@example.com"}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := store.UpdateUser(ctx, persistence.User{ID: "user-3", Email: "dup@example.com"}); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on update, got %v", err)
	}
}

func TestStorage_ClonesOnReadAndWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ref := testfixtures.ReferenceTime()
	store, err := Open("", Snapshot{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	room := persistence.ChatRoom{ID: "room-1", Name: "일반", MemberIDs: []string{"alice", "bob"}, CreatedAt: ref, UpdatedAt: ref}
	if err := store.CreateRoom(ctx, room); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	// Mutating the caller's slice after the write must not leak into the store.
	room.MemberIDs[0] = "mallory"
	stored, err := store.GetRoom(ctx, "room-1")
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if stored.MemberIDs[0] != "alice" {
		t.Fatalf("store must hold its own copy, got %v", stored.MemberIDs)
	}

	// Mutating a read result must not change the stored record either.
	stored.MemberIDs[1] = "eve"
	again, err := store.GetRoom(ctx, "room-1")
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if again.MemberIDs[1] != "bob" {
		t.Fatalf("reads must return copies, got %v", again.MemberIDs)
	}
}
