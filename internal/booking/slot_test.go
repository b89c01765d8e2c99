package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/example/workdesk/internal/persistence"
)

func TestParseSlot(t *testing.T) {
	t.Parallel()

	t.Run("resolves label against date", func(t *testing.T) {
		window, err := ParseSlot("2025-03-03", "07:00-08:00")
		if err != nil {
			t.Fatalf("ParseSlot returned error: %v", err)
		}
		wantStart := time.Date(2025, time.March, 3, 7, 0, 0, 0, time.UTC)
		wantEnd := time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)
		if !window.Start.Equal(wantStart) {
			t.Fatalf("expected start %v, got %v", wantStart, window.Start)
		}
		if !window.End.Equal(wantEnd) {
			t.Fatalf("expected end %v, got %v", wantEnd, window.End)
		}
	})

	t.Run("rejects malformed labels", func(t *testing.T) {
		for _, slot := range []string{"", "morning", "25:00-26:00", "08:00-07:00", "07:00"} {
			if _, err := ParseSlot("2025-03-03", slot); !errors.Is(err, ErrInvalidSlot) {
				t.Fatalf("slot %q: expected ErrInvalidSlot, got %v", slot, err)
			}
		}
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		if _, err := ParseSlot("03/03/2025", "07:00-08:00"); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("expected ErrInvalidDate, got %v", err)
		}
	})
}

func TestSlotTaken(t *testing.T) {
	t.Parallel()

	sessions := []persistence.TrainingSession{
		{ID: "ts-1", UserID: "user-1", Date: "2025-03-03", Slot: "07:00-08:00"},
		{ID: "ts-2", UserID: "user-2", Date: "2025-03-03", Slot: "08:00-09:00"},
	}

	if !SlotTaken(sessions, "2025-03-03", "07:00-08:00") {
		t.Fatal("expected occupied slot to be reported taken")
	}
	if SlotTaken(sessions, "2025-03-03", "09:00-10:00") {
		t.Fatal("expected free slot to be reported free")
	}
	if SlotTaken(sessions, "2025-03-04", "07:00-08:00") {
		t.Fatal("expected other date to be reported free")
	}
}
