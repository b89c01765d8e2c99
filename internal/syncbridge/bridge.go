// Package syncbridge moves the portable subset of workdesk data between
// installations as an encrypted, compressed blob. Import merges with
// last-write-wins per record ID, so repeated imports are idempotent.
package syncbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/example/workdesk/internal/persistence"
)

// Payload is the portable subset of collections carried by a sync blob.
type Payload struct {
	ExportedAt       time.Time                     `json:"exported_at"`
	Todos            []persistence.PersonalTodo    `json:"todos"`
	Notifications    []persistence.Notification    `json:"notifications"`
	Events           []persistence.CalendarEvent   `json:"events"`
	Lockers          []persistence.Locker          `json:"lockers"`
	TrainingSessions []persistence.TrainingSession `json:"training_sessions"`
}

// ImportStats reports what an import did.
type ImportStats struct {
	Created int
	Updated int
	Skipped int
}

// Bridge exports and imports the portable collections through the repository
// interfaces, so it works identically in both storage modes.
type Bridge struct {
	todos         persistence.TodoRepository
	notifications persistence.NotificationRepository
	events        persistence.EventRepository
	welfare       persistence.WelfareRepository
	now           func() time.Time
	logger        *slog.Logger
}

// NewBridge constructs a Bridge with the provided dependencies.
func NewBridge(todos persistence.TodoRepository, notifications persistence.NotificationRepository, events persistence.EventRepository, welfare persistence.WelfareRepository, now func() time.Time, logger *slog.Logger) *Bridge {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		todos:         todos,
		notifications: notifications,
		events:        events,
		welfare:       welfare,
		now:           now,
		logger:        logger,
	}
}

// Export collects the portable collections and seals them into a blob.
func (b *Bridge) Export(ctx context.Context, passphrase string) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("Bridge is nil")
	}
	if passphrase == "" {
		return nil, fmt.Errorf("syncbridge: passphrase required")
	}

	payload, err := b.collect(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("syncbridge: encode payload: %w", err)
	}

	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("syncbridge: compress payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("syncbridge: compress payload: %w", err)
	}

	blob, err := seal(compressed.Bytes(), passphrase)
	if err != nil {
		return nil, fmt.Errorf("syncbridge: seal payload: %w", err)
	}

	b.logger.InfoContext(ctx, "sync export complete",
		"todos", len(payload.Todos),
		"notifications", len(payload.Notifications),
		"events", len(payload.Events),
		"lockers", len(payload.Lockers),
		"training_sessions", len(payload.TrainingSessions),
		"blob_bytes", len(blob),
	)
	return blob, nil
}

// Import opens a blob and merges its records into the store. For each record
// ID the newer UpdatedAt wins; identical or older records are skipped, and no
// ID is ever duplicated.
func (b *Bridge) Import(ctx context.Context, blob []byte, passphrase string) (ImportStats, error) {
	if b == nil {
		return ImportStats{}, fmt.Errorf("Bridge is nil")
	}
	if passphrase == "" {
		return ImportStats{}, fmt.Errorf("syncbridge: passphrase required")
	}

	compressed, err := open(blob, passphrase)
	if err != nil {
		return ImportStats{}, err
	}

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return ImportStats{}, fmt.Errorf("%w: not a sync blob", ErrBadPassphrase)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		return ImportStats{}, fmt.Errorf("syncbridge: decompress payload: %w", err)
	}
	if err := zr.Close(); err != nil {
		return ImportStats{}, fmt.Errorf("syncbridge: decompress payload: %w", err)
	}

	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ImportStats{}, fmt.Errorf("syncbridge: decode payload: %w", err)
	}

	stats := ImportStats{}
	if err := b.mergeTodos(ctx, payload.Todos, &stats); err != nil {
		return stats, err
	}
	if err := b.mergeNotifications(ctx, payload.Notifications, &stats); err != nil {
		return stats, err
	}
	if err := b.mergeEvents(ctx, payload.Events, &stats); err != nil {
		return stats, err
	}
	if err := b.mergeLockers(ctx, payload.Lockers, &stats); err != nil {
		return stats, err
	}
	if err := b.mergeTrainingSessions(ctx, payload.TrainingSessions, &stats); err != nil {
		return stats, err
	}

	b.logger.InfoContext(ctx, "sync import complete",
		"created", stats.Created,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
	)
	return stats, nil
}

func (b *Bridge) collect(ctx context.Context) (Payload, error) {
	payload := Payload{ExportedAt: b.now()}

	var err error
	if payload.Todos, err = b.todos.ListTodos(ctx, ""); err != nil {
		return Payload{}, fmt.Errorf("syncbridge: collect todos: %w", err)
	}
	if payload.Notifications, err = b.notifications.ListNotifications(ctx, ""); err != nil {
		return Payload{}, fmt.Errorf("syncbridge: collect notifications: %w", err)
	}
	if payload.Events, err = b.events.ListEvents(ctx, persistence.EventFilter{}); err != nil {
		return Payload{}, fmt.Errorf("syncbridge: collect events: %w", err)
	}
	if payload.Lockers, err = b.welfare.ListLockers(ctx); err != nil {
		return Payload{}, fmt.Errorf("syncbridge: collect lockers: %w", err)
	}
	if payload.TrainingSessions, err = b.welfare.ListTrainingSessions(ctx, ""); err != nil {
		return Payload{}, fmt.Errorf("syncbridge: collect training sessions: %w", err)
	}
	return payload, nil
}

func (b *Bridge) mergeTodos(ctx context.Context, incoming []persistence.PersonalTodo, stats *ImportStats) error {
	existing, err := b.todos.ListTodos(ctx, "")
	if err != nil {
		return fmt.Errorf("syncbridge: merge todos: %w", err)
	}
	byID := make(map[string]persistence.PersonalTodo, len(existing))
	for _, todo := range existing {
		byID[todo.ID] = todo
	}

	for _, todo := range incoming {
		current, ok := byID[todo.ID]
		switch {
		case !ok:
			if err := b.todos.CreateTodo(ctx, todo); err != nil {
				if errors.Is(err, persistence.ErrDuplicate) {
					stats.Skipped++
					continue
				}
				return fmt.Errorf("syncbridge: merge todos: %w", err)
			}
			stats.Created++
		case todo.UpdatedAt.After(current.UpdatedAt):
			if err := b.todos.UpdateTodo(ctx, todo); err != nil {
				return fmt.Errorf("syncbridge: merge todos: %w", err)
			}
			stats.Updated++
		default:
			stats.Skipped++
		}
	}
	return nil
}

func (b *Bridge) mergeNotifications(ctx context.Context, incoming []persistence.Notification, stats *ImportStats) error {
	existing, err := b.notifications.ListNotifications(ctx, "")
	if err != nil {
		return fmt.Errorf("syncbridge: merge notifications: %w", err)
	}
	byID := make(map[string]persistence.Notification, len(existing))
	for _, n := range existing {
		byID[n.ID] = n
	}

	for _, n := range incoming {
		current, ok := byID[n.ID]
		switch {
		case !ok:
			if err := b.notifications.CreateNotification(ctx, n); err != nil {
				if errors.Is(err, persistence.ErrDuplicate) {
					stats.Skipped++
					continue
				}
				return fmt.Errorf("syncbridge: merge notifications: %w", err)
			}
			stats.Created++
		case n.UpdatedAt.After(current.UpdatedAt):
			if err := b.notifications.UpdateNotification(ctx, n); err != nil {
				return fmt.Errorf("syncbridge: merge notifications: %w", err)
			}
			stats.Updated++
		default:
			stats.Skipped++
		}
	}
	return nil
}

func (b *Bridge) mergeEvents(ctx context.Context, incoming []persistence.CalendarEvent, stats *ImportStats) error {
	existing, err := b.events.ListEvents(ctx, persistence.EventFilter{})
	if err != nil {
		return fmt.Errorf("syncbridge: merge events: %w", err)
	}
	byID := make(map[string]persistence.CalendarEvent, len(existing))
	for _, event := range existing {
		byID[event.ID] = event
	}

	for _, event := range incoming {
		current, ok := byID[event.ID]
		switch {
		case !ok:
			if err := b.events.CreateEvent(ctx, event); err != nil {
				if errors.Is(err, persistence.ErrDuplicate) {
					stats.Skipped++
					continue
				}
				return fmt.Errorf("syncbridge: merge events: %w", err)
			}
			stats.Created++
		case event.UpdatedAt.After(current.UpdatedAt):
			if err := b.events.UpdateEvent(ctx, event); err != nil {
				return fmt.Errorf("syncbridge: merge events: %w", err)
			}
			stats.Updated++
		default:
			stats.Skipped++
		}
	}
	return nil
}

func (b *Bridge) mergeLockers(ctx context.Context, incoming []persistence.Locker, stats *ImportStats) error {
	existing, err := b.welfare.ListLockers(ctx)
	if err != nil {
		return fmt.Errorf("syncbridge: merge lockers: %w", err)
	}
	byID := make(map[string]persistence.Locker, len(existing))
	for _, locker := range existing {
		byID[locker.ID] = locker
	}

	for _, locker := range incoming {
		current, ok := byID[locker.ID]
		switch {
		case !ok:
			if err := b.welfare.CreateLocker(ctx, locker); err != nil {
				if errors.Is(err, persistence.ErrDuplicate) {
					stats.Skipped++
					continue
				}
				return fmt.Errorf("syncbridge: merge lockers: %w", err)
			}
			stats.Created++
		case locker.UpdatedAt.After(current.UpdatedAt):
			if err := b.welfare.UpdateLocker(ctx, locker); err != nil {
				return fmt.Errorf("syncbridge: merge lockers: %w", err)
			}
			stats.Updated++
		default:
			stats.Skipped++
		}
	}
	return nil
}

// Training sessions have no update operation; an occupied date+slot or known
// ID is simply kept as-is.
func (b *Bridge) mergeTrainingSessions(ctx context.Context, incoming []persistence.TrainingSession, stats *ImportStats) error {
	existing, err := b.welfare.ListTrainingSessions(ctx, "")
	if err != nil {
		return fmt.Errorf("syncbridge: merge training sessions: %w", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, session := range existing {
		known[session.ID] = struct{}{}
	}

	for _, session := range incoming {
		if _, ok := known[session.ID]; ok {
			stats.Skipped++
			continue
		}
		if err := b.welfare.CreateTrainingSession(ctx, session); err != nil {
			if errors.Is(err, persistence.ErrDuplicate) {
				stats.Skipped++
				continue
			}
			return fmt.Errorf("syncbridge: merge training sessions: %w", err)
		}
		stats.Created++
	}
	return nil
}
