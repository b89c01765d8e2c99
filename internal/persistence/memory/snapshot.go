package memory

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/example/workdesk/internal/persistence"
)

// Snapshot is the fixed allow-list of collections persisted across process
// restarts in offline mode. Everything else lives only for the process
// lifetime.
type Snapshot struct {
	Todos            []persistence.PersonalTodo    `json:"todos"`
	Notifications    []persistence.Notification    `json:"notifications"`
	Events           []persistence.CalendarEvent   `json:"events"`
	Lockers          []persistence.Locker          `json:"lockers"`
	TrainingSessions []persistence.TrainingSession `json:"training_sessions"`
}

// SnapshotStore writes snapshots atomically to a single JSON file.
type SnapshotStore struct {
	mu   sync.Mutex
	path string
}

// NewSnapshotStore prepares the data directory and returns a store writing to
// workdesk.json inside it.
func NewSnapshotStore(dir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &SnapshotStore{path: filepath.Join(dir, "workdesk.json")}, nil
}

// Save writes the snapshot to a temporary file and renames it into place so a
// crash leaves either the old file or the new one, never a torn write.
func (s *SnapshotStore) Save(snap Snapshot) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the last written snapshot. The second return value reports
// whether a snapshot existed.
func (s *SnapshotStore) Load() (Snapshot, bool, error) {
	if s == nil {
		return Snapshot{}, false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// A corrupt snapshot is treated as absent rather than fatal.
		return Snapshot{}, false, nil
	}
	return snap, true, nil
}

// mergeByID combines persisted records with freshly seeded ones, preferring
// the persisted record when both carry the same identifier and never emitting
// the same identifier twice.
func mergeByID[T any](persisted, incoming []T, id func(T) string) []T {
	seen := make(map[string]struct{}, len(persisted))
	out := make([]T, 0, len(persisted)+len(incoming))
	for _, record := range persisted {
		key := id(record)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, record)
	}
	for _, record := range incoming {
		if _, ok := seen[id(record)]; ok {
			continue
		}
		seen[id(record)] = struct{}{}
		out = append(out, record)
	}
	return out
}
