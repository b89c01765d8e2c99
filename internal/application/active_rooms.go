package application

import "sync"

// activeRoomRegistry tracks which chat room each user currently has open so
// message-derived notifications for that room can be suppressed instead of
// persisted unread.
type activeRoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]string
}

func newActiveRoomRegistry() *activeRoomRegistry {
	return &activeRoomRegistry{rooms: make(map[string]string)}
}

func (r *activeRoomRegistry) Set(userID, roomID string) {
	if r == nil || userID == "" {
		return
	}
	r.mu.Lock()
	if roomID == "" {
		delete(r.rooms, userID)
	} else {
		r.rooms[userID] = roomID
	}
	r.mu.Unlock()
}

func (r *activeRoomRegistry) Clear(userID string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	delete(r.rooms, userID)
	r.mu.Unlock()
}

func (r *activeRoomRegistry) Get(userID string) string {
	if r == nil {
		return ""
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[userID]
}
