package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/workdesk/internal/persistence"
)

// Storage is the offline-mode persistence layer: every collection lives in
// process memory behind a single RWMutex, and the allow-listed collections are
// snapshotted to disk in the background after each mutation.
type Storage struct {
	mu            sync.RWMutex
	users         map[string]persistence.User
	sessions      map[string]persistence.Session
	projects      map[string]persistence.Project
	events        map[string]persistence.CalendarEvent
	rooms         map[string]persistence.ChatRoom
	messages      map[string]persistence.ChatMessage
	notifications map[string]persistence.Notification
	todos         map[string]persistence.PersonalTodo
	boardGroups   map[string]persistence.BoardGroup
	boardTasks    map[string]persistence.BoardTask
	expenses      map[string]persistence.ExpenseItem
	requests      map[string]persistence.ApprovalRequest
	lockers       map[string]persistence.Locker
	trainings     map[string]persistence.TrainingSession
	attendance    map[string]persistence.AttendanceRecord

	snapshots *SnapshotStore
	wg        sync.WaitGroup
}

// Open builds a Storage, restoring the snapshot found in dir (when dir is
// non-empty) and merging it with the supplied seed data. Snapshot records win
// over seed records with the same identifier.
func Open(dir string, seed Snapshot) (*Storage, error) {
	s := &Storage{
		users:         make(map[string]persistence.User),
		sessions:      make(map[string]persistence.Session),
		projects:      make(map[string]persistence.Project),
		events:        make(map[string]persistence.CalendarEvent),
		rooms:         make(map[string]persistence.ChatRoom),
		messages:      make(map[string]persistence.ChatMessage),
		notifications: make(map[string]persistence.Notification),
		todos:         make(map[string]persistence.PersonalTodo),
		boardGroups:   make(map[string]persistence.BoardGroup),
		boardTasks:    make(map[string]persistence.BoardTask),
		expenses:      make(map[string]persistence.ExpenseItem),
		requests:      make(map[string]persistence.ApprovalRequest),
		lockers:       make(map[string]persistence.Locker),
		trainings:     make(map[string]persistence.TrainingSession),
		attendance:    make(map[string]persistence.AttendanceRecord),
	}

	persisted := Snapshot{}
	if dir != "" {
		store, err := NewSnapshotStore(dir)
		if err != nil {
			return nil, err
		}
		s.snapshots = store
		if snap, ok, err := store.Load(); err != nil {
			return nil, err
		} else if ok {
			persisted = snap
		}
	}

	for _, todo := range mergeByID(persisted.Todos, seed.Todos, func(t persistence.PersonalTodo) string { return t.ID }) {
		s.todos[todo.ID] = cloneTodo(todo)
	}
	for _, n := range mergeByID(persisted.Notifications, seed.Notifications, func(n persistence.Notification) string { return n.ID }) {
		s.notifications[n.ID] = cloneNotification(n)
	}
	for _, event := range mergeByID(persisted.Events, seed.Events, func(e persistence.CalendarEvent) string { return e.ID }) {
		s.events[event.ID] = cloneEvent(event)
	}
	for _, locker := range mergeByID(persisted.Lockers, seed.Lockers, func(l persistence.Locker) string { return l.ID }) {
		s.lockers[locker.ID] = cloneLocker(locker)
	}
	for _, session := range mergeByID(persisted.TrainingSessions, seed.TrainingSessions, func(t persistence.TrainingSession) string { return t.ID }) {
		s.trainings[session.ID] = cloneTraining(session)
	}

	return s, nil
}

// Close flushes a final snapshot after waiting for background saves.
func (s *Storage) Close() error {
	s.wg.Wait()
	if s.snapshots == nil {
		return nil
	}
	s.mu.RLock()
	snap := s.snapshotLocked()
	s.mu.RUnlock()
	return s.snapshots.Save(snap)
}

// Wait blocks until all background snapshot writes have finished.
func (s *Storage) Wait() {
	s.wg.Wait()
}

// Migrate initialises the storage. No-op for the in-memory implementation.
func (s *Storage) Migrate(context.Context) error {
	return nil
}

// snapshotLocked copies the allow-listed collections. Callers must hold mu.
func (s *Storage) snapshotLocked() Snapshot {
	snap := Snapshot{}
	for _, todo := range s.todos {
		snap.Todos = append(snap.Todos, cloneTodo(todo))
	}
	for _, n := range s.notifications {
		snap.Notifications = append(snap.Notifications, cloneNotification(n))
	}
	for _, event := range s.events {
		snap.Events = append(snap.Events, cloneEvent(event))
	}
	for _, locker := range s.lockers {
		snap.Lockers = append(snap.Lockers, cloneLocker(locker))
	}
	for _, session := range s.trainings {
		snap.TrainingSessions = append(snap.TrainingSessions, cloneTraining(session))
	}
	sort.Slice(snap.Todos, func(i, j int) bool { return snap.Todos[i].ID < snap.Todos[j].ID })
	sort.Slice(snap.Notifications, func(i, j int) bool { return snap.Notifications[i].ID < snap.Notifications[j].ID })
	sort.Slice(snap.Events, func(i, j int) bool { return snap.Events[i].ID < snap.Events[j].ID })
	sort.Slice(snap.Lockers, func(i, j int) bool { return snap.Lockers[i].ID < snap.Lockers[j].ID })
	sort.Slice(snap.TrainingSessions, func(i, j int) bool { return snap.TrainingSessions[i].ID < snap.TrainingSessions[j].ID })
	return snap
}

// persistLocked schedules a background snapshot write. Callers must hold mu.
func (s *Storage) persistLocked() {
	if s.snapshots == nil {
		return
	}
	snap := s.snapshotLocked()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// Best effort; offline mode promises no durability beyond this.
		_ = s.snapshots.Save(snap)
	}()
}

// --- UserRepository ---

func (s *Storage) CreateUser(ctx context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return persistence.ErrDuplicate
	}
	if err := s.ensureUniqueEmailLocked(user.ID, user.Email); err != nil {
		return err
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *Storage) UpdateUser(ctx context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return persistence.ErrNotFound
	}
	if err := s.ensureUniqueEmailLocked(user.ID, user.Email); err != nil {
		return err
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return cloneUser(user), nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(email)
	for _, user := range s.users {
		if strings.ToLower(user.Email) == lower {
			return cloneUser(user), nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (s *Storage) ListUsers(ctx context.Context) ([]persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]persistence.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, cloneUser(user))
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.users, id)

	for projectID, project := range s.projects {
		trimmed := removeString(project.MemberIDs, id)
		if len(trimmed) != len(project.MemberIDs) {
			project.MemberIDs = trimmed
			s.projects[projectID] = project
		}
	}
	return nil
}

func (s *Storage) ensureUniqueEmailLocked(id, email string) error {
	lower := strings.ToLower(email)
	for existingID, user := range s.users {
		if existingID == id {
			continue
		}
		if strings.ToLower(user.Email) == lower {
			return persistence.ErrDuplicate
		}
	}
	return nil
}

// --- SessionRepository ---

func (s *Storage) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.Token]; ok {
		return persistence.Session{}, persistence.ErrDuplicate
	}
	if _, ok := s.users[session.UserID]; !ok {
		return persistence.Session{}, persistence.ErrForeignKeyViolation
	}
	s.sessions[session.Token] = cloneSession(session)
	return cloneSession(session), nil
}

func (s *Storage) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return cloneSession(session), nil
}

func (s *Storage) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, existing := range s.sessions {
		if existing.ID == session.ID {
			delete(s.sessions, token)
			s.sessions[session.Token] = cloneSession(session)
			return cloneSession(session), nil
		}
	}
	return persistence.Session{}, persistence.ErrNotFound
}

func (s *Storage) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	session.UpdatedAt = revokedAt
	s.sessions[token] = cloneSession(session)
	return cloneSession(session), nil
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if !session.ExpiresAt.After(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

// --- ProjectRepository ---

func (s *Storage) CreateProject(ctx context.Context, project persistence.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[project.ID]; ok {
		return persistence.ErrDuplicate
	}
	project.MemberIDs = uniqueStrings(project.MemberIDs)
	s.projects[project.ID] = cloneProject(project)
	return nil
}

func (s *Storage) UpdateProject(ctx context.Context, project persistence.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.projects[project.ID]
	if !ok || existing.Archived {
		return persistence.ErrNotFound
	}
	project.MemberIDs = uniqueStrings(project.MemberIDs)
	project.CreatedAt = existing.CreatedAt
	s.projects[project.ID] = cloneProject(project)
	return nil
}

func (s *Storage) GetProject(ctx context.Context, id string) (persistence.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.projects[id]
	if !ok || project.Archived {
		return persistence.Project{}, persistence.ErrNotFound
	}
	return cloneProject(project), nil
}

func (s *Storage) ListProjects(ctx context.Context) ([]persistence.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]persistence.Project, 0, len(s.projects))
	for _, project := range s.projects {
		if project.Archived {
			continue
		}
		projects = append(projects, cloneProject(project))
	}
	sort.Slice(projects, func(i, j int) bool {
		if projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].ID < projects[j].ID
		}
		return projects[i].CreatedAt.Before(projects[j].CreatedAt)
	})
	return projects, nil
}

// DeleteProject soft-deletes: offline mode never hard-deletes projects, it
// filters them out of reads.
func (s *Storage) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, ok := s.projects[id]
	if !ok || project.Archived {
		return persistence.ErrNotFound
	}
	project.Archived = true
	s.projects[id] = project
	return nil
}

// --- EventRepository ---

func (s *Storage) CreateEvent(ctx context.Context, event persistence.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[event.ID]; ok {
		return persistence.ErrDuplicate
	}
	s.events[event.ID] = cloneEvent(event)
	s.persistLocked()
	return nil
}

func (s *Storage) UpdateEvent(ctx context.Context, event persistence.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.events[event.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	event.CreatedAt = existing.CreatedAt
	s.events[event.ID] = cloneEvent(event)
	s.persistLocked()
	return nil
}

func (s *Storage) GetEvent(ctx context.Context, id string) (persistence.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[id]
	if !ok {
		return persistence.CalendarEvent{}, persistence.ErrNotFound
	}
	return cloneEvent(event), nil
}

func (s *Storage) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]persistence.CalendarEvent, 0)
	for _, event := range s.events {
		if !matchesEventFilter(event, filter) {
			continue
		}
		events = append(events, cloneEvent(event))
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			return events[i].ID < events[j].ID
		}
		return events[i].Start.Before(events[j].Start)
	})
	return events, nil
}

func (s *Storage) DeleteEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.events, id)
	s.persistLocked()
	return nil
}

func matchesEventFilter(event persistence.CalendarEvent, filter persistence.EventFilter) bool {
	if filter.OwnerID != "" && event.OwnerID != filter.OwnerID {
		return false
	}
	if filter.ProjectID != nil {
		if event.ProjectID == nil || *event.ProjectID != *filter.ProjectID {
			return false
		}
	}
	if filter.Source != "" && event.Source != filter.Source {
		return false
	}
	if filter.StartsAfter != nil && !event.End.After(*filter.StartsAfter) {
		return false
	}
	if filter.EndsBefore != nil && !event.Start.Before(*filter.EndsBefore) {
		return false
	}
	return true
}

// --- ChatRepository ---

func (s *Storage) CreateRoom(ctx context.Context, room persistence.ChatRoom) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[room.ID]; ok {
		return persistence.ErrDuplicate
	}
	room.MemberIDs = uniqueStrings(room.MemberIDs)
	s.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id string) (persistence.ChatRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return persistence.ChatRoom{}, persistence.ErrNotFound
	}
	return cloneRoom(room), nil
}

func (s *Storage) ListRooms(ctx context.Context, memberID string) ([]persistence.ChatRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]persistence.ChatRoom, 0)
	for _, room := range s.rooms {
		if memberID != "" && !containsString(room.MemberIDs, memberID) {
			continue
		}
		rooms = append(rooms, cloneRoom(room))
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.rooms, id)
	for messageID, message := range s.messages {
		if message.RoomID == id {
			delete(s.messages, messageID)
		}
	}
	return nil
}

func (s *Storage) AppendMessage(ctx context.Context, message persistence.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[message.ID]; ok {
		return persistence.ErrDuplicate
	}
	if _, ok := s.rooms[message.RoomID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	s.messages[message.ID] = cloneMessage(message)
	return nil
}

func (s *Storage) GetMessage(ctx context.Context, id string) (persistence.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	message, ok := s.messages[id]
	if !ok {
		return persistence.ChatMessage{}, persistence.ErrNotFound
	}
	return cloneMessage(message), nil
}

func (s *Storage) ListMessages(ctx context.Context, roomID string) ([]persistence.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]persistence.ChatMessage, 0)
	for _, message := range s.messages {
		if message.RoomID != roomID {
			continue
		}
		messages = append(messages, cloneMessage(message))
	}
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

func (s *Storage) DeleteMessage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.messages, id)
	return nil
}

// --- NotificationRepository ---

func (s *Storage) CreateNotification(ctx context.Context, notification persistence.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notifications[notification.ID]; ok {
		return persistence.ErrDuplicate
	}
	s.notifications[notification.ID] = cloneNotification(notification)
	s.persistLocked()
	return nil
}

func (s *Storage) UpdateNotification(ctx context.Context, notification persistence.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.notifications[notification.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	notification.CreatedAt = existing.CreatedAt
	s.notifications[notification.ID] = cloneNotification(notification)
	s.persistLocked()
	return nil
}

func (s *Storage) ListNotifications(ctx context.Context, recipientID string) ([]persistence.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notifications := make([]persistence.Notification, 0)
	for _, notification := range s.notifications {
		if recipientID != "" && notification.RecipientID != recipientID {
			continue
		}
		notifications = append(notifications, cloneNotification(notification))
	}
	sort.Slice(notifications, func(i, j int) bool {
		if notifications[i].CreatedAt.Equal(notifications[j].CreatedAt) {
			return notifications[i].ID < notifications[j].ID
		}
		return notifications[i].CreatedAt.Before(notifications[j].CreatedAt)
	})
	return notifications, nil
}

func (s *Storage) DeleteNotification(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notifications[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.notifications, id)
	s.persistLocked()
	return nil
}

// --- TodoRepository ---

func (s *Storage) CreateTodo(ctx context.Context, todo persistence.PersonalTodo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.todos[todo.ID]; ok {
		return persistence.ErrDuplicate
	}
	s.todos[todo.ID] = cloneTodo(todo)
	s.persistLocked()
	return nil
}

func (s *Storage) UpdateTodo(ctx context.Context, todo persistence.PersonalTodo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.todos[todo.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	todo.CreatedAt = existing.CreatedAt
	s.todos[todo.ID] = cloneTodo(todo)
	s.persistLocked()
	return nil
}

func (s *Storage) GetTodo(ctx context.Context, id string) (persistence.PersonalTodo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	todo, ok := s.todos[id]
	if !ok {
		return persistence.PersonalTodo{}, persistence.ErrNotFound
	}
	return cloneTodo(todo), nil
}

func (s *Storage) ListTodos(ctx context.Context, ownerID string) ([]persistence.PersonalTodo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	todos := make([]persistence.PersonalTodo, 0)
	for _, todo := range s.todos {
		if ownerID != "" && todo.OwnerID != ownerID {
			continue
		}
		todos = append(todos, cloneTodo(todo))
	}
	sort.Slice(todos, func(i, j int) bool {
		if todos[i].CreatedAt.Equal(todos[j].CreatedAt) {
			return todos[i].ID < todos[j].ID
		}
		return todos[i].CreatedAt.Before(todos[j].CreatedAt)
	})
	return todos, nil
}

func (s *Storage) DeleteTodo(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.todos[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.todos, id)
	s.persistLocked()
	return nil
}

// --- BoardRepository ---

func (s *Storage) CreateGroup(ctx context.Context, group persistence.BoardGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.boardGroups[group.ID]; ok {
		return persistence.ErrDuplicate
	}
	s.boardGroups[group.ID] = cloneBoardGroup(group)
	return nil
}

func (s *Storage) UpdateGroup(ctx context.Context, group persistence.BoardGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.boardGroups[group.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	group.CreatedAt = existing.CreatedAt
	s.boardGroups[group.ID] = cloneBoardGroup(group)
	return nil
}

func (s *Storage) ListGroups(ctx context.Context, projectID string) ([]persistence.BoardGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]persistence.BoardGroup, 0)
	for _, group := range s.boardGroups {
		if projectID != "" && group.ProjectID != projectID {
			continue
		}
		groups = append(groups, cloneBoardGroup(group))
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Position == groups[j].Position {
			return groups[i].ID < groups[j].ID
		}
		return groups[i].Position < groups[j].Position
	})
	return groups, nil
}

func (s *Storage) DeleteGroup(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.boardGroups[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.boardGroups, id)
	for taskID, task := range s.boardTasks {
		if task.GroupID == id {
			delete(s.boardTasks, taskID)
		}
	}
	return nil
}

func (s *Storage) CreateTask(ctx context.Context, task persistence.BoardTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.boardTasks[task.ID]; ok {
		return persistence.ErrDuplicate
	}
	if _, ok := s.boardGroups[task.GroupID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	s.boardTasks[task.ID] = cloneBoardTask(task)
	return nil
}

func (s *Storage) UpdateTask(ctx context.Context, task persistence.BoardTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.boardTasks[task.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	task.CreatedAt = existing.CreatedAt
	s.boardTasks[task.ID] = cloneBoardTask(task)
	return nil
}

func (s *Storage) GetTask(ctx context.Context, id string) (persistence.BoardTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.boardTasks[id]
	if !ok {
		return persistence.BoardTask{}, persistence.ErrNotFound
	}
	return cloneBoardTask(task), nil
}

func (s *Storage) ListTasks(ctx context.Context, projectID string) ([]persistence.BoardTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]persistence.BoardTask, 0)
	for _, task := range s.boardTasks {
		if projectID != "" && task.ProjectID != projectID {
			continue
		}
		tasks = append(tasks, cloneBoardTask(task))
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (s *Storage) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.boardTasks[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.boardTasks, id)
	return nil
}

// --- ApprovalRepository ---

func (s *Storage) CreateExpense(ctx context.Context, expense persistence.ExpenseItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[expense.ID]; ok {
		return persistence.ErrDuplicate
	}
	s.expenses[expense.ID] = cloneExpense(expense)
	return nil
}

func (s *Storage) GetExpense(ctx context.Context, id string) (persistence.ExpenseItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expense, ok := s.expenses[id]
	if !ok {
		return persistence.ExpenseItem{}, persistence.ErrNotFound
	}
	return cloneExpense(expense), nil
}

func (s *Storage) ListExpenses(ctx context.Context, applicantID string) ([]persistence.ExpenseItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := make([]persistence.ExpenseItem, 0)
	for _, expense := range s.expenses {
		if applicantID != "" && expense.ApplicantID != applicantID {
			continue
		}
		expenses = append(expenses, cloneExpense(expense))
	}
	sort.Slice(expenses, func(i, j int) bool {
		if expenses[i].CreatedAt.Equal(expenses[j].CreatedAt) {
			return expenses[i].ID < expenses[j].ID
		}
		return expenses[i].CreatedAt.Before(expenses[j].CreatedAt)
	})
	return expenses, nil
}

func (s *Storage) CreateRequest(ctx context.Context, request persistence.ApprovalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[request.ID]; ok {
		return persistence.ErrDuplicate
	}
	if _, ok := s.expenses[request.ExpenseID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	s.requests[request.ID] = cloneRequest(request)
	return nil
}

func (s *Storage) UpdateRequest(ctx context.Context, request persistence.ApprovalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.requests[request.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	request.CreatedAt = existing.CreatedAt
	s.requests[request.ID] = cloneRequest(request)
	return nil
}

func (s *Storage) GetRequest(ctx context.Context, id string) (persistence.ApprovalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	request, ok := s.requests[id]
	if !ok {
		return persistence.ApprovalRequest{}, persistence.ErrNotFound
	}
	return cloneRequest(request), nil
}

func (s *Storage) ListRequests(ctx context.Context, applicantID string) ([]persistence.ApprovalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	requests := make([]persistence.ApprovalRequest, 0)
	for _, request := range s.requests {
		if applicantID != "" && request.ApplicantID != applicantID {
			continue
		}
		requests = append(requests, cloneRequest(request))
	}
	sort.Slice(requests, func(i, j int) bool {
		if requests[i].CreatedAt.Equal(requests[j].CreatedAt) {
			return requests[i].ID < requests[j].ID
		}
		return requests[i].CreatedAt.Before(requests[j].CreatedAt)
	})
	return requests, nil
}

// --- WelfareRepository ---

func (s *Storage) CreateLocker(ctx context.Context, locker persistence.Locker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lockers[locker.ID]; ok {
		return persistence.ErrDuplicate
	}
	s.lockers[locker.ID] = cloneLocker(locker)
	s.persistLocked()
	return nil
}

func (s *Storage) UpdateLocker(ctx context.Context, locker persistence.Locker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.lockers[locker.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	locker.CreatedAt = existing.CreatedAt
	s.lockers[locker.ID] = cloneLocker(locker)
	s.persistLocked()
	return nil
}

func (s *Storage) GetLocker(ctx context.Context, id string) (persistence.Locker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	locker, ok := s.lockers[id]
	if !ok {
		return persistence.Locker{}, persistence.ErrNotFound
	}
	return cloneLocker(locker), nil
}

func (s *Storage) ListLockers(ctx context.Context) ([]persistence.Locker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lockers := make([]persistence.Locker, 0, len(s.lockers))
	for _, locker := range s.lockers {
		lockers = append(lockers, cloneLocker(locker))
	}
	sort.Slice(lockers, func(i, j int) bool {
		if lockers[i].Label == lockers[j].Label {
			return lockers[i].ID < lockers[j].ID
		}
		return lockers[i].Label < lockers[j].Label
	})
	return lockers, nil
}

// CreateTrainingSession enforces the one-session-per-date+slot rule at the
// storage layer, mirroring the unique index of the SQLite implementation.
func (s *Storage) CreateTrainingSession(ctx context.Context, session persistence.TrainingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trainings[session.ID]; ok {
		return persistence.ErrDuplicate
	}
	for _, existing := range s.trainings {
		if existing.Date == session.Date && existing.Slot == session.Slot {
			return persistence.ErrDuplicate
		}
	}
	s.trainings[session.ID] = cloneTraining(session)
	s.persistLocked()
	return nil
}

func (s *Storage) ListTrainingSessions(ctx context.Context, date string) ([]persistence.TrainingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]persistence.TrainingSession, 0)
	for _, session := range s.trainings {
		if date != "" && session.Date != date {
			continue
		}
		sessions = append(sessions, cloneTraining(session))
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].Date == sessions[j].Date {
			if sessions[i].Slot == sessions[j].Slot {
				return sessions[i].ID < sessions[j].ID
			}
			return sessions[i].Slot < sessions[j].Slot
		}
		return sessions[i].Date < sessions[j].Date
	})
	return sessions, nil
}

func (s *Storage) DeleteTrainingSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trainings[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.trainings, id)
	s.persistLocked()
	return nil
}

// --- AttendanceRepository ---

func (s *Storage) CreateAttendance(ctx context.Context, record persistence.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.attendance[record.ID]; ok {
		return persistence.ErrDuplicate
	}
	for _, existing := range s.attendance {
		if existing.UserID == record.UserID && existing.Date == record.Date && existing.CheckOut == nil {
			return persistence.ErrDuplicate
		}
	}
	s.attendance[record.ID] = cloneAttendance(record)
	return nil
}

func (s *Storage) UpdateAttendance(ctx context.Context, record persistence.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.attendance[record.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	record.CreatedAt = existing.CreatedAt
	s.attendance[record.ID] = cloneAttendance(record)
	return nil
}

func (s *Storage) GetOpenAttendance(ctx context.Context, userID, date string) (persistence.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.attendance {
		if record.UserID == userID && record.Date == date && record.CheckOut == nil {
			return cloneAttendance(record), nil
		}
	}
	return persistence.AttendanceRecord{}, persistence.ErrNotFound
}

func (s *Storage) ListAttendance(ctx context.Context, userID string) ([]persistence.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]persistence.AttendanceRecord, 0)
	for _, record := range s.attendance {
		if userID != "" && record.UserID != userID {
			continue
		}
		records = append(records, cloneAttendance(record))
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CheckIn.Equal(records[j].CheckIn) {
			return records[i].ID < records[j].ID
		}
		return records[i].CheckIn.Before(records[j].CheckIn)
	})
	return records, nil
}

// --- Helpers ---

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

func removeString(values []string, target string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value == target {
			continue
		}
		result = append(result, value)
	}
	return result
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
