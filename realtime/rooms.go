package realtime

import "sync"

// Rooms maps chat IDs to the sessions explicitly subscribed to them.
// A connection only receives a chat's broadcasts after joining its room,
// including echoes of its own messages.
type Rooms struct {
	mu           sync.RWMutex
	rooms        map[string]map[string]Session  // chatID -> sessionID -> session
	sessionRooms map[string]map[string]struct{} // sessionID -> set of chatIDs
}

func NewRooms() *Rooms {
	return &Rooms{
		rooms:        make(map[string]map[string]Session),
		sessionRooms: make(map[string]map[string]struct{}),
	}
}

func (r *Rooms) Join(chatID string, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[chatID]
	if room == nil {
		room = make(map[string]Session)
		r.rooms[chatID] = room
	}
	room[s.ID()] = s

	memberships := r.sessionRooms[s.ID()]
	if memberships == nil {
		memberships = make(map[string]struct{})
		r.sessionRooms[s.ID()] = memberships
	}
	memberships[chatID] = struct{}{}
}

func (r *Rooms) Leave(chatID, sessionID string) {
	r.mu.Lock()
	r.leaveLocked(chatID, sessionID)
	r.mu.Unlock()
}

// LeaveAll removes the session from every room it joined. Called on
// disconnect.
func (r *Rooms) LeaveAll(sessionID string) {
	r.mu.Lock()
	for chatID := range r.sessionRooms[sessionID] {
		r.leaveLocked(chatID, sessionID)
	}
	r.mu.Unlock()
}

// Broadcast writes payload to every session in the chat's room and reports
// how many deliveries succeeded.
func (r *Rooms) Broadcast(chatID string, payload []byte) int {
	r.mu.RLock()
	room := r.rooms[chatID]
	sessions := make([]Session, 0, len(room))
	for _, s := range room {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, s := range sessions {
		if err := s.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

func (r *Rooms) leaveLocked(chatID, sessionID string) {
	room := r.rooms[chatID]
	if room == nil {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(r.rooms, chatID)
	}
	if memberships, ok := r.sessionRooms[sessionID]; ok {
		delete(memberships, chatID)
		if len(memberships) == 0 {
			delete(r.sessionRooms, sessionID)
		}
	}
}
