package ws

import (
	"sync"

	"collabcore/internal/cache"
	"collabcore/internal/collab"
	"collabcore/internal/ot/delta"
)

// Hub fans messages out to every connection subscribed to a document room.
// presence is the shared Redis-backed view of who's online; rooms tracks
// live connections in-process so a broadcast never round-trips through
// Redis.
type Hub struct {
	presence cache.PresenceCache

	mu sync.RWMutex
	// docID -> set of connections. A user with several tabs/devices holds
	// several connections, so rooms key on *Conn rather than userID.
	rooms map[string]map[*Conn]struct{}
}

func NewHub(p cache.PresenceCache) *Hub {
	return &Hub{presence: p, rooms: make(map[string]map[*Conn]struct{})}
}

// Join adds a connection to a document's room.
func (h *Hub) Join(docID string, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[docID] == nil {
		h.rooms[docID] = make(map[*Conn]struct{})
	}
	h.rooms[docID][c] = struct{}{}
}

// Leave removes a connection from a document's room, dropping the room
// entirely once it's empty.
func (h *Hub) Leave(docID string, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[docID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.rooms, docID)
		}
	}
}

func (h *Hub) BroadcastPresence(docID string, members []PresenceMember) {
	h.mu.RLock()
	conns := h.rooms[docID]
	h.mu.RUnlock()
	msg := ServerMessage{Type: "presence", DocID: docID, Members: members}
	for c := range conns {
		c.SendMessage_Enqueue(msg)
	}
}

// BroadcastCursor notifies the rest of a document's room that userID's
// cursor moved to pos.
func (h *Hub) BroadcastCursor(docID string, userID uint64, from *Conn, pos collab.Position) {
	h.mu.RLock()
	conns := h.rooms[docID]
	h.mu.RUnlock()
	msg := ServerMessage{Type: "cursor", DocID: docID, UserID: userID, Position: &pos}
	for c := range conns {
		if c == from {
			continue
		}
		c.SendMessage_Enqueue(msg)
	}
}

// BroadcastAppliedOp pushes an op just applied by author to every other
// connection in the same room, so their local buffers can converge on the
// same revision the server just committed.
func (h *Hub) BroadcastAppliedOp(docID string, from *Conn, revision, authorID uint64, ops delta.Delta) {
	h.mu.RLock()
	conns := h.rooms[docID]
	h.mu.RUnlock()
	msg := OpBroadcastMessage{Type: "op_broadcast", DocID: docID, Revision: revision, AuthorID: authorID, Ops: ops}
	for c := range conns {
		if c == from {
			continue
		}
		c.SendMessage_Enqueue(msg)
	}
}
