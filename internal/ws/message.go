package ws

import (
	"time"

	"collabcore/internal/collab"
	"collabcore/internal/ot/delta"
)

type ClientMessage struct {
	Type         string      `json:"type"`
	DocID        string      `json:"docId"`
	DocTitle     string      `json:"docTitle"`
	Line         int         `json:"line,omitempty"`
	Col          int         `json:"col,omitempty"`
	Offset       int         `json:"offset,omitempty"`
	Range        collab.Range `json:"range,omitempty"`
	BaseRevision uint64      `json:"baseRevision"`
	ClientId     string      `json:"clientId"`
	ClientSeq    uint64      `json:"clientSeq"`
	Ops          delta.Delta `json:"ops"`
	Content      string      `json:"content,omitempty"`
}

type PresenceMember struct {
	UserID   uint64 `json:"userId"`
	Username string `json:"username,omitempty"`
}

type ServerMessage struct {
	Type     string           `json:"type"`
	UserID   uint64           `json:"userId,omitempty"`
	DocID    string           `json:"docId,omitempty"`
	Revision uint64           `json:"revision,omitempty"`
	Members  []PresenceMember `json:"members,omitempty"`
	Position *collab.Position `json:"position,omitempty"`
	Line     string           `json:"line,omitempty"`
	LineNum  int              `json:"lineNum,omitempty"`
	Offset   int              `json:"offset,omitempty"`
	Content  string           `json:"content,omitempty"`
}

type OpSubmitMessage struct {
	Type            string `json:"type"`
	DocID           string `json:"docId"`
	BaseRevision    uint64 `json:"baseRevision"`
	CurrentRevision uint64 `json:"currentRevision"`
	// ClientId identifies one client instance; a single user may hold
	// several (multiple tabs/devices).
	ClientId string `json:"clientId"`
	// ClientSeq is a per-clientId local increasing sequence number.
	ClientSeq uint64      `json:"clientSeq"`
	Ops       delta.Delta `json:"ops"`
}

// OpBroadcastMessage fans an applied op out to the other connections in the
// same document room — distinct from the op_applied ack sent back to the
// submitting connection.
type OpBroadcastMessage struct {
	Type      string      `json:"type"` // always "op_broadcast"
	DocID     string      `json:"docId"`
	Revision  uint64      `json:"revision"`
	AuthorID  uint64      `json:"authorId"`
	ClientId  string      `json:"clientId,omitempty"`
	ClientSeq uint64      `json:"clientSeq,omitempty"`
	Ops       delta.Delta `json:"ops"`
	AppliedAt time.Time   `json:"appliedAt,omitempty"`
}

type OpAppliedMessage struct {
	Type            string `json:"type"` // always "op_applied"
	DocID           string `json:"docId"`
	BaseRevision    uint64 `json:"baseRevision"`
	CurrentRevision uint64 `json:"currentRevision"`
	ClientId        string `json:"clientId"`
	ClientSeq       uint64 `json:"clientSeq"`
}
