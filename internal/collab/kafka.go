package collab

import (
	"time"

	"collabcore/internal/ot/delta"
)

// DocOpEvent is the wire payload published to the op-log topic after every
// successful Submit, so downstream consumers (search indexing, audit,
// replay) see the same ops the buffer applied.
type DocOpEvent struct {
	EventType    string      `json:"eventType"` // always "OP_APPLIED"
	DocID        string      `json:"docId"`
	OperationID  string      `json:"operationId"`
	Revision     uint64      `json:"revision"`
	AuthorID     uint64      `json:"authorId"`
	ClientID     string      `json:"clientId"`
	ClientSeq    uint64      `json:"clientSeq"`
	BaseRevision uint64      `json:"baseRevision"`
	Ops          delta.Delta `json:"ops"`
	AppliedAt    time.Time   `json:"appliedAt"`
}
