package collab

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"collabcore/internal/ot/delta"
)

// Service is the collaborative editing engine: per-document revision
// tracking, op application, and the narrow set of persistence/lookup calls
// a document session needs.
type Service interface {
	Submit(ctx context.Context, docID string, authorID uint64,
		baseRevision uint64, clientID string, clientSeq uint64,
		ops delta.Delta) (AppliedOp, error)

	CurrentRevision(ctx context.Context, docID string) (uint64, error)

	LoadDocumentContent(ctx context.Context, docID string) (string, uint64, error)

	// OpsSince supports client handshake/catch-up after a reconnect.
	OpsSince(ctx context.Context, docID string, fromRevision uint64, limit int) ([]AppliedOp, error)

	SaveSnapshot(ctx context.Context, docID string) error

	GetDocumentID(ctx context.Context, title string) (string, error)
	CreateDocument(ctx context.Context, ownerID uint64, title string) error

	GetUserID(ctx context.Context, username string) (uint64, error)

	// Cursor-resolution calls exposed to the websocket layer so a client
	// can translate between a line/column position and a byte offset
	// against the authoritative server-side buffer.
	GetLineCount(ctx context.Context, docID string) (int, error)
	GetLineContent(ctx context.Context, docID string, line int) (string, error)
	GetOffsetAt(ctx context.Context, docID string, line, col int) (int, error)
	GetPositionAt(ctx context.Context, docID string, offset int) (Position, error)
	GetValueInRange(ctx context.Context, docID string, r Range) (string, error)
}

// SnapshotStore persists a point-in-time copy of a document's content.
type SnapshotStore interface {
	SaveDocumentSnapshot(ctx context.Context, docID string, rev uint64, content string) error
}

// DocumentStore resolves and creates document records.
type DocumentStore interface {
	GetDocumentID(ctx context.Context, title string) (string, error)
	CreateDocument(ctx context.Context, ownerID uint64, title string) error
}

// UserStore resolves usernames to numeric IDs.
type UserStore interface {
	GetUserID(ctx context.Context, username string) (uint64, error)
}

// AppliedOp records one successfully applied submission, kept around in the
// document's recent-ops ring for OpsSince catch-up.
type AppliedOp struct {
	OperationId string // unique ID for this operation (idempotency/tracing)
	Revision    uint64 // document revision after applying this op
	AuthorId    uint64
	Ops         delta.Delta
	AppliedAt   time.Time
}

var (
	ErrRevisionConflict      = errors.New("REVISION_CONFLICT")
	ErrDuplicateOrOutOfOrder = errors.New("DUPLICATE_OR_OUT_OF_ORDER")
	ErrDocumentNotFound      = errors.New("DOCUMENT_NOT_FOUND")
)

type docState struct {
	mu       sync.RWMutex
	revision uint64
	opsRing  []AppliedOp
	// lastSeqByClient dedups resubmits: the highest clientSeq accepted so
	// far for each clientId.
	lastSeqByClient map[string]uint64
	buf             Buffer
}

// InMemoryService holds every open document's state in memory, backed by a
// KafkaDispatcher for the async op-log and pluggable stores for persistence.
type InMemoryService struct {
	mu      sync.RWMutex
	docs    map[string]*docState
	ringCap int

	snapshotStore SnapshotStore
	documentStore DocumentStore
	userStore     UserStore

	dispatcher *KafkaDispatcher
}

// NewInMemoryService returns a Service backed by in-memory document state.
// dispatcher may be nil, in which case applied ops are not published to the
// op log.
func NewInMemoryService(snapshotStore SnapshotStore, documentStore DocumentStore, userStore UserStore, dispatcher *KafkaDispatcher) Service {
	return &InMemoryService{
		docs:          make(map[string]*docState),
		ringCap:       1024,
		snapshotStore: snapshotStore,
		documentStore: documentStore,
		userStore:     userStore,
		dispatcher:    dispatcher,
	}
}

func (s *InMemoryService) LoadDocumentContent(ctx context.Context, docID string) (string, uint64, error) {
	s.mu.RLock()
	ds := s.docs[docID]
	s.mu.RUnlock()
	if ds == nil {
		return "", 0, ErrDocumentNotFound
	}
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.buf.String(), ds.revision, nil
}

func (s *InMemoryService) getOrCreateDoc(docID string) *docState {
	s.mu.RLock()
	ds := s.docs[docID]
	s.mu.RUnlock()
	if ds != nil {
		return ds
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ds = s.docs[docID]; ds == nil {
		capacity := s.ringCap
		if capacity <= 0 {
			capacity = 1024
		}
		ds = &docState{
			lastSeqByClient: make(map[string]uint64),
			opsRing:         make([]AppliedOp, 0, capacity),
			buf:             NewBuffer(""),
		}
		s.docs[docID] = ds
	}
	return ds
}

// withDoc locates docID's state and runs fn under its read lock, returning
// the zero value and ErrDocumentNotFound if the document hasn't been
// opened yet.
func withDoc[T any](s *InMemoryService, docID string, fn func(ds *docState) T) (T, error) {
	s.mu.RLock()
	ds := s.docs[docID]
	s.mu.RUnlock()
	if ds == nil {
		var zero T
		return zero, ErrDocumentNotFound
	}
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return fn(ds), nil
}

func (s *InMemoryService) Submit(ctx context.Context, docID string, authorID uint64, baseRevision uint64, clientId string, clientSeq uint64, ops delta.Delta) (AppliedOp, error) {
	ds := s.getOrCreateDoc(docID)
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if last := ds.lastSeqByClient[clientId]; clientSeq <= last {
		return AppliedOp{}, ErrDuplicateOrOutOfOrder
	}
	if baseRevision != ds.revision {
		return AppliedOp{}, ErrRevisionConflict
	}

	if err := ds.buf.Apply(ops); err != nil {
		return AppliedOp{}, err
	}

	ds.revision++
	appliedOp := AppliedOp{
		OperationId: fmt.Sprintf("o-%s-%d", docID, ds.revision),
		Revision:    ds.revision,
		AuthorId:    authorID,
		Ops:         ops,
		AppliedAt:   time.Now(),
	}

	if cap(ds.opsRing) > 0 && len(ds.opsRing) == cap(ds.opsRing) {
		copy(ds.opsRing[0:], ds.opsRing[1:])
		ds.opsRing = ds.opsRing[:len(ds.opsRing)-1]
	}
	ds.opsRing = append(ds.opsRing, appliedOp)

	ds.lastSeqByClient[clientId] = clientSeq

	if s.dispatcher != nil {
		evt := DocOpEvent{
			EventType:    "OP_APPLIED",
			DocID:        docID,
			OperationID:  appliedOp.OperationId,
			Revision:     appliedOp.Revision,
			AuthorID:     appliedOp.AuthorId,
			ClientID:     clientId,
			ClientSeq:    clientSeq,
			BaseRevision: baseRevision,
			Ops:          appliedOp.Ops,
			AppliedAt:    appliedOp.AppliedAt,
		}
		enqueueCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		go func() {
			defer cancel()
			_ = s.dispatcher.Enqueue(enqueueCtx, evt)
		}()
	}

	return appliedOp, nil
}

func (s *InMemoryService) CurrentRevision(ctx context.Context, docID string) (uint64, error) {
	rev, err := withDoc(s, docID, func(ds *docState) uint64 { return ds.revision })
	if errors.Is(err, ErrDocumentNotFound) {
		return 0, nil
	}
	return rev, err
}

func (s *InMemoryService) OpsSince(ctx context.Context, docID string, fromRevision uint64, limit int) ([]AppliedOp, error) {
	out, err := withDoc(s, docID, func(ds *docState) []AppliedOp {
		var ops []AppliedOp
		for _, op := range ds.opsRing {
			if op.Revision > fromRevision {
				ops = append(ops, op)
				if limit > 0 && len(ops) >= limit {
					break
				}
			}
		}
		return ops
	})
	if errors.Is(err, ErrDocumentNotFound) {
		return nil, nil
	}
	return out, err
}

func (s *InMemoryService) SaveSnapshot(ctx context.Context, docID string) error {
	if s.snapshotStore == nil {
		return errors.New("snapshot store not initialized")
	}
	s.mu.RLock()
	ds := s.docs[docID]
	s.mu.RUnlock()
	if ds == nil {
		return ErrDocumentNotFound
	}
	ds.mu.RLock()
	content := ds.buf.String()
	rev := ds.revision
	ds.mu.RUnlock()
	return s.snapshotStore.SaveDocumentSnapshot(ctx, docID, rev, content)
}

func (s *InMemoryService) GetDocumentID(ctx context.Context, title string) (string, error) {
	if s.documentStore == nil {
		return "", errors.New("document store not initialized")
	}
	return s.documentStore.GetDocumentID(ctx, title)
}

func (s *InMemoryService) CreateDocument(ctx context.Context, ownerID uint64, title string) error {
	if s.documentStore == nil {
		return errors.New("document store not initialized")
	}
	return s.documentStore.CreateDocument(ctx, ownerID, title)
}

func (s *InMemoryService) GetUserID(ctx context.Context, username string) (uint64, error) {
	if s.userStore == nil {
		return 0, errors.New("user store not initialized")
	}
	return s.userStore.GetUserID(ctx, username)
}

func (s *InMemoryService) GetLineCount(ctx context.Context, docID string) (int, error) {
	return withDoc(s, docID, func(ds *docState) int { return ds.buf.GetLineCount() })
}

func (s *InMemoryService) GetLineContent(ctx context.Context, docID string, line int) (string, error) {
	return withDoc(s, docID, func(ds *docState) string { return ds.buf.GetLineContent(line) })
}

func (s *InMemoryService) GetOffsetAt(ctx context.Context, docID string, line, col int) (int, error) {
	return withDoc(s, docID, func(ds *docState) int { return ds.buf.GetOffsetAt(line, col) })
}

func (s *InMemoryService) GetPositionAt(ctx context.Context, docID string, offset int) (Position, error) {
	return withDoc(s, docID, func(ds *docState) Position { return ds.buf.GetPositionAt(offset) })
}

func (s *InMemoryService) GetValueInRange(ctx context.Context, docID string, r Range) (string, error) {
	return withDoc(s, docID, func(ds *docState) string { return ds.buf.GetValueInRange(r) })
}
