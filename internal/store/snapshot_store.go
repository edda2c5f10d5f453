package store

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

type SnapshotStore struct{ db *gorm.DB }

func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// SaveDocumentSnapshot inserts a new snapshot row. A duplicate (docID,
// revision) pair — the same revision snapshotted twice in a race — is
// tolerated rather than surfaced, since the existing row already has the
// content this call would have written.
func (s *SnapshotStore) SaveDocumentSnapshot(ctx context.Context, docID string, rev uint64, content string) error {
	snap := DocumentSnapshot{DocumentID: docID, Revision: rev, Content: content}
	err := s.db.WithContext(ctx).Create(&snap).Error
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return nil
		}
		return err
	}
	return nil
}
