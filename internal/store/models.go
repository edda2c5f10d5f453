package store

import "time"

// Document is a document record: who owns it and what it's titled. The
// document's live content lives in the in-memory Service while a session is
// open; this table is the system of record for document identity and the
// thing DocumentSnapshot rows hang off of.
type Document struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	OwnerID   uint64 `gorm:"index;not null"`
	Title     string `gorm:"uniqueIndex;size:255;not null"`
	Archived  bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}

func (Document) TableName() string { return "documents" }

// DocumentSnapshot is a point-in-time copy of a document's full content at
// a given revision, written by Service.SaveSnapshot.
type DocumentSnapshot struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	DocumentID string `gorm:"uniqueIndex:idx_doc_rev;size:64;not null"`
	Revision   uint64 `gorm:"uniqueIndex:idx_doc_rev;not null"`
	Content    string `gorm:"type:longtext"`
	CreatedAt  time.Time
}

func (DocumentSnapshot) TableName() string { return "document_snapshots" }

// User is the minimal identity record the collab and websocket layers need
// to resolve a username to a numeric ID; credentials live in the login
// service, not here.
type User struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	Username string `gorm:"uniqueIndex;size:255;not null"`
}

func (User) TableName() string { return "users" }
