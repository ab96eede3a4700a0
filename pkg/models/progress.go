package models

import "time"

// ProgressEntry is one record in an application's append-only progress
// ledger. Entries exist only for approved applications, are immutable once
// created, and are ordered by creation time with ties broken by id
// ascending.
type ProgressEntry struct {
	ID            int64     `json:"id"`
	ApplicationID int64     `json:"application_id"`
	Note          string    `json:"note"`
	AuthorID      int64     `json:"author_id"`
	CreatedAt     time.Time `json:"created_at"`
}
