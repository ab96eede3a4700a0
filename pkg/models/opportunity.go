package models

import "time"

// Opportunity is a published research-internship listing owned by one
// teacher. TeacherID is immutable after creation. Archiving hides the
// listing from student browsing and matching but keeps it resolvable for
// applications that already reference it.
type Opportunity struct {
	ID           int64     `json:"id"`
	TeacherID    int64     `json:"teacher_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Requirements []string  `json:"requirements"`
	Tags         []string  `json:"tags,omitempty"`
	Archived     bool      `json:"archived"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
