package models

import "time"

// Feedback is a rating given by the supervising teacher (or an admin)
// about the applicant of an approved application. Rating is an integer in
// [1,5]. Immutable once created.
type Feedback struct {
	ID            int64     `json:"id"`
	FromUserID    int64     `json:"from_user_id"`
	ToUserID      int64     `json:"to_user_id"`
	ApplicationID int64     `json:"application_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
}
