package domain

import "time"

// Resume is an uploaded CV stored in S3.
type Resume struct {
	ResumeID    string     `json:"id"`
	UserID      string     `json:"user_id"`
	Object      string     `json:"-"`
	Name        string     `json:"name"`
	ContentType string     `json:"type"`
	Size        int64      `json:"size"`
	Hash        string     `json:"hash"`
	DeletedAt   *time.Time `json:"-"`
	CreatedAt   time.Time  `json:"created"`
}
