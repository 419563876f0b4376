package domain

import "time"

type SavedJob struct {
	UserID    string    `json:"user_id"`
	JobID     string    `json:"job_id"`
	CreatedAt time.Time `json:"created"`
	Job       *Job      `json:"job,omitempty"`
}
