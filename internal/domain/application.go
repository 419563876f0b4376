package domain

import "time"

const (
	AppStatusSubmitted    = "submitted"
	AppStatusReviewing    = "reviewing"
	AppStatusInterviewing = "interviewing"
	AppStatusOffered      = "offered"
	AppStatusRejected     = "rejected"
	AppStatusWithdrawn    = "withdrawn"
)

// appTransitions lists the statuses reachable from each non-final status.
var appTransitions = map[string][]string{
	AppStatusSubmitted:    {AppStatusReviewing, AppStatusRejected, AppStatusWithdrawn},
	AppStatusReviewing:    {AppStatusInterviewing, AppStatusRejected, AppStatusWithdrawn},
	AppStatusInterviewing: {AppStatusOffered, AppStatusRejected, AppStatusWithdrawn},
}

// CanTransition reports whether an application may move from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range appTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsFinalStatus reports whether no further transition is possible.
func IsFinalStatus(s string) bool {
	_, ok := appTransitions[s]
	return !ok
}

type Application struct {
	ApplicationID string    `json:"id"`
	UserID        string    `json:"user_id"`
	JobID         string    `json:"job_id"`
	ResumeID      *string   `json:"resume_id"`
	CoverLetter   string    `json:"cover_letter"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created"`
	UpdatedAt     time.Time `json:"updated"`
	Job           *Job      `json:"job,omitempty"`
}

type ApplyRequest struct {
	JobID       string  `json:"job_id" validate:"required,uuid"`
	ResumeID    *string `json:"resume_id" validate:"omitempty,uuid"`
	CoverLetter string  `json:"cover_letter" validate:"omitempty,max=5000"`
}

type UpdateApplicationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=reviewing interviewing offered rejected withdrawn"`
}
