package domain

import "time"

const (
	BlockReasonAttempts = "too_many_attempts"
	BlockReasonResends  = "too_many_resends"
	BlockReasonRate     = "too_many_requests"
	BlockReasonManual   = "manual"

	BlockedBySystem = "system"
)

// BlacklistEntry blocks a contact from requesting or verifying codes.
// ExpiresAt of 0 means the block is permanent until an admin lifts it.
type BlacklistEntry struct {
	Contact   string    `json:"contact" dynamodbav:"contact"`
	Reason    string    `json:"reason" dynamodbav:"reason"`
	BlockedBy string    `json:"blocked_by" dynamodbav:"blocked_by"`
	ExpiresAt int64     `json:"expires_at,omitempty" dynamodbav:"expires_at,omitempty"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

// Active reports whether the entry still blocks at now.
func (e *BlacklistEntry) Active(now time.Time) bool {
	return e.ExpiresAt == 0 || e.ExpiresAt > now.Unix()
}

type BlockRequest struct {
	Contact         string `json:"contact" validate:"required"`
	Reason          string `json:"reason" validate:"omitempty,max=200"`
	DurationMinutes int    `json:"duration_minutes" validate:"gte=0"`
}
