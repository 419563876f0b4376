package domain

import "time"

// Session is a signed-in browser. Only the SHA-256 of the refresh token is stored.
type Session struct {
	SessionID        string    `json:"id" dynamodbav:"session_id"`
	UserID           string    `json:"user_id" dynamodbav:"user_id"`
	Enable           bool      `json:"enable" dynamodbav:"enable"`
	RefreshTokenHash string    `json:"-" dynamodbav:"refresh_token_hash"`
	RefreshExpiresAt int64     `json:"-" dynamodbav:"refresh_expires_at"`
	UserAgent        string    `json:"user_agent" dynamodbav:"user_agent"`
	IP               string    `json:"ip" dynamodbav:"ip"`
	CreatedAt        time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt        time.Time `json:"updated" dynamodbav:"updated_at"`
	User             *User     `json:"user,omitempty" dynamodbav:"-"`
}

// ClientMeta describes the client that opened a session.
type ClientMeta struct {
	UserAgent string
	IP        string
}
