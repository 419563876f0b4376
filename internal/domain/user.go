package domain

import "time"

// User is a platform account. Candidates sign in with a one-time code sent to
// their email or phone, or with Google.
type User struct {
	UserID        string     `json:"id"`
	Email         *string    `json:"email"`
	Phone         *string    `json:"phone"`
	EmailVerified bool       `json:"email_verified"`
	PhoneVerified bool       `json:"phone_verified"`
	Role          string     `json:"role"`
	Locale        Locale     `json:"locale"`
	GoogleSub     *string    `json:"-"`
	Enable        bool       `json:"enable"`
	OnboardedAt   *time.Time `json:"onboarded_at,omitempty"`
	CreatedAt     time.Time  `json:"created"`
	UpdatedAt     time.Time  `json:"updated"`
}

// HasContact reports whether c is one of the user's verified contacts.
func (u *User) HasContact(c Contact) bool {
	switch c.Kind {
	case ContactEmail:
		return u.Email != nil && *u.Email == c.Value
	case ContactPhone:
		return u.Phone != nil && *u.Phone == c.Value
	}
	return false
}

// UpdateUserRequest is the admin patch for an account. Nil fields are left as is.
type UpdateUserRequest struct {
	Role   *string `json:"role" validate:"omitempty,oneof=candidate admin"`
	Enable *bool   `json:"enable"`
}
