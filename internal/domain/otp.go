package domain

// OTPPurpose scopes a code so a login code cannot confirm a contact change.
type OTPPurpose string

const (
	OTPPurposeLogin         OTPPurpose = "login"
	OTPPurposeContactVerify OTPPurpose = "contact_verify"
)

// OTPCode is the pending one-time code for a (contact, purpose) pair.
// PK: contact, SK: purpose. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type OTPCode struct {
	Contact     string      `json:"contact" dynamodbav:"contact"`
	Purpose     OTPPurpose  `json:"purpose" dynamodbav:"purpose"`
	Channel     ContactKind `json:"channel" dynamodbav:"channel"`
	CodeHash    string      `json:"-" dynamodbav:"code_hash"`
	Attempts    int         `json:"attempts" dynamodbav:"attempts"`
	ResendCount int         `json:"resend_count" dynamodbav:"resend_count"`
	LastSentAt  int64       `json:"last_sent_at" dynamodbav:"last_sent_at"`
	ExpiresAt   int64       `json:"expires_at" dynamodbav:"expires_at"`
	CreatedAt   int64       `json:"created_at" dynamodbav:"created_at"`
}

// OTPWindow counts codes issued to a contact within one fixed window.
type OTPWindow struct {
	Contact   string `dynamodbav:"contact"`
	Window    string `dynamodbav:"window"`
	Count     int    `dynamodbav:"count"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
}
