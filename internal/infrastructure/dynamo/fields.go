package dynamo

// DynamoDB attribute names used in update and condition expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEnable           = "enable"
	fieldRefreshTokenHash = "refresh_token_hash"
	fieldRefreshExpiresAt = "refresh_expires_at"
	fieldAttempts         = "attempts"
	fieldResendCount      = "resend_count"
	fieldCodeHash         = "code_hash"
	fieldLastSentAt       = "last_sent_at"
	fieldExpiresAt        = "expires_at"
	fieldCount            = "count"
)
