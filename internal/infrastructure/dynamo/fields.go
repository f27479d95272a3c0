package dynamo

// DynamoDB attribute names used in key, condition and update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEmail            = "email"
	fieldUserID           = "user_id"
	fieldSessionID        = "session_id"
	fieldEnable           = "enable"
	fieldRefreshToken     = "refresh_token"
	fieldRefreshExpiresAt = "refresh_expires_at"
	fieldCodeHash         = "code_hash"
	fieldExpiresAt        = "expires_at"
	fieldAttempts         = "attempts"
	fieldEventID          = "event_id"
	fieldCreatorID        = "creator_id"
	fieldStatus           = "status"
	fieldPublishedAt      = "published_at"
	fieldPublishedVia     = "published_via"
	fieldUpdatedAt        = "updated_at"
	fieldCheckoutSession  = "checkout_session_id"
	fieldScope            = "scope"
	fieldPublishedCount   = "published_count"
)

// Counter scopes in the publish_counters table.
const scopePlatform = "platform"

func creatorScope(creatorID string) string { return "creator#" + creatorID }
