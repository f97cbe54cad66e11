package constants

import "time"

// Session and request context keys
const (
	SessionCookieName   = "taskey_session"
	ContextKeyUserID    = "user_id"
	ContextKeyPrincipal = "principal"
	ContextKeyTask      = "task"
	ContextKeyRequestID = "request_id"
	HeaderRequestID     = "X-Request-ID"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Auth
const (
	MinPasswordLength = 8
	SessionMaxAge     = 86400 * 7
)

// Offers and feedback
const (
	MinOfferMessageLength = 10
	MinFeedbackRating     = 1
	MaxFeedbackRating     = 5
)

// Arrival and journey defaults, overridable through config
const (
	DefaultCheckInWindow  = 30 * time.Minute
	DefaultGrowingMinJobs = 5
	DefaultCountdownTick  = time.Second
	DefaultStoreTimeout   = 5 * time.Second
	DefaultTxMaxRetries   = 3
)

// Recommendations
const (
	DefaultRecommendationTimeout = 8 * time.Second
	MaxRecommendedHelpers        = 10
	MaxSuggestedSkills           = 8
	MaxRecommendationCandidates  = 50
)
