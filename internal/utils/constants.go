package utils

import "time"

// Application Constants
const (
	AppName    = "Sahayak"
	AppVersion = "1.0.0"

	// Issue lifecycle
	DefaultNotifyRadiusKM = 2.0
	IssueTypeBasicHelp    = "basic_help"
	AuthorityAmbulance    = "ambulance"
	MaxDescriptionLength  = 2000
	MaxMediaFiles         = 10

	// Authentication
	JWTAccessTokenTTL = 24 * time.Hour

	// File Upload
	MaxImageSize = 5 * 1024 * 1024   // 5MB
	MaxAudioSize = 50 * 1024 * 1024  // 50MB
	MaxVideoSize = 100 * 1024 * 1024 // 100MB

	// Rate Limiting
	SubmitRateWindow = 24 * time.Hour
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInvalidToken      = "invalid token"
	ErrInvalidInput      = "invalid input"
	ErrInternalServer    = "internal server error"
	ErrUnauthorized      = "unauthorized"
	ErrForbidden         = "forbidden"
	ErrValidationFailed  = "validation failed"
	ErrFileUploadFailed  = "file upload failed"
	ErrSubmissionFailed  = "failed to submit issue"
	ErrIssueNotFound     = "post not found"
	ErrInvalidCoordinate = "invalid coordinates"
)

// Cache Keys
const (
	CacheIssueLockPrefix = "lock:issue:"
	CacheRateLimitPrefix = "rate_limit:"
)

// Notification titles and bodies shown on recipient devices.
const (
	NearbyHelpTitle        = "🚨 Nearby Help Needed!"
	NearbyHelpFallback     = "A new help request was posted near you."
	HelpAcceptedTitle      = "Someone accepted your help request!"
	HelpAcceptedBody       = "A responder is on the way."
	ResponderResolvedTitle = "A responder marked your issue as resolved!"
	ResponderResolvedBody  = "Please confirm if the issue is resolved."
)

// Event Types
const (
	EventIssueSubmitted     = "issue_submitted"
	EventHelpAccepted       = "help_accepted"
	EventResponderResolved  = "responder_resolved"
	EventIssueResolved      = "issue_resolved"
	EventNotificationQueued = "notification"
)

// File Types
var (
	AllowedImageTypes = []string{"jpg", "jpeg", "png", "gif", "webp", "heic"}
	AllowedAudioTypes = []string{"mp3", "wav", "aac", "m4a", "ogg", "webm"}
	AllowedVideoTypes = []string{"mp4", "mov", "3gp", "webm"}
)

// Geographic Constants
const (
	EarthRadiusKM = 6371.0
)
