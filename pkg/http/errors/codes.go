package errors

// Error codes for standardized error responses.
const (
	// Authentication
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeInvalidToken = "invalid_token"
	ErrCodeLoginFailed  = "login_failed"

	// Validation
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"

	// Resources
	ErrCodeNotFound      = "not_found"
	ErrCodeAlreadyExists = "already_exists"

	// Gameplay
	ErrCodeIllegalState   = "illegal_state"
	ErrCodeSessionExpired = "session_expired"
	ErrCodeLevelLocked    = "level_locked"

	// Content
	ErrCodeContentInvalid = "content_invalid"
	ErrCodeSaveFailed     = "save_failed"

	// Collaborators
	ErrCodeGenerationFailed = "generation_failed"
	ErrCodeUpstreamError    = "upstream_error"

	// Server
	ErrCodeInternalError = "internal_error"
)
