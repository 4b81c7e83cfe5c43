package errors

// Error codes returned in ErrorResponse.Error.
// Format: CATEGORY_DETAIL. Clients map these to user-facing copy and recovery hints.

const (
	// Authentication
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthAccountSuspended   = "AUTH_ACCOUNT_SUSPENDED"

	// Authorization
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"
	AuthzSelfAction   = "AUTHZ_SELF_ACTION"

	// Validation
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE"
	ValidationTooLong      = "VALIDATION_TOO_LONG"
	ValidationRequired     = "VALIDATION_REQUIRED"
	ValidationReason       = "VALIDATION_REASON_REQUIRED"

	// Generic resources
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// Store applications
	ApplicationNotFound       = "APPLICATION_NOT_FOUND"
	ApplicationAlreadyDecided = "APPLICATION_ALREADY_DECIDED"
	ApplicationDuplicate      = "APPLICATION_DUPLICATE"
	ApplicationInvalidAction  = "APPLICATION_INVALID_ACTION"
	ApplicationDraftNotFound  = "APPLICATION_DRAFT_NOT_FOUND"
	ApplicationStepOutOfOrder = "APPLICATION_STEP_OUT_OF_ORDER"
	ApplicationIncomplete     = "APPLICATION_INCOMPLETE"

	// Stores, products and users under moderation
	StoreNotFound          = "STORE_NOT_FOUND"
	StoreSlugExists        = "STORE_SLUG_EXISTS"
	StoreInactive          = "STORE_INACTIVE"
	ProductNotFound        = "PRODUCT_NOT_FOUND"
	ProductAlreadyReviewed = "PRODUCT_ALREADY_REVIEWED"
	UserNotFound           = "USER_NOT_FOUND"
	UserInvalidStatus      = "USER_INVALID_STATUS"

	// Uploads
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadInvalidKind     = "UPLOAD_INVALID_KIND"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"

	// Rate limiting
	RateLimitExceeded = "RATE_LIMIT_EXCEEDED"

	// Internal
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"
)
