package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: User & Account errors
// 12000-12999: Verification & Session errors
// 13000-13999: Execution & Sandbox errors
// 14000-14999: Ledger & Function errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	Unauthorized        ErrorCode = 10004
	Forbidden           ErrorCode = 10005
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Database errors (10100-10199)
	DatabaseError       ErrorCode = 10100
	RecordNotFound      ErrorCode = 10101
	RecordAlreadyExists ErrorCode = 10102
	TransactionFailed   ErrorCode = 10103

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200
	LockFailed ErrorCode = 10203

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	InvalidValue       ErrorCode = 10302
	RequiredFieldEmpty ErrorCode = 10303

	// ========== User & Account Errors (11000-11999) ==========

	// Authentication (11000-11099)
	InvalidCredentials ErrorCode = 11000
	UserNotFound       ErrorCode = 11001

	// Registration (11100-11199)
	UsernameAlreadyExists ErrorCode = 11100
	EmailAlreadyExists    ErrorCode = 11101
	InvalidUsername       ErrorCode = 11102
	InvalidEmail          ErrorCode = 11103
	InvalidPassword       ErrorCode = 11104
	PasswordTooWeak       ErrorCode = 11105

	// ========== Verification & Session Errors (12000-12999) ==========

	// OTP challenge (12000-12099)
	NoActiveChallenge ErrorCode = 12000
	ChallengeExpired  ErrorCode = 12001
	CodeMismatch      ErrorCode = 12002
	OTPDeliveryFailed ErrorCode = 12003

	// Verification window (12100-12199)
	NotVerified   ErrorCode = 12100
	WindowExpired ErrorCode = 12101

	// ========== Execution & Sandbox Errors (13000-13999) ==========

	// Request validation (13000-13099)
	CodeTooLarge         ErrorCode = 13000
	LanguageNotSupported ErrorCode = 13001

	// Sandbox (13100-13199)
	SandboxSetupFailed ErrorCode = 13100
	ExecutionTimeout   ErrorCode = 13101
	ResourceExceeded   ErrorCode = 13102
	WorkerPoolFull     ErrorCode = 13103
	SandboxKillFailed  ErrorCode = 13104

	// ========== Ledger & Function Errors (14000-14999) ==========

	FunctionNotFound      ErrorCode = 14000
	ExecutionRecordFailed ErrorCode = 14001
	UsagePublishFailed    ErrorCode = 14002
	ArtifactStoreFailed   ErrorCode = 14003
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	Unauthorized:        "Unauthorized access",
	Forbidden:           "Access forbidden",
	TooManyRequests:     "Too many requests, please try again later",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Database
	DatabaseError:       "Database operation failed",
	RecordNotFound:      "Record not found in database",
	RecordAlreadyExists: "Record already exists",
	TransactionFailed:   "Database transaction failed",

	// Cache
	CacheError: "Cache operation failed",
	LockFailed: "Failed to acquire lock",

	// Validation
	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	InvalidValue:       "Invalid value",
	RequiredFieldEmpty: "Required field is empty",

	// User - Authentication
	InvalidCredentials: "Invalid username or password",
	UserNotFound:       "User not found",

	// User - Registration
	UsernameAlreadyExists: "Username already exists",
	EmailAlreadyExists:    "Email already exists",
	InvalidUsername:       "Invalid username format",
	InvalidEmail:          "Invalid email format",
	InvalidPassword:       "Invalid password format",
	PasswordTooWeak:       "Password is too weak",

	// Verification - OTP challenge
	NoActiveChallenge: "No active verification challenge",
	ChallengeExpired:  "Verification code has expired",
	CodeMismatch:      "Verification code does not match",
	OTPDeliveryFailed: "Failed to deliver verification code",

	// Verification - window
	NotVerified:   "User is not verified",
	WindowExpired: "Verification window has expired",

	// Execution - request validation
	CodeTooLarge:         "Code is too large",
	LanguageNotSupported: "Programming language not supported",

	// Execution - sandbox
	SandboxSetupFailed: "Sandbox environment could not be provisioned",
	ExecutionTimeout:   "Execution time limit exceeded",
	ResourceExceeded:   "Execution resource limit exceeded",
	WorkerPoolFull:     "Execution queue is full, please try again later",
	SandboxKillFailed:  "Failed to terminate sandbox",

	// Ledger & Function
	FunctionNotFound:      "Function not found",
	ExecutionRecordFailed: "Failed to record execution",
	UsagePublishFailed:    "Failed to publish usage event",
	ArtifactStoreFailed:   "Failed to archive execution output",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == InvalidCredentials, c == Unauthorized:
		return 401
	case c == Forbidden, c == NotVerified, c == WindowExpired:
		return 403
	case c == NotFound, c == UserNotFound, c == FunctionNotFound:
		return 404
	case c == TooManyRequests, c == WorkerPoolFull:
		return 429
	case c == ServiceUnavailable, c == SandboxSetupFailed:
		return 503
	case c >= 12000 && c < 12100: // OTP challenge errors
		return 400
	case c >= 11100 && c < 11200: // Registration errors
		return 400
	case c == CodeTooLarge, c == LanguageNotSupported:
		return 400
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams:
		return 400
	default:
		return 500
	}
}
