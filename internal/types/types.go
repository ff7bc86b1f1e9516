package types

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// OTPRequest asks for a fresh verification code. The password is
// re-checked on every request so knowing a username is not enough to
// trigger code delivery.
type OTPRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type OTPResponse struct {
	Delivered        bool   `json:"delivered"`
	AlreadyVerified  bool   `json:"already_verified"`
	ExpiresInSeconds int64  `json:"expires_in_seconds,omitempty"`
	// Code is only populated when the service runs with echoCode enabled.
	Code string `json:"code,omitempty"`
}

// VerifyRequest redeems a verification code.
type VerifyRequest struct {
	Username string `json:"username" binding:"required"`
	Code     string `json:"code" binding:"required"`
}

type VerifyResponse struct {
	VerifiedAt       int64   `json:"verified_at"`
	ExpiresAt        int64   `json:"expires_at"`
	RemainingMinutes float64 `json:"remaining_minutes"`
}

type StatusResponse struct {
	Verified         bool    `json:"verified"`
	VerifiedAt       int64   `json:"verified_at,omitempty"`
	ExpiresAt        int64   `json:"expires_at,omitempty"`
	RemainingMinutes float64 `json:"remaining_minutes"`
}

// RunRequest executes a snippet, optionally saving it as a named function.
type RunRequest struct {
	Username string `json:"username" binding:"required"`
	Language string `json:"language" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Name     string `json:"name,omitempty"`
}

type FunctionRunInfo struct {
	Name     string `json:"name"`
	RunCount int64  `json:"run_count"`
}

type RunResponse struct {
	ExecutionID string           `json:"execution_id"`
	Status      string           `json:"status"`
	ExitCode    int              `json:"exit_code"`
	Stdout      string           `json:"stdout"`
	Stderr      string           `json:"stderr"`
	DurationMs  int64            `json:"duration_ms"`
	Cost        float64          `json:"cost"`
	TotalCost   float64          `json:"total_cost"`
	Truncated   bool             `json:"truncated,omitempty"`
	Function    *FunctionRunInfo `json:"function,omitempty"`
}

type UsageResponse struct {
	TotalRuns       int64   `json:"total_runs"`
	PythonRuns      int64   `json:"python_runs"`
	JavascriptRuns  int64   `json:"javascript_runs"`
	TotalCost       float64 `json:"total_cost"`
	TotalFunctions  int64   `json:"total_functions"`
	TotalExecutions int64   `json:"total_executions"`
}

type FunctionInfo struct {
	Name         string   `json:"name"`
	Language     string   `json:"language"`
	RunCount     int64    `json:"run_count"`
	Dependencies []string `json:"dependencies,omitempty"`
	CreatedAt    int64    `json:"created_at"`
	LastRunAt    int64    `json:"last_run_at,omitempty"`
}

type FunctionListResponse struct {
	Functions []FunctionInfo `json:"functions"`
}

type ExecutionInfo struct {
	ExecutionID string  `json:"execution_id"`
	Status      string  `json:"status"`
	ExitCode    int64   `json:"exit_code"`
	DurationMs  int64   `json:"duration_ms"`
	Cost        float64 `json:"cost"`
	CreatedAt   int64   `json:"created_at"`
}

type FunctionDetailResponse struct {
	Function         FunctionInfo    `json:"function"`
	RecentExecutions []ExecutionInfo `json:"recent_executions"`
}
