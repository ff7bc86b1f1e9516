package controller

import (
	"strings"

	"runbox/internal/logic"
	"runbox/internal/svc"
	"runbox/internal/types"
	"runbox/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// ExecuteController handles run and usage endpoints.
type ExecuteController struct {
	executions *logic.ExecutionManager
	accounts   *logic.AccountManager
}

func NewExecuteController(svcCtx *svc.ServiceContext) *ExecuteController {
	return &ExecuteController{
		executions: logic.NewExecutionManager(svcCtx),
		accounts:   logic.NewAccountManager(svcCtx),
	}
}

// Run executes a snippet.
func (h *ExecuteController) Run(c *gin.Context) {
	var req types.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	resp, err := h.executions.Run(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// Usage reports accumulated cost and run counters.
func (h *ExecuteController) Usage(c *gin.Context) {
	username := strings.TrimSpace(c.Query("username"))
	if username == "" {
		response.BadRequest(c, "Invalid username")
		return
	}
	resp, err := h.accounts.Usage(c.Request.Context(), username)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// ListFunctions lists saved functions, optionally filtered by language.
func (h *ExecuteController) ListFunctions(c *gin.Context) {
	username := strings.TrimSpace(c.Query("username"))
	if username == "" {
		response.BadRequest(c, "Invalid username")
		return
	}
	language := strings.TrimSpace(c.Query("language"))
	resp, err := h.accounts.ListFunctions(c.Request.Context(), username, language)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// FunctionDetail returns one function with its recent executions.
func (h *ExecuteController) FunctionDetail(c *gin.Context) {
	username := strings.TrimSpace(c.Query("username"))
	language := c.Param("language")
	name := c.Param("name")
	if username == "" || language == "" || name == "" {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	resp, err := h.accounts.FunctionDetail(c.Request.Context(), username, language, name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}
