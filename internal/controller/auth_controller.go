package controller

import (
	"strings"

	"runbox/internal/logic"
	"runbox/internal/svc"
	"runbox/internal/types"
	"runbox/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// AuthController handles registration and trust verification endpoints.
type AuthController struct {
	accounts     *logic.AccountManager
	verification *logic.VerificationManager
}

func NewAuthController(svcCtx *svc.ServiceContext) *AuthController {
	return &AuthController{
		accounts:     logic.NewAccountManager(svcCtx),
		verification: logic.NewVerificationManager(svcCtx),
	}
}

// Register creates a new account.
func (h *AuthController) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	resp, err := h.accounts.Register(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// RequestCode issues a verification code.
func (h *AuthController) RequestCode(c *gin.Context) {
	var req types.OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	resp, err := h.verification.RequestCode(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// Verify redeems a verification code.
func (h *AuthController) Verify(c *gin.Context) {
	var req types.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	resp, err := h.verification.Verify(c.Request.Context(), req.Username, req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// Status reports the current trust window.
func (h *AuthController) Status(c *gin.Context) {
	username := strings.TrimSpace(c.Query("username"))
	if username == "" {
		response.BadRequest(c, "Invalid username")
		return
	}
	resp, err := h.verification.Status(c.Request.Context(), username)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}
