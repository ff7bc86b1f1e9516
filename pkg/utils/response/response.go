package response

import (
	"net/http"

	"runbox/pkg/errors"
	"runbox/pkg/utils/contextkey"

	"github.com/gin-gonic/gin"
)

// Response is the unified API response envelope
type Response struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    interface{}            `json:"data,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	TraceID string                 `json:"trace_id,omitempty"`
}

// Success sends a success response with data
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    int(errors.Success),
		Message: "success",
		Data:    data,
		TraceID: getTraceID(c),
	})
}

// SuccessWithMessage sends a success response with a custom message
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    int(errors.Success),
		Message: message,
		Data:    data,
		TraceID: getTraceID(c),
	})
}

// Error sends an error response derived from err
func Error(c *gin.Context, err error) {
	appErr := errors.GetError(err)

	resp := Response{
		Code:    int(appErr.Code),
		Message: appErr.Error(),
		TraceID: getTraceID(c),
	}
	if len(appErr.Details) > 0 {
		resp.Details = appErr.Details
	}

	c.JSON(appErr.Code.HTTPStatus(), resp)
}

// BadRequest sends a 400 response for malformed input
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    int(errors.InvalidParams),
		Message: message,
		TraceID: getTraceID(c),
	})
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, Response{
		Code:    int(errors.NotFound),
		Message: message,
		TraceID: getTraceID(c),
	})
}

func getTraceID(c *gin.Context) string {
	if traceID := c.Request.Context().Value(contextkey.TraceID); traceID != nil {
		if s, ok := traceID.(string); ok {
			return s
		}
	}
	return c.GetHeader("X-Trace-ID")
}
