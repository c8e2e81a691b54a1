package utils

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Response defines the standard API response envelope.
type Response struct {
	Success  bool        `json:"success"`
	Code     int         `json:"code"`
	Message  string      `json:"message"`
	Data     interface{} `json:"data,omitempty"`
	Error    *ErrorInfo  `json:"error,omitempty"`
	Redirect string      `json:"redirect,omitempty"`
	Meta     Meta        `json:"meta"`
}

// ErrorInfo provides details for error responses.
type ErrorInfo struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Meta contains request-scoped metadata.
type Meta struct {
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}

// Success writes a success response with the standard envelope.
func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Success: true,
		Code:    code,
		Message: message,
		Data:    data,
		Meta:    meta(c),
	})
}

// SuccessRedirect writes a success response telling the dashboard where to
// navigate next.
func SuccessRedirect(c *gin.Context, code int, message string, data interface{}, redirect string) {
	c.JSON(code, Response{
		Success:  true,
		Code:     code,
		Message:  message,
		Data:     data,
		Redirect: redirect,
		Meta:     meta(c),
	})
}

// Error writes an error response with provided API error code and message.
func Error(c *gin.Context, code int, errCode, message string) {
	c.JSON(code, Response{
		Success: false,
		Code:    code,
		Message: message,
		Error: &ErrorInfo{
			Code:    errCode,
			Message: message,
		},
		Meta: meta(c),
	})
}

// ErrorWithData writes an error response that still carries data, e.g. the
// form state with its field errors.
func ErrorWithData(c *gin.Context, code int, errCode, message string, fields map[string]string, data interface{}) {
	c.JSON(code, Response{
		Success: false,
		Code:    code,
		Message: message,
		Data:    data,
		Error: &ErrorInfo{
			Code:    errCode,
			Message: message,
			Fields:  fields,
		},
		Meta: meta(c),
	})
}

// LoginRequired writes a 401 response pointing the dashboard at the login
// page.
func LoginRequired(c *gin.Context, errCode, message string) {
	c.JSON(401, Response{
		Success: false,
		Code:    401,
		Message: message,
		Error: &ErrorInfo{
			Code:    errCode,
			Message: message,
		},
		Redirect: LoginPath,
		Meta:     meta(c),
	})
}

// LoginPath is the dashboard route of the login page.
const LoginPath = "/login"

func meta(c *gin.Context) Meta {
	return Meta{
		RequestID: getRequestID(c),
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return uuid.New().String()[:8]
}
