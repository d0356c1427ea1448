package response

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// ErrorResponse standardizes API errors.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// BadRequest writes a 400 payload.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// ValidationError writes a 400 payload, listing failed fields when err comes from the validator.
func ValidationError(c *gin.Context, message string, err error) {
	resp := ErrorResponse{Error: message}
	var verr validator.ValidationErrors
	if errors.As(err, &verr) {
		detail := make(map[string]string, len(verr))
		for _, field := range verr {
			detail[strings.ToLower(field.Field())] = field.Tag()
		}
		resp.Details = detail
	}
	c.JSON(http.StatusBadRequest, resp)
}

// NotFound writes a 404 payload.
func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: message})
}

// TooManyRequests writes a 429 payload with a retry hint.
func TooManyRequests(c *gin.Context, message string, details interface{}) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: message, Details: details})
}

// ServiceUnavailable writes a 503 payload.
func ServiceUnavailable(c *gin.Context, details interface{}) {
	c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "service unavailable", Details: details})
}

// InternalServerError writes a 500 payload; err is logged and attached to the gin context.
func InternalServerError(c *gin.Context, message string, err error) {
	if err != nil {
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error(message)
		_ = c.Error(err)
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: message})
}
