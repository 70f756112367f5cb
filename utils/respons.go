package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HTTPError is implemented by errors that know their response status and a
// message that is safe to show to callers.
type HTTPError interface {
	error
	StatusCode() int
	PublicMessage() string
	PublicDetails() map[string]interface{}
}

// RespondJSON writes {success, message, <key>: data}.
func RespondJSON(c *gin.Context, code int, message string, key string, data interface{}) {
	body := gin.H{
		"success": code >= 200 && code < 300,
		"message": message,
	}
	if key != "" {
		body[key] = data
	}
	c.JSON(code, body)
}

// RespondError maps err to a status code. Errors that do not describe
// themselves, and 5xx errors, are answered with a generic message plus an error
// id that is logged together with the cause.
func RespondError(c *gin.Context, err error) {
	var he HTTPError
	if errors.As(err, &he) && he.StatusCode() < http.StatusInternalServerError {
		body := gin.H{
			"success": false,
			"message": he.PublicMessage(),
			"error":   http.StatusText(he.StatusCode()),
		}
		for k, v := range he.PublicDetails() {
			body[k] = v
		}
		c.JSON(he.StatusCode(), body)
		return
	}

	errorID := uuid.NewString()
	ErrorLogger.WithField("error_id", errorID).Errorf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"message": "Internal server error",
		"error":   errorID,
	})
}

// RespondBadRequest answers binding failures before any mutation happens.
func RespondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": err.Error(),
		"error":   http.StatusText(http.StatusBadRequest),
	})
}

// AbortWithStatus stops the chain with a failure body for code.
func AbortWithStatus(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{
		"success": false,
		"message": message,
		"error":   http.StatusText(code),
	})
}
