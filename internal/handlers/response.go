package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/allthebeans-backend/internal/apperr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondFailure classifies service and storage errors into status codes:
// 400 validation, 404 missing, 409 unique-name conflicts, 500 otherwise.
func RespondFailure(c *gin.Context, err error) {
	RespondError(c, apperr.StatusOf(err), apperr.CodeOf(err), err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
