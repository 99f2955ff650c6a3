package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// Error carries an HTTP status alongside the underlying cause so that the
// handler layer can translate storage and service failures without type
// switching on driver errors.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func NotFound(err error) *Error {
	return New(http.StatusNotFound, "not_found", err)
}

func NotFoundf(format string, args ...interface{}) *Error {
	return NotFound(fmt.Errorf(format, args...))
}

func Conflict(err error) *Error {
	return New(http.StatusConflict, "conflict", err)
}

func Invalid(err error) *Error {
	return New(http.StatusBadRequest, "validation", err)
}

func Invalidf(format string, args ...interface{}) *Error {
	return Invalid(fmt.Errorf(format, args...))
}

func Internal(err error) *Error {
	return New(http.StatusInternalServerError, "internal", err)
}

// StatusOf resolves the HTTP status for any error: explicit *Error first,
// then the gorm sentinels surfaced by TranslateError, else 500.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Code != "" {
		return ae.Code
	}
	switch StatusOf(err) {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusBadRequest:
		return "validation"
	default:
		return "internal"
	}
}

func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

func IsConflict(err error) bool {
	return StatusOf(err) == http.StatusConflict
}

func IsInvalid(err error) bool {
	return StatusOf(err) == http.StatusBadRequest
}
