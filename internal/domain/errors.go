package domain

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrDecode     = errors.New("decode error")
	ErrConfig     = errors.New("config error")
	ErrUpstream   = errors.New("upstream error")
)

// ErrorCode maps an error onto the stable code reported to API callers.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrDecode):
		return "decode_error"
	case errors.Is(err, ErrConfig):
		return "config_error"
	case errors.Is(err, ErrUpstream):
		return "upstream_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

// HTTPStatus returns the response status used for err.
func HTTPStatus(err error) int {
	switch ErrorCode(err) {
	case "":
		return http.StatusOK
	case "validation_error", "decode_error":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "upstream_error":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
