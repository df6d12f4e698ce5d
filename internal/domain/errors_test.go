package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{name: "nil", err: nil, code: "", status: http.StatusOK},
		{name: "validation", err: fmt.Errorf("%w: prompt is required", ErrValidation), code: "validation_error", status: http.StatusBadRequest},
		{name: "decode", err: fmt.Errorf("%w: not an image", ErrDecode), code: "decode_error", status: http.StatusBadRequest},
		{name: "config", err: fmt.Errorf("%w: bad size", ErrConfig), code: "config_error", status: http.StatusInternalServerError},
		{name: "upstream nested", err: fmt.Errorf("pipeline: %w", fmt.Errorf("%w: http 500", ErrUpstream)), code: "upstream_error", status: http.StatusBadGateway},
		{name: "not found", err: ErrNotFound, code: "not_found", status: http.StatusNotFound},
		{name: "other", err: errors.New("boom"), code: "internal", status: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ErrorCode(tc.err); got != tc.code {
				t.Fatalf("ErrorCode() = %q, want %q", got, tc.code)
			}
			if got := HTTPStatus(tc.err); got != tc.status {
				t.Fatalf("HTTPStatus() = %d, want %d", got, tc.status)
			}
		})
	}
}
