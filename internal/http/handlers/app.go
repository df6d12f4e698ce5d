package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"garmentedit/internal/domain"
	"garmentedit/internal/pipeline"
)

// Runner executes one garment edit.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// ArtifactReader gives read access to stored run artifacts.
type ArtifactReader interface {
	Read(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

type App struct {
	Pipeline       Runner
	Artifacts      ArtifactReader
	Runs           domain.RunRepository
	Logger         zerolog.Logger
	PublicBaseURL  string
	MaxUploadBytes int64
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// fail maps a domain error onto the HTTP error envelope. Server-side errors are logged
// with full detail; the caller only sees a generic message.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := domain.HTTPStatus(err)
	code := domain.ErrorCode(err)
	message := err.Error()
	logger := a.requestLogger(r)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("code", code).Msg("request failed")
		message = "internal error"
		if errors.Is(err, domain.ErrUpstream) {
			message = "upstream provider request failed"
		}
	} else {
		logger.Warn().Err(err).Str("code", code).Msg("request rejected")
	}
	a.error(w, status, code, message)
}

// requestLogger prefers the request-scoped logger installed by the access log
// middleware.
func (a *App) requestLogger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}
