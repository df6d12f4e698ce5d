package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"garmentedit/internal/http/handlers"
	"garmentedit/internal/pipeline"
)

type nopRunner struct{}

func (nopRunner) Run(context.Context, pipeline.Request) (*pipeline.Result, error) {
	return &pipeline.Result{RunID: "r", Locator: "u"}, nil
}

func TestRouter(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "run-1"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "run-1", "prompt.txt"), []byte("PROMPT"), 0o644); err != nil {
		t.Fatal(err)
	}
	app := &handlers.App{Pipeline: nopRunner{}, Logger: zerolog.Nop()}
	router := NewRouter(app, Options{
		Logger:          zerolog.Nop(),
		CORSOrigins:     []string{"*"},
		APIKey:          "secret",
		RateLimitPerMin: 5,
		OutputDir:       dir,
	})

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		want   int
	}{
		{name: "health is public", method: http.MethodGet, path: "/health", want: http.StatusOK},
		{name: "outputs are public", method: http.MethodGet, path: "/outputs/run-1/prompt.txt", want: http.StatusOK},
		{name: "edit needs key", method: http.MethodPost, path: "/edit", want: http.StatusUnauthorized},
		{name: "generate with key but no form", method: http.MethodPost, path: "/generate", auth: "Bearer secret", want: http.StatusBadRequest},
		{name: "run status without database", method: http.MethodGet, path: "/v1/runs/abc", auth: "Bearer secret", want: http.StatusNotFound},
		{name: "unknown route", method: http.MethodGet, path: "/nope", want: http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("%s %s = %d, want %d (%s)", tc.method, tc.path, rec.Code, tc.want, rec.Body.String())
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Fatalf("missing X-Request-ID")
			}
		})
	}
}
