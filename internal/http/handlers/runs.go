package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"garmentedit/internal/domain"
	"garmentedit/pkg/zip"
)

type runResponse struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	Instruction   string          `json:"instruction"`
	HasPerson     bool            `json:"has_person"`
	Confidence    float64         `json:"confidence"`
	Description   json.RawMessage `json:"description,omitempty"`
	Prompt        string          `json:"prompt,omitempty"`
	URL           string          `json:"url,omitempty"`
	ErrorCode     string          `json:"error_code,omitempty"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	ClientCountry string          `json:"client_country,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// RunStatus returns the persisted record of a run. Without a database every id is
// unknown.
func (a *App) RunStatus(w http.ResponseWriter, r *http.Request) {
	runID, ok := a.runID(w, r)
	if !ok {
		return
	}
	if a.Runs == nil {
		a.error(w, http.StatusNotFound, "not_found", "run records are not persisted")
		return
	}
	run, err := a.Runs.GetByID(r.Context(), runID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	resp := runResponse{
		ID:            run.ID,
		Status:        string(run.Status),
		Instruction:   run.Instruction,
		HasPerson:     run.HasPerson,
		Confidence:    run.Confidence,
		Prompt:        run.Prompt,
		URL:           run.Locator,
		ErrorCode:     run.ErrorCode,
		ErrorMessage:  run.ErrorMessage,
		ClientCountry: run.ClientCountry,
		CreatedAt:     run.CreatedAt,
	}
	if json.Valid(run.DescriptionJSON) {
		resp.Description = run.DescriptionJSON
	}
	a.json(w, http.StatusOK, resp)
}

// RunBundle streams a zip of the artifacts stored for a run.
func (a *App) RunBundle(w http.ResponseWriter, r *http.Request) {
	runID, ok := a.runID(w, r)
	if !ok {
		return
	}
	if a.Artifacts == nil {
		a.error(w, http.StatusNotFound, "not_found", "artifacts are not stored")
		return
	}
	keys, err := a.Artifacts.List(r.Context(), runID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	assets := make([]zip.Asset, 0, len(keys))
	for _, key := range keys {
		data, err := a.Artifacts.Read(r.Context(), key)
		if err != nil {
			a.requestLogger(r).Warn().Err(err).Str("key", key).Msg("bundle: skipping unreadable artifact")
			continue
		}
		assets = append(assets, zip.Asset{Filename: path.Base(key), Data: data})
	}
	if len(assets) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "run has no artifacts")
		return
	}
	archive, err := zip.ArchiveAssets(assets)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=run-%s.zip", runID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (a *App) runID(w http.ResponseWriter, r *http.Request) (string, bool) {
	runID := strings.TrimSpace(chi.URLParam(r, "id"))
	if runID == "" || runID == "." || runID == ".." || strings.ContainsAny(runID, `/\`) {
		a.fail(w, r, fmt.Errorf("%w: invalid run id", domain.ErrValidation))
		return "", false
	}
	return runID, true
}
