package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"garmentedit/internal/domain"
	"garmentedit/internal/middleware"
	"garmentedit/internal/pipeline"
)

type editResponse struct {
	Success     bool                      `json:"success"`
	RunID       string                    `json:"run_id"`
	URL         string                    `json:"url"`
	Analysis    domain.PresenceResult     `json:"analysis"`
	Description domain.GarmentDescription `json:"description"`
	Prompt      string                    `json:"prompt"`
	Artifacts   map[string]string         `json:"artifacts,omitempty"`
	Fallbacks   []pipeline.Fallback       `json:"fallbacks,omitempty"`
}

// Edit accepts multipart fields `prompt` and `image`, runs the pipeline and returns
// the generated image locator with everything that was sent upstream. It serves
// both POST /generate and POST /edit.
func (a *App) Edit(w http.ResponseWriter, r *http.Request) {
	if a.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "payload_too_large", fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		a.error(w, http.StatusBadRequest, domain.ErrorCode(domain.ErrValidation), "required fields: prompt and image")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	instruction := strings.TrimSpace(r.FormValue("prompt"))
	file, _, err := r.FormFile("image")
	if instruction == "" || err != nil {
		a.error(w, http.StatusBadRequest, domain.ErrorCode(domain.ErrValidation), "required fields: prompt and image")
		return
	}
	defer file.Close()
	raw, err := io.ReadAll(file)
	if err != nil {
		a.error(w, http.StatusBadRequest, domain.ErrorCode(domain.ErrValidation), "could not read image")
		return
	}

	res, err := a.Pipeline.Run(r.Context(), pipeline.Request{
		Image:         raw,
		Instruction:   instruction,
		ClientCountry: middleware.CountryFromContext(r.Context()),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.json(w, http.StatusOK, editResponse{
		Success:     true,
		RunID:       res.RunID,
		URL:         res.Locator,
		Analysis:    res.Presence,
		Description: res.Description,
		Prompt:      res.Prompt,
		Artifacts:   a.artifactURLs(res.Artifacts),
		Fallbacks:   res.Fallbacks,
	})
}

func (a *App) artifactURLs(keys map[string]string) map[string]string {
	if len(keys) == 0 {
		return nil
	}
	base := strings.TrimRight(a.PublicBaseURL, "/")
	out := make(map[string]string, len(keys))
	for name, key := range keys {
		out[name] = base + "/outputs/" + key
	}
	return out
}
