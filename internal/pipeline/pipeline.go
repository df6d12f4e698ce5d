// Package pipeline sequences one garment edit: normalize the reference image, detect
// presence, describe the garment, synthesize the prompt and generate the new image.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"garmentedit/internal/analysis"
	"garmentedit/internal/domain"
	"garmentedit/internal/imagegen"
)

// Artifact file names inside a run directory.
const (
	ArtifactReference   = "reference.png"
	ArtifactDescription = "description.json"
	ArtifactPrompt      = "prompt.txt"
)

type Normalizer interface {
	Normalize(raw []byte, width, height int) (*domain.NormalizedImage, error)
}

type PresenceDetector interface {
	Detect(ctx context.Context, img domain.NormalizedImage) (analysis.Result[domain.PresenceResult], error)
}

type GarmentDescriber interface {
	Describe(ctx context.Context, img domain.NormalizedImage) (analysis.Result[domain.GarmentDescription], error)
}

// ArtifactStore receives intermediate artifacts for audit. storage.FileStore
// satisfies it.
type ArtifactStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

type Options struct {
	Normalizer Normalizer
	Presence   PresenceDetector
	Describer  GarmentDescriber
	Generator  imagegen.Generator
	Width      int
	Height     int
	Artifacts  ArtifactStore
	Runs       domain.RunRepository
	Logger     *zerolog.Logger
	NewID      func() string
	Now        func() time.Time
}

type Pipeline struct {
	normalizer Normalizer
	presence   PresenceDetector
	describer  GarmentDescriber
	generator  imagegen.Generator
	width      int
	height     int
	artifacts  ArtifactStore
	runs       domain.RunRepository
	logger     zerolog.Logger
	newID      func() string
	now        func() time.Time
}

func New(opts Options) (*Pipeline, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: pipeline: invalid target size %dx%d", domain.ErrConfig, opts.Width, opts.Height)
	}
	if opts.Normalizer == nil || opts.Presence == nil || opts.Describer == nil || opts.Generator == nil {
		return nil, fmt.Errorf("%w: pipeline: normalizer, presence, describer and generator are required", domain.ErrConfig)
	}
	p := &Pipeline{
		normalizer: opts.Normalizer,
		presence:   opts.Presence,
		describer:  opts.Describer,
		generator:  opts.Generator,
		width:      opts.Width,
		height:     opts.Height,
		artifacts:  opts.Artifacts,
		runs:       opts.Runs,
		logger:     zerolog.Nop(),
		newID:      opts.NewID,
		now:        opts.Now,
	}
	if opts.Logger != nil {
		p.logger = *opts.Logger
	}
	if p.newID == nil {
		p.newID = uuid.NewString
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

type Request struct {
	Image         []byte
	Instruction   string
	ClientCountry string
}

// Fallback records a stage whose reply could not be parsed and was replaced by its
// default.
type Fallback struct {
	Stage string `json:"stage"`
	Raw   string `json:"raw"`
	Error string `json:"error"`
}

type Result struct {
	RunID       string                    `json:"run_id"`
	Locator     string                    `json:"locator"`
	Presence    domain.PresenceResult     `json:"presence"`
	Description domain.GarmentDescription `json:"description"`
	Prompt      string                    `json:"prompt"`
	Fallbacks   []Fallback                `json:"fallbacks,omitempty"`
	// Artifacts maps artifact names to storage keys for the writes that succeeded.
	Artifacts map[string]string       `json:"artifacts,omitempty"`
	Image     *domain.NormalizedImage `json:"-"`
}

// Run executes the stages strictly in sequence. Validation happens before any
// upstream call. The first stage error aborts the run and no partial result is
// returned. Artifact and run record writes never fail the run.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	instruction := strings.TrimSpace(req.Instruction)
	if instruction == "" {
		return nil, fmt.Errorf("%w: instruction is required", domain.ErrValidation)
	}
	if len(req.Image) == 0 {
		return nil, fmt.Errorf("%w: image is required", domain.ErrValidation)
	}

	runID := p.newID()
	logger := p.logger.With().Str("run_id", runID).Logger()
	started := p.now()
	res := &Result{RunID: runID, Artifacts: map[string]string{}}

	fail := func(stage string, err error) (*Result, error) {
		logger.Error().Err(err).Str("stage", stage).Str("code", domain.ErrorCode(err)).Msg("pipeline: run failed")
		p.record(ctx, logger, &domain.Run{
			ID:            runID,
			Status:        domain.RunStatusFailed,
			Instruction:   instruction,
			ErrorCode:     domain.ErrorCode(err),
			ErrorMessage:  err.Error(),
			ClientCountry: req.ClientCountry,
			CreatedAt:     started,
		})
		return nil, err
	}

	img, err := p.normalizer.Normalize(req.Image, p.width, p.height)
	if err != nil {
		return fail("normalize", fmt.Errorf("normalize: %w", err))
	}
	res.Image = img
	logger.Info().Str("stage", "normalize").Int("width", img.Width).Int("height", img.Height).Int("bytes", len(img.Data)).Msg("pipeline: reference normalized")
	p.store(ctx, logger, res, ArtifactReference, img.Data)

	presence, err := p.presence.Detect(ctx, *img)
	if err != nil {
		return fail("presence", err)
	}
	res.Presence = presence.Value
	if !presence.Parsed {
		res.Fallbacks = append(res.Fallbacks, fallbackOf("presence", presence.Raw, presence.Err))
	}
	logger.Info().
		Str("stage", "presence").
		Bool("parsed", presence.Parsed).
		Bool("has_person", presence.Value.HasPerson).
		Float64("confidence", presence.Value.Confidence).
		Str("summary", presence.Value.Summary).
		Msg("pipeline: presence analysed")

	description, err := p.describer.Describe(ctx, *img)
	if err != nil {
		return fail("description", err)
	}
	res.Description = description.Value
	if !description.Parsed {
		res.Fallbacks = append(res.Fallbacks, fallbackOf("description", description.Raw, description.Err))
	}
	descJSON, err := json.MarshalIndent(description.Value, "", "  ")
	if err != nil {
		logger.Warn().Err(err).Msg("pipeline: description not serialisable")
	}
	logger.Info().
		Str("stage", "description").
		Bool("parsed", description.Parsed).
		Int("fields", description.Value.Len()).
		Msg("pipeline: garment described")
	if err == nil {
		p.store(ctx, logger, res, ArtifactDescription, descJSON)
	}

	res.Prompt = imagegen.Synthesize(description.Value, instruction, presence.Value.HasPerson)
	logger.Debug().Str("stage", "prompt").Str("preview", preview(res.Prompt, 600)).Msg("pipeline: prompt synthesized")
	p.store(ctx, logger, res, ArtifactPrompt, []byte(res.Prompt))

	generated, err := p.generator.Generate(ctx, res.Prompt, p.width, p.height)
	if err != nil {
		return fail("generate", err)
	}
	res.Locator = generated.Locator
	logger.Info().Str("stage", "generate").Dur("elapsed", p.now().Sub(started)).Msg("pipeline: image generated")

	p.record(ctx, logger, &domain.Run{
		ID:              runID,
		Status:          domain.RunStatusSucceeded,
		Instruction:     instruction,
		HasPerson:       res.Presence.HasPerson,
		Confidence:      res.Presence.Confidence,
		DescriptionJSON: descJSON,
		Prompt:          res.Prompt,
		Locator:         res.Locator,
		ClientCountry:   req.ClientCountry,
		CreatedAt:       started,
	})
	return res, nil
}

func (p *Pipeline) store(ctx context.Context, logger zerolog.Logger, res *Result, name string, data []byte) {
	if p.artifacts == nil {
		return
	}
	key, err := p.artifacts.Write(ctx, res.RunID+"/"+name, data)
	if err != nil {
		logger.Warn().Err(err).Str("artifact", name).Msg("pipeline: artifact write failed")
		return
	}
	res.Artifacts[name] = key
}

// record stores the audit row even when the request context was cancelled.
func (p *Pipeline) record(ctx context.Context, logger zerolog.Logger, run *domain.Run) {
	if p.runs == nil {
		return
	}
	if err := p.runs.Create(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn().Err(err).Msg("pipeline: run record not saved")
	}
}

func fallbackOf(stage, raw string, err error) Fallback {
	if err == nil {
		err = errors.New("unparsable reply")
	}
	return Fallback{Stage: stage, Raw: raw, Error: err.Error()}
}

// preview truncates s to at most n bytes without splitting a rune.
func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
