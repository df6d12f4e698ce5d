package analysis

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"garmentedit/internal/domain"
	"garmentedit/internal/providers/vision"
)

const presenceInstruction = `Respond only with JSON:
{
  "has_person": true|false,
  "confidence": 0.0-1.0,
  "summary": "objective summary of what appears in the image"
}`

const presenceQuestion = "Does this image contain a person, a human body part or a mannequin?"

// PresenceDetector asks the vision model whether a person or mannequin is visible.
type PresenceDetector struct {
	analyzer vision.Analyzer
	logger   zerolog.Logger
}

func NewPresenceDetector(analyzer vision.Analyzer, logger *zerolog.Logger) *PresenceDetector {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &PresenceDetector{analyzer: analyzer, logger: l}
}

type presencePayload struct {
	HasPerson  bool    `json:"has_person"`
	Confidence float64 `json:"confidence"`
	Summary    string  `json:"summary"`
}

// Detect runs one analysis call. Replies that do not decode into the expected object
// become {has_person:false, confidence:0, summary:<raw>}; only upstream failures
// are returned as errors.
func (d *PresenceDetector) Detect(ctx context.Context, img domain.NormalizedImage) (Result[domain.PresenceResult], error) {
	raw, err := d.analyzer.Analyze(ctx, vision.Request{
		Label:       "presence",
		Instruction: presenceInstruction,
		Question:    presenceQuestion,
		Image:       img.Data,
		MIME:        img.MIME,
	})
	if err != nil {
		return Result[domain.PresenceResult]{}, fmt.Errorf("presence: %w", err)
	}
	return ParsePresence(raw, d.logger), nil
}

// ParsePresence applies the presence parse-or-default policy to raw model text.
func ParsePresence(raw string, logger zerolog.Logger) Result[domain.PresenceResult] {
	payload, err := parseModelPayload[presencePayload](raw)
	if err != nil {
		logger.Warn().Err(err).Str("stage", "presence").Str("raw", raw).Msg("analysis: presence reply not parsable, using default")
		return Fallback(domain.PresenceResult{Summary: raw}, raw, err)
	}
	return Parsed(domain.PresenceResult{
		HasPerson:  payload.HasPerson,
		Confidence: payload.Confidence,
		Summary:    payload.Summary,
	}, raw)
}
