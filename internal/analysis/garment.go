package analysis

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"garmentedit/internal/domain"
	"garmentedit/internal/providers/vision"
)

const garmentInstruction = `You are a visual analyst and professional photographer specialised in physical realism and fashion.
Describe images with a technical focus and textile detail, the way a photographer and a clothing designer would.

Produce pure, valid JSON describing the image with physical realism and rich fashion detail.

Required JSON output format:
{
  "overall_view": "...",
  "garment_type": "...",
  "cut_and_fit": "...",
  "garment_structure": "...",
  "textures_and_materials": "...",
  "color_and_pattern": "...",
  "lighting": "...",
  "camera_config": "...",
  "depth_of_field": "...",
  "natural_imperfections": "...",
  "environment_and_background": "...",
  "atmosphere": "...",
  "photographic_style": "...",
  "dominant_color_hex": "#RRGGBB",
  "secondary_colors_hex": ["#RRGGBB"]
}

Rules:
- Always start with { and end with }.
- State whether the garment is long or short and whether it has a neckline, collar, slit, sleeves, train or transparency.
- Describe the fabric type, its texture and how it behaves under light.
- dominant_color_hex is the main garment color as a hex string; secondary_colors_hex lists other garment colors, most prominent first.
- Speak as a photographer and stylist, not as a critic.
- Do not invent details: describe only what is visible.`

const garmentQuestion = "Describe this image technically:"

// GarmentDescriber extracts a multi-field garment description from the reference image.
type GarmentDescriber struct {
	analyzer vision.Analyzer
	logger   zerolog.Logger
}

func NewGarmentDescriber(analyzer vision.Analyzer, logger *zerolog.Logger) *GarmentDescriber {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &GarmentDescriber{analyzer: analyzer, logger: l}
}

// Describe runs one analysis call. Fields are not validated; hex colors stay free text.
func (g *GarmentDescriber) Describe(ctx context.Context, img domain.NormalizedImage) (Result[domain.GarmentDescription], error) {
	raw, err := g.analyzer.Analyze(ctx, vision.Request{
		Label:       "description",
		Instruction: garmentInstruction,
		Question:    garmentQuestion,
		Image:       img.Data,
		MIME:        img.MIME,
	})
	if err != nil {
		return Result[domain.GarmentDescription]{}, fmt.Errorf("description: %w", err)
	}
	return ParseDescription(raw, g.logger), nil
}

// ParseDescription decodes raw model text into a description, or degrades to a single
// overall_view field holding the raw text.
func ParseDescription(raw string, logger zerolog.Logger) Result[domain.GarmentDescription] {
	desc, err := parseModelPayload[domain.GarmentDescription](raw)
	if err != nil {
		logger.Warn().Err(err).Str("stage", "description").Str("raw", raw).Msg("analysis: description reply not parsable, using raw text")
		fallback := domain.NewGarmentDescription(domain.DescriptionField{Key: domain.FieldOverallView, Value: raw})
		return Fallback(fallback, raw, err)
	}
	return Parsed(desc, raw)
}
