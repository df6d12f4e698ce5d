package imagegen

import (
	"context"

	"garmentedit/internal/domain"
)

// Generator turns a synthesized prompt into exactly one image.
type Generator interface {
	Generate(ctx context.Context, prompt string, width, height int) (domain.GenerationResult, error)
}
