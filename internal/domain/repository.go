package domain

import "context"

// RunRepository persists audit records of pipeline runs.
type RunRepository interface {
	Create(ctx context.Context, run *Run) error
	GetByID(ctx context.Context, id string) (*Run, error)
}
