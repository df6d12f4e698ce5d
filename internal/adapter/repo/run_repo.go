package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"garmentedit/internal/domain"
	"garmentedit/internal/infra"
	"garmentedit/internal/sqlinline"
)

// RunRepositoryPG implements domain.RunRepository.
type RunRepositoryPG struct {
	db infra.SQLExecutor
}

// NewRunRepository creates a run repository backed by PostgreSQL.
func NewRunRepository(db infra.SQLExecutor) *RunRepositoryPG {
	return &RunRepositoryPG{db: db}
}

// EnsureSchema creates the edit_runs table when missing.
func (r *RunRepositoryPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, sqlinline.QEnsureRunsTable); err != nil {
		return fmt.Errorf("ensure edit_runs: %w", err)
	}
	return nil
}

// Create inserts a run record. Re-inserting an id updates its outcome.
func (r *RunRepositoryPG) Create(ctx context.Context, run *domain.Run) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("%w: run id is required", domain.ErrValidation)
	}
	var createdAt *time.Time
	if !run.CreatedAt.IsZero() {
		createdAt = &run.CreatedAt
	}
	_, err := r.db.Exec(ctx, sqlinline.QInsertRun,
		run.ID,
		string(run.Status),
		run.Instruction,
		run.HasPerson,
		run.Confidence,
		nullableJSON(run.DescriptionJSON),
		run.Prompt,
		run.Locator,
		run.ErrorCode,
		run.ErrorMessage,
		run.ClientCountry,
		createdAt,
	)
	return err
}

// GetByID fetches a run by its identifier.
func (r *RunRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Run, error) {
	var (
		run         domain.Run
		status      string
		description string
	)
	err := r.db.QueryRow(ctx, sqlinline.QSelectRunByID, id).Scan(
		&run.ID,
		&status,
		&run.Instruction,
		&run.HasPerson,
		&run.Confidence,
		&description,
		&run.Prompt,
		&run.Locator,
		&run.ErrorCode,
		&run.ErrorMessage,
		&run.ClientCountry,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	run.Status = domain.RunStatus(status)
	if description != "" {
		run.DescriptionJSON = []byte(description)
	}
	return &run, nil
}

// nullableJSON passes nil instead of an empty slice so the jsonb column stays null.
func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

var _ domain.RunRepository = (*RunRepositoryPG)(nil)
