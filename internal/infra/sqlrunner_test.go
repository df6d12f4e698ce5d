package infra

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

type recordingExecutor struct {
	queries []string
}

func (r *recordingExecutor) Exec(_ context.Context, query string, _ ...any) (pgconn.CommandTag, error) {
	r.queries = append(r.queries, query)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (r *recordingExecutor) QueryRow(_ context.Context, query string, _ ...any) pgx.Row {
	r.queries = append(r.queries, query)
	return errorRow{err: pgx.ErrNoRows}
}

func (r *recordingExecutor) Query(_ context.Context, query string, _ ...any) (pgx.Rows, error) {
	r.queries = append(r.queries, query)
	return nil, errors.New("not supported")
}

func TestSQLRunnerStripsMarker(t *testing.T) {
	exec := &recordingExecutor{}
	runner := NewSQLRunner(exec, zerolog.Nop())

	query := "--sql 0b6a3f4e-1d2c-4b5a-9e8f-7a6b5c4d3e2f\ninsert into runs (id) values ($1);"
	tag, err := runner.Exec(context.Background(), query, "id")
	if err != nil {
		t.Fatalf("Exec error: %v", err)
	}
	if tag.RowsAffected() != 1 {
		t.Fatalf("rows affected = %d", tag.RowsAffected())
	}
	if len(exec.queries) != 1 || exec.queries[0] != "insert into runs (id) values ($1);" {
		t.Fatalf("unexpected forwarded query: %#v", exec.queries)
	}

	var id string
	err = runner.QueryRow(context.Background(), "--sql 0b6a3f4e-1d2c-4b5a-9e8f-7a6b5c4d3e2f\nselect 1;").Scan(&id)
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
}

func TestSQLRunnerRejectsUnmarkedQueries(t *testing.T) {
	exec := &recordingExecutor{}
	runner := NewSQLRunner(exec, zerolog.Nop())

	for _, query := range []string{"select 1;", "--sql not-a-uuid\nselect 1;", "   "} {
		if _, err := runner.Exec(context.Background(), query); err == nil {
			t.Fatalf("expected error for %q", query)
		}
		var v int
		if err := runner.QueryRow(context.Background(), query).Scan(&v); err == nil {
			t.Fatalf("expected row error for %q", query)
		}
	}
	if len(exec.queries) != 0 {
		t.Fatalf("unmarked queries reached the database: %#v", exec.queries)
	}
}

func TestExtractMarker(t *testing.T) {
	marker, body, err := ExtractMarker("\n  --sql 0b6a3f4e-1d2c-4b5a-9e8f-7a6b5c4d3e2f\nselect 1;\n")
	if err != nil {
		t.Fatalf("ExtractMarker error: %v", err)
	}
	if marker != "0b6a3f4e-1d2c-4b5a-9e8f-7a6b5c4d3e2f" || body != "select 1;" {
		t.Fatalf("unexpected split: %q %q", marker, body)
	}
}
