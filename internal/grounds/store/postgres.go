package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"bidrag/internal/domain"
	id "bidrag/pkg/domain"
	"bidrag/pkg/platform/sentinel"
)

// Schema creates the generations table. Applied by the migration tooling in
// production; integration tests apply it directly.
const Schema = `
CREATE TABLE IF NOT EXISTS grounds_generations (
	case_id      UUID        NOT NULL,
	generation   BIGINT      NOT NULL,
	activated_at TIMESTAMPTZ NOT NULL,
	activated_by TEXT        NOT NULL,
	grounds      JSONB       NOT NULL,
	PRIMARY KEY (case_id, generation)
)`

// PostgresStore persists grounds generations in PostgreSQL, one row per
// activation with the full node list as JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema applies the table definition.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure grounds schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Active(ctx context.Context, caseID id.CaseID) (*Generation, error) {
	query := `
		SELECT generation, activated_at, activated_by, grounds
		FROM grounds_generations
		WHERE case_id = $1
		ORDER BY generation DESC
		LIMIT 1
	`
	gen := Generation{CaseID: caseID}
	var grounds []byte
	err := s.db.QueryRowContext(ctx, query, caseID.String()).
		Scan(&gen.Number, &gen.ActivatedAt, &gen.ActivatedBy, &grounds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load active generation: %w", err)
	}
	if err := json.Unmarshal(grounds, &gen.Grounds); err != nil {
		return nil, fmt.Errorf("decode active generation: %w", err)
	}
	return &gen, nil
}

func (s *PostgresStore) Generations(ctx context.Context, caseID id.CaseID) ([]Generation, error) {
	query := `
		SELECT generation, activated_at, activated_by, grounds
		FROM grounds_generations
		WHERE case_id = $1
		ORDER BY generation ASC
	`
	rows, err := s.db.QueryContext(ctx, query, caseID.String())
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()

	var gens []Generation
	for rows.Next() {
		gen := Generation{CaseID: caseID}
		var grounds []byte
		if err := rows.Scan(&gen.Number, &gen.ActivatedAt, &gen.ActivatedBy, &grounds); err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		if err := json.Unmarshal(grounds, &gen.Grounds); err != nil {
			return nil, fmt.Errorf("decode generation %d: %w", gen.Number, err)
		}
		gens = append(gens, gen)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	return gens, nil
}

// Activate appends the next generation. Two concurrent activations compute
// the same next number; the primary key decides the winner and the loser
// surfaces as sentinel.ErrConflict.
func (s *PostgresStore) Activate(ctx context.Context, caseID id.CaseID, grounds domain.GroundsSet, actor string, at time.Time) (*Generation, error) {
	encoded, err := json.Marshal(grounds)
	if err != nil {
		return nil, fmt.Errorf("encode grounds: %w", err)
	}

	query := `
		INSERT INTO grounds_generations (case_id, generation, activated_at, activated_by, grounds)
		SELECT $1, COALESCE(MAX(generation), 0) + 1, $2, $3, $4
		FROM grounds_generations
		WHERE case_id = $1
		RETURNING generation
	`
	gen := Generation{CaseID: caseID, ActivatedAt: at, ActivatedBy: actor, Grounds: grounds}
	err = s.db.QueryRowContext(ctx, query, caseID.String(), at, actor, encoded).Scan(&gen.Number)
	if isUniqueViolation(err) {
		return nil, sentinel.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("activate generation: %w", err)
	}
	return &gen, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
