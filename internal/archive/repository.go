// Package archive persists final snapshots of ended polls for after-class
// review. Write-only: the session never reads it back, so in-memory state
// stays the single authority.
package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpulse/backend/internal/models"
)

// Repository stores ended polls in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a poll archive repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveEndedPoll inserts the final snapshot of a poll. Inserting the same poll
// id twice is a no-op, so a retried save cannot duplicate rows.
func (r *Repository) SaveEndedPoll(ctx context.Context, p *models.Poll) error {
	options, err := json.Marshal(p.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	results, err := json.Marshal(p.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO ended_polls (id, question, options, duration_seconds, started_at, ended_at, total_votes, results)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Question, options, p.Duration, p.StartTime, p.EndTime, len(p.Answers), results,
	)
	if err != nil {
		return fmt.Errorf("insert ended poll: %w", err)
	}
	return nil
}
