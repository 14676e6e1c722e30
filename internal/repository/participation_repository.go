package repository

import (
	"context"
	"fmt"

	"draws-api/pkg/database"

	"github.com/jackc/pgx/v5"
)

type PgParticipationRepository struct {
	db *database.PostgresDB
}

func NewParticipationRepository(db *database.PostgresDB) *PgParticipationRepository {
	return &PgParticipationRepository{db: db}
}

// Get retrieves one participation record
func (r *PgParticipationRepository) Get(ctx context.Context, drawID, participantID string) (*Participation, error) {
	var p Participation
	query := `
		SELECT draw_id, participant_id, is_active, cached_entries
		FROM participations
		WHERE draw_id = $1 AND participant_id = $2
	`

	err := r.db.Pool.QueryRow(ctx, query, drawID, participantID).Scan(
		&p.DrawID,
		&p.ParticipantID,
		&p.IsActive,
		&p.CachedEntries,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}

	return &p, nil
}

// ListActiveByDraw returns the active participation rows of a draw
func (r *PgParticipationRepository) ListActiveByDraw(ctx context.Context, drawID string) ([]Participation, error) {
	query := `
		SELECT draw_id, participant_id, is_active, cached_entries
		FROM participations
		WHERE draw_id = $1 AND is_active = true
		ORDER BY participant_id ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, drawID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}
	defer rows.Close()

	var out []Participation
	for rows.Next() {
		var p Participation
		if err := rows.Scan(&p.DrawID, &p.ParticipantID, &p.IsActive, &p.CachedEntries); err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		out = append(out, p)
	}

	return out, rows.Err()
}
