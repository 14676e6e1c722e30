package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"draws-api/internal/domain"
	"draws-api/pkg/database"

	"github.com/jackc/pgx/v5"
)

type PgWinnerRepository struct {
	db *database.PostgresDB
}

func NewWinnerRepository(db *database.PostgresDB) *PgWinnerRepository {
	return &PgWinnerRepository{db: db}
}

const winnerColumns = `
	id, draw_id, draw_type, participant_id, entry_number, cycle,
	selected_at, selection_method, selected_by, prize_snapshot,
	image_url, notified
`

// GetByID retrieves a winner record
func (r *PgWinnerRepository) GetByID(ctx context.Context, id string) (*domain.Winner, error) {
	query := `SELECT ` + winnerColumns + ` FROM winners WHERE id = $1`

	w, err := scanWinner(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get winner: %w", err)
	}

	return w, nil
}

// ListByDraw returns a draw's winner history, oldest first. The winners
// table is the append-only history: a draw's past results survive the
// ledger resets that clear its entries.
func (r *PgWinnerRepository) ListByDraw(ctx context.Context, drawID string) ([]domain.Winner, error) {
	query := `
		SELECT ` + winnerColumns + `
		FROM winners
		WHERE draw_id = $1
		ORDER BY cycle ASC, selected_at ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, drawID)
	if err != nil {
		return nil, fmt.Errorf("failed to list winners: %w", err)
	}
	defer rows.Close()

	var winners []domain.Winner
	for rows.Next() {
		w, err := scanWinner(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan winner: %w", err)
		}
		winners = append(winners, *w)
	}

	return winners, rows.Err()
}

// MarkNotified flips the notified flag once the notification collaborator
// confirms delivery. Every other field of a winner record is immutable.
func (r *PgWinnerRepository) MarkNotified(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE winners SET notified = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark winner notified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("winner %s not found", id)
	}
	return nil
}

func scanWinner(row rowScanner) (*domain.Winner, error) {
	var (
		w         domain.Winner
		prizeJSON []byte
		imageURL  *string
	)

	err := row.Scan(
		&w.ID,
		&w.DrawID,
		&w.DrawType,
		&w.ParticipantID,
		&w.EntryNumber,
		&w.Cycle,
		&w.SelectedAt,
		&w.SelectionMethod,
		&w.SelectedBy,
		&prizeJSON,
		&imageURL,
		&w.Notified,
	)
	if err != nil {
		return nil, err
	}

	if imageURL != nil {
		w.ImageURL = *imageURL
	}
	if len(prizeJSON) > 0 {
		if err := json.Unmarshal(prizeJSON, &w.PrizeSnapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal prize snapshot: %w", err)
		}
	}

	return &w, nil
}
