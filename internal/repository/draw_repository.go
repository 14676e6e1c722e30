package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"draws-api/internal/domain"
	"draws-api/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type PgDrawRepository struct {
	db *database.PostgresDB
}

func NewDrawRepository(db *database.PostgresDB) *PgDrawRepository {
	return &PgDrawRepository{db: db}
}

const drawColumns = `
	id, draw_type, name, description, status, cycle, total_entries,
	minimum_entries, prize, configuration_locked, locked_at, latest_winner_id,
	draw_date, activation_date, freeze_entries_at, start_date, end_date,
	created_at, updated_at
`

// Create persists a new draw aggregate
func (r *PgDrawRepository) Create(ctx context.Context, draw *domain.Draw) error {
	prizeJSON, err := json.Marshal(draw.Prize)
	if err != nil {
		return fmt.Errorf("failed to marshal prize: %w", err)
	}

	query := `
		INSERT INTO draws (
			id, draw_type, name, description, status, cycle, total_entries,
			minimum_entries, prize, configuration_locked,
			draw_date, activation_date, freeze_entries_at, start_date, end_date,
			month_bucket
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at
	`

	err = r.db.Pool.QueryRow(ctx, query,
		draw.ID,
		draw.Type,
		draw.Name,
		draw.Description,
		draw.Status,
		draw.Cycle,
		draw.TotalEntries,
		draw.MinimumEntries,
		prizeJSON,
		draw.ConfigurationLocked,
		draw.DrawDate,
		draw.ActivationDate,
		draw.FreezeEntriesAt,
		draw.StartDate,
		draw.EndDate,
		draw.MonthBucket,
	).Scan(&draw.CreatedAt, &draw.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "idx_draws_major_month_live" {
			return domain.ErrMonthOccupied
		}
		return fmt.Errorf("failed to create draw: %w", err)
	}

	return nil
}

// GetByID loads a draw with its full entry ledger in insertion order
func (r *PgDrawRepository) GetByID(ctx context.Context, id string) (*domain.Draw, error) {
	query := `SELECT ` + drawColumns + ` FROM draws WHERE id = $1`

	draw, err := scanDraw(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw: %w", err)
	}

	entries, err := loadEntries(ctx, r.db.Pool, id)
	if err != nil {
		return nil, err
	}
	draw.Entries = entries

	return draw, nil
}

// FindMajorInMonth returns the non-terminal major draw whose draw date
// falls in [start, next), or nil if the month is free
func (r *PgDrawRepository) FindMajorInMonth(ctx context.Context, start, next time.Time) (*domain.Draw, error) {
	query := `
		SELECT ` + drawColumns + `
		FROM draws
		WHERE draw_type = 'major'
		  AND status NOT IN ('completed', 'cancelled')
		  AND draw_date >= $1 AND draw_date < $2
		ORDER BY draw_date ASC
		LIMIT 1
	`

	draw, err := scanDraw(r.db.Pool.QueryRow(ctx, query, start, next))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find major draw in month: %w", err)
	}

	return draw, nil
}

// GrantEntries applies an atomic entry grant. The draw total and the
// ledger row are incremented as field-scoped updates in one short
// transaction, never as a read-modify-write of the whole aggregate, so
// concurrent grants on the same draw cannot lose updates. The draw-row
// update also takes the row lock that the selection transaction holds,
// strictly ordering every grant before or after a selection window.
func (r *PgDrawRepository) GrantEntries(ctx context.Context, drawID, participantID string, count int64, source domain.EntrySource) (*domain.EntryAggregate, error) {
	if count <= 0 {
		return nil, fmt.Errorf("grant count must be positive, got %d", count)
	}

	column, err := sourceColumn(source)
	if err != nil {
		return nil, err
	}

	var row domain.EntryAggregate

	err = r.db.WithTx(ctx, func(tx pgx.Tx) error {
		// Status gate and draw-total increment in one statement. The WHERE
		// clause re-derives the entry-accepting state inside the database
		// so the check and the increment are atomic.
		gate := `
			UPDATE draws
			SET total_entries = total_entries + $2,
			    configuration_locked = true,
			    locked_at = COALESCE(locked_at, now()),
			    updated_at = now()
			WHERE id = $1
			  AND (
			        (draw_type = 'mini' AND status = 'active')
			     OR (draw_type = 'major'
			         AND status NOT IN ('completed', 'cancelled')
			         AND (start_date IS NULL OR start_date <= now())
			         AND freeze_entries_at > now())
			      )
		`
		tag, err := tx.Exec(ctx, gate, drawID, count)
		if err != nil {
			return fmt.Errorf("failed to increment draw total: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return r.grantRejection(ctx, tx, drawID)
		}

		upsert := fmt.Sprintf(`
			INSERT INTO draw_entries (
				draw_id, participant_id, total_entries, %s,
				first_added_at, last_updated_at
			)
			VALUES ($1, $2, $3, $3, now(), now())
			ON CONFLICT (draw_id, participant_id) DO UPDATE SET
				total_entries = draw_entries.total_entries + EXCLUDED.total_entries,
				%s = draw_entries.%s + EXCLUDED.%s,
				last_updated_at = now()
			RETURNING participant_id, total_entries,
				purchase_entries, membership_entries, free_entries,
				package_entries, upsell_entries, other_entries,
				first_added_at, last_updated_at
		`, column, column, column, column)

		err = tx.QueryRow(ctx, upsert, drawID, participantID, count).Scan(
			&row.ParticipantID,
			&row.TotalEntries,
			&row.Sources.Purchase,
			&row.Sources.Membership,
			&row.Sources.FreeEntry,
			&row.Sources.Package,
			&row.Sources.Upsell,
			&row.Sources.Other,
			&row.FirstAddedAt,
			&row.LastUpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert ledger row: %w", err)
		}

		if row.TotalEntries != row.Sources.Total() {
			return &domain.InvariantViolationError{
				Invariant: "entry-source-sum",
				Detail:    "ledger row total diverged from its source counts after grant",
			}
		}

		// Keep the participant's cached per-draw state in sync
		participation := `
			INSERT INTO participations (draw_id, participant_id, is_active, cached_entries, updated_at)
			VALUES ($1, $2, true, $3, now())
			ON CONFLICT (draw_id, participant_id) DO UPDATE SET
				is_active = true,
				cached_entries = participations.cached_entries + EXCLUDED.cached_entries,
				updated_at = now()
		`
		if _, err := tx.Exec(ctx, participation, drawID, participantID, count); err != nil {
			return fmt.Errorf("failed to upsert participation: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, mapTxError(err)
	}

	return &row, nil
}

// grantRejection turns a zero-row status gate into the right typed error
func (r *PgDrawRepository) grantRejection(ctx context.Context, tx pgx.Tx, drawID string) error {
	draw, err := scanDraw(tx.QueryRow(ctx, `SELECT `+drawColumns+` FROM draws WHERE id = $1`, drawID))
	if err == pgx.ErrNoRows {
		return &domain.DrawNotFoundError{DrawID: drawID}
	}
	if err != nil {
		return fmt.Errorf("failed to load draw for rejection detail: %w", err)
	}
	return &domain.DrawNotAcceptingEntriesError{
		DrawID: drawID,
		Status: draw.DerivedStatus(time.Now()),
	}
}

// UpdateConfig updates a draw's configuration. Once the draw has accepted
// entries the configuration is locked and only the safe field subset
// (name, description, status) may change; prize edits are rejected.
func (r *PgDrawRepository) UpdateConfig(ctx context.Context, drawID string, changes DrawConfigChanges) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var locked bool
		err := tx.QueryRow(ctx, `SELECT configuration_locked FROM draws WHERE id = $1 FOR UPDATE`, drawID).Scan(&locked)
		if err == pgx.ErrNoRows {
			return &domain.DrawNotFoundError{DrawID: drawID}
		}
		if err != nil {
			return fmt.Errorf("failed to lock draw for update: %w", err)
		}

		if locked && changes.Prize != nil {
			return &domain.InvalidDrawStateError{
				DrawID: drawID,
				Status: domain.StatusActive,
				Reason: "configuration is locked; only name, description and status may change",
			}
		}

		if changes.Name != nil {
			if _, err := tx.Exec(ctx, `UPDATE draws SET name = $2, updated_at = now() WHERE id = $1`, drawID, *changes.Name); err != nil {
				return fmt.Errorf("failed to update name: %w", err)
			}
		}
		if changes.Description != nil {
			if _, err := tx.Exec(ctx, `UPDATE draws SET description = $2, updated_at = now() WHERE id = $1`, drawID, *changes.Description); err != nil {
				return fmt.Errorf("failed to update description: %w", err)
			}
		}
		if changes.Status != nil {
			if _, err := tx.Exec(ctx, `UPDATE draws SET status = $2, updated_at = now() WHERE id = $1`, drawID, *changes.Status); err != nil {
				return fmt.Errorf("failed to update status: %w", err)
			}
		}
		if changes.Prize != nil {
			prizeJSON, err := json.Marshal(*changes.Prize)
			if err != nil {
				return fmt.Errorf("failed to marshal prize: %w", err)
			}
			if _, err := tx.Exec(ctx, `UPDATE draws SET prize = $2, updated_at = now() WHERE id = $1`, drawID, prizeJSON); err != nil {
				return fmt.Errorf("failed to update prize: %w", err)
			}
		}

		return nil
	})
}

// SelectWinnerAndReset is the multi-entity atomic selection operation.
// The draw row is locked FOR UPDATE for the whole snapshot-to-reset
// window, which excludes concurrent grants (they update the same row), so
// a grant is strictly ordered before the snapshot or after the reset. Any
// guard failure from build rolls the transaction back with no partial
// state: no orphan winner record, no cleared ledger without its winner.
func (r *PgDrawRepository) SelectWinnerAndReset(ctx context.Context, drawID string, build func(*domain.Draw) (*domain.Winner, error)) (*domain.Winner, error) {
	var winner *domain.Winner

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		draw, err := scanDraw(tx.QueryRow(ctx, `SELECT `+drawColumns+` FROM draws WHERE id = $1 FOR UPDATE`, drawID))
		if err == pgx.ErrNoRows {
			return &domain.DrawNotFoundError{DrawID: drawID}
		}
		if err != nil {
			return fmt.Errorf("failed to lock draw: %w", err)
		}

		entries, err := loadEntriesTx(ctx, tx, drawID)
		if err != nil {
			return err
		}
		draw.Entries = entries

		if err := draw.CheckLedger(); err != nil {
			return err
		}

		winner, err = build(draw)
		if err != nil {
			winner = nil
			return err
		}

		prizeJSON, err := json.Marshal(winner.PrizeSnapshot)
		if err != nil {
			return fmt.Errorf("failed to marshal prize snapshot: %w", err)
		}

		insertWinner := `
			INSERT INTO winners (
				id, draw_id, draw_type, participant_id, entry_number, cycle,
				selected_at, selection_method, selected_by, prize_snapshot,
				image_url, notified
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, false)
		`
		_, err = tx.Exec(ctx, insertWinner,
			winner.ID,
			winner.DrawID,
			winner.DrawType,
			winner.ParticipantID,
			winner.EntryNumber,
			winner.Cycle,
			winner.SelectedAt,
			winner.SelectionMethod,
			winner.SelectedBy,
			prizeJSON,
			nullable(winner.ImageURL),
		)
		if err != nil {
			return fmt.Errorf("failed to insert winner: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM draw_entries WHERE draw_id = $1`, drawID); err != nil {
			return fmt.Errorf("failed to clear entry ledger: %w", err)
		}

		var reset string
		if draw.Type == domain.DrawTypeMini {
			reset = `
				UPDATE draws
				SET total_entries = 0, configuration_locked = false, locked_at = NULL,
				    latest_winner_id = $2, cycle = cycle + 1, status = 'active',
				    updated_at = now()
				WHERE id = $1
			`
		} else {
			reset = `
				UPDATE draws
				SET total_entries = 0, configuration_locked = false, locked_at = NULL,
				    latest_winner_id = $2, status = 'completed',
				    updated_at = now()
				WHERE id = $1
			`
		}
		if _, err := tx.Exec(ctx, reset, drawID, winner.ID); err != nil {
			return fmt.Errorf("failed to reset draw: %w", err)
		}

		// Deactivate every participation held at the snapshot, scoped
		// strictly to this draw.
		deactivate := `
			UPDATE participations
			SET is_active = false, cached_entries = 0, updated_at = now()
			WHERE draw_id = $1
		`
		if _, err := tx.Exec(ctx, deactivate, drawID); err != nil {
			return fmt.Errorf("failed to deactivate participations: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, mapTxError(err)
	}

	return winner, nil
}

// ExportParticipants returns the draw's ledger sorted by total entries
// descending. This is a reporting projection; ticket resolution never uses
// this ordering.
func (r *PgDrawRepository) ExportParticipants(ctx context.Context, drawID string) ([]domain.ParticipantExport, error) {
	query := `
		SELECT participant_id, total_entries,
			purchase_entries, membership_entries, free_entries,
			package_entries, upsell_entries, other_entries,
			first_added_at, last_updated_at
		FROM draw_entries
		WHERE draw_id = $1
		ORDER BY total_entries DESC, position ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, drawID)
	if err != nil {
		return nil, fmt.Errorf("failed to export participants: %w", err)
	}
	defer rows.Close()

	var out []domain.ParticipantExport
	for rows.Next() {
		var p domain.ParticipantExport
		err := rows.Scan(
			&p.ParticipantID,
			&p.TotalEntries,
			&p.Sources.Purchase,
			&p.Sources.Membership,
			&p.Sources.FreeEntry,
			&p.Sources.Package,
			&p.Sources.Upsell,
			&p.Sources.Other,
			&p.FirstAddedAt,
			&p.LastUpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export row: %w", err)
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

// rowScanner covers pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDraw(row rowScanner) (*domain.Draw, error) {
	var (
		d              domain.Draw
		prizeJSON      []byte
		latestWinnerID *string
	)

	err := row.Scan(
		&d.ID,
		&d.Type,
		&d.Name,
		&d.Description,
		&d.Status,
		&d.Cycle,
		&d.TotalEntries,
		&d.MinimumEntries,
		&prizeJSON,
		&d.ConfigurationLocked,
		&d.LockedAt,
		&latestWinnerID,
		&d.DrawDate,
		&d.ActivationDate,
		&d.FreezeEntriesAt,
		&d.StartDate,
		&d.EndDate,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if latestWinnerID != nil {
		d.LatestWinnerID = *latestWinnerID
	}
	if len(prizeJSON) > 0 {
		if err := json.Unmarshal(prizeJSON, &d.Prize); err != nil {
			return nil, fmt.Errorf("failed to unmarshal prize: %w", err)
		}
	}

	return &d, nil
}

const entryColumns = `
	participant_id, total_entries,
	purchase_entries, membership_entries, free_entries,
	package_entries, upsell_entries, other_entries,
	first_added_at, last_updated_at
`

// querier covers pgxpool.Pool and pgx.Tx for reads
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// loadEntries loads the entry ledger in insertion order. ORDER BY position
// is load-bearing: ticket numbering is derived from this ordering.
func loadEntries(ctx context.Context, q querier, drawID string) ([]domain.EntryAggregate, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM draw_entries
		WHERE draw_id = $1
		ORDER BY position ASC
	`

	rows, err := q.Query(ctx, query, drawID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entry ledger: %w", err)
	}
	defer rows.Close()

	var entries []domain.EntryAggregate
	for rows.Next() {
		var e domain.EntryAggregate
		err := rows.Scan(
			&e.ParticipantID,
			&e.TotalEntries,
			&e.Sources.Purchase,
			&e.Sources.Membership,
			&e.Sources.FreeEntry,
			&e.Sources.Package,
			&e.Sources.Upsell,
			&e.Sources.Other,
			&e.FirstAddedAt,
			&e.LastUpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func loadEntriesTx(ctx context.Context, tx pgx.Tx, drawID string) ([]domain.EntryAggregate, error) {
	return loadEntries(ctx, tx, drawID)
}

// sourceColumn maps an entry source to its ledger column. The mapping goes
// through the fixed source enum, never caller input, so it is safe to
// interpolate into SQL.
func sourceColumn(source domain.EntrySource) (string, error) {
	switch source.Normalize() {
	case domain.SourcePurchase:
		return "purchase_entries", nil
	case domain.SourceMembership:
		return "membership_entries", nil
	case domain.SourceFreeEntry:
		return "free_entries", nil
	case domain.SourcePackage:
		return "package_entries", nil
	case domain.SourceUpsell:
		return "upsell_entries", nil
	case domain.SourceOther:
		return "other_entries", nil
	}
	return "", fmt.Errorf("unknown entry source %q", source)
}

// mapTxError surfaces serialization and deadlock failures as the retryable
// conflict sentinel; every other error passes through untouched.
func mapTxError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		if pgErr.Code == "40001" || pgErr.Code == "40P01" {
			return fmt.Errorf("%w: %s", domain.ErrTxConflict, pgErr.Message)
		}
	}
	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
