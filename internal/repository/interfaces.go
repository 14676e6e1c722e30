package repository

import (
	"context"
	"time"

	"draws-api/internal/domain"
)

// DrawRepository defines the interface for draw aggregate persistence
type DrawRepository interface {
	// Create persists a new draw aggregate
	Create(ctx context.Context, draw *domain.Draw) error

	// GetByID loads a draw with its full entry ledger in insertion order
	GetByID(ctx context.Context, id string) (*domain.Draw, error)

	// FindMajorInMonth returns the non-terminal major draw whose draw date
	// falls in [start, next), or nil if the month is free
	FindMajorInMonth(ctx context.Context, start, next time.Time) (*domain.Draw, error)

	// GrantEntries applies an atomic entry grant to the draw and its ledger
	// row for the participant, creating the row on first grant. The
	// increment is field-scoped so concurrent grants never lose updates.
	GrantEntries(ctx context.Context, drawID, participantID string, count int64, source domain.EntrySource) (*domain.EntryAggregate, error)

	// UpdateConfig updates the draw's editable fields, restricted to the
	// safe subset once the configuration is locked
	UpdateConfig(ctx context.Context, drawID string, changes DrawConfigChanges) error

	// SelectWinnerAndReset runs the winner-selection transaction: it loads
	// the draw under an exclusive row lock, calls build to run the guard
	// chain and produce the winner record, then persists the winner,
	// resets the ledger and deactivates the draw's participation rows as
	// one all-or-nothing unit. Any error from build rolls everything back.
	SelectWinnerAndReset(ctx context.Context, drawID string, build func(*domain.Draw) (*domain.Winner, error)) (*domain.Winner, error)

	// ExportParticipants returns the draw's ledger sorted by total entries
	// descending, for reporting collaborators
	ExportParticipants(ctx context.Context, drawID string) ([]domain.ParticipantExport, error)
}

// WinnerRepository defines the interface for winner audit records
type WinnerRepository interface {
	// GetByID retrieves a winner record
	GetByID(ctx context.Context, id string) (*domain.Winner, error)

	// ListByDraw returns a draw's winner history, oldest first
	ListByDraw(ctx context.Context, drawID string) ([]domain.Winner, error)

	// MarkNotified flips the notified flag, the only mutation a winner
	// record ever receives
	MarkNotified(ctx context.Context, id string) error
}

// ParticipationRepository defines the interface for per-participant,
// per-draw participation state
type ParticipationRepository interface {
	// Get retrieves one participation record
	Get(ctx context.Context, drawID, participantID string) (*Participation, error)

	// ListActiveByDraw returns the active participation rows of a draw
	ListActiveByDraw(ctx context.Context, drawID string) ([]Participation, error)
}

// DrawConfigChanges carries a partial update of a draw's configuration.
// Nil fields are left untouched.
type DrawConfigChanges struct {
	Name        *string
	Description *string
	Status      *domain.DrawStatus
	Prize       *domain.Prize
}

// Participation is the cached per-participant state for one draw. It is
// kept in sync by grants and zeroed by the selection transaction, scoped
// strictly to its draw.
type Participation struct {
	DrawID        string `json:"draw_id"`
	ParticipantID string `json:"participant_id"`
	IsActive      bool   `json:"is_active"`
	CachedEntries int64  `json:"cached_entries"`
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Draw          DrawRepository
	Winner        WinnerRepository
	Participation ParticipationRepository
}
