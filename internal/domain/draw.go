package domain

import (
	"time"
)

// DrawType distinguishes the two draw variants
type DrawType string

const (
	DrawTypeMajor DrawType = "major"
	DrawTypeMini  DrawType = "mini"
)

// DrawStatus represents the lifecycle state of a draw
type DrawStatus string

const (
	StatusQueued    DrawStatus = "queued"
	StatusActive    DrawStatus = "active"
	StatusFrozen    DrawStatus = "frozen"
	StatusCompleted DrawStatus = "completed"
	StatusCancelled DrawStatus = "cancelled"
)

// IsTerminal reports whether the status allows no further transitions
func (s DrawStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Draw represents a prize draw aggregate (major or mini variant).
// The Entries slice is the canonical entry ledger and is always kept in
// insertion order; ticket numbering depends on it (see ticket.go).
type Draw struct {
	ID          string     `json:"id"`
	Type        DrawType   `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      DrawStatus `json:"status"`
	Prize       Prize      `json:"prize"`

	Entries      []EntryAggregate `json:"entries"`
	TotalEntries int64            `json:"total_entries"`

	// Cycle counts completed select-and-reset rounds, starting at 1.
	// Major draws do not cycle; the field stays at 1 for them.
	Cycle int `json:"cycle"`

	LatestWinnerID string `json:"latest_winner_id,omitempty"`

	ConfigurationLocked bool       `json:"configuration_locked"`
	LockedAt            *time.Time `json:"locked_at,omitempty"`

	// Major draw scheduling instants (stored absolute, UTC)
	DrawDate        *time.Time `json:"draw_date,omitempty"`
	ActivationDate  *time.Time `json:"activation_date,omitempty"`
	FreezeEntriesAt *time.Time `json:"freeze_entries_at,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`

	// MonthBucket pins a major draw to its civil month. It backs the
	// unique index that keeps one live major draw per month and is never
	// exposed; the value is the month's first civil day.
	MonthBucket *time.Time `json:"-"`

	// Mini draw eligibility threshold for drawing a winner
	MinimumEntries int64 `json:"minimum_entries,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DerivedStatus computes the draw's effective status at the given instant.
// Stored terminal states win. For major draws the time-driven states are
// derived from the stored instants rather than persisted, so no scheduler
// needs to wake up to flip them.
func (d *Draw) DerivedStatus(now time.Time) DrawStatus {
	if d.Type == DrawTypeMini {
		return d.Status
	}
	if d.Status.IsTerminal() {
		return d.Status
	}
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return StatusQueued
	}
	if d.FreezeEntriesAt != nil && !now.Before(*d.FreezeEntriesAt) {
		return StatusFrozen
	}
	return StatusActive
}

// AcceptingEntries reports whether a grant may be applied at the given instant
func (d *Draw) AcceptingEntries(now time.Time) bool {
	return d.DerivedStatus(now) == StatusActive
}

// ReadyForSelection validates the draw-type specific precondition for
// drawing a winner. Major draws require the time gate (frozen, or already
// completed for a re-run validation); mini draws require the entry
// threshold instead.
func (d *Draw) ReadyForSelection(now time.Time) error {
	switch d.Type {
	case DrawTypeMajor:
		status := d.DerivedStatus(now)
		if status != StatusFrozen && status != StatusCompleted {
			return &InvalidDrawStateError{
				DrawID: d.ID,
				Status: status,
				Reason: "major draw must be frozen before a winner can be selected",
			}
		}
	case DrawTypeMini:
		if d.Status != StatusActive {
			return &InvalidDrawStateError{
				DrawID: d.ID,
				Status: d.Status,
				Reason: "mini draw is not active",
			}
		}
		if d.TotalEntries < d.MinimumEntries {
			return &InvalidDrawStateError{
				DrawID: d.ID,
				Status: d.Status,
				Reason: "mini draw has not reached its minimum entry threshold",
			}
		}
	}
	return nil
}

// EntryFor returns the ledger row for the given participant, or nil
func (d *Draw) EntryFor(participantID string) *EntryAggregate {
	for i := range d.Entries {
		if d.Entries[i].ParticipantID == participantID {
			return &d.Entries[i]
		}
	}
	return nil
}

// CheckLedger verifies the aggregate-level ledger invariants: the draw
// total must equal the sum of per-participant totals, and each row's total
// must equal the sum of its per-source counts. A violation is a fatal
// internal error, never an expected outcome.
func (d *Draw) CheckLedger() error {
	var sum int64
	for i := range d.Entries {
		row := &d.Entries[i]
		if row.TotalEntries != row.Sources.Total() {
			return &InvariantViolationError{
				Invariant: "entry-source-sum",
				Detail:    "participant " + row.ParticipantID + " source counts do not sum to its total",
			}
		}
		sum += row.TotalEntries
	}
	if sum != d.TotalEntries {
		return &InvariantViolationError{
			Invariant: "ledger-total",
			Detail:    "draw total entries does not equal the sum of its ledger rows",
		}
	}
	return nil
}

// SafeEditableFields lists the fields that may still be changed once a
// draw's configuration is locked by its first accepted entry.
var SafeEditableFields = []string{"name", "description", "status"}
