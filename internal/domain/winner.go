package domain

import "time"

// SelectionMethod records how the winning ticket number was produced
type SelectionMethod string

const (
	SelectionManual          SelectionMethod = "manual"
	SelectionCertifiedRandom SelectionMethod = "certified-random-service"
)

// Winner is the immutable audit record produced by a completed selection.
// It is created exactly once per cycle inside the selection transaction and
// never mutated afterwards, except the Notified flag which the notification
// collaborator flips once delivery succeeds.
type Winner struct {
	ID              string          `json:"id"`
	DrawID          string          `json:"draw_id"`
	DrawType        DrawType        `json:"draw_type"`
	ParticipantID   string          `json:"participant_id"`
	EntryNumber     int64           `json:"entry_number"`
	Cycle           int             `json:"cycle"`
	SelectedAt      time.Time       `json:"selected_date"`
	SelectionMethod SelectionMethod `json:"selection_method"`
	SelectedBy      string          `json:"selected_by"`
	PrizeSnapshot   Prize           `json:"prize_snapshot"`
	ImageURL        string          `json:"image_url,omitempty"`
	Notified        bool            `json:"notified"`
}

// WinnerSelectedEvent is the plain data event published after a selection
// commits, consumed by out-of-process collaborators (notifications,
// marketing). It carries ids only; consumers load what they need.
type WinnerSelectedEvent struct {
	DrawID        string    `json:"draw_id"`
	WinnerID      string    `json:"winner_id"`
	ParticipantID string    `json:"participant_id"`
	Cycle         int       `json:"cycle"`
	OccurredAt    time.Time `json:"occurred_at"`
}
