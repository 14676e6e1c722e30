package domain

import "time"

// CreateMajorDrawRequest carries the inputs for a new scheduled major
// draw. FreezeEntriesAt and ActivationDate default to the scheduling
// calculator's values when omitted.
type CreateMajorDrawRequest struct {
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	DrawDate        time.Time  `json:"draw_date"`
	Prize           Prize      `json:"prize"`
	ActivationDate  *time.Time `json:"activation_date,omitempty"`
	FreezeEntriesAt *time.Time `json:"freeze_entries_at,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
}

// CreateMiniDrawRequest carries the inputs for a new recurring mini draw
type CreateMiniDrawRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	MinimumEntries int64  `json:"minimum_entries"`
	Prize          Prize  `json:"prize"`
}

// GrantEntriesRequest is submitted by purchase and benefit processing once
// per successful purchase or grant.
type GrantEntriesRequest struct {
	ParticipantID string      `json:"participant_id"`
	Count         int64       `json:"count"`
	Source        EntrySource `json:"source"`
}

// UpdateDrawRequest carries a partial configuration edit. Nil fields are
// left untouched. Prize edits are rejected once the configuration is
// locked by the first accepted entry.
type UpdateDrawRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Prize       *Prize  `json:"prize,omitempty"`
}

// SelectWinnerRequest carries an operator's winner selection claim. The
// operator identity comes from the authenticated request, not the body.
type SelectWinnerRequest struct {
	ParticipantID   string          `json:"participant_id"`
	EntryNumber     int64           `json:"entry_number"`
	SelectionMethod SelectionMethod `json:"selection_method"`
	ImageURL        string          `json:"image_url,omitempty"`
}
