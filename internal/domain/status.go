package domain

import "time"

// StatusSnapshot is the read model returned by status queries. Status is
// the derived value at query time, not the raw stored column, so a major
// draw reports frozen/active correctly without any scheduler flipping it.
type StatusSnapshot struct {
	DrawID          string     `json:"draw_id"`
	Type            DrawType   `json:"type"`
	Name            string     `json:"name"`
	Status          DrawStatus `json:"status"`
	Cycle           int        `json:"cycle"`
	TotalEntries    int64      `json:"total_entries"`
	MinimumEntries  int64      `json:"minimum_entries,omitempty"`
	DrawDate        *time.Time `json:"draw_date,omitempty"`
	ActivationDate  *time.Time `json:"activation_date,omitempty"`
	FreezeEntriesAt *time.Time `json:"freeze_entries_at,omitempty"`
	LatestWinnerID  string     `json:"latest_winner_id,omitempty"`
	AsOf            time.Time  `json:"as_of"`
}

// Snapshot builds the status read model at the given instant
func (d *Draw) StatusSnapshot(now time.Time) StatusSnapshot {
	return StatusSnapshot{
		DrawID:          d.ID,
		Type:            d.Type,
		Name:            d.Name,
		Status:          d.DerivedStatus(now),
		Cycle:           d.Cycle,
		TotalEntries:    d.TotalEntries,
		MinimumEntries:  d.MinimumEntries,
		DrawDate:        d.DrawDate,
		ActivationDate:  d.ActivationDate,
		FreezeEntriesAt: d.FreezeEntriesAt,
		LatestWinnerID:  d.LatestWinnerID,
		AsOf:            now,
	}
}
