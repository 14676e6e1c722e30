package domain

import "time"

// EntrySource tags where a batch of entries came from
type EntrySource string

const (
	SourcePurchase   EntrySource = "purchase"
	SourceMembership EntrySource = "membership"
	SourceFreeEntry  EntrySource = "free-entry"
	SourcePackage    EntrySource = "mini-draw-package"
	SourceUpsell     EntrySource = "upsell"
	SourceOther      EntrySource = "other"
)

// KnownSources lists the tracked entry sources in storage column order
var KnownSources = []EntrySource{
	SourcePurchase,
	SourceMembership,
	SourceFreeEntry,
	SourcePackage,
	SourceUpsell,
	SourceOther,
}

// Normalize maps unrecognized source tags into the explicit "other" bucket
// so per-source totals stay mechanically checkable against the row total.
func (s EntrySource) Normalize() EntrySource {
	switch s {
	case SourcePurchase, SourceMembership, SourceFreeEntry, SourcePackage, SourceUpsell:
		return s
	default:
		return SourceOther
	}
}

// SourceCounts holds the per-source entry counters of one ledger row
type SourceCounts struct {
	Purchase   int64 `json:"purchase"`
	Membership int64 `json:"membership"`
	FreeEntry  int64 `json:"free_entry"`
	Package    int64 `json:"mini_draw_package"`
	Upsell     int64 `json:"upsell"`
	Other      int64 `json:"other"`
}

// Total sums every source bucket
func (c SourceCounts) Total() int64 {
	return c.Purchase + c.Membership + c.FreeEntry + c.Package + c.Upsell + c.Other
}

// Add applies a grant of n entries from the given source
func (c *SourceCounts) Add(source EntrySource, n int64) {
	switch source.Normalize() {
	case SourcePurchase:
		c.Purchase += n
	case SourceMembership:
		c.Membership += n
	case SourceFreeEntry:
		c.FreeEntry += n
	case SourcePackage:
		c.Package += n
	case SourceUpsell:
		c.Upsell += n
	default:
		c.Other += n
	}
}

// Count returns the counter for the given source
func (c SourceCounts) Count(source EntrySource) int64 {
	switch source.Normalize() {
	case SourcePurchase:
		return c.Purchase
	case SourceMembership:
		return c.Membership
	case SourceFreeEntry:
		return c.FreeEntry
	case SourcePackage:
		return c.Package
	case SourceUpsell:
		return c.Upsell
	default:
		return c.Other
	}
}

// EntryAggregate is one ledger row: every entry a participant holds in one
// draw, aggregated by source. Tickets are never stored individually; a
// participant's ticket numbers are derived from the row's position in the
// draw's insertion-ordered ledger (see ticket.go).
type EntryAggregate struct {
	ParticipantID string       `json:"participant_id"`
	TotalEntries  int64        `json:"total_entries"`
	Sources       SourceCounts `json:"entries_by_source"`
	FirstAddedAt  time.Time    `json:"first_added_date"`
	LastUpdatedAt time.Time    `json:"last_updated_date"`
}

// ParticipantExport is one row of the reporting export, sorted by
// total entries descending by the repository query.
type ParticipantExport struct {
	ParticipantID string       `json:"participant_id"`
	TotalEntries  int64        `json:"total_entries"`
	Sources       SourceCounts `json:"entries_by_source"`
	FirstAddedAt  time.Time    `json:"first_added_date"`
	LastUpdatedAt time.Time    `json:"last_updated_date"`
}
