package domain

// TicketRange is the contiguous block of 1-based ticket numbers owned by
// one participant, derived from the ledger's insertion order.
type TicketRange struct {
	ParticipantID string `json:"participant_id"`
	Start         int64  `json:"start"`
	End           int64  `json:"end"`
}

// Contains reports whether the ticket number falls inside the range
func (r TicketRange) Contains(entryNumber int64) bool {
	return entryNumber >= r.Start && entryNumber <= r.End
}

// TicketRanges expands the ledger into its cumulative ticket ranges.
// The ledger order is load-bearing: re-sorting the entries would silently
// renumber every sold ticket, so callers must always pass the canonical
// insertion-ordered slice.
func TicketRanges(entries []EntryAggregate) []TicketRange {
	ranges := make([]TicketRange, 0, len(entries))
	var start int64 = 1
	for i := range entries {
		total := entries[i].TotalEntries
		if total <= 0 {
			continue
		}
		ranges = append(ranges, TicketRange{
			ParticipantID: entries[i].ParticipantID,
			Start:         start,
			End:           start + total - 1,
		})
		start += total
	}
	return ranges
}

// ResolveTicket returns the range owning the given ticket number
func ResolveTicket(entries []EntryAggregate, entryNumber int64) (TicketRange, bool) {
	var start int64 = 1
	for i := range entries {
		total := entries[i].TotalEntries
		if total <= 0 {
			continue
		}
		end := start + total - 1
		if entryNumber >= start && entryNumber <= end {
			return TicketRange{ParticipantID: entries[i].ParticipantID, Start: start, End: end}, true
		}
		start = end + 1
	}
	return TicketRange{}, false
}

// RangeForParticipant returns the claimed participant's owned range, if any
func RangeForParticipant(entries []EntryAggregate, participantID string) (TicketRange, bool) {
	var start int64 = 1
	for i := range entries {
		total := entries[i].TotalEntries
		if total <= 0 {
			continue
		}
		end := start + total - 1
		if entries[i].ParticipantID == participantID {
			return TicketRange{ParticipantID: participantID, Start: start, End: end}, true
		}
		start = end + 1
	}
	return TicketRange{}, false
}

// ValidateClaim checks that the claimed ticket number is globally in range
// and owned by the claimed participant. Failures carry the participant's
// actual range so the operator can correct the request.
func ValidateClaim(d *Draw, participantID string, entryNumber int64) error {
	row := d.EntryFor(participantID)
	if row == nil || row.TotalEntries <= 0 {
		return &ParticipantNotEligibleError{DrawID: d.ID, ParticipantID: participantID}
	}
	if entryNumber < 1 || entryNumber > d.TotalEntries {
		return &EntryNumberOutOfRangeError{EntryNumber: entryNumber, TotalEntries: d.TotalEntries}
	}
	owned, ok := RangeForParticipant(d.Entries, participantID)
	if !ok || !owned.Contains(entryNumber) {
		return &InvalidEntryNumberError{
			ParticipantID: participantID,
			EntryNumber:   entryNumber,
			RangeStart:    owned.Start,
			RangeEnd:      owned.End,
		}
	}
	return nil
}
