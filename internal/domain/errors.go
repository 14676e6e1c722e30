package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrTxConflict marks a commit-time concurrency failure. It is the only
// error class a caller may safely retry; every guard failure below must be
// corrected, not retried.
var ErrTxConflict = errors.New("transaction conflict, safe to retry")

// ErrMonthOccupied marks a commit-time collision with the unique index
// that keeps at most one live major draw per civil month. The creation
// path maps it onto a DrawConflictError naming the occupying draw.
var ErrMonthOccupied = errors.New("a live major draw already occupies the month")

// DrawNotFoundError indicates the requested draw does not exist
type DrawNotFoundError struct {
	DrawID string
}

func (e *DrawNotFoundError) Error() string {
	return fmt.Sprintf("draw %s not found", e.DrawID)
}

// InvalidScheduleError reports a violated ordering between the scheduling
// instants of a major draw, naming the specific pair that is out of order.
type InvalidScheduleError struct {
	Ordering string
}

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("invalid draw schedule: %s", e.Ordering)
}

// DrawConflictError rejects creating a second live major draw inside the
// same civil calendar month, naming the conflicting draw.
type DrawConflictError struct {
	ConflictingID   string
	ConflictingName string
	Status          DrawStatus
	DrawDate        time.Time
}

func (e *DrawConflictError) Error() string {
	return fmt.Sprintf("a major draw already exists for this month: %q (%s, %s, drawn %s)",
		e.ConflictingName, e.ConflictingID, e.Status, e.DrawDate.Format("2006-01-02"))
}

// InvalidDrawStateError rejects an operation against a draw whose current
// status does not allow it, reporting the actual status.
type InvalidDrawStateError struct {
	DrawID string
	Status DrawStatus
	Reason string
}

func (e *InvalidDrawStateError) Error() string {
	return fmt.Sprintf("draw %s is %s: %s", e.DrawID, e.Status, e.Reason)
}

// DrawNotAcceptingEntriesError rejects a grant against a draw that is not
// currently in an entry-accepting state.
type DrawNotAcceptingEntriesError struct {
	DrawID string
	Status DrawStatus
}

func (e *DrawNotAcceptingEntriesError) Error() string {
	return fmt.Sprintf("draw %s is not accepting entries (status %s)", e.DrawID, e.Status)
}

// ParticipantNotEligibleError rejects a selection claim for a participant
// holding no entries in the draw.
type ParticipantNotEligibleError struct {
	DrawID        string
	ParticipantID string
}

func (e *ParticipantNotEligibleError) Error() string {
	return fmt.Sprintf("participant %s holds no entries in draw %s", e.ParticipantID, e.DrawID)
}

// EntryNumberOutOfRangeError rejects a ticket number beyond the draw's total
type EntryNumberOutOfRangeError struct {
	EntryNumber  int64
	TotalEntries int64
}

func (e *EntryNumberOutOfRangeError) Error() string {
	return fmt.Sprintf("entry number %d is outside the draw's range 1-%d", e.EntryNumber, e.TotalEntries)
}

// InvalidEntryNumberError rejects a ticket claimed under the wrong
// participant, reporting the participant's actual range for correction.
type InvalidEntryNumberError struct {
	ParticipantID string
	EntryNumber   int64
	RangeStart    int64
	RangeEnd      int64
}

func (e *InvalidEntryNumberError) Error() string {
	return fmt.Sprintf("entry number %d is outside participant %s's range %d-%d",
		e.EntryNumber, e.ParticipantID, e.RangeStart, e.RangeEnd)
}

// InvariantViolationError marks persisted state that breaks a ledger
// invariant. It is fatal: the offending write must halt, never persist.
type InvariantViolationError struct {
	Invariant string
	Detail    string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant %s violated: %s", e.Invariant, e.Detail)
}

// IsGuardError reports whether the error is a correctable rejection that
// made no mutation (as opposed to a retryable conflict or a fatal
// invariant violation).
func IsGuardError(err error) bool {
	var (
		notFound    *DrawNotFoundError
		state       *InvalidDrawStateError
		accepting   *DrawNotAcceptingEntriesError
		eligible    *ParticipantNotEligibleError
		outOfRange  *EntryNumberOutOfRangeError
		wrongOwner  *InvalidEntryNumberError
		badSchedule *InvalidScheduleError
		conflict    *DrawConflictError
	)
	switch {
	case errors.As(err, &notFound),
		errors.As(err, &state),
		errors.As(err, &accepting),
		errors.As(err, &eligible),
		errors.As(err, &outOfRange),
		errors.As(err, &wrongOwner),
		errors.As(err, &badSchedule),
		errors.As(err, &conflict):
		return true
	}
	return false
}
