package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timePtr(t time.Time) *time.Time { return &t }

func majorDrawFixture(base time.Time) *Draw {
	return &Draw{
		ID:              "major-1",
		Type:            DrawTypeMajor,
		Status:          StatusActive,
		StartDate:       timePtr(base),
		FreezeEntriesAt: timePtr(base.Add(72 * time.Hour)),
		DrawDate:        timePtr(base.Add(72*time.Hour + 30*time.Minute)),
		ActivationDate:  timePtr(base.Add(96 * time.Hour)),
	}
}

func TestDraw_DerivedStatus_Major(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	d := majorDrawFixture(base)

	tests := []struct {
		name string
		now  time.Time
		want DrawStatus
	}{
		{name: "before start date", now: base.Add(-time.Hour), want: StatusQueued},
		{name: "exactly at start date", now: base, want: StatusActive},
		{name: "mid window", now: base.Add(24 * time.Hour), want: StatusActive},
		{name: "one second before freeze", now: base.Add(72*time.Hour - time.Second), want: StatusActive},
		{name: "exactly at freeze", now: base.Add(72 * time.Hour), want: StatusFrozen},
		{name: "after draw date", now: base.Add(80 * time.Hour), want: StatusFrozen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.DerivedStatus(tt.now))
		})
	}
}

func TestDraw_DerivedStatus_TerminalWins(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	d := majorDrawFixture(base)
	d.Status = StatusCompleted
	assert.Equal(t, StatusCompleted, d.DerivedStatus(base.Add(24*time.Hour)))

	d.Status = StatusCancelled
	assert.Equal(t, StatusCancelled, d.DerivedStatus(base.Add(-time.Hour)))
}

func TestDraw_DerivedStatus_Mini_IsStored(t *testing.T) {
	d := &Draw{Type: DrawTypeMini, Status: StatusActive}
	assert.Equal(t, StatusActive, d.DerivedStatus(time.Now()))

	d.Status = StatusCancelled
	assert.Equal(t, StatusCancelled, d.DerivedStatus(time.Now()))
}

func TestDraw_AcceptingEntries(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	d := majorDrawFixture(base)

	assert.False(t, d.AcceptingEntries(base.Add(-time.Minute)), "queued draw must refuse grants")
	assert.True(t, d.AcceptingEntries(base.Add(time.Hour)))
	assert.False(t, d.AcceptingEntries(base.Add(73*time.Hour)), "frozen draw must refuse grants")
}

func TestDraw_ReadyForSelection_Major(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	d := majorDrawFixture(base)

	t.Run("active draw refuses selection", func(t *testing.T) {
		err := d.ReadyForSelection(base.Add(time.Hour))
		var state *InvalidDrawStateError
		require.ErrorAs(t, err, &state)
		assert.Equal(t, StatusActive, state.Status)
	})

	t.Run("frozen draw allows selection", func(t *testing.T) {
		assert.NoError(t, d.ReadyForSelection(base.Add(73*time.Hour)))
	})
}

func TestDraw_ReadyForSelection_Mini(t *testing.T) {
	d := &Draw{
		ID:             "mini-1",
		Type:           DrawTypeMini,
		Status:         StatusActive,
		TotalEntries:   99,
		MinimumEntries: 100,
	}

	t.Run("below threshold", func(t *testing.T) {
		err := d.ReadyForSelection(time.Now())
		var state *InvalidDrawStateError
		require.ErrorAs(t, err, &state)
	})

	t.Run("at threshold", func(t *testing.T) {
		d.TotalEntries = 100
		assert.NoError(t, d.ReadyForSelection(time.Now()))
	})

	t.Run("inactive mini draw", func(t *testing.T) {
		d.Status = StatusCancelled
		err := d.ReadyForSelection(time.Now())
		var state *InvalidDrawStateError
		require.ErrorAs(t, err, &state)
	})
}

func TestDraw_EntryFor(t *testing.T) {
	d := &Draw{Entries: ledgerFixture()}

	row := d.EntryFor("bob")
	require.NotNil(t, row)
	assert.Equal(t, int64(3), row.TotalEntries)

	assert.Nil(t, d.EntryFor("nobody"))
}

func TestDraw_CheckLedger(t *testing.T) {
	t.Run("consistent ledger", func(t *testing.T) {
		d := &Draw{Entries: ledgerFixture(), TotalEntries: 10}
		assert.NoError(t, d.CheckLedger())
	})

	t.Run("draw total diverges from rows", func(t *testing.T) {
		d := &Draw{Entries: ledgerFixture(), TotalEntries: 11}
		var violation *InvariantViolationError
		require.ErrorAs(t, d.CheckLedger(), &violation)
		assert.Equal(t, "ledger-total", violation.Invariant)
	})

	t.Run("row total diverges from source counts", func(t *testing.T) {
		entries := ledgerFixture()
		entries[1].Sources.Membership = 2
		d := &Draw{Entries: entries, TotalEntries: 10}
		var violation *InvariantViolationError
		require.ErrorAs(t, d.CheckLedger(), &violation)
		assert.Equal(t, "entry-source-sum", violation.Invariant)
	})
}
