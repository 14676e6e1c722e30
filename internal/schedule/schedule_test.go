package schedule

import (
	"testing"
	"time"

	"draws-api/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sydney(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(Timezone)
	require.NoError(t, err)
	return loc
}

func TestFreezeTime(t *testing.T) {
	loc := sydney(t)
	drawDate := time.Date(2026, 1, 31, 19, 0, 0, 0, loc)

	freeze := FreezeTime(drawDate)

	assert.Equal(t, time.Date(2026, 1, 31, 18, 30, 0, 0, loc), freeze)
	assert.Equal(t, FreezeOffset, drawDate.Sub(freeze))
}

func TestActivationDate_NextCivilMidnight(t *testing.T) {
	loc := sydney(t)

	tests := []struct {
		name     string
		drawDate time.Time
		want     time.Time
	}{
		{
			name:     "evening draw activates next midnight",
			drawDate: time.Date(2026, 1, 31, 19, 0, 0, 0, loc),
			want:     time.Date(2026, 2, 1, 0, 0, 0, 0, loc),
		},
		{
			name:     "draw exactly at midnight activates the following midnight",
			drawDate: time.Date(2026, 2, 1, 0, 0, 0, 0, loc),
			want:     time.Date(2026, 2, 2, 0, 0, 0, 0, loc),
		},
		{
			name:     "month rollover",
			drawDate: time.Date(2026, 4, 30, 20, 0, 0, 0, loc),
			want:     time.Date(2026, 5, 1, 0, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ActivationDate(tt.drawDate)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

// The calculator works in civil time, so a UTC instant late in the civil
// day still activates at the correct local midnight.
func TestActivationDate_UTCInput(t *testing.T) {
	loc := sydney(t)

	// 2026-01-31 09:00 UTC is 2026-01-31 20:00 in Sydney (daylight time)
	drawDate := time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)

	got := ActivationDate(drawDate)
	want := time.Date(2026, 2, 1, 0, 0, 0, 0, loc)

	assert.True(t, got.Equal(want), "got %v, want %v", got, want)
}

// Daylight saving ends on the first Sunday of April in Sydney. The civil
// midnight boundary must follow the offset change, not a fixed 24h step.
func TestActivationDate_DSTTransition(t *testing.T) {
	loc := sydney(t)

	drawDate := time.Date(2026, 4, 4, 21, 0, 0, 0, loc)

	got := ActivationDate(drawDate)
	want := time.Date(2026, 4, 5, 0, 0, 0, 0, loc)

	assert.True(t, got.Equal(want))
	_, offsetBefore := drawDate.Zone()
	_, offsetAfter := got.Add(4 * time.Hour).Zone()
	assert.NotEqual(t, offsetBefore, offsetAfter, "expected the draw to span the DST boundary")
}

func TestMonthBounds(t *testing.T) {
	loc := sydney(t)

	start, next := MonthBounds(time.Date(2026, 2, 14, 12, 0, 0, 0, loc))

	assert.True(t, start.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, loc)))
	assert.True(t, next.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, loc)))
}

func TestMonthBounds_HalfOpen(t *testing.T) {
	loc := sydney(t)

	// A UTC instant that is already the next civil month in Sydney
	utcInstant := time.Date(2026, 1, 31, 14, 0, 0, 0, time.UTC)

	start, next := MonthBounds(utcInstant)

	assert.True(t, start.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, loc)))
	assert.True(t, next.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, loc)))
	assert.False(t, utcInstant.Before(start))
	assert.True(t, utcInstant.Before(next))
}

func TestSameCivilMonth(t *testing.T) {
	loc := sydney(t)

	a := time.Date(2026, 2, 1, 0, 0, 0, 0, loc)
	b := time.Date(2026, 2, 28, 23, 59, 0, 0, loc)
	c := time.Date(2026, 3, 1, 0, 0, 0, 0, loc)

	assert.True(t, SameCivilMonth(a, b))
	assert.False(t, SameCivilMonth(b, c))

	// 2026-01-31 14:00 UTC is already February in Sydney
	utcJan := time.Date(2026, 1, 31, 14, 0, 0, 0, time.UTC)
	assert.True(t, SameCivilMonth(utcJan, a))
}

func TestValidate(t *testing.T) {
	loc := sydney(t)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, loc)
	freeze := time.Date(2026, 3, 28, 18, 30, 0, 0, loc)
	draw := time.Date(2026, 3, 28, 19, 0, 0, 0, loc)
	activation := time.Date(2026, 3, 29, 0, 0, 0, 0, loc)

	tests := []struct {
		name       string
		startDate  *time.Time
		freeze     time.Time
		drawDate   time.Time
		activation time.Time
		wantErr    string
	}{
		{
			name:       "valid ordering",
			startDate:  &start,
			freeze:     freeze,
			drawDate:   draw,
			activation: activation,
		},
		{
			name:       "nil start date is allowed",
			freeze:     freeze,
			drawDate:   draw,
			activation: activation,
		},
		{
			name:       "start date after freeze",
			startDate:  &activation,
			freeze:     freeze,
			drawDate:   draw,
			activation: activation,
			wantErr:    "startDate must be before freezeEntriesAt",
		},
		{
			name:       "freeze equal to draw date",
			freeze:     draw,
			drawDate:   draw,
			activation: activation,
			wantErr:    "freezeEntriesAt must be before drawDate",
		},
		{
			name:       "draw date after activation",
			freeze:     freeze,
			drawDate:   activation.Add(time.Hour),
			activation: activation,
			wantErr:    "drawDate must be before activationDate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.startDate, tt.freeze, tt.drawDate, tt.activation)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var schedErr *domain.InvalidScheduleError
			require.ErrorAs(t, err, &schedErr)
			assert.Equal(t, tt.wantErr, schedErr.Ordering)
		})
	}
}
