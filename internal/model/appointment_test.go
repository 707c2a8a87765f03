package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppointmentStatus(t *testing.T) {
	status, err := ParseAppointmentStatus(" scheduled ")
	require.NoError(t, err)
	assert.Equal(t, AppointmentStatusScheduled, status)

	status, err = ParseAppointmentStatus("No_Show")
	require.NoError(t, err)
	assert.Equal(t, AppointmentStatusNoShow, status)

	_, err = ParseAppointmentStatus("POSTPONED")
	assert.Error(t, err)
}

func TestBlocksSlot(t *testing.T) {
	assert.True(t, AppointmentStatusScheduled.BlocksSlot())
	assert.True(t, AppointmentStatusConfirmed.BlocksSlot())
	assert.True(t, AppointmentStatusInProgress.BlocksSlot())
	assert.True(t, AppointmentStatusCompleted.BlocksSlot())
	assert.False(t, AppointmentStatusCancelled.BlocksSlot())
	assert.False(t, AppointmentStatusNoShow.BlocksSlot())
}

func TestCanTransition_Strict(t *testing.T) {
	cases := []struct {
		from, to AppointmentStatus
		want     bool
	}{
		{AppointmentStatusScheduled, AppointmentStatusConfirmed, true},
		{AppointmentStatusScheduled, AppointmentStatusCancelled, true},
		{AppointmentStatusConfirmed, AppointmentStatusInProgress, true},
		{AppointmentStatusConfirmed, AppointmentStatusScheduled, true},
		{AppointmentStatusInProgress, AppointmentStatusCompleted, true},
		{AppointmentStatusInProgress, AppointmentStatusScheduled, false},
		{AppointmentStatusCompleted, AppointmentStatusScheduled, false},
		{AppointmentStatusCompleted, AppointmentStatusCancelled, false},
		{AppointmentStatusCancelled, AppointmentStatusScheduled, false},
		{AppointmentStatusNoShow, AppointmentStatusScheduled, true},
		{AppointmentStatusNoShow, AppointmentStatusCompleted, true},
		{AppointmentStatusNoShow, AppointmentStatusConfirmed, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, CanTransition(tc.from, tc.to, true),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestCanTransition_SameStatusAlwaysAllowed(t *testing.T) {
	for _, status := range []AppointmentStatus{
		AppointmentStatusScheduled, AppointmentStatusCompleted, AppointmentStatusCancelled,
	} {
		assert.True(t, CanTransition(status, status, true))
	}
}

func TestCanTransition_PermissiveAllowsEverything(t *testing.T) {
	assert.True(t, CanTransition(AppointmentStatusCompleted, AppointmentStatusScheduled, false))
	assert.True(t, CanTransition(AppointmentStatusCancelled, AppointmentStatusInProgress, false))
}

func TestOverlaps_HalfOpenWindow(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	appt := &Appointment{StartTime: base, DurationMinutes: 30}

	assert.Equal(t, base.Add(30*time.Minute), appt.EndTime())

	// Inside the window.
	assert.True(t, appt.Overlaps(base.Add(15*time.Minute), base.Add(45*time.Minute)))
	// Adjacent at the exclusive end does not overlap.
	assert.False(t, appt.Overlaps(base.Add(30*time.Minute), base.Add(60*time.Minute)))
	// Adjacent at the start from the other side does not overlap either.
	assert.False(t, appt.Overlaps(base.Add(-30*time.Minute), base))
	// Fully containing window overlaps.
	assert.True(t, appt.Overlaps(base.Add(-time.Hour), base.Add(time.Hour)))
}
