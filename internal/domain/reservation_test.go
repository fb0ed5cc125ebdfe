package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReservationStatus_CanTransitionTo(t *testing.T) {
	allowed := []struct {
		from, to ReservationStatus
	}{
		{ReservationStatusPending, ReservationStatusConfirmed},
		{ReservationStatusPending, ReservationStatusCancelled},
		{ReservationStatusConfirmed, ReservationStatusActive},
		{ReservationStatusConfirmed, ReservationStatusCancelled},
		{ReservationStatusActive, ReservationStatusCompleted},
		{ReservationStatusActive, ReservationStatusCancelled},
	}
	for _, tc := range allowed {
		assert.True(t, tc.from.CanTransitionTo(tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct {
		from, to ReservationStatus
	}{
		{ReservationStatusPending, ReservationStatusActive},
		{ReservationStatusPending, ReservationStatusCompleted},
		{ReservationStatusConfirmed, ReservationStatusCompleted},
		{ReservationStatusCompleted, ReservationStatusCancelled},
		{ReservationStatusCompleted, ReservationStatusActive},
		{ReservationStatusCancelled, ReservationStatusConfirmed},
		{ReservationStatusActive, ReservationStatusConfirmed},
	}
	for _, tc := range denied {
		assert.False(t, tc.from.CanTransitionTo(tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestReservationStatus_IsTerminal(t *testing.T) {
	assert.True(t, ReservationStatusCompleted.IsTerminal())
	assert.True(t, ReservationStatusCancelled.IsTerminal())
	assert.False(t, ReservationStatusPending.IsTerminal())
	assert.False(t, ReservationStatusConfirmed.IsTerminal())
	assert.False(t, ReservationStatusActive.IsTerminal())
}

func TestParseReservationStatus(t *testing.T) {
	s, err := ParseReservationStatus("ACTIVE")
	assert.NoError(t, err)
	assert.Equal(t, ReservationStatusActive, s)

	_, err = ParseReservationStatus("active")
	assert.True(t, IsKind(err, KindValidation))
}

func TestValidateDates(t *testing.T) {
	pickup := Date(time.Now().UTC())

	assert.NoError(t, ValidateDates(pickup, pickup.AddDate(0, 0, 1)))

	err := ValidateDates(pickup, pickup)
	assert.True(t, IsKind(err, KindValidation))

	err = ValidateDates(pickup, pickup.AddDate(0, 0, -1))
	assert.True(t, IsKind(err, KindValidation))
}

func TestReservation_IsExpiredAt(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	lapsed := &Reservation{Status: ReservationStatusPending, ExpiresAt: &past}
	assert.True(t, lapsed.IsExpiredAt(now))

	held := &Reservation{Status: ReservationStatusPending, ExpiresAt: &future}
	assert.False(t, held.IsExpiredAt(now))

	// Confirmation cleared the deadline.
	confirmed := &Reservation{Status: ReservationStatusConfirmed, ExpiresAt: &past}
	assert.False(t, confirmed.IsExpiredAt(now))

	noDeadline := &Reservation{Status: ReservationStatusPending}
	assert.False(t, noDeadline.IsExpiredAt(now))
}

func TestTransitionGuards(t *testing.T) {
	today := Date(time.Now().UTC())
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)

	t.Run("CanStartOn", func(t *testing.T) {
		assert.True(t, CanStartOn(today, today))
		assert.True(t, CanStartOn(yesterday, today))
		assert.False(t, CanStartOn(tomorrow, today))
	})

	t.Run("CanCompleteOn", func(t *testing.T) {
		assert.True(t, CanCompleteOn(today, today))
		assert.True(t, CanCompleteOn(yesterday, today))
		assert.False(t, CanCompleteOn(tomorrow, today))
	})

	t.Run("WithinCancellationWindow", func(t *testing.T) {
		// Whole-date comparison: pickup exactly tomorrow is still cancellable.
		assert.True(t, WithinCancellationWindow(tomorrow, today))
		assert.True(t, WithinCancellationWindow(today.AddDate(0, 0, 5), today))
		assert.False(t, WithinCancellationWindow(today, today))
		assert.False(t, WithinCancellationWindow(yesterday, today))
	})
}

func TestReservation_RentalDays(t *testing.T) {
	pickup := Date(time.Now().UTC())
	res := &Reservation{PickupDate: pickup, ReturnDate: pickup.AddDate(0, 0, 5)}
	assert.Equal(t, int64(5), res.RentalDays())
}

func TestDate(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	noon := time.Date(2026, 3, 2, 12, 34, 56, 0, loc)
	d := Date(noon)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, time.UTC, d.Location())
}
