package jobs

import (
	"context"
	"time"

	"carrental-backend/internal/domain"
	"carrental-backend/internal/logger"
)

// ExpireStaleReservations cancels PENDING reservations whose confirmation
// hold has lapsed. Each row is transitioned with a conditional update so a
// reservation confirmed between the scan and the sweep is left alone.
func (jr *JobRunner) ExpireStaleReservations() {
	jr.runWithRecovery("ExpireStaleReservations", func() {
		ctx := context.Background()
		now := time.Now().UTC()

		stale, err := jr.reservationRepo.ListExpiredPending(ctx, now)
		if err != nil {
			logger.Error("Failed to list expired pending reservations", "error", err)
			return
		}
		if len(stale) == 0 {
			return
		}

		expired := 0
		for _, res := range stale {
			swapped, err := jr.reservationRepo.UpdateStatus(ctx, res.ID,
				domain.ReservationStatusPending, domain.ReservationStatusCancelled)
			if err != nil {
				logger.Error("Failed to expire reservation",
					"reservation_id", res.ID, "error", err)
				continue
			}
			if !swapped {
				// Confirmed or cancelled by another writer since the scan.
				logger.Debug("Skipped reservation no longer pending", "reservation_id", res.ID)
				continue
			}
			expired++
			logger.Info("Expired stale reservation",
				"reservation_id", res.ID,
				"car_id", res.CarID,
				"customer_email", res.CustomerEmail,
				"expired_at", res.ExpiresAt)
		}

		logger.Info("Stale reservation sweep finished",
			"scanned", len(stale), "expired", expired)
	})
}
