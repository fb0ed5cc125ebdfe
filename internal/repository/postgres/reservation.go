package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"carrental-backend/internal/domain"
	"carrental-backend/internal/repository"

	"github.com/lib/pq"
)

// overlapConstraint is the range-exclusion constraint on (car_id, active date
// range). Its violation is the authoritative double-booking signal.
const overlapConstraint = "reservations_no_overlap_per_car"

const reservationColumns = `id, confirmation_code, car_id, customer_email, customer_name, customer_phone,
	pickup_branch_code, return_branch_code, pickup_date, return_date, status,
	total_price_cents, daily_rate_cents, notes, created_at, updated_at, expires_at, version`

type reservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	query := `INSERT INTO reservations (confirmation_code, car_id, customer_email, customer_name, customer_phone,
	            pickup_branch_code, return_branch_code, pickup_date, return_date, status,
	            total_price_cents, daily_rate_cents, notes, created_at, updated_at, expires_at, version)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, 1)
	          RETURNING id, created_at, updated_at, version`
	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query,
		res.ConfirmationCode, res.CarID, res.CustomerEmail, res.CustomerName, res.CustomerPhone,
		res.PickupBranchCode, res.ReturnBranchCode, res.PickupDate, res.ReturnDate, res.Status,
		res.TotalPriceCents, res.DailyRateCents, res.Notes, now, now, res.ExpiresAt,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt, &res.Version)
	if err != nil {
		return translateConstraintError(err, res.CarID)
	}
	return nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	res, err := scanReservation(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("reservation not found with id: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *reservationRepository) Update(ctx context.Context, res *domain.Reservation) error {
	query := `UPDATE reservations
	          SET pickup_date=$1, return_date=$2, total_price_cents=$3, daily_rate_cents=$4, notes=$5,
	              updated_at=$6, version=version+1
	          WHERE id=$7 AND version=$8`
	result, err := r.db.ExecContext(ctx, query,
		res.PickupDate, res.ReturnDate, res.TotalPriceCents, res.DailyRateCents, res.Notes,
		time.Now().UTC(), res.ID, res.Version)
	if err != nil {
		return translateConstraintError(err, res.CarID)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.Conflictf("reservation %d was modified concurrently", res.ID)
	}
	res.Version++
	return nil
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.ReservationStatus) (bool, error) {
	query := `UPDATE reservations
	          SET status=$1, updated_at=$2, version=version+1
	          WHERE id=$3 AND status=$4`
	result, err := r.db.ExecContext(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *reservationRepository) ClearExpiry(ctx context.Context, id int64) error {
	query := `UPDATE reservations SET expires_at=NULL, updated_at=$1 WHERE id=$2`
	_, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	return err
}

func (r *reservationRepository) HasConflict(ctx context.Context, carID int64, pickup, ret time.Time) (bool, error) {
	query := `SELECT EXISTS (
	            SELECT 1 FROM reservations
	            WHERE car_id = $1
	              AND status NOT IN ('CANCELLED', 'COMPLETED')
	              AND pickup_date < $2
	              AND return_date > $3
	          )`
	var conflict bool
	if err := r.db.QueryRowContext(ctx, query, carID, ret, pickup).Scan(&conflict); err != nil {
		return false, err
	}
	return conflict, nil
}

func (r *reservationRepository) HasConflictExcluding(ctx context.Context, carID, excludeID int64, pickup, ret time.Time) (bool, error) {
	query := `SELECT EXISTS (
	            SELECT 1 FROM reservations
	            WHERE car_id = $1
	              AND id != $2
	              AND status NOT IN ('CANCELLED', 'COMPLETED')
	              AND pickup_date < $3
	              AND return_date > $4
	          )`
	var conflict bool
	if err := r.db.QueryRowContext(ctx, query, carID, excludeID, ret, pickup).Scan(&conflict); err != nil {
		return false, err
	}
	return conflict, nil
}

func (r *reservationRepository) ListByCustomer(ctx context.Context, email string, page, pageSize int) ([]domain.Reservation, int, error) {
	var count int
	countQuery := `SELECT count(*) FROM reservations WHERE customer_email = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, email).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + reservationColumns + `
	          FROM reservations WHERE customer_email = $1
	          ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, email, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reservations, err := collectReservations(rows)
	if err != nil {
		return nil, 0, err
	}
	return reservations, count, nil
}

func (r *reservationRepository) ListByStatus(ctx context.Context, status domain.ReservationStatus, page, pageSize int) ([]domain.Reservation, int, error) {
	var count int
	countQuery := `SELECT count(*) FROM reservations WHERE status = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, status).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + reservationColumns + `
	          FROM reservations WHERE status = $1
	          ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, status, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reservations, err := collectReservations(rows)
	if err != nil {
		return nil, 0, err
	}
	return reservations, count, nil
}

func (r *reservationRepository) ListUpcomingByCustomer(ctx context.Context, email string, from time.Time) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
	          FROM reservations
	          WHERE customer_email = $1
	            AND pickup_date >= $2
	            AND status NOT IN ('CANCELLED', 'COMPLETED')
	          ORDER BY pickup_date ASC`
	rows, err := r.db.QueryContext(ctx, query, email, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (r *reservationRepository) ListExpiredPending(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
	          FROM reservations
	          WHERE status = 'PENDING'
	            AND expires_at IS NOT NULL
	            AND expires_at < $1
	          ORDER BY expires_at ASC`
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	var phone, notes sql.NullString
	var expiresAt sql.NullTime
	err := row.Scan(
		&res.ID, &res.ConfirmationCode, &res.CarID, &res.CustomerEmail, &res.CustomerName, &phone,
		&res.PickupBranchCode, &res.ReturnBranchCode, &res.PickupDate, &res.ReturnDate, &res.Status,
		&res.TotalPriceCents, &res.DailyRateCents, &notes, &res.CreatedAt, &res.UpdatedAt, &expiresAt, &res.Version,
	)
	if err != nil {
		return nil, err
	}
	res.CustomerPhone = phone.String
	res.Notes = notes.String
	if expiresAt.Valid {
		t := expiresAt.Time
		res.ExpiresAt = &t
	}
	return res, nil
}

func collectReservations(rows *sql.Rows) ([]domain.Reservation, error) {
	var reservations []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *res)
	}
	return reservations, rows.Err()
}

// translateConstraintError re-signals the overlap constraint violation as a
// domain conflict so callers never see a raw storage error for double-booking.
func translateConstraintError(err error, carID int64) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "exclusion_violation":
			if pqErr.Constraint == overlapConstraint || pqErr.Constraint == "" {
				return domain.Conflictf("car %d is already reserved for the selected dates", carID)
			}
		case "unique_violation":
			return domain.Conflictf("duplicate reservation: %s", pqErr.Constraint)
		}
	}
	return fmt.Errorf("reservation write failed: %w", err)
}
