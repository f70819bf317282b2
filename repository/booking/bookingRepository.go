// repository/booking/bookingRepository.go
package bookingrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/AbderaoufHammouda/Dz-rent-it-V2/model"
)

// Role filter for ListByUser.
const (
	RoleRenter = "renter"
	RoleOwner  = "owner"
	RoleBoth   = "both"
)

type Repo interface {
	// Hot paths run inside a caller-owned transaction so the row locks
	// survive until commit.
	SetLockTimeout(ctx context.Context, tx *sql.Tx, d time.Duration) error
	GetItemForUpdate(ctx context.Context, tx *sql.Tx, itemID int64) (*model.Item, error)
	Insert(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, bookingID int64) (*model.Booking, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, bookingID int64, status model.BookingStatus) (time.Time, error)

	// Sweeper batch: candidates are locked with SKIP LOCKED so a concurrent
	// sweep or interactive transition is skipped, never waited on.
	LockExpiredPending(ctx context.Context, tx *sql.Tx, cutoff time.Time) ([]model.Booking, error)
	CancelBatch(ctx context.Context, tx *sql.Tx, ids []int64) (int64, error)

	// Read-only lookups.
	Get(ctx context.Context, bookingID int64) (*model.Booking, error)
	Overlapping(ctx context.Context, itemID int64, from, to time.Time) ([]model.AvailabilityWindow, error)
	ListByUser(ctx context.Context, userID int64, role string) ([]model.Booking, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const bookingCols = `
	id, item_id, renter_id, owner_id, start_date, end_date, status,
	total_days, base_total, discount_rate, discount_amount, final_total, deposit,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	b := &model.Booking{}
	err := row.Scan(
		&b.ID, &b.ItemID, &b.RenterID, &b.OwnerID, &b.StartDate, &b.EndDate, &b.Status,
		&b.TotalDays, &b.BaseTotal, &b.DiscountRate, &b.DiscountAmount, &b.FinalTotal, &b.Deposit,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// SetLockTimeout bounds every lock wait in the current transaction. SET LOCAL
// is transaction-scoped, so the pooled connection is not polluted.
func (r *repo) SetLockTimeout(ctx context.Context, tx *sql.Tx, d time.Duration) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", d.Milliseconds()))
	return err
}

func (r *repo) GetItemForUpdate(ctx context.Context, tx *sql.Tx, itemID int64) (*model.Item, error) {
	const q = `
		SELECT id, owner_id, title, description, price_per_day, deposit_amount, is_active,
		       created_at, updated_at
		FROM items
		WHERE id = $1
		FOR UPDATE`
	it := &model.Item{}
	err := tx.QueryRowContext(ctx, q, itemID).Scan(
		&it.ID, &it.OwnerID, &it.Title, &it.Description,
		&it.PricePerDay, &it.DepositAmount, &it.IsActive,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `
		INSERT INTO bookings (item_id, renter_id, owner_id, start_date, end_date, status,
		                      total_days, base_total, discount_rate, discount_amount,
		                      final_total, deposit)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, created_at, updated_at`
	return tx.QueryRowContext(ctx, q,
		b.ItemID, b.RenterID, b.OwnerID, b.StartDate, b.EndDate, b.Status,
		b.TotalDays, b.BaseTotal, b.DiscountRate, b.DiscountAmount,
		b.FinalTotal, b.Deposit,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, bookingID int64) (*model.Booking, error) {
	q := `SELECT ` + bookingCols + ` FROM bookings WHERE id = $1 FOR UPDATE`
	return scanBooking(tx.QueryRowContext(ctx, q, bookingID))
}

func (r *repo) UpdateStatus(ctx context.Context, tx *sql.Tx, bookingID int64, status model.BookingStatus) (time.Time, error) {
	const q = `
		UPDATE bookings
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at`
	var updated time.Time
	err := tx.QueryRowContext(ctx, q, bookingID, status).Scan(&updated)
	return updated, err
}

func (r *repo) LockExpiredPending(ctx context.Context, tx *sql.Tx, cutoff time.Time) ([]model.Booking, error) {
	q := `
		SELECT ` + bookingCols + `
		FROM bookings
		WHERE status = 'PENDING'
		  AND created_at <= $1
		ORDER BY created_at
		FOR UPDATE SKIP LOCKED`
	rows, err := tx.QueryContext(ctx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *repo) CancelBatch(ctx context.Context, tx *sql.Tx, ids []int64) (int64, error) {
	const q = `
		UPDATE bookings
		SET status = 'CANCELLED',
		    updated_at = now()
		WHERE id = ANY($1)`
	res, err := tx.ExecContext(ctx, q, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repo) Get(ctx context.Context, bookingID int64) (*model.Booking, error) {
	q := `SELECT ` + bookingCols + ` FROM bookings WHERE id = $1`
	return scanBooking(r.db.QueryRowContext(ctx, q, bookingID))
}

// Overlapping returns the active bookings whose inclusive range intersects
// [from, to]. Same test the exclusion constraint applies: a1 <= b2 AND b1 <= a2.
func (r *repo) Overlapping(ctx context.Context, itemID int64, from, to time.Time) ([]model.AvailabilityWindow, error) {
	const q = `
		SELECT start_date, end_date, status
		FROM bookings
		WHERE item_id = $1
		  AND status IN ('PENDING','APPROVED','PAYMENT_PENDING')
		  AND start_date <= $3
		  AND end_date >= $2
		ORDER BY start_date`
	rows, err := r.db.QueryContext(ctx, q, itemID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AvailabilityWindow
	for rows.Next() {
		var w model.AvailabilityWindow
		if err := rows.Scan(&w.StartDate, &w.EndDate, &w.Status); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *repo) ListByUser(ctx context.Context, userID int64, role string) ([]model.Booking, error) {
	var cond string
	switch role {
	case RoleRenter:
		cond = `renter_id = $1`
	case RoleOwner:
		cond = `owner_id = $1`
	default:
		cond = `(renter_id = $1 OR owner_id = $1)`
	}

	q := `SELECT ` + bookingCols + ` FROM bookings WHERE ` + cond + ` ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}
