// repository/review/reviewRepository.go
package reviewrepo

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/AbderaoufHammouda/Dz-rent-it-V2/model"
)

type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, rv *model.Review) error
	Exists(ctx context.Context, tx *sql.Tx, bookingID, reviewerID int64, direction model.ReviewDirection) (bool, error)
	// RefreshUserRating recomputes the denormalized aggregate in one pass.
	RefreshUserRating(ctx context.Context, tx *sql.Tx, userID int64) (decimal.Decimal, int64, error)
	ListForUser(ctx context.Context, userID int64) ([]model.Review, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, rv *model.Review) error {
	const q = `
		INSERT INTO reviews (booking_id, reviewer_id, reviewed_user_id, direction, rating, comment)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at`
	return tx.QueryRowContext(ctx, q,
		rv.BookingID, rv.ReviewerID, rv.ReviewedUserID, rv.Direction, rv.Rating, rv.Comment,
	).Scan(&rv.ID, &rv.CreatedAt)
}

func (r *repo) Exists(ctx context.Context, tx *sql.Tx, bookingID, reviewerID int64, direction model.ReviewDirection) (bool, error) {
	const q = `
		SELECT EXISTS(
			SELECT 1 FROM reviews
			WHERE booking_id = $1 AND reviewer_id = $2 AND direction = $3
		)`
	var exists bool
	err := tx.QueryRowContext(ctx, q, bookingID, reviewerID, direction).Scan(&exists)
	return exists, err
}

// Mean is rounded half-up to 2 decimals in SQL so the stored aggregate never
// depends on Go-side float conversion.
func (r *repo) RefreshUserRating(ctx context.Context, tx *sql.Tx, userID int64) (decimal.Decimal, int64, error) {
	const q = `
		UPDATE users u
		SET rating_avg = s.avg_rating,
		    review_count = s.cnt,
		    updated_at = now()
		FROM (
			SELECT COALESCE(ROUND(AVG(rating), 2), 0.00) AS avg_rating,
			       COUNT(*) AS cnt
			FROM reviews
			WHERE reviewed_user_id = $1
		) s
		WHERE u.id = $1
		RETURNING u.rating_avg, u.review_count`
	var avg decimal.Decimal
	var count int64
	err := tx.QueryRowContext(ctx, q, userID).Scan(&avg, &count)
	return avg, count, err
}

func (r *repo) ListForUser(ctx context.Context, userID int64) ([]model.Review, error) {
	const q = `
		SELECT id, booking_id, reviewer_id, reviewed_user_id, direction, rating, comment, created_at
		FROM reviews
		WHERE reviewed_user_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Review
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(
			&rv.ID, &rv.BookingID, &rv.ReviewerID, &rv.ReviewedUserID,
			&rv.Direction, &rv.Rating, &rv.Comment, &rv.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
