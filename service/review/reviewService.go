package reviewsvc

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/lib/pq"

	"github.com/AbderaoufHammouda/Dz-rent-it-V2/model"
	reviewrepo "github.com/AbderaoufHammouda/Dz-rent-it-V2/repository/review"
	"github.com/AbderaoufHammouda/Dz-rent-it-V2/util/database"
)

var (
	ErrNotAllowed = errors.New("review not allowed")
	ErrNotFound   = errors.New("booking not found")
)

const minCommentLen = 10

// Bookings is the read-only slice of the booking repository this service
// needs.
type Bookings interface {
	Get(ctx context.Context, bookingID int64) (*model.Booking, error)
}

type Service interface {
	// Create submits a review for a completed booking. The direction and
	// reviewed user are derived from the reviewer's role in the booking.
	Create(ctx context.Context, bookingID, reviewerID int64, rating int, comment string) (*model.Review, error)

	// ReceivedBy lists reviews received by a user.
	ReceivedBy(ctx context.Context, userID int64) ([]model.Review, error)
}

type service struct {
	db       *sql.DB
	r        reviewrepo.Repo
	bookings Bookings
}

func New(db *sql.DB, r reviewrepo.Repo, bookings Bookings) Service {
	return &service{db: db, r: r, bookings: bookings}
}

func (s *service) Create(ctx context.Context, bookingID, reviewerID int64, rating int, comment string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrNotAllowed
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) < minCommentLen {
		return nil, ErrNotAllowed
	}

	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// Completion is the sole trigger that opens a booking for review.
	if b.Status != model.BookingCompleted {
		return nil, ErrNotAllowed
	}

	var direction model.ReviewDirection
	var reviewedUserID int64
	switch reviewerID {
	case b.RenterID:
		direction = model.RenterToOwner
		reviewedUserID = b.OwnerID
	case b.OwnerID:
		direction = model.OwnerToRenter
		reviewedUserID = b.RenterID
	default:
		return nil, ErrNotAllowed
	}

	rv := &model.Review{
		BookingID:      bookingID,
		ReviewerID:     reviewerID,
		ReviewedUserID: reviewedUserID,
		Direction:      direction,
		Rating:         rating,
		Comment:        comment,
	}

	err = database.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		exists, err := s.r.Exists(ctx, tx, bookingID, reviewerID, direction)
		if err != nil {
			return err
		}
		if exists {
			return ErrNotAllowed
		}

		if err := s.r.Insert(ctx, tx, rv); err != nil {
			// The unique constraint backstops the existence pre-check
			// under concurrent submissions.
			var pqErr *pq.Error
			if errors.As(err, &pqErr) &&
				string(pqErr.Code) == database.CodeUniqueViolation &&
				pqErr.Constraint == "uq_review_one_per_direction" {
				return ErrNotAllowed
			}
			return err
		}

		// Recompute the denormalized aggregate inside the same transaction.
		_, _, err = s.r.RefreshUserRating(ctx, tx, reviewedUserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rv, nil
}

func (s *service) ReceivedBy(ctx context.Context, userID int64) ([]model.Review, error) {
	return s.r.ListForUser(ctx, userID)
}
