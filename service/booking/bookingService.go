package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/AbderaoufHammouda/Dz-rent-it-V2/model"
	bookingrepo "github.com/AbderaoufHammouda/Dz-rent-it-V2/repository/booking"
	itemrepo "github.com/AbderaoufHammouda/Dz-rent-it-V2/repository/item"
	"github.com/AbderaoufHammouda/Dz-rent-it-V2/util/database"
)

// errors used by controllers

type ErrCode string

const (
	ErrInvalidDateRange  ErrCode = "INVALID_DATE_RANGE"
	ErrNotFound          ErrCode = "NOT_FOUND"
	ErrInactiveItem      ErrCode = "INACTIVE_ITEM"
	ErrSelfBooking       ErrCode = "SELF_BOOKING"
	ErrOverlap           ErrCode = "BOOKING_OVERLAP"
	ErrInvalidTransition ErrCode = "INVALID_TRANSITION"
	ErrExpired           ErrCode = "BOOKING_EXPIRED"
	ErrBusy              ErrCode = "LOCK_TIMEOUT" // transient, retryable
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Name of the exclusion constraint installed by migration 002. An integrity
// error on it means the requested range collided with an active booking.
const overlapConstraint = "xcl_booking_no_overlap"

type Service interface {
	// Create books an item for the inclusive range [start, end] with
	// status PENDING and the pricing snapshot captured at call time.
	Create(ctx context.Context, renterID, itemID int64, start, end time.Time) (*model.Booking, error)

	// Transition moves a booking through the status state machine on
	// behalf of actor.
	Transition(ctx context.Context, bookingID int64, target model.BookingStatus, actorID int64) (*model.Booking, error)

	// Get returns a booking to one of its participants.
	Get(ctx context.Context, bookingID, actorID int64) (*model.Booking, error)

	// QuoteItem prices a hypothetical booking without persisting anything.
	QuoteItem(ctx context.Context, itemID int64, start, end time.Time) (*Breakdown, error)

	// Availability lists the active bookings blocking [from, to] on an
	// item's calendar. Read-only, no locking.
	Availability(ctx context.Context, itemID int64, from, to time.Time) ([]model.AvailabilityWindow, error)

	// ListMine lists a user's bookings as renter, owner, or both.
	ListMine(ctx context.Context, userID int64, role string) ([]model.Booking, error)
}

type service struct {
	db       *sql.DB
	r        bookingrepo.Repo
	items    itemrepo.Repo
	expiry   time.Duration // PENDING response window
	lockWait time.Duration
}

func New(db *sql.DB, r bookingrepo.Repo, items itemrepo.Repo, expiry, lockWait time.Duration) Service {
	return &service{db: db, r: r, items: items, expiry: expiry, lockWait: lockWait}
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Create serializes concurrent attempts on the same item behind the item-row
// lock; the exclusion constraint is the authoritative backstop that rejects
// an overlap no matter how the insert got there.
func (s *service) Create(ctx context.Context, renterID, itemID int64, start, end time.Time) (*model.Booking, error) {
	if !start.Before(end) {
		return nil, makeErr(ErrInvalidDateRange)
	}
	if start.Before(today()) {
		return nil, makeErr(ErrInvalidDateRange)
	}

	var b *model.Booking
	err := database.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		if err := s.r.SetLockTimeout(ctx, tx, s.lockWait); err != nil {
			return err
		}

		item, err := s.r.GetItemForUpdate(ctx, tx, itemID)
		if err != nil {
			if database.IsNoRows(err) {
				return makeErr(ErrNotFound)
			}
			return s.translate(err)
		}

		if !item.IsActive {
			return makeErr(ErrInactiveItem)
		}
		if renterID == item.OwnerID {
			return makeErr(ErrSelfBooking)
		}

		quote, err := ComputePrice(item.PricePerDay, start, end)
		if err != nil {
			return err
		}

		nb := &model.Booking{
			ItemID:         item.ID,
			RenterID:       renterID,
			OwnerID:        item.OwnerID,
			StartDate:      start,
			EndDate:        end,
			Status:         model.BookingPending,
			TotalDays:      quote.TotalDays,
			BaseTotal:      quote.BaseTotal,
			DiscountRate:   quote.DiscountRate,
			DiscountAmount: quote.DiscountAmount,
			FinalTotal:     quote.FinalTotal,
			Deposit:        item.DepositAmount,
		}
		if err := s.r.Insert(ctx, tx, nb); err != nil {
			return s.translate(err)
		}
		b = nb
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) Transition(ctx context.Context, bookingID int64, target model.BookingStatus, actorID int64) (*model.Booking, error) {
	if !target.Valid() {
		return nil, makeErr(ErrInvalidTransition)
	}

	var out *model.Booking
	err := database.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		if err := s.r.SetLockTimeout(ctx, tx, s.lockWait); err != nil {
			return err
		}

		b, err := s.r.GetForUpdate(ctx, tx, bookingID)
		if err != nil {
			if database.IsNoRows(err) {
				return makeErr(ErrNotFound)
			}
			return s.translate(err)
		}

		if !transitionAllowed(b.Status, target) {
			return makeErr(ErrInvalidTransition)
		}
		if !authorizedFor(b, target, actorID) {
			return makeErr(ErrInvalidTransition)
		}
		if target == model.BookingApproved && expiredPending(b, time.Now().UTC(), s.expiry) {
			return makeErr(ErrExpired)
		}

		updatedAt, err := s.r.UpdateStatus(ctx, tx, b.ID, target)
		if err != nil {
			return s.translate(err)
		}
		b.Status = target
		b.UpdatedAt = updatedAt
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, bookingID, actorID int64) (*model.Booking, error) {
	b, err := s.r.Get(ctx, bookingID)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	if actorID != b.RenterID && actorID != b.OwnerID {
		return nil, makeErr(ErrNotFound)
	}
	return b, nil
}

func (s *service) QuoteItem(ctx context.Context, itemID int64, start, end time.Time) (*Breakdown, error) {
	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	return ComputePrice(item.PricePerDay, start, end)
}

func (s *service) Availability(ctx context.Context, itemID int64, from, to time.Time) ([]model.AvailabilityWindow, error) {
	return s.r.Overlapping(ctx, itemID, from, to)
}

func (s *service) ListMine(ctx context.Context, userID int64, role string) ([]model.Booking, error) {
	return s.r.ListByUser(ctx, userID, role)
}

// translate re-classifies datastore integrity errors into domain errors.
// Anything unrecognized propagates as-is rather than being mis-attributed.
func (s *service) translate(err error) error {
	switch {
	case database.ConstraintViolated(err, database.CodeExclusionViolation, overlapConstraint):
		return makeErr(ErrOverlap)
	case database.IsLockTimeout(err):
		return makeErr(ErrBusy)
	}
	return err
}
