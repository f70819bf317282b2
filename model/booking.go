// model/booking.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending        BookingStatus = "PENDING"
	BookingApproved       BookingStatus = "APPROVED"
	BookingPaymentPending BookingStatus = "PAYMENT_PENDING"
	BookingCompleted      BookingStatus = "COMPLETED"
	BookingRejected       BookingStatus = "REJECTED"
	BookingCancelled      BookingStatus = "CANCELLED"
)

// ActiveStatuses block dates on the availability calendar.
func ActiveStatuses() []BookingStatus {
	return []BookingStatus{BookingPending, BookingApproved, BookingPaymentPending}
}

// TerminalStatuses have no outgoing transitions.
func TerminalStatuses() []BookingStatus {
	return []BookingStatus{BookingRejected, BookingCancelled, BookingCompleted}
}

// ValidTransitions maps a status to the set of statuses it may move to.
// Terminal statuses map to an empty set.
func ValidTransitions() map[BookingStatus][]BookingStatus {
	return map[BookingStatus][]BookingStatus{
		BookingPending:        {BookingApproved, BookingRejected, BookingCancelled},
		BookingApproved:       {BookingPaymentPending, BookingCancelled},
		BookingPaymentPending: {BookingCompleted, BookingCancelled},
		BookingRejected:       {},
		BookingCancelled:      {},
		BookingCompleted:      {},
	}
}

func (s BookingStatus) IsActive() bool {
	return s == BookingPending || s == BookingApproved || s == BookingPaymentPending
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingRejected || s == BookingCancelled || s == BookingCompleted
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingApproved, BookingPaymentPending,
		BookingCompleted, BookingRejected, BookingCancelled:
		return true
	}
	return false
}

type Booking struct {
	ID       int64 `json:"id"`
	ItemID   int64 `json:"item_id"`
	RenterID int64 `json:"renter_id"`
	// OwnerID is copied from the item at creation time and never updated,
	// so booking queries don't need a join on items.
	OwnerID   int64         `json:"owner_id"`
	StartDate time.Time     `json:"start_date"` // inclusive
	EndDate   time.Time     `json:"end_date"`   // inclusive
	Status    BookingStatus `json:"status"`

	// Pricing snapshot captured at creation, immutable afterwards.
	TotalDays      int64           `json:"total_days"`
	BaseTotal      decimal.Decimal `json:"base_total"`
	DiscountRate   decimal.Decimal `json:"discount_rate"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalTotal     decimal.Decimal `json:"final_total"`
	Deposit        decimal.Decimal `json:"deposit"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AvailabilityWindow is one blocked range on an item's calendar.
type AvailabilityWindow struct {
	StartDate time.Time     `json:"start_date"`
	EndDate   time.Time     `json:"end_date"`
	Status    BookingStatus `json:"status"`
}
