package booking

import (
	"time"

	"github.com/AbderaoufHammouda/Dz-rent-it-V2/model"
)

// Transitions only the item owner may trigger. Cancellation is open to
// either participant.
var ownerOnly = map[model.BookingStatus]bool{
	model.BookingApproved:       true,
	model.BookingRejected:       true,
	model.BookingPaymentPending: true,
	model.BookingCompleted:      true,
}

func transitionAllowed(current, target model.BookingStatus) bool {
	for _, next := range model.ValidTransitions()[current] {
		if next == target {
			return true
		}
	}
	return false
}

func authorizedFor(b *model.Booking, target model.BookingStatus, actorID int64) bool {
	if ownerOnly[target] {
		return actorID == b.OwnerID
	}
	if target == model.BookingCancelled {
		return actorID == b.RenterID || actorID == b.OwnerID
	}
	return false
}

// expiredPending reports whether a PENDING booking has outlived the owner's
// response window. Only the APPROVED transition is blocked by expiry; an
// owner may still reject, and either party may still cancel, a stale request.
func expiredPending(b *model.Booking, now time.Time, window time.Duration) bool {
	if b.Status != model.BookingPending {
		return false
	}
	return now.Sub(b.CreatedAt) >= window
}
