// model/review.go
package model

import "time"

type ReviewDirection string

const (
	// Each completed booking allows up to two reviews, one per direction.
	RenterToOwner ReviewDirection = "RENTER_TO_OWNER"
	OwnerToRenter ReviewDirection = "OWNER_TO_RENTER"
)

type Review struct {
	ID             int64           `json:"id"`
	BookingID      int64           `json:"booking_id"`
	ReviewerID     int64           `json:"reviewer_id"`
	ReviewedUserID int64           `json:"reviewed_user_id"`
	Direction      ReviewDirection `json:"direction"`
	Rating         int             `json:"rating"`
	Comment        string          `json:"comment"`
	CreatedAt      time.Time       `json:"created_at"`
}
