package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

// Breakdown is the pricing snapshot stored on a booking at creation time.
type Breakdown struct {
	TotalDays      int64           `json:"total_days"`
	BaseTotal      decimal.Decimal `json:"base_total"`
	DiscountRate   decimal.Decimal `json:"discount_rate"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalTotal     decimal.Decimal `json:"final_total"`
}

// Duration discount tiers, evaluated in order, first match wins.
var discountTiers = []struct {
	minDays int64
	maxDays int64 // 0 = unbounded
	rate    decimal.Decimal
}{
	{30, 0, decimal.New(20, -2)}, // 30+ days, 20% off
	{7, 29, decimal.New(10, -2)}, // 7-29 days, 10% off
	{1, 6, decimal.Zero},
}

// ComputePrice calculates the cost of renting at pricePerDay over the
// inclusive range [start, end]. Renting Jan 3 to Jan 5 occupies 3 days.
// Amounts are rounded half-up to 2 decimal places. Pure function, safe for
// previews.
func ComputePrice(pricePerDay decimal.Decimal, start, end time.Time) (*Breakdown, error) {
	if !start.Before(end) {
		return nil, makeErr(ErrInvalidDateRange)
	}

	totalDays := int64(end.Sub(start)/(24*time.Hour)) + 1

	baseTotal := pricePerDay.Mul(decimal.NewFromInt(totalDays)).Round(2)

	rate := decimal.Zero
	for _, tier := range discountTiers {
		if tier.maxDays == 0 {
			if totalDays >= tier.minDays {
				rate = tier.rate
				break
			}
		} else if totalDays >= tier.minDays && totalDays <= tier.maxDays {
			rate = tier.rate
			break
		}
	}

	discountAmount := baseTotal.Mul(rate).Round(2)

	return &Breakdown{
		TotalDays:      totalDays,
		BaseTotal:      baseTotal,
		DiscountRate:   rate,
		DiscountAmount: discountAmount,
		FinalTotal:     baseTotal.Sub(discountAmount),
	}, nil
}
