// model/item.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	ID            int64           `json:"id"`
	OwnerID       int64           `json:"owner_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	PricePerDay   decimal.Decimal `json:"price_per_day"`
	DepositAmount decimal.Decimal `json:"deposit_amount"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
