package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a personal income or expense entry kept in the client's
// local ledger.
type Transaction struct {
	ID          int64
	Title       string
	Amount      decimal.Decimal
	Date        time.Time
	Category    string
	PaymentMode PaymentMode
	Type        EntryType
}
