package models

import "github.com/shopspring/decimal"

// ClientAccount is the balance state of one client.
// Total is tracked explicitly and always equals Available + Held between records.
type ClientAccount struct {
	Client    uint16
	Available decimal.Decimal
	Held      decimal.Decimal
	Total     decimal.Decimal
	Locked    bool
}

func NewClientAccount(client uint16) *ClientAccount {
	return &ClientAccount{
		Client:    client,
		Available: decimal.Zero,
		Held:      decimal.Zero,
		Total:     decimal.Zero,
	}
}
