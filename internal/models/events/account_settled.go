package events

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountSettled struct {
	RunID     string          `json:"run_id"`
	ClientID  uint16          `json:"client_id"`
	Available decimal.Decimal `json:"available"`
	Held      decimal.Decimal `json:"held"`
	Total     decimal.Decimal `json:"total"`
	Locked    bool            `json:"locked"`
	SettledAt time.Time       `json:"settled_at"`
}
