package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind is the type of a ledger event.
type Kind uint8

const (
	Deposit Kind = iota + 1
	Withdrawal
	Dispute
	Resolve
	Chargeback
)

var kindNames = map[Kind]string{
	Deposit:    "deposit",
	Withdrawal: "withdrawal",
	Dispute:    "dispute",
	Resolve:    "resolve",
	Chargeback: "chargeback",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Monetary reports whether records of this kind must carry an amount.
func (k Kind) Monetary() bool {
	return k == Deposit || k == Withdrawal
}

// ParseKind accepts the kind name in any case, surrounded by optional whitespace.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown transaction type %q", s)
}

// Transaction is one record of the replayed log.
type Transaction struct {
	Kind   Kind
	Client uint16
	ID     uint32
	Amount decimal.NullDecimal // only set for deposits and withdrawals
	Line   int                 // source line, 0 when not read from a file
}

// Validate checks the record shape. Referential problems are not checked here.
func (t Transaction) Validate() error {
	if _, ok := kindNames[t.Kind]; !ok {
		return &ValidationError{Line: t.Line, Field: "type", Reason: fmt.Sprintf("unsupported %s", t.Kind)}
	}
	if t.Kind.Monetary() && !t.Amount.Valid {
		return &ValidationError{Line: t.Line, Field: "amount", Reason: fmt.Sprintf("%s tx %d has no amount", t.Kind, t.ID)}
	}
	return nil
}
