package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"

	interfaces "github.com/sheikh-saqib/ledger-replay/internal/interfaces"
	"github.com/sheikh-saqib/ledger-replay/internal/models"
	"github.com/sheikh-saqib/ledger-replay/internal/storage/memory"
)

// Ledger replays a transaction log into per-client account state.
// A Ledger belongs to a single run and is not safe for concurrent use.
type Ledger struct {
	deposits interfaces.DepositStore // settled deposits, looked up by disputes
	accounts map[uint16]*models.ClientAccount
	disputed map[uint32]struct{}
	logger   *zap.Logger
	stats    Stats
}

// Stats counts how records were handled.
type Stats struct {
	Applied  int
	Rejected int
}

// NewLedger creates an empty ledger backed by the given deposit store.
func NewLedger(deposits interfaces.DepositStore, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		deposits: deposits,
		accounts: make(map[uint16]*models.ClientAccount),
		disputed: make(map[uint32]struct{}),
		logger:   logger,
	}
}

// Process runs a full replay of src on a fresh in-memory ledger.
func Process(ctx context.Context, src interfaces.TransactionSource, logger *zap.Logger) (map[uint16]models.ClientAccount, error) {
	return NewLedger(memory.NewMemoryDepositStore(), logger).Process(ctx, src)
}

// Process applies every record of src in order. The first fatal error aborts
// the run and no accounts are returned.
func (l *Ledger) Process(ctx context.Context, src interfaces.TransactionSource) (map[uint16]models.ClientAccount, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tx, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if err := l.Apply(ctx, tx); err != nil {
			return nil, err
		}
	}

	l.logger.Debug("replay finished",
		zap.Int("accounts", len(l.accounts)),
		zap.Int("applied", l.stats.Applied),
		zap.Int("rejected", l.stats.Rejected),
	)
	return l.Snapshot(), nil
}

// Apply validates and applies a single record. Only structural problems and
// store failures are returned as errors; business-rule rejections leave the
// state untouched and return nil.
func (l *Ledger) Apply(ctx context.Context, tx models.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	acct := l.account(tx.Client)
	if acct.Locked {
		l.reject(tx, "account locked")
		return nil
	}

	var deposit *models.Transaction
	if !tx.Kind.Monetary() {
		dep, ok, err := l.deposits.GetDeposit(ctx, tx.ID)
		if err != nil {
			return fmt.Errorf("lookup deposit %d: %w", tx.ID, err)
		}
		if ok {
			deposit = &dep
		}
	}

	if reason := l.precondition(acct, tx, deposit); reason != "" {
		l.reject(tx, reason)
		return nil
	}

	if tx.Kind == models.Deposit {
		if err := l.deposits.SaveDeposit(ctx, tx); err != nil {
			return fmt.Errorf("save deposit %d: %w", tx.ID, err)
		}
	}
	l.effect(acct, tx, deposit)
	l.stats.Applied++
	return nil
}

// precondition returns why tx must be ignored, or "" when it applies.
func (l *Ledger) precondition(acct *models.ClientAccount, tx models.Transaction, deposit *models.Transaction) string {
	switch tx.Kind {
	case models.Deposit:
		return ""
	case models.Withdrawal:
		if acct.Available.Sub(tx.Amount.Decimal).IsNegative() {
			return "insufficient available funds"
		}
		return ""
	case models.Dispute:
		if reason := referenceProblem(tx, deposit); reason != "" {
			return reason
		}
		if l.isDisputed(tx.ID) {
			return "already disputed"
		}
		return ""
	case models.Resolve, models.Chargeback:
		if reason := referenceProblem(tx, deposit); reason != "" {
			return reason
		}
		if !l.isDisputed(tx.ID) {
			return "not disputed"
		}
		return ""
	}
	return fmt.Sprintf("unhandled %s", tx.Kind)
}

// effect mutates acct. It must only run after precondition accepted tx.
func (l *Ledger) effect(acct *models.ClientAccount, tx models.Transaction, deposit *models.Transaction) {
	switch tx.Kind {
	case models.Deposit:
		acct.Available = acct.Available.Add(tx.Amount.Decimal)
		acct.Total = acct.Total.Add(tx.Amount.Decimal)
	case models.Withdrawal:
		acct.Available = acct.Available.Sub(tx.Amount.Decimal)
		acct.Total = acct.Total.Sub(tx.Amount.Decimal)
	case models.Dispute:
		amount := deposit.Amount.Decimal
		acct.Available = acct.Available.Sub(amount)
		acct.Held = acct.Held.Add(amount)
		l.disputed[tx.ID] = struct{}{}
	case models.Resolve:
		amount := deposit.Amount.Decimal
		acct.Available = acct.Available.Add(amount)
		acct.Held = acct.Held.Sub(amount)
		delete(l.disputed, tx.ID)
	case models.Chargeback:
		amount := deposit.Amount.Decimal
		acct.Held = acct.Held.Sub(amount)
		acct.Total = acct.Total.Sub(amount)
		acct.Locked = true
		delete(l.disputed, tx.ID)
	}
}

func referenceProblem(tx models.Transaction, deposit *models.Transaction) string {
	if deposit == nil {
		return "unknown transaction"
	}
	if deposit.Client != tx.Client {
		return fmt.Sprintf("transaction belongs to client %d", deposit.Client)
	}
	return ""
}

func (l *Ledger) isDisputed(id uint32) bool {
	_, ok := l.disputed[id]
	return ok
}

func (l *Ledger) account(client uint16) *models.ClientAccount {
	acct, ok := l.accounts[client]
	if !ok {
		acct = models.NewClientAccount(client)
		l.accounts[client] = acct
	}
	return acct
}

func (l *Ledger) reject(tx models.Transaction, reason string) {
	l.stats.Rejected++
	l.logger.Debug("transaction ignored",
		zap.Stringer("kind", tx.Kind),
		zap.Uint16("client", tx.Client),
		zap.Uint32("tx", tx.ID),
		zap.String("reason", reason),
	)
}

// Snapshot returns a copy of every account keyed by client id.
func (l *Ledger) Snapshot() map[uint16]models.ClientAccount {
	out := make(map[uint16]models.ClientAccount, len(l.accounts))
	for id, acct := range l.accounts {
		out[id] = *acct
	}
	return out
}

// Accounts returns a copy of every account ordered by client id.
func (l *Ledger) Accounts() []models.ClientAccount {
	return Sorted(l.Snapshot())
}

// Stats returns the applied and rejected record counts so far.
func (l *Ledger) Stats() Stats {
	return l.stats
}

// Sorted orders accounts by client id.
func Sorted(accounts map[uint16]models.ClientAccount) []models.ClientAccount {
	out := make([]models.ClientAccount, 0, len(accounts))
	for _, acct := range accounts {
		out = append(out, acct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Client < out[j].Client })
	return out
}
