package interfaces

import (
	"context"

	"github.com/sheikh-saqib/ledger-replay/internal/models"
)

// DepositStore keeps settled deposits so later disputes can recover their amount.
type DepositStore interface {
	SaveDeposit(ctx context.Context, tx models.Transaction) error
	GetDeposit(ctx context.Context, id uint32) (models.Transaction, bool, error)
}

// TransactionSource yields records in log order. Next returns io.EOF once the log is exhausted.
type TransactionSource interface {
	Next() (models.Transaction, error)
}

// SnapshotSink receives the final accounts of a completed run.
type SnapshotSink interface {
	Export(ctx context.Context, runID string, accounts []models.ClientAccount) error
}
