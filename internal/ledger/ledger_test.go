package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/ledger-replay/internal/models"
	"github.com/sheikh-saqib/ledger-replay/internal/storage/memory"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func deposit(client uint16, id uint32, amount string) models.Transaction {
	return models.Transaction{Kind: models.Deposit, Client: client, ID: id, Amount: decimal.NewNullDecimal(dec(amount))}
}

func withdrawal(client uint16, id uint32, amount string) models.Transaction {
	return models.Transaction{Kind: models.Withdrawal, Client: client, ID: id, Amount: decimal.NewNullDecimal(dec(amount))}
}

func dispute(client uint16, id uint32) models.Transaction {
	return models.Transaction{Kind: models.Dispute, Client: client, ID: id}
}

func resolve(client uint16, id uint32) models.Transaction {
	return models.Transaction{Kind: models.Resolve, Client: client, ID: id}
}

func chargeback(client uint16, id uint32) models.Transaction {
	return models.Transaction{Kind: models.Chargeback, Client: client, ID: id}
}

func process(t *testing.T, txs ...models.Transaction) map[uint16]models.ClientAccount {
	t.Helper()

	accounts, err := Process(context.Background(), NewSliceSource(txs...), nil)
	require.NoError(t, err)
	return accounts
}

func assertAccount(t *testing.T, acct models.ClientAccount, available, held, total string, locked bool) {
	t.Helper()

	assert.Equal(t, available, acct.Available.StringFixed(4), "available")
	assert.Equal(t, held, acct.Held.StringFixed(4), "held")
	assert.Equal(t, total, acct.Total.StringFixed(4), "total")
	assert.Equal(t, locked, acct.Locked, "locked")
	assert.True(t, acct.Total.Equal(acct.Available.Add(acct.Held)), "total must equal available + held")
}

func TestProcess_SingleDeposit(t *testing.T) {
	accounts := process(t, deposit(1, 1, "10.0"))

	require.Len(t, accounts, 1)
	assertAccount(t, accounts[1], "10.0000", "0.0000", "10.0000", false)
}

func TestProcess_DepositThenWithdrawal(t *testing.T) {
	accounts := process(t, deposit(1, 1, "5.0"), withdrawal(1, 2, "3.0"))

	assertAccount(t, accounts[1], "2.0000", "0.0000", "2.0000", false)
}

func TestProcess_DisputeThenResolve(t *testing.T) {
	l := NewLedger(memory.NewMemoryDepositStore(), nil)
	ctx := context.Background()

	require.NoError(t, l.Apply(ctx, deposit(1, 1, "5.0")))
	require.NoError(t, l.Apply(ctx, dispute(1, 1)))
	assertAccount(t, l.Snapshot()[1], "0.0000", "5.0000", "5.0000", false)

	require.NoError(t, l.Apply(ctx, resolve(1, 1)))
	assertAccount(t, l.Snapshot()[1], "5.0000", "0.0000", "5.0000", false)
}

func TestProcess_ChargebackLocksAccount(t *testing.T) {
	accounts := process(t,
		deposit(1, 1, "3.0"),
		dispute(1, 1),
		chargeback(1, 1),
		deposit(1, 2, "5.0"),
	)

	assertAccount(t, accounts[1], "0.0000", "0.0000", "0.0000", true)
}

func TestProcess_LockedAccountIgnoresEverything(t *testing.T) {
	accounts := process(t,
		deposit(1, 1, "3.0"),
		deposit(1, 2, "4.0"),
		dispute(1, 1),
		chargeback(1, 1),
		withdrawal(1, 3, "1.0"),
		dispute(1, 2),
		resolve(1, 2),
		deposit(1, 4, "100"),
	)

	assertAccount(t, accounts[1], "4.0000", "0.0000", "4.0000", true)
}

func TestProcess_DisputeUnknownTransactionCreatesEmptyAccount(t *testing.T) {
	accounts := process(t, dispute(1, 1))

	require.Contains(t, accounts, uint16(1))
	assertAccount(t, accounts[1], "0.0000", "0.0000", "0.0000", false)
}

func TestProcess_ClientsAreIndependent(t *testing.T) {
	accounts := process(t,
		deposit(1, 1, "1.0"),
		deposit(2, 2, "2.0"),
		deposit(1, 3, "2.0"),
		withdrawal(1, 4, "1.5"),
		withdrawal(2, 5, "3.0"),
		dispute(2, 2),
	)

	require.Len(t, accounts, 2)
	assertAccount(t, accounts[1], "1.5000", "0.0000", "1.5000", false)
	assertAccount(t, accounts[2], "0.0000", "2.0000", "2.0000", false)
}

func TestProcess_WithdrawalBoundary(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		available string
	}{
		{name: "exact balance", amount: "2.5", available: "0.0000"},
		{name: "smallest excess", amount: "2.5001", available: "2.5000"},
		{name: "large excess", amount: "1000", available: "2.5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := process(t, deposit(1, 1, "2.5"), withdrawal(1, 2, tt.amount))

			assertAccount(t, accounts[1], tt.available, "0.0000", tt.available, false)
		})
	}
}

func TestProcess_WithdrawalWithoutFundsCreatesAccount(t *testing.T) {
	accounts := process(t, withdrawal(3, 1, "1"))

	assertAccount(t, accounts[3], "0.0000", "0.0000", "0.0000", false)
}

func TestProcess_DoubleDisputeIsNoOp(t *testing.T) {
	accounts := process(t, deposit(1, 1, "5"), dispute(1, 1), dispute(1, 1))

	assertAccount(t, accounts[1], "0.0000", "5.0000", "5.0000", false)
}

func TestProcess_ResolveOrChargebackWithoutDisputeIsNoOp(t *testing.T) {
	accounts := process(t, deposit(1, 1, "5"), resolve(1, 1), chargeback(1, 1))

	assertAccount(t, accounts[1], "5.0000", "0.0000", "5.0000", false)
}

func TestProcess_DisputeCanBeReissuedAfterResolve(t *testing.T) {
	accounts := process(t,
		deposit(1, 1, "5"),
		dispute(1, 1),
		resolve(1, 1),
		dispute(1, 1),
	)

	assertAccount(t, accounts[1], "0.0000", "5.0000", "5.0000", false)
}

func TestProcess_ResolveAfterChargebackIsIgnored(t *testing.T) {
	accounts := process(t, deposit(1, 1, "5"), dispute(1, 1), chargeback(1, 1), resolve(1, 1))

	assertAccount(t, accounts[1], "0.0000", "0.0000", "0.0000", true)
}

func TestProcess_WithdrawalIsNotDisputable(t *testing.T) {
	accounts := process(t, deposit(1, 1, "5"), withdrawal(1, 2, "2"), dispute(1, 2))

	assertAccount(t, accounts[1], "3.0000", "0.0000", "3.0000", false)
}

func TestProcess_DisputeFromOtherClientIsIgnored(t *testing.T) {
	accounts := process(t, deposit(1, 1, "5"), dispute(2, 1), chargeback(2, 1))

	assertAccount(t, accounts[1], "5.0000", "0.0000", "5.0000", false)
	assertAccount(t, accounts[2], "0.0000", "0.0000", "0.0000", false)
}

func TestProcess_DisputeMayExceedAvailable(t *testing.T) {
	accounts := process(t, deposit(1, 1, "5"), withdrawal(1, 2, "4"), dispute(1, 1))

	assertAccount(t, accounts[1], "-4.0000", "5.0000", "1.0000", false)
}

func TestProcess_DecimalArithmeticIsExact(t *testing.T) {
	txs := make([]models.Transaction, 0, 10)
	for i := uint32(1); i <= 10; i++ {
		txs = append(txs, deposit(1, i, "0.1"))
	}
	txs = append(txs, withdrawal(1, 11, "1.0"))

	accounts := process(t, txs...)

	assert.True(t, accounts[1].Available.IsZero())
	assertAccount(t, accounts[1], "0.0000", "0.0000", "0.0000", false)
}

func TestProcess_MissingAmountIsFatal(t *testing.T) {
	for _, kind := range []models.Kind{models.Deposit, models.Withdrawal} {
		t.Run(kind.String(), func(t *testing.T) {
			src := NewSliceSource(
				deposit(1, 1, "5"),
				models.Transaction{Kind: kind, Client: 1, ID: 2, Line: 3},
				deposit(1, 3, "5"),
			)

			accounts, err := Process(context.Background(), src, nil)
			require.Error(t, err)
			assert.Nil(t, accounts)

			var verr *models.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, "amount", verr.Field)
			assert.Equal(t, 3, verr.Line)
		})
	}
}

func TestProcess_NonMonetaryKindsIgnoreAmount(t *testing.T) {
	d := dispute(1, 1)
	d.Amount = decimal.NewNullDecimal(dec("999"))

	accounts := process(t, deposit(1, 1, "5"), d)

	assertAccount(t, accounts[1], "0.0000", "5.0000", "5.0000", false)
}

type failingSource struct{ err error }

func (f failingSource) Next() (models.Transaction, error) {
	return models.Transaction{}, f.err
}

func TestProcess_SourceErrorAbortsRun(t *testing.T) {
	boom := errors.New("boom")

	accounts, err := Process(context.Background(), failingSource{err: boom}, nil)
	require.ErrorIs(t, err, boom)
	assert.Nil(t, accounts)
}

func TestProcess_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Process(ctx, NewSliceSource(deposit(1, 1, "1")), nil)
	require.ErrorIs(t, err, context.Canceled)
}

type brokenStore struct{ err error }

func (b brokenStore) SaveDeposit(ctx context.Context, tx models.Transaction) error {
	return b.err
}

func (b brokenStore) GetDeposit(ctx context.Context, id uint32) (models.Transaction, bool, error) {
	return models.Transaction{}, false, b.err
}

func TestApply_StoreErrorsAreFatal(t *testing.T) {
	boom := errors.New("store down")
	l := NewLedger(brokenStore{err: boom}, nil)

	require.ErrorIs(t, l.Apply(context.Background(), deposit(1, 1, "1")), boom)
	require.ErrorIs(t, l.Apply(context.Background(), dispute(1, 1)), boom)
}

func TestLedger_StatsAndAccountsOrder(t *testing.T) {
	l := NewLedger(memory.NewMemoryDepositStore(), nil)
	ctx := context.Background()

	for _, tx := range []models.Transaction{
		deposit(9, 1, "1"),
		deposit(2, 2, "1"),
		withdrawal(2, 3, "5"),
		dispute(5, 77),
	} {
		require.NoError(t, l.Apply(ctx, tx))
	}

	assert.Equal(t, Stats{Applied: 2, Rejected: 2}, l.Stats())

	accounts := l.Accounts()
	require.Len(t, accounts, 3)
	assert.Equal(t, []uint16{2, 5, 9}, []uint16{accounts[0].Client, accounts[1].Client, accounts[2].Client})
}

func TestLedger_SnapshotIsACopy(t *testing.T) {
	l := NewLedger(memory.NewMemoryDepositStore(), nil)
	require.NoError(t, l.Apply(context.Background(), deposit(1, 1, "1")))

	snap := l.Snapshot()
	acct := snap[1]
	acct.Locked = true
	snap[1] = acct

	assert.False(t, l.Snapshot()[1].Locked)
}
