package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/ledger-replay/internal/models"
)

func TestMemoryDepositStore_SaveAndGet(t *testing.T) {
	store := NewMemoryDepositStore()
	ctx := context.Background()

	_, ok, err := store.GetDeposit(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	tx := models.Transaction{
		Kind:   models.Deposit,
		Client: 1,
		ID:     7,
		Amount: decimal.NewNullDecimal(decimal.RequireFromString("1.5")),
	}
	require.NoError(t, store.SaveDeposit(ctx, tx))

	got, ok, err := store.GetDeposit(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint16(1), got.Client)
	assert.True(t, got.Amount.Decimal.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, 1, store.Len())
}

func TestMemoryDepositStore_SaveReplacesExisting(t *testing.T) {
	store := NewMemoryDepositStore()
	ctx := context.Background()

	first := models.Transaction{Kind: models.Deposit, Client: 1, ID: 3, Amount: decimal.NewNullDecimal(decimal.NewFromInt(1))}
	second := models.Transaction{Kind: models.Deposit, Client: 1, ID: 3, Amount: decimal.NewNullDecimal(decimal.NewFromInt(9))}
	require.NoError(t, store.SaveDeposit(ctx, first))
	require.NoError(t, store.SaveDeposit(ctx, second))

	got, ok, err := store.GetDeposit(ctx, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Amount.Decimal.Equal(decimal.NewFromInt(9)))
	assert.Equal(t, 1, store.Len())
}
