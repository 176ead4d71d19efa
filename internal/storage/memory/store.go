package memory

import (
	"context"
	"sync"

	interfaces "github.com/sheikh-saqib/ledger-replay/internal/interfaces"
	"github.com/sheikh-saqib/ledger-replay/internal/models"
)

// MemoryDepositStore is an in-memory implementation of interfaces.DepositStore.
// It lives for one run only.
type MemoryDepositStore struct {
	mu       sync.Mutex
	deposits map[uint32]models.Transaction
}

// NewMemoryDepositStore creates an empty store.
func NewMemoryDepositStore() *MemoryDepositStore {
	return &MemoryDepositStore{
		deposits: make(map[uint32]models.Transaction),
	}
}

// SaveDeposit records a deposit under its transaction id, replacing any previous one.
func (m *MemoryDepositStore) SaveDeposit(ctx context.Context, tx models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deposits[tx.ID] = tx
	return nil
}

func (m *MemoryDepositStore) GetDeposit(ctx context.Context, id uint32) (models.Transaction, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, exists := m.deposits[id]
	return tx, exists, nil
}

// Len returns the number of stored deposits.
func (m *MemoryDepositStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.deposits)
}

// Compile-time check: ensure MemoryDepositStore implements DepositStore interface
var _ interfaces.DepositStore = (*MemoryDepositStore)(nil)
