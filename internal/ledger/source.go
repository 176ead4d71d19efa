package ledger

import (
	"io"

	"github.com/sheikh-saqib/ledger-replay/internal/models"
)

// SliceSource serves records from memory, mostly for tests and embedding.
type SliceSource struct {
	txs []models.Transaction
	pos int
}

func NewSliceSource(txs ...models.Transaction) *SliceSource {
	return &SliceSource{txs: txs}
}

func (s *SliceSource) Next() (models.Transaction, error) {
	if s.pos >= len(s.txs) {
		return models.Transaction{}, io.EOF
	}
	tx := s.txs[s.pos]
	s.pos++
	return tx, nil
}
