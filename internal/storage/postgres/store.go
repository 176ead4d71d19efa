package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	interfaces "github.com/sheikh-saqib/ledger-replay/internal/interfaces"
	"github.com/sheikh-saqib/ledger-replay/internal/models"
)

const createSnapshotsTable = `CREATE TABLE IF NOT EXISTS account_snapshots (
	run_id     UUID           NOT NULL,
	client_id  INTEGER        NOT NULL,
	available  NUMERIC(20, 4) NOT NULL,
	held       NUMERIC(20, 4) NOT NULL,
	total      NUMERIC(20, 4) NOT NULL,
	locked     BOOLEAN        NOT NULL,
	created_at TIMESTAMPTZ    NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, client_id)
)`

const insertSnapshot = `INSERT INTO account_snapshots (run_id, client_id, available, held, total, locked)
	VALUES ($1, $2, $3, $4, $5, $6)`

// SnapshotStore writes the final accounts of each run to postgres.
type SnapshotStore struct {
	db *sql.DB
}

func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{
		db: db,
	}
}

// Open connects with the lib/pq driver and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (p *SnapshotStore) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, createSnapshotsTable)
	return err
}

// Export inserts every account in one database transaction.
func (p *SnapshotStore) Export(ctx context.Context, runID string, accounts []models.ClientAccount) (err error) {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	stmt, err := dbTx.PrepareContext(ctx, insertSnapshot)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, acct := range accounts {
		_, err = stmt.ExecContext(ctx,
			runID,
			int64(acct.Client),
			acct.Available.StringFixed(4),
			acct.Held.StringFixed(4),
			acct.Total.StringFixed(4),
			acct.Locked,
		)
		if err != nil {
			return fmt.Errorf("insert client %d: %w", acct.Client, err)
		}
	}

	return dbTx.Commit()
}

var _ interfaces.SnapshotSink = (*SnapshotStore)(nil)
