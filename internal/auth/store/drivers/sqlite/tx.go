package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/harborbank/tellerauth/internal/auth/store"
)

// txStore adapts a *sql.Tx to the Store interface so repositories obtained
// from it run inside the transaction.
type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore { return &txStore{tx: tx} }

func (t *txStore) Users() store.Users             { return &usersRepo{q: t.tx} }
func (t *txStore) BackupCodes() store.BackupCodes { return &backupCodesRepo{q: t.tx} }

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error              { return errors.New("sqlite: close called on transaction") }
func (t *txStore) Ping(ctx context.Context) error { return nil }

// Tx returns an error: nested transactions are not supported by sqlite.
func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, errors.New("sqlite: nested transactions are not supported")
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return errors.New("sqlite: nested transactions are not supported")
}

func (t *txStore) ApplyMigrations() error {
	return errors.New("sqlite: migrations cannot run inside a transaction")
}
