package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/relayline-ai/relayline/internal/service"
)

// TxRunner executes a function inside a database transaction, handing it
// transaction-bound repositories.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// WithTx begins a transaction, runs fn, and commits. Any error from fn rolls
// the transaction back.
func (r *TxRunner) WithTx(ctx context.Context, fn func(repos service.TxRepositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	repos := &txRepositories{tx: tx}
	if err := fn(repos); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type txRepositories struct {
	tx pgx.Tx
}

func (r *txRepositories) HelpRequests() service.HelpRequestTxRepository {
	return NewHelpRequestRepositoryWithTx(r.tx)
}

func (r *txRepositories) Knowledge() service.KnowledgeTxRepository {
	return NewKnowledgeRepositoryWithTx(r.tx)
}

func (r *txRepositories) Callbacks() service.CallbackTxRepository {
	return NewCallbackRepositoryWithTx(r.tx)
}
