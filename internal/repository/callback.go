package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/relayline-ai/relayline/internal/domain"
)

// CallbackRepository persists the request-id to session-token bindings used
// to push answers back into live agent sessions. Bindings survive restarts,
// so a resolution that lands after a redeploy can still reach its session.
type CallbackRepository struct {
	db dbtx
}

func NewCallbackRepository(pool *pgxpool.Pool) *CallbackRepository {
	return &CallbackRepository{db: pool}
}

func NewCallbackRepositoryWithTx(tx pgx.Tx) *CallbackRepository {
	return &CallbackRepository{db: tx}
}

// Upsert stores or replaces the binding for a single request id.
func (r *CallbackRepository) Upsert(ctx context.Context, b *domain.CallbackBinding) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO callback_bindings (request_id, session_token, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (request_id) DO UPDATE
		 SET session_token = EXCLUDED.session_token, updated_at = EXCLUDED.updated_at`,
		b.RequestID, b.SessionToken, time.Now().UTC(),
	)
	return err
}

func (r *CallbackRepository) Get(ctx context.Context, requestID int64) (*domain.CallbackBinding, error) {
	var b domain.CallbackBinding
	err := r.db.QueryRow(ctx,
		`SELECT request_id, session_token, updated_at
		 FROM callback_bindings WHERE request_id = $1`,
		requestID,
	).Scan(&b.RequestID, &b.SessionToken, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCallbackBindingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Delete removes a binding. Deleting an absent binding is not an error, so
// cleanup after delivery is idempotent.
func (r *CallbackRepository) Delete(ctx context.Context, requestID int64) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM callback_bindings WHERE request_id = $1`,
		requestID,
	)
	return err
}
