package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/relayline-ai/relayline/internal/domain"
	"github.com/relayline-ai/relayline/internal/service"
)

type HelpRequestRepository struct {
	db dbtx
}

func NewHelpRequestRepository(pool *pgxpool.Pool) *HelpRequestRepository {
	return &HelpRequestRepository{db: pool}
}

func NewHelpRequestRepositoryWithTx(tx pgx.Tx) *HelpRequestRepository {
	return &HelpRequestRepository{db: tx}
}

// Create inserts a new pending request and writes the generated id back to hr.
func (r *HelpRequestRepository) Create(ctx context.Context, hr *domain.HelpRequest) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO help_requests (customer_id, question, status, webhook_url, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		hr.CustomerID, hr.Question, hr.Status, nullableString(hr.WebhookURL), hr.CreatedAt,
	).Scan(&hr.ID)
}

func (r *HelpRequestRepository) GetByID(ctx context.Context, id int64) (*domain.HelpRequest, error) {
	return r.getOne(ctx,
		`SELECT id, customer_id, question, status, answer, webhook_url, created_at, resolved_at
		 FROM help_requests WHERE id = $1`,
		id,
	)
}

// GetByIDForUpdate locks the row for the duration of the surrounding
// transaction. Only valid on a repository created with a tx.
func (r *HelpRequestRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.HelpRequest, error) {
	return r.getOne(ctx,
		`SELECT id, customer_id, question, status, answer, webhook_url, created_at, resolved_at
		 FROM help_requests WHERE id = $1 FOR UPDATE`,
		id,
	)
}

// ListPending returns open requests oldest-first, the order operators work
// the queue in.
func (r *HelpRequestRepository) ListPending(ctx context.Context) ([]*domain.HelpRequest, error) {
	return r.list(ctx,
		`SELECT id, customer_id, question, status, answer, webhook_url, created_at, resolved_at
		 FROM help_requests WHERE status = $1 ORDER BY created_at ASC, id ASC`,
		domain.StatusPending,
	)
}

func (r *HelpRequestRepository) ListUnresolved(ctx context.Context) ([]*domain.HelpRequest, error) {
	return r.list(ctx,
		`SELECT id, customer_id, question, status, answer, webhook_url, created_at, resolved_at
		 FROM help_requests WHERE status = $1 ORDER BY created_at DESC, id DESC`,
		domain.StatusUnresolved,
	)
}

// ListExpiredPending returns pending requests created strictly before cutoff,
// oldest-first.
func (r *HelpRequestRepository) ListExpiredPending(ctx context.Context, cutoff time.Time) ([]*domain.HelpRequest, error) {
	return r.list(ctx,
		`SELECT id, customer_id, question, status, answer, webhook_url, created_at, resolved_at
		 FROM help_requests WHERE status = $1 AND created_at < $2
		 ORDER BY created_at ASC, id ASC`,
		domain.StatusPending, cutoff,
	)
}

// MarkResolved transitions a pending request to resolved. The WHERE clause on
// status makes the transition atomic; a zero row count means the request was
// missing or already terminal.
func (r *HelpRequestRepository) MarkResolved(ctx context.Context, id int64, answer string, resolvedAt time.Time) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE help_requests
		 SET status = $1, answer = $2, resolved_at = $3
		 WHERE id = $4 AND status = $5`,
		domain.StatusResolved, answer, resolvedAt,
		id, domain.StatusPending,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrRequestNotPending
	}
	return nil
}

// MarkUnresolved transitions a pending request to unresolved.
func (r *HelpRequestRepository) MarkUnresolved(ctx context.Context, id int64, resolvedAt time.Time) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE help_requests
		 SET status = $1, resolved_at = $2
		 WHERE id = $3 AND status = $4`,
		domain.StatusUnresolved, resolvedAt,
		id, domain.StatusPending,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrRequestNotPending
	}
	return nil
}

// CountByStatus returns request totals grouped by status.
func (r *HelpRequestRepository) CountByStatus(ctx context.Context) (*service.RequestCounts, error) {
	rows, err := r.db.Query(ctx,
		`SELECT status, count(*) FROM help_requests GROUP BY status`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts service.RequestCounts
	for rows.Next() {
		var status domain.HelpRequestStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		switch status {
		case domain.StatusPending:
			counts.Pending = count
		case domain.StatusResolved:
			counts.Resolved = count
		case domain.StatusUnresolved:
			counts.Unresolved = count
		}
		counts.Total += count
	}
	return &counts, rows.Err()
}

func (r *HelpRequestRepository) getOne(ctx context.Context, query string, args ...any) (*domain.HelpRequest, error) {
	var hr domain.HelpRequest
	var answer, webhookURL *string
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&hr.ID, &hr.CustomerID, &hr.Question, &hr.Status,
		&answer, &webhookURL, &hr.CreatedAt, &hr.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrHelpRequestNotFound
		}
		return nil, err
	}
	if answer != nil {
		hr.Answer = *answer
	}
	if webhookURL != nil {
		hr.WebhookURL = *webhookURL
	}
	return &hr, nil
}

func (r *HelpRequestRepository) list(ctx context.Context, query string, args ...any) ([]*domain.HelpRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.HelpRequest
	for rows.Next() {
		var hr domain.HelpRequest
		var answer, webhookURL *string
		if err := rows.Scan(
			&hr.ID, &hr.CustomerID, &hr.Question, &hr.Status,
			&answer, &webhookURL, &hr.CreatedAt, &hr.ResolvedAt,
		); err != nil {
			return nil, err
		}
		if answer != nil {
			hr.Answer = *answer
		}
		if webhookURL != nil {
			hr.WebhookURL = *webhookURL
		}
		results = append(results, &hr)
	}
	return results, rows.Err()
}

// nullableString maps the empty string to SQL NULL.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
