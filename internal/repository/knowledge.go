package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/relayline-ai/relayline/internal/domain"
	"github.com/relayline-ai/relayline/internal/pagination"
	"github.com/relayline-ai/relayline/internal/service"
)

type KnowledgeRepository struct {
	db dbtx
}

func NewKnowledgeRepository(pool *pgxpool.Pool) *KnowledgeRepository {
	return &KnowledgeRepository{db: pool}
}

func NewKnowledgeRepositoryWithTx(tx pgx.Tx) *KnowledgeRepository {
	return &KnowledgeRepository{db: tx}
}

// Upsert inserts a new item or, when the question already exists under
// case-insensitive comparison, updates its answer in place. The stored id and
// created_at are written back to k so the caller always sees the
// authoritative record.
func (r *KnowledgeRepository) Upsert(ctx context.Context, k *domain.KnowledgeItem) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO knowledge_items (id, question, answer, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (lower(question)) DO UPDATE
		 SET answer = EXCLUDED.answer, updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at`,
		k.ID, k.Question, k.Answer, k.CreatedAt, k.UpdatedAt,
	).Scan(&k.ID, &k.CreatedAt)
}

func (r *KnowledgeRepository) GetByID(ctx context.Context, id string) (*domain.KnowledgeItem, error) {
	var k domain.KnowledgeItem
	err := r.db.QueryRow(ctx,
		`SELECT id, question, answer, created_at, updated_at
		 FROM knowledge_items WHERE id = $1`,
		id,
	).Scan(&k.ID, &k.Question, &k.Answer, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrKnowledgeItemNotFound
		}
		return nil, err
	}
	return &k, nil
}

// GetByQuestionFold performs a case-insensitive exact match on the question.
func (r *KnowledgeRepository) GetByQuestionFold(ctx context.Context, question string) (*domain.KnowledgeItem, error) {
	var k domain.KnowledgeItem
	err := r.db.QueryRow(ctx,
		`SELECT id, question, answer, created_at, updated_at
		 FROM knowledge_items WHERE lower(question) = lower($1)`,
		question,
	).Scan(&k.ID, &k.Question, &k.Answer, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrKnowledgeItemNotFound
		}
		return nil, err
	}
	return &k, nil
}

// ListAll returns every knowledge item ordered by id. The stable order is
// what makes index rebuilds reproducible.
func (r *KnowledgeRepository) ListAll(ctx context.Context) ([]*domain.KnowledgeItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, question, answer, created_at, updated_at
		 FROM knowledge_items ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanKnowledgeRows(rows)
}

func (r *KnowledgeRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM knowledge_items`).Scan(&count)
	return count, err
}

func (r *KnowledgeRepository) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE knowledge_items SET embedding = $1, updated_at = $2 WHERE id = $3`,
		pgvector.NewVector(embedding), time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrKnowledgeItemNotFound
	}
	return nil
}

// ListEmbeddings returns (id, question, cached vector) for every item ordered
// by id. Items that were never embedded come back with a nil Embedding.
func (r *KnowledgeRepository) ListEmbeddings(ctx context.Context) ([]*service.EmbeddingRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, question, embedding FROM knowledge_items ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*service.EmbeddingRecord
	for rows.Next() {
		var rec service.EmbeddingRecord
		var vec *pgvector.Vector
		if err := rows.Scan(&rec.ID, &rec.Question, &vec); err != nil {
			return nil, err
		}
		if vec != nil {
			rec.Embedding = vec.Slice()
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// ListWithCursor pages knowledge items newest-first for the dashboard API.
func (r *KnowledgeRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*service.KnowledgePageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, question, answer, created_at, updated_at
			 FROM knowledge_items
			 WHERE (updated_at, id) < ($1, $2)
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, question, answer, created_at, updated_at
			 FROM knowledge_items
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $1`,
			limit+1,
		)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanKnowledgeRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		lastItem := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(lastItem.ID, lastItem.UpdatedAt)
	}

	return &service.KnowledgePageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func scanKnowledgeRows(rows pgx.Rows) ([]*domain.KnowledgeItem, error) {
	var results []*domain.KnowledgeItem
	for rows.Next() {
		var k domain.KnowledgeItem
		if err := rows.Scan(&k.ID, &k.Question, &k.Answer, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, err
		}
		results = append(results, &k)
	}
	return results, rows.Err()
}
