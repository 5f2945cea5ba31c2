package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/relayline-ai/relayline/internal/domain"
)

type BusinessInfoRepository struct {
	db dbtx
}

func NewBusinessInfoRepository(pool *pgxpool.Pool) *BusinessInfoRepository {
	return &BusinessInfoRepository{db: pool}
}

func (r *BusinessInfoRepository) Upsert(ctx context.Context, key, value string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO business_info (key, value, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE
		 SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value, time.Now().UTC(),
	)
	return err
}

func (r *BusinessInfoRepository) ListAll(ctx context.Context) ([]*domain.BusinessInfo, error) {
	rows, err := r.db.Query(ctx,
		`SELECT key, value, updated_at FROM business_info ORDER BY key`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.BusinessInfo
	for rows.Next() {
		var bi domain.BusinessInfo
		if err := rows.Scan(&bi.Key, &bi.Value, &bi.UpdatedAt); err != nil {
			return nil, err
		}
		results = append(results, &bi)
	}
	return results, rows.Err()
}
