package repository

import (
	"context"

	"github.com/smallbiznis/payflow/internal/idempotency/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, merchantID, key string) (*domain.Record, error) {
	var record domain.Record
	err := db.WithContext(ctx).Raw(
		`SELECT id, merchant_id, idempotency_key, payment_id, response, created_at, expires_at
		 FROM idempotency_keys
		 WHERE merchant_id = ? AND idempotency_key = ?
		 LIMIT 1`,
		merchantID,
		key,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == "" {
		return nil, nil
	}
	return &record, nil
}

// Upsert claims the unique (merchant_id, idempotency_key) slot. The
// conflict branch overwrites only rows whose TTL had elapsed before the new
// claim, so an expired key is reclaimed in place while a live one keeps its
// row. Zero rows affected means a live holder won the race.
func (r *repo) Upsert(ctx context.Context, db *gorm.DB, record *domain.Record) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO idempotency_keys (
			id, merchant_id, idempotency_key, payment_id, response, created_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (merchant_id, idempotency_key) DO UPDATE SET
			id = excluded.id,
			payment_id = excluded.payment_id,
			response = excluded.response,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
		WHERE idempotency_keys.expires_at <= excluded.created_at`,
		record.ID,
		record.MerchantID,
		record.Key,
		record.PaymentID,
		record.Response,
		record.CreatedAt,
		record.ExpiresAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
