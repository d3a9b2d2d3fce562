package repository

import (
	"context"

	"github.com/smallbiznis/payflow/internal/merchant/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, merchant *domain.Merchant) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO merchants (id, name, email, webhook_url, webhook_secret, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		merchant.ID,
		merchant.Name,
		merchant.Email,
		merchant.WebhookURL,
		merchant.WebhookSecret,
		merchant.IsActive,
		merchant.CreatedAt,
		merchant.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*domain.Merchant, error) {
	var merchant domain.Merchant
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, webhook_url, webhook_secret, is_active, created_at, updated_at
		 FROM merchants WHERE id = ? LIMIT 1`,
		id,
	).Scan(&merchant).Error
	if err != nil {
		return nil, err
	}
	if merchant.ID == "" {
		return nil, nil
	}
	return &merchant, nil
}

func (r *repo) InsertAPIKey(ctx context.Context, db *gorm.DB, key *domain.APIKey) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO api_keys (id, merchant_id, key_hash, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		key.ID,
		key.MerchantID,
		key.KeyHash,
		key.IsActive,
		key.CreatedAt,
	).Error
}

func (r *repo) FindMerchantByKeyHash(ctx context.Context, db *gorm.DB, keyHash string) (*domain.Merchant, error) {
	var merchant domain.Merchant
	err := db.WithContext(ctx).Raw(
		`SELECT m.id, m.name, m.email, m.webhook_url, m.webhook_secret, m.is_active, m.created_at, m.updated_at
		 FROM merchants m
		 JOIN api_keys k ON k.merchant_id = m.id
		 WHERE k.key_hash = ? AND k.is_active = TRUE
		 LIMIT 1`,
		keyHash,
	).Scan(&merchant).Error
	if err != nil {
		return nil, err
	}
	if merchant.ID == "" {
		return nil, nil
	}
	return &merchant, nil
}
