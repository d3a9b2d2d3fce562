package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Merchant is an API consumer of the gateway. It owns API keys, webhook
// configuration, and every payment created under its identity.
type Merchant struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"type:text;not null"`
	Email         string    `json:"email" gorm:"type:text;not null;uniqueIndex"`
	WebhookURL    string    `json:"webhook_url" gorm:"type:text"`
	WebhookSecret string    `json:"-" gorm:"type:text"`
	IsActive      bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"not null"`
}

func (Merchant) TableName() string { return "merchants" }

// APIKey stores only the SHA-256 hash of the issued bearer token. The
// plaintext is returned once at issue time and never persisted.
type APIKey struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	MerchantID string    `json:"merchant_id" gorm:"not null;index"`
	KeyHash    string    `json:"-" gorm:"type:text;not null;uniqueIndex"`
	IsActive   bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null"`
}

func (APIKey) TableName() string { return "api_keys" }

type CreateMerchantRequest struct {
	Name       string
	Email      string
	WebhookURL string
}

type Service interface {
	Create(ctx context.Context, req CreateMerchantRequest) (*Merchant, error)
	Get(ctx context.Context, id string) (*Merchant, error)
	// IssueAPIKey returns the plaintext key exactly once.
	IssueAPIKey(ctx context.Context, merchantID string) (string, *APIKey, error)
	Authenticate(ctx context.Context, apiKey string) (*Merchant, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, merchant *Merchant) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Merchant, error)
	InsertAPIKey(ctx context.Context, db *gorm.DB, key *APIKey) error
	FindMerchantByKeyHash(ctx context.Context, db *gorm.DB, keyHash string) (*Merchant, error)
}
