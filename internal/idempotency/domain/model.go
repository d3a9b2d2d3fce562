package domain

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Record maps one (merchant, idempotency key) pair to the payment it
// created and the exact response bytes returned for it. A unique index on
// the pair makes the mapping race-safe; expired rows are reclaimed in place
// rather than deleted.
type Record struct {
	ID         string         `json:"id" gorm:"primaryKey"`
	MerchantID string         `json:"merchant_id" gorm:"not null;uniqueIndex:ux_idempotency_keys_merchant_key"`
	Key        string         `json:"key" gorm:"column:idempotency_key;not null;uniqueIndex:ux_idempotency_keys_merchant_key"`
	PaymentID  string         `json:"payment_id" gorm:"not null"`
	Response   datatypes.JSON `json:"response" gorm:"type:jsonb;not null"`
	CreatedAt  time.Time      `json:"created_at" gorm:"not null"`
	ExpiresAt  time.Time      `json:"expires_at" gorm:"not null"`
}

func (Record) TableName() string { return "idempotency_keys" }

// Live reports whether the record still holds its key at now.
func (r *Record) Live(now time.Time) bool {
	return r.ExpiresAt.After(now)
}

type Repository interface {
	Find(ctx context.Context, db *gorm.DB, merchantID, key string) (*Record, error)
	// Upsert claims the (merchant, key) slot. Returns true when the record
	// won the slot, false when a live record already holds it.
	Upsert(ctx context.Context, db *gorm.DB, record *Record) (bool, error)
}

// Coordinator is the token registry the create flow runs through. Record is
// called inside the payment transaction so the token claim commits with the
// payment; a losing claim rolls the whole creation back.
type Coordinator interface {
	// Lookup returns the live record for the token, or nil when the token
	// is unknown or expired.
	Lookup(ctx context.Context, db *gorm.DB, merchantID, key string) (*Record, error)
	// Record claims the token for paymentID and caches the response bytes.
	// A live duplicate claim returns a conflict error.
	Record(ctx context.Context, db *gorm.DB, merchantID, key, paymentID string, response []byte) error
}
