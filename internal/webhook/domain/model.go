package domain

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	merchantdomain "github.com/smallbiznis/payflow/internal/merchant/domain"
	paymentdomain "github.com/smallbiznis/payflow/internal/payment/domain"
	"github.com/oklog/ulid/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Status is the delivery state of a webhook event. DELIVERED and
// FAILED_PERMANENT are terminal; terminal rows are never re-enqueued.
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusDelivered       Status = "DELIVERED"
	StatusFailedPermanent Status = "FAILED_PERMANENT"
)

const (
	EventTypePaymentCreated   = "payment.created"
	EventTypePaymentSucceeded = "payment.succeeded"
	EventTypePaymentFailed    = "payment.failed"
	EventTypePaymentRefunded  = "payment.refunded"
)

// Event is one notification obligation, persisted in the same transaction
// as the payment state change it reports. IDs are ULIDs, so lexicographic
// order over id equals creation order; the dispatcher leans on that for its
// per-payment ordering guarantee.
type Event struct {
	ID           string         `json:"id" gorm:"primaryKey"`
	PaymentID    string         `json:"payment_id" gorm:"not null;index"`
	MerchantID   string         `json:"merchant_id" gorm:"not null;index"`
	EventType    string         `json:"event_type" gorm:"type:text;not null"`
	Payload      datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	Status       Status         `json:"status" gorm:"type:text;not null"`
	AttemptCount int            `json:"attempt_count" gorm:"not null"`
	NextRetryAt  time.Time      `json:"next_retry_at" gorm:"not null"`
	LastError    string         `json:"last_error,omitempty" gorm:"type:text"`
	DeliveredAt  *time.Time     `json:"delivered_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at" gorm:"not null"`
}

func (Event) TableName() string { return "webhook_events" }

// DueEvent is a claimed pending event joined with the owning merchant's
// delivery endpoint and signing secret.
type DueEvent struct {
	Event
	WebhookURL    string
	WebhookSecret string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, event *Event) error
	// ClaimDue selects pending events eligible at now, at most one per
	// payment (the earliest pending), ordered by next_retry_at then id.
	ClaimDue(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]DueEvent, error)
	MarkDelivered(ctx context.Context, db *gorm.DB, id string, attempts int, at time.Time) error
	MarkRetry(ctx context.Context, db *gorm.DB, id string, attempts int, nextRetryAt time.Time, lastError string) error
	MarkFailed(ctx context.Context, db *gorm.DB, id string, attempts int, lastError string) error
	CountPending(ctx context.Context, db *gorm.DB) (int64, error)
	ListByPayment(ctx context.Context, db *gorm.DB, paymentID string) ([]Event, error)
}

// Enqueuer records a notification obligation inside the caller's
// transaction. A merchant without a webhook URL yields no event and no
// error.
type Enqueuer interface {
	Enqueue(ctx context.Context, tx *gorm.DB, merchant *merchantdomain.Merchant, payment *paymentdomain.Payment, eventType string) (*Event, error)
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewEventID returns a ULID for t. Monotonic entropy keeps IDs strictly
// increasing even within the same millisecond.
func NewEventID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t.UTC()), entropy).String()
}
