package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/payflow/internal/webhook/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, event *domain.Event) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO webhook_events (
			id, payment_id, merchant_id, event_type, payload,
			status, attempt_count, next_retry_at, last_error, delivered_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.PaymentID,
		event.MerchantID,
		event.EventType,
		event.Payload,
		event.Status,
		event.AttemptCount,
		event.NextRetryAt,
		event.LastError,
		event.DeliveredAt,
		event.CreatedAt,
	).Error
}

// ClaimDue picks the delivery frontier: for each payment only the oldest
// pending event is eligible, so a failing event blocks its successors and
// per-payment order holds. ULID ids make "oldest" a plain string compare.
func (r *repo) ClaimDue(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]domain.DueEvent, error) {
	var due []domain.DueEvent
	err := db.WithContext(ctx).Raw(
		`SELECT e.id, e.payment_id, e.merchant_id, e.event_type, e.payload,
			e.status, e.attempt_count, e.next_retry_at, e.last_error,
			e.delivered_at, e.created_at,
			m.webhook_url, m.webhook_secret
		 FROM webhook_events e
		 JOIN merchants m ON m.id = e.merchant_id
		 WHERE e.status = ?
		   AND e.next_retry_at <= ?
		   AND NOT EXISTS (
			 SELECT 1 FROM webhook_events prior
			 WHERE prior.payment_id = e.payment_id
			   AND prior.status = ?
			   AND prior.id < e.id
		   )
		 ORDER BY e.next_retry_at ASC, e.id ASC
		 LIMIT ?`,
		domain.StatusPending,
		now,
		domain.StatusPending,
		limit,
	).Scan(&due).Error
	if err != nil {
		return nil, err
	}
	return due, nil
}

func (r *repo) MarkDelivered(ctx context.Context, db *gorm.DB, id string, attempts int, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE webhook_events
		 SET status = ?, attempt_count = ?, last_error = '', delivered_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusDelivered,
		attempts,
		at,
		id,
		domain.StatusPending,
	).Error
}

func (r *repo) MarkRetry(ctx context.Context, db *gorm.DB, id string, attempts int, nextRetryAt time.Time, lastError string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE webhook_events
		 SET attempt_count = ?, next_retry_at = ?, last_error = ?
		 WHERE id = ? AND status = ?`,
		attempts,
		nextRetryAt,
		lastError,
		id,
		domain.StatusPending,
	).Error
}

func (r *repo) MarkFailed(ctx context.Context, db *gorm.DB, id string, attempts int, lastError string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE webhook_events
		 SET status = ?, attempt_count = ?, last_error = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusFailedPermanent,
		attempts,
		lastError,
		id,
		domain.StatusPending,
	).Error
}

func (r *repo) CountPending(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM webhook_events WHERE status = ?`,
		domain.StatusPending,
	).Scan(&count).Error
	return count, err
}

func (r *repo) ListByPayment(ctx context.Context, db *gorm.DB, paymentID string) ([]domain.Event, error) {
	var events []domain.Event
	err := db.WithContext(ctx).Raw(
		`SELECT id, payment_id, merchant_id, event_type, payload,
			status, attempt_count, next_retry_at, last_error, delivered_at, created_at
		 FROM webhook_events
		 WHERE payment_id = ?
		 ORDER BY id ASC`,
		paymentID,
	).Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
