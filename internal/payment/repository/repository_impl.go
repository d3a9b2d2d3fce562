package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/payflow/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, merchant_id, amount, amount_refunded, currency, status,
			description, customer_email, customer_phone, error_code, error_message,
			metadata, created_at, updated_at, authorized_at, captured_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.MerchantID,
		payment.Amount,
		payment.AmountRefunded,
		payment.Currency,
		payment.Status,
		payment.Description,
		payment.CustomerEmail,
		payment.CustomerPhone,
		payment.ErrorCode,
		payment.ErrorMessage,
		payment.Metadata,
		payment.CreatedAt,
		payment.UpdatedAt,
		payment.AuthorizedAt,
		payment.CapturedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, merchantID, paymentID string) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT id, merchant_id, amount, amount_refunded, currency, status,
			description, customer_email, customer_phone, error_code, error_message,
			metadata, created_at, updated_at, authorized_at, captured_at
		 FROM payments
		 WHERE merchant_id = ? AND id = ?
		 LIMIT 1`,
		merchantID,
		paymentID,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == "" {
		return nil, nil
	}
	return &payment, nil
}

// UpdateStatus is the compare-and-swap every lifecycle transition rides on.
// A zero rows-affected result means the expected pre-state no longer holds.
func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, payment *domain.Payment, expected domain.Status) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET status = ?, error_code = ?, error_message = ?,
			 authorized_at = ?, captured_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		payment.Status,
		payment.ErrorCode,
		payment.ErrorMessage,
		payment.AuthorizedAt,
		payment.CapturedAt,
		payment.UpdatedAt,
		payment.ID,
		expected,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) ApplyRefund(ctx context.Context, db *gorm.DB, paymentID string, amount int64, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET amount_refunded = amount_refunded + ?, updated_at = ?
		 WHERE id = ? AND status = ? AND amount_refunded + ? <= amount`,
		amount,
		now,
		paymentID,
		domain.StatusCaptured,
		amount,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) InsertRefund(ctx context.Context, db *gorm.DB, refund *domain.Refund) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO refunds (id, payment_id, amount, reason, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		refund.ID,
		refund.PaymentID,
		refund.Amount,
		refund.Reason,
		refund.Status,
		refund.CreatedAt,
	).Error
}

func (r *repo) ListRefunds(ctx context.Context, db *gorm.DB, paymentID string) ([]domain.Refund, error) {
	var refunds []domain.Refund
	err := db.WithContext(ctx).Raw(
		`SELECT id, payment_id, amount, reason, status, created_at
		 FROM refunds
		 WHERE payment_id = ?
		 ORDER BY created_at ASC, id ASC`,
		paymentID,
	).Scan(&refunds).Error
	if err != nil {
		return nil, err
	}
	return refunds, nil
}
