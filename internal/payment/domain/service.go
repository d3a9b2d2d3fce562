package domain

import (
	"context"
	"encoding/json"
	"time"

	merchantdomain "github.com/smallbiznis/payflow/internal/merchant/domain"
	"gorm.io/gorm"
)

type CreatePaymentRequest struct {
	Amount         int64
	Currency       string
	Description    string
	CustomerEmail  string
	CustomerPhone  string
	Metadata       map[string]any
	IdempotencyKey string
	Simulate       string
}

type RefundRequest struct {
	// Amount in minor units; zero means the full remaining balance.
	Amount int64
	Reason string
}

// CreateResult carries the created (or replayed) payment together with the
// exact response bytes cached under the idempotency token. Every caller of
// the same token observes identical Response bytes.
type CreateResult struct {
	Payment  *Payment
	Response json.RawMessage
	Replayed bool
}

type Service interface {
	Create(ctx context.Context, merchant *merchantdomain.Merchant, req CreatePaymentRequest) (*CreateResult, error)
	Get(ctx context.Context, merchantID, paymentID string) (*Payment, error)
	Capture(ctx context.Context, merchant *merchantdomain.Merchant, paymentID string) (*Payment, error)
	Refund(ctx context.Context, merchant *merchantdomain.Merchant, paymentID string, req RefundRequest) (*Refund, error)
	ListRefunds(ctx context.Context, merchantID, paymentID string) ([]Refund, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, merchantID, paymentID string) (*Payment, error)
	// UpdateStatus writes payment's current fields conditioned on the row
	// still holding the expected status. Returns false when the row moved.
	UpdateStatus(ctx context.Context, db *gorm.DB, payment *Payment, expected Status) (bool, error)
	// ApplyRefund grows amount_refunded by amount, conditioned on the row
	// being CAPTURED and the bound amount_refunded+amount <= amount holding.
	ApplyRefund(ctx context.Context, db *gorm.DB, paymentID string, amount int64, now time.Time) (bool, error)
	InsertRefund(ctx context.Context, db *gorm.DB, refund *Refund) error
	ListRefunds(ctx context.Context, db *gorm.DB, paymentID string) ([]Refund, error)
}

// PaymentResponse is the client-facing payment representation. Serialized
// once on create and replayed verbatim for duplicate idempotency tokens.
type PaymentResponse struct {
	ID             string         `json:"id"`
	Amount         int64          `json:"amount"`
	AmountRefunded int64          `json:"amount_refunded"`
	Currency       string         `json:"currency"`
	Status         Status         `json:"status"`
	Description    string         `json:"description,omitempty"`
	ErrorCode      string         `json:"error_code,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Simulated      bool           `json:"simulated,omitempty"`
	Simulation     string         `json:"simulation,omitempty"`
	CreatedAt      string         `json:"created_at"`
	AuthorizedAt   string         `json:"authorized_at,omitempty"`
	CapturedAt     string         `json:"captured_at,omitempty"`
}

func NewPaymentResponse(p *Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:             p.ID,
		Amount:         p.Amount,
		AmountRefunded: p.AmountRefunded,
		Currency:       p.Currency,
		Status:         p.Status,
		Description:    p.Description,
		ErrorCode:      p.ErrorCode,
		ErrorMessage:   p.ErrorMessage,
		Metadata:       p.Metadata,
		CreatedAt:      p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p.AuthorizedAt != nil {
		resp.AuthorizedAt = p.AuthorizedAt.UTC().Format(time.RFC3339)
	}
	if p.CapturedAt != nil {
		resp.CapturedAt = p.CapturedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
