package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Status is the payment lifecycle state. Transitions only move forward:
// CREATED -> AUTHORIZED -> CAPTURED -> REFUNDED, with FAILED reachable from
// CREATED or AUTHORIZED. REFUNDED and FAILED are terminal.
type Status string

const (
	StatusCreated    Status = "CREATED"
	StatusAuthorized Status = "AUTHORIZED"
	StatusCaptured   Status = "CAPTURED"
	StatusRefunded   Status = "REFUNDED"
	StatusFailed     Status = "FAILED"
)

var transitions = map[Status][]Status{
	StatusCreated:    {StatusAuthorized, StatusFailed},
	StatusAuthorized: {StatusCaptured, StatusFailed},
	StatusCaptured:   {StatusRefunded},
}

// CanTransition reports whether from -> to is a legal lifecycle move.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status has no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusRefunded || s == StatusFailed
}

// Payment is the central audit entity. Rows are never deleted; only the
// status and its transition timestamps move forward. AmountRefunded is the
// running refund total and is only ever grown by a conditional update that
// enforces the refund bound at the store.
type Payment struct {
	ID             string            `json:"id" gorm:"primaryKey"`
	MerchantID     string            `json:"merchant_id" gorm:"not null;index"`
	Amount         int64             `json:"amount" gorm:"not null"`
	AmountRefunded int64             `json:"amount_refunded" gorm:"not null"`
	Currency       string            `json:"currency" gorm:"type:text;not null"`
	Status         Status            `json:"status" gorm:"type:text;not null"`
	Description    string            `json:"description,omitempty" gorm:"type:text"`
	CustomerEmail  string            `json:"customer_email,omitempty" gorm:"type:text"`
	CustomerPhone  string            `json:"customer_phone,omitempty" gorm:"type:text"`
	ErrorCode      string            `json:"error_code,omitempty" gorm:"type:text"`
	ErrorMessage   string            `json:"error_message,omitempty" gorm:"type:text"`
	Metadata       datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`
	CreatedAt      time.Time         `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time         `json:"updated_at" gorm:"not null"`
	AuthorizedAt   *time.Time        `json:"authorized_at,omitempty"`
	CapturedAt     *time.Time        `json:"captured_at,omitempty"`
}

func (Payment) TableName() string { return "payments" }

// Refundable returns the remaining captured amount available for refunds.
func (p *Payment) Refundable() int64 {
	return p.Amount - p.AmountRefunded
}

const RefundStatusCompleted = "COMPLETED"

// Refund belongs to exactly one captured payment.
type Refund struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	PaymentID string    `json:"payment_id" gorm:"not null;index"`
	Amount    int64     `json:"amount" gorm:"not null"`
	Reason    string    `json:"reason,omitempty" gorm:"type:text"`
	Status    string    `json:"status" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}

func (Refund) TableName() string { return "refunds" }

// supportedCurrencies is the ISO-4217 subset the simulator accepts.
var supportedCurrencies = map[string]struct{}{
	"INR": {}, "USD": {}, "EUR": {}, "GBP": {}, "AUD": {},
	"CAD": {}, "SGD": {}, "AED": {}, "JPY": {}, "MYR": {},
}

// CurrencySupported reports whether code is an accepted currency.
func CurrencySupported(code string) bool {
	_, ok := supportedCurrencies[code]
	return ok
}
