package domain

import (
	"encoding/json"
	"time"

	paymentdomain "github.com/smallbiznis/payflow/internal/payment/domain"
)

// PayloadPayment is the payment snapshot embedded in every webhook payload.
// Field set and order are a wire contract; receivers verify signatures over
// the exact bytes, so this must stay stable.
type PayloadPayment struct {
	ID        string         `json:"id"`
	Amount    int64          `json:"amount"`
	Currency  string         `json:"currency"`
	Status    string         `json:"status"`
	CreatedAt string         `json:"created_at"`
	Metadata  map[string]any `json:"metadata"`
}

// Payload is the body POSTed to merchant webhook endpoints.
type Payload struct {
	Event     string         `json:"event"`
	Payment   PayloadPayment `json:"payment"`
	Timestamp string         `json:"timestamp"`
}

// BuildPayload serializes the event body once, at enqueue time. The stored
// bytes are what gets signed and sent on every delivery attempt.
func BuildPayload(eventType string, payment *paymentdomain.Payment, now time.Time) ([]byte, error) {
	metadata := map[string]any(payment.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	return json.Marshal(Payload{
		Event: eventType,
		Payment: PayloadPayment{
			ID:        payment.ID,
			Amount:    payment.Amount,
			Currency:  payment.Currency,
			Status:    string(payment.Status),
			CreatedAt: payment.CreatedAt.UTC().Format(time.RFC3339),
			Metadata:  metadata,
		},
		Timestamp: now.UTC().Format(time.RFC3339),
	})
}
