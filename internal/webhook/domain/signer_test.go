package domain_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	paymentdomain "github.com/smallbiznis/payflow/internal/payment/domain"
	"github.com/smallbiznis/payflow/internal/webhook/domain"
	"gorm.io/datatypes"
)

func TestSignKnownVector(t *testing.T) {
	// echo -n 'hello' | openssl dgst -sha256 -hmac 'secret'
	got := domain.Sign([]byte("hello"), "secret")
	want := "88aab3ede8d3adf94d26ab90d3bafd4a2083070c3bcce9c014ee04a443847c0b"
	if got != want {
		t.Fatalf("expected signature %s, got %s", want, got)
	}
	if got != strings.ToLower(got) {
		t.Fatalf("signature must be lowercase hex")
	}
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"event":"payment.created"}`)
	sig := domain.Sign(payload, "whsec_test")

	if !domain.VerifySignature(payload, sig, "whsec_test") {
		t.Fatalf("expected signature to verify")
	}
	if domain.VerifySignature(payload, sig, "other_secret") {
		t.Fatalf("signature must not verify under a different secret")
	}
	if domain.VerifySignature([]byte(`{"event":"payment.failed"}`), sig, "whsec_test") {
		t.Fatalf("signature must not verify for different bytes")
	}
}

func TestBuildPayloadShape(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	payment := &paymentdomain.Payment{
		ID:        "pay_1",
		Amount:    10000,
		Currency:  "INR",
		Status:    paymentdomain.StatusCaptured,
		Metadata:  datatypes.JSONMap{"order_id": "ord_42"},
		CreatedAt: created,
	}

	raw, err := domain.BuildPayload(domain.EventTypePaymentSucceeded, payment, created.Add(time.Second))
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}

	want := `{"event":"payment.succeeded","payment":{"id":"pay_1","amount":10000,"currency":"INR","status":"CAPTURED","created_at":"2025-06-01T12:00:00Z","metadata":{"order_id":"ord_42"}},"timestamp":"2025-06-01T12:00:01Z"}`
	if string(raw) != want {
		t.Fatalf("payload mismatch:\n got %s\nwant %s", raw, want)
	}
}

func TestBuildPayloadEmptyMetadata(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	payment := &paymentdomain.Payment{
		ID:        "pay_1",
		Amount:    100,
		Currency:  "USD",
		Status:    paymentdomain.StatusCreated,
		CreatedAt: now,
	}

	raw, err := domain.BuildPayload(domain.EventTypePaymentCreated, payment, now)
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	var inner map[string]json.RawMessage
	if err := json.Unmarshal(decoded["payment"], &inner); err != nil {
		t.Fatalf("decode payment: %v", err)
	}
	if string(inner["metadata"]) != "{}" {
		t.Fatalf("expected empty object metadata, got %s", inner["metadata"])
	}
}

func TestNewEventIDMonotonic(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	prev := domain.NewEventID(now)
	for i := 0; i < 100; i++ {
		next := domain.NewEventID(now)
		if next <= prev {
			t.Fatalf("ids must be strictly increasing within a millisecond: %s then %s", prev, next)
		}
		prev = next
	}
}
