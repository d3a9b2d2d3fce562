package domain

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

const (
	// HeaderSignature carries the lowercase hex HMAC-SHA256 of the exact
	// payload bytes, keyed with the merchant's webhook secret.
	HeaderSignature = "X-Webhook-Signature"
	// HeaderEventID carries the event ULID so receivers can deduplicate
	// redelivered events.
	HeaderEventID = "X-Webhook-ID"
)

// Sign computes the payload signature sent in HeaderSignature.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a received signature in constant time.
func VerifySignature(payload []byte, signature, secret string) bool {
	return hmac.Equal([]byte(Sign(payload, secret)), []byte(signature))
}
