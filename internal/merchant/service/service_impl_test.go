package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/smallbiznis/payflow/internal/clock"
	"github.com/smallbiznis/payflow/internal/fault"
	"github.com/smallbiznis/payflow/internal/merchant/domain"
	merchantrepo "github.com/smallbiznis/payflow/internal/merchant/repository"
	merchantservice "github.com/smallbiznis/payflow/internal/merchant/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE merchants (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			webhook_url TEXT NOT NULL DEFAULT '',
			webhook_secret TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_merchants_email ON merchants(email)`,
		`CREATE TABLE api_keys (
			id TEXT PRIMARY KEY,
			merchant_id TEXT NOT NULL,
			key_hash TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_api_keys_key_hash ON api_keys(key_hash)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newService(t *testing.T, db *gorm.DB) domain.Service {
	t.Helper()

	return merchantservice.New(merchantservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		Repo:  merchantrepo.Provide(),
	})
}

func TestCreateAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newService(t, db)

	merchant, err := svc.Create(ctx, domain.CreateMerchantRequest{
		Name:       "Acme",
		Email:      "Billing@Acme.example ",
		WebhookURL: "https://acme.example/hooks",
	})
	if err != nil {
		t.Fatalf("create merchant: %v", err)
	}
	if merchant.Email != "billing@acme.example" {
		t.Fatalf("expected normalized email, got %q", merchant.Email)
	}
	if merchant.WebhookSecret == "" {
		t.Fatalf("expected a webhook secret when a URL is configured")
	}

	plaintext, key, err := svc.IssueAPIKey(ctx, merchant.ID)
	if err != nil {
		t.Fatalf("issue api key: %v", err)
	}
	if !strings.HasPrefix(plaintext, "pk_") {
		t.Fatalf("expected pk_ prefix, got %q", plaintext)
	}
	if key.MerchantID != merchant.ID {
		t.Fatalf("key bound to wrong merchant: %s", key.MerchantID)
	}

	authed, err := svc.Authenticate(ctx, plaintext)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != merchant.ID {
		t.Fatalf("authenticated wrong merchant: %s", authed.ID)
	}
}

func TestAuthenticateRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newService(t, db)

	for _, apiKey := range []string{"", "sk_wrong_prefix", "pk_unknown_token"} {
		_, err := svc.Authenticate(ctx, apiKey)
		if !errors.Is(err, fault.ErrUnauthorized) {
			t.Fatalf("key %q: expected unauthorized, got %v", apiKey, err)
		}
	}
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newService(t, db)

	cases := []struct {
		name string
		req  domain.CreateMerchantRequest
		code string
	}{
		{"missing name", domain.CreateMerchantRequest{Email: "a@b.c"}, "invalid_name"},
		{"missing email", domain.CreateMerchantRequest{Name: "Acme"}, "invalid_email"},
		{"malformed email", domain.CreateMerchantRequest{Name: "Acme", Email: "not-an-email"}, "invalid_email"},
	}
	for _, tc := range cases {
		_, err := svc.Create(ctx, tc.req)
		if !errors.Is(err, fault.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
		if got := fault.CodeOf(err); got != tc.code {
			t.Fatalf("%s: expected code %s, got %s", tc.name, tc.code, got)
		}
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newService(t, db)

	req := domain.CreateMerchantRequest{Name: "Acme", Email: "dup@acme.example"}
	if _, err := svc.Create(ctx, req); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.Create(ctx, req)
	if !errors.Is(err, fault.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := fault.CodeOf(err); got != "email_exists" {
		t.Fatalf("expected code email_exists, got %s", got)
	}
}
