package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"github.com/smallbiznis/payflow/internal/clock"
	"github.com/smallbiznis/payflow/internal/fault"
	"github.com/smallbiznis/payflow/internal/merchant/domain"
	"github.com/smallbiznis/payflow/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const apiKeyPrefix = "pk_"

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("merchant.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateMerchantRequest) (*domain.Merchant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fault.Validation("invalid_name", "name is required")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fault.Validation("invalid_email", "a valid email is required")
	}

	webhookURL := strings.TrimSpace(req.WebhookURL)

	now := s.clock.Now()
	merchant := &domain.Merchant{
		ID:         uuid.NewString(),
		Name:       name,
		Email:      email,
		WebhookURL: webhookURL,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if webhookURL != "" {
		secret, err := randomToken(48)
		if err != nil {
			return nil, err
		}
		merchant.WebhookSecret = secret
	}

	if err := s.repo.Insert(ctx, s.db, merchant); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, fault.Validation("email_exists", "merchant with email %s already exists", email)
		}
		return nil, err
	}

	s.log.Info("merchant created",
		zap.String("merchant_id", merchant.ID),
		zap.Bool("webhook_configured", webhookURL != ""),
	)
	return merchant, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Merchant, error) {
	merchant, err := s.repo.FindByID(ctx, s.db, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if merchant == nil {
		return nil, fault.NotFound("merchant_not_found", "merchant %s not found", id)
	}
	return merchant, nil
}

func (s *Service) IssueAPIKey(ctx context.Context, merchantID string) (string, *domain.APIKey, error) {
	merchant, err := s.Get(ctx, merchantID)
	if err != nil {
		return "", nil, err
	}

	token, err := randomToken(32)
	if err != nil {
		return "", nil, err
	}
	plaintext := apiKeyPrefix + token

	key := &domain.APIKey{
		ID:         uuid.NewString(),
		MerchantID: merchant.ID,
		KeyHash:    hashKey(plaintext),
		IsActive:   true,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.repo.InsertAPIKey(ctx, s.db, key); err != nil {
		return "", nil, err
	}

	s.log.Info("api key issued", zap.String("merchant_id", merchant.ID), zap.String("key_id", key.ID))
	return plaintext, key, nil
}

func (s *Service) Authenticate(ctx context.Context, apiKey string) (*domain.Merchant, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" || !strings.HasPrefix(apiKey, apiKeyPrefix) {
		return nil, fault.Unauthorized("invalid_api_key", "invalid API key")
	}

	merchant, err := s.repo.FindMerchantByKeyHash(ctx, s.db, hashKey(apiKey))
	if err != nil {
		return nil, err
	}
	if merchant == nil || !merchant.IsActive {
		return nil, fault.Unauthorized("invalid_api_key", "invalid API key")
	}
	return merchant, nil
}

func hashKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func randomToken(bytes int) (string, error) {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
