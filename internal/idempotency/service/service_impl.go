package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/payflow/internal/clock"
	"github.com/smallbiznis/payflow/internal/config"
	"github.com/smallbiznis/payflow/internal/fault"
	"github.com/smallbiznis/payflow/internal/idempotency/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Logger     *zap.Logger
	Config     config.Config
	Clock      clock.Clock
	Repository domain.Repository
}

type service struct {
	logger *zap.Logger
	clock  clock.Clock
	ttl    time.Duration
	repo   domain.Repository
}

func New(p Params) domain.Coordinator {
	ttl := p.Config.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &service{
		logger: p.Logger.Named("idempotency.service"),
		clock:  p.Clock,
		ttl:    ttl,
		repo:   p.Repository,
	}
}

func (s *service) Lookup(ctx context.Context, db *gorm.DB, merchantID, key string) (*domain.Record, error) {
	record, err := s.repo.Find(ctx, db, merchantID, key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	if !record.Live(s.clock.Now()) {
		// Expired rows stay in place; the next claim overwrites them.
		return nil, nil
	}
	return record, nil
}

func (s *service) Record(ctx context.Context, db *gorm.DB, merchantID, key, paymentID string, response []byte) error {
	now := s.clock.Now()
	claimed, err := s.repo.Upsert(ctx, db, &domain.Record{
		ID:         uuid.NewString(),
		MerchantID: merchantID,
		Key:        key,
		PaymentID:  paymentID,
		Response:   response,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	})
	if err != nil {
		return err
	}
	if !claimed {
		return fault.Conflict("idempotency_conflict", "idempotency key already claimed")
	}
	return nil
}
