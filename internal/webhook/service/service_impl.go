package service

import (
	"context"

	"github.com/smallbiznis/payflow/internal/clock"
	merchantdomain "github.com/smallbiznis/payflow/internal/merchant/domain"
	paymentdomain "github.com/smallbiznis/payflow/internal/payment/domain"
	"github.com/smallbiznis/payflow/internal/webhook/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Logger     *zap.Logger
	Clock      clock.Clock
	Repository domain.Repository
}

type service struct {
	logger *zap.Logger
	clock  clock.Clock
	repo   domain.Repository
}

func New(p Params) domain.Enqueuer {
	return &service{
		logger: p.Logger.Named("webhook.service"),
		clock:  p.Clock,
		repo:   p.Repository,
	}
}

// Enqueue persists a notification obligation in the caller's transaction,
// so the event commits or rolls back with the payment change it reports.
func (s *service) Enqueue(ctx context.Context, tx *gorm.DB, merchant *merchantdomain.Merchant, payment *paymentdomain.Payment, eventType string) (*domain.Event, error) {
	if merchant.WebhookURL == "" {
		return nil, nil
	}

	now := s.clock.Now()
	payload, err := domain.BuildPayload(eventType, payment, now)
	if err != nil {
		return nil, err
	}

	event := &domain.Event{
		ID:          domain.NewEventID(now),
		PaymentID:   payment.ID,
		MerchantID:  merchant.ID,
		EventType:   eventType,
		Payload:     payload,
		Status:      domain.StatusPending,
		NextRetryAt: now,
		CreatedAt:   now,
	}
	if err := s.repo.Insert(ctx, tx, event); err != nil {
		return nil, err
	}

	s.logger.Debug("webhook event enqueued",
		zap.String("event_id", event.ID),
		zap.String("payment_id", payment.ID),
		zap.String("event_type", eventType),
	)
	return event, nil
}
