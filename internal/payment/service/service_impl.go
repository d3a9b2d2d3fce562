package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/smallbiznis/payflow/internal/clock"
	"github.com/smallbiznis/payflow/internal/fault"
	idemdomain "github.com/smallbiznis/payflow/internal/idempotency/domain"
	merchantdomain "github.com/smallbiznis/payflow/internal/merchant/domain"
	"github.com/smallbiznis/payflow/internal/observability/metrics"
	"github.com/smallbiznis/payflow/internal/payment/domain"
	webhookdomain "github.com/smallbiznis/payflow/internal/webhook/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Logger      *zap.Logger
	Clock       clock.Clock
	Metrics     *metrics.Metrics `optional:"true"`
	Repository  domain.Repository
	Idempotency idemdomain.Coordinator
	Webhooks    webhookdomain.Enqueuer
}

type service struct {
	db       *gorm.DB
	logger   *zap.Logger
	clock    clock.Clock
	metrics  *metrics.Metrics
	repo     domain.Repository
	idem     idemdomain.Coordinator
	webhooks webhookdomain.Enqueuer
}

func New(p Params) domain.Service {
	return &service{
		db:       p.DB,
		logger:   p.Logger.Named("payment.service"),
		clock:    p.Clock,
		metrics:  p.Metrics,
		repo:     p.Repository,
		idem:     p.Idempotency,
		webhooks: p.Webhooks,
	}
}

// Create drives the whole simulated processor decision in one transaction:
// insert CREATED, walk the lifecycle per the resolved scenario, enqueue the
// webhook events, and claim the idempotency token. Losing the token race
// rolls everything back and the winner's cached response is returned, so
// concurrent duplicates yield exactly one payment and identical bytes.
func (s *service) Create(ctx context.Context, merchant *merchantdomain.Merchant, req domain.CreatePaymentRequest) (*domain.CreateResult, error) {
	if req.Amount <= 0 {
		return nil, fault.Validation("invalid_amount", "amount must be a positive integer in minor units")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if !domain.CurrencySupported(currency) {
		return nil, fault.Validation("unsupported_currency", "currency %q is not supported", req.Currency)
	}
	outcome, err := domain.ResolveScenario(domain.Scenario(req.Simulate))
	if err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		if result, err := s.replay(ctx, merchant.ID, req.IdempotencyKey); err != nil || result != nil {
			return result, err
		}
	}

	now := s.clock.Now()
	payment := &domain.Payment{
		ID:            uuid.NewString(),
		MerchantID:    merchant.ID,
		Amount:        req.Amount,
		Currency:      currency,
		Status:        domain.StatusCreated,
		Description:   req.Description,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Metadata:      datatypes.JSONMap(req.Metadata),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var response json.RawMessage
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, payment); err != nil {
			return err
		}
		created := *payment
		if _, err := s.webhooks.Enqueue(ctx, tx, merchant, &created, webhookdomain.EventTypePaymentCreated); err != nil {
			return err
		}

		terminalEvent := webhookdomain.EventTypePaymentSucceeded
		if outcome.Succeeded() {
			if err := s.advance(ctx, tx, payment, domain.StatusAuthorized); err != nil {
				return err
			}
			if err := s.advance(ctx, tx, payment, domain.StatusCaptured); err != nil {
				return err
			}
		} else {
			payment.ErrorCode = outcome.ErrorCode
			payment.ErrorMessage = outcome.ErrorMessage
			if err := s.advance(ctx, tx, payment, domain.StatusFailed); err != nil {
				return err
			}
			terminalEvent = webhookdomain.EventTypePaymentFailed
		}
		if _, err := s.webhooks.Enqueue(ctx, tx, merchant, payment, terminalEvent); err != nil {
			return err
		}

		resp := domain.NewPaymentResponse(payment)
		if req.Simulate != "" {
			resp.Simulated = true
			resp.Simulation = req.Simulate
		}
		body, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		response = body

		if req.IdempotencyKey != "" {
			if err := s.idem.Record(ctx, tx, merchant.ID, req.IdempotencyKey, payment.ID, body); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, fault.ErrConflict) && req.IdempotencyKey != "" {
			result, err := s.replay(ctx, merchant.ID, req.IdempotencyKey)
			if err != nil {
				return nil, err
			}
			if result != nil {
				return result, nil
			}
		}
		return nil, txErr
	}

	s.metrics.RecordPaymentOperation("create", strings.ToLower(string(payment.Status)))
	s.logger.Info("payment created",
		zap.String("payment_id", payment.ID),
		zap.String("merchant_id", merchant.ID),
		zap.String("status", string(payment.Status)),
		zap.Int64("amount", payment.Amount),
		zap.String("currency", payment.Currency),
	)
	return &domain.CreateResult{Payment: payment, Response: response}, nil
}

// replay returns the cached result for a live idempotency token, or nil
// when the token is free.
func (s *service) replay(ctx context.Context, merchantID, key string) (*domain.CreateResult, error) {
	record, err := s.idem.Lookup(ctx, s.db, merchantID, key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	payment, err := s.repo.FindByID(ctx, s.db, merchantID, record.PaymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, fmt.Errorf("idempotency record %s references missing payment %s", record.ID, record.PaymentID)
	}
	s.metrics.RecordPaymentOperation("create", "replayed")
	return &domain.CreateResult{
		Payment:  payment,
		Response: json.RawMessage(record.Response),
		Replayed: true,
	}, nil
}

// advance performs one lifecycle transition as a compare-and-swap on the
// current status, stamping the transition timestamp.
func (s *service) advance(ctx context.Context, tx *gorm.DB, payment *domain.Payment, to domain.Status) error {
	from := payment.Status
	if !domain.CanTransition(from, to) {
		return fault.Conflict("invalid_state", "payment is %s, cannot move to %s", from, to)
	}
	now := s.clock.Now()
	payment.Status = to
	payment.UpdatedAt = now
	switch to {
	case domain.StatusAuthorized:
		payment.AuthorizedAt = &now
	case domain.StatusCaptured:
		payment.CapturedAt = &now
	}
	ok, err := s.repo.UpdateStatus(ctx, tx, payment, from)
	if err != nil {
		return err
	}
	if !ok {
		return fault.Conflict("invalid_state", "payment is no longer %s", from)
	}
	return nil
}

func (s *service) Get(ctx context.Context, merchantID, paymentID string) (*domain.Payment, error) {
	payment, err := s.repo.FindByID(ctx, s.db, merchantID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, fault.NotFound("payment_not_found", "payment %s not found", paymentID)
	}
	return payment, nil
}

func (s *service) Capture(ctx context.Context, merchant *merchantdomain.Merchant, paymentID string) (*domain.Payment, error) {
	payment, err := s.Get(ctx, merchant.ID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != domain.StatusAuthorized {
		return nil, fault.Conflict("invalid_state", "payment is %s, capture requires %s", payment.Status, domain.StatusAuthorized)
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.advance(ctx, tx, payment, domain.StatusCaptured); err != nil {
			return err
		}
		_, err := s.webhooks.Enqueue(ctx, tx, merchant, payment, webhookdomain.EventTypePaymentSucceeded)
		return err
	})
	if txErr != nil {
		if errors.Is(txErr, fault.ErrConflict) {
			// The row moved under us; report the status the winner left.
			if current, readErr := s.repo.FindByID(ctx, s.db, merchant.ID, paymentID); readErr == nil && current != nil {
				return nil, fault.Conflict("invalid_state", "payment is %s, capture requires %s", current.Status, domain.StatusAuthorized)
			}
		}
		return nil, txErr
	}

	s.metrics.RecordPaymentOperation("capture", "success")
	s.logger.Info("payment captured",
		zap.String("payment_id", payment.ID),
		zap.String("merchant_id", merchant.ID),
	)
	return payment, nil
}

func (s *service) Refund(ctx context.Context, merchant *merchantdomain.Merchant, paymentID string, req domain.RefundRequest) (*domain.Refund, error) {
	payment, err := s.Get(ctx, merchant.ID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != domain.StatusCaptured {
		return nil, fault.Conflict("invalid_state", "payment is %s, refund requires %s", payment.Status, domain.StatusCaptured)
	}
	if req.Amount < 0 {
		return nil, fault.Validation("invalid_amount", "refund amount must not be negative")
	}
	amount := req.Amount
	if amount == 0 {
		amount = payment.Refundable()
	}
	if amount <= 0 || amount > payment.Refundable() {
		return nil, fault.Validation("refund_exceeds_balance", "refund of %d exceeds remaining balance %d", amount, payment.Refundable())
	}

	now := s.clock.Now()
	refund := &domain.Refund{
		ID:        uuid.NewString(),
		PaymentID: payment.ID,
		Amount:    amount,
		Reason:    req.Reason,
		Status:    domain.RefundStatusCompleted,
		CreatedAt: now,
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied, err := s.repo.ApplyRefund(ctx, tx, payment.ID, amount, s.clock.Now())
		if err != nil {
			return err
		}
		if !applied {
			// The conditional update distinguishes nothing; re-read to tell
			// a state race from an exhausted balance.
			current, err := s.repo.FindByID(ctx, tx, merchant.ID, payment.ID)
			if err != nil {
				return err
			}
			if current == nil || current.Status != domain.StatusCaptured {
				return fault.Conflict("invalid_state", "payment is no longer %s", domain.StatusCaptured)
			}
			return fault.Validation("refund_exceeds_balance", "refund of %d exceeds remaining balance %d", amount, current.Refundable())
		}
		if err := s.repo.InsertRefund(ctx, tx, refund); err != nil {
			return err
		}

		current, err := s.repo.FindByID(ctx, tx, merchant.ID, payment.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("payment %s disappeared mid-refund", payment.ID)
		}
		*payment = *current
		if payment.Refundable() == 0 {
			if err := s.advance(ctx, tx, payment, domain.StatusRefunded); err != nil {
				return err
			}
		}
		_, err = s.webhooks.Enqueue(ctx, tx, merchant, payment, webhookdomain.EventTypePaymentRefunded)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	s.metrics.RecordPaymentOperation("refund", "success")
	s.logger.Info("payment refunded",
		zap.String("payment_id", payment.ID),
		zap.String("refund_id", refund.ID),
		zap.Int64("amount", amount),
		zap.String("status", string(payment.Status)),
	)
	return refund, nil
}

func (s *service) ListRefunds(ctx context.Context, merchantID, paymentID string) ([]domain.Refund, error) {
	if _, err := s.Get(ctx, merchantID, paymentID); err != nil {
		return nil, err
	}
	return s.repo.ListRefunds(ctx, s.db, paymentID)
}
