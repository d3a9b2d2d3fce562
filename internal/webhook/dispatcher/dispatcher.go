package dispatcher

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/payflow/internal/clock"
	"github.com/smallbiznis/payflow/internal/observability/metrics"
	"github.com/smallbiznis/payflow/internal/webhook/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Repository domain.Repository
	Sender     Sender
	Metrics    *metrics.Metrics `optional:"true"`
	Config     Config           `optional:"true"`
}

// Dispatcher sweeps pending webhook events and delivers them. ClaimDue
// yields at most one event per payment, so attempts within a sweep can run
// concurrently without breaking per-payment order.
type Dispatcher struct {
	db      *gorm.DB
	log     *zap.Logger
	cfg     Config
	clock   clock.Clock
	repo    domain.Repository
	sender  Sender
	metrics *metrics.Metrics
}

func New(p Params) (*Dispatcher, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.Repository == nil || p.Sender == nil {
		return nil, ErrInvalidConfig
	}
	return &Dispatcher{
		db:      p.DB,
		log:     p.Log.Named("webhook.dispatcher"),
		cfg:     p.Config.withDefaults(),
		clock:   p.Clock,
		repo:    p.Repository,
		sender:  p.Sender,
		metrics: p.Metrics,
	}, nil
}

// RunOnce performs a single sweep and returns the number of events it
// attempted to deliver.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	now := d.clock.Now()
	due, err := d.repo.ClaimDue(ctx, d.db, now, d.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	var wg sync.WaitGroup
	for i := range due {
		event := due[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.deliver(ctx, event)
		}()
	}
	wg.Wait()

	if pending, err := d.repo.CountPending(ctx, d.db); err == nil {
		d.metrics.SetWebhookBacklog(pending)
	}
	return len(due), nil
}

func (d *Dispatcher) deliver(parent context.Context, event domain.DueEvent) {
	ctx, cancel := context.WithTimeout(parent, d.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	sendErr := d.sender.Send(ctx, event)
	elapsed := time.Since(start)
	attempts := event.AttemptCount + 1

	log := d.log.With(
		zap.String("event_id", event.ID),
		zap.String("payment_id", event.PaymentID),
		zap.String("event_type", event.EventType),
		zap.Int("attempt", attempts),
	)

	if sendErr == nil {
		if err := d.repo.MarkDelivered(parent, d.db, event.ID, attempts, d.clock.Now()); err != nil {
			log.Error("mark delivered failed", zap.Error(err))
			return
		}
		d.metrics.RecordWebhookDelivery("delivered", elapsed)
		log.Info("webhook delivered", zap.Duration("elapsed", elapsed))
		return
	}

	if attempts >= d.cfg.MaxAttempts {
		if err := d.repo.MarkFailed(parent, d.db, event.ID, attempts, sendErr.Error()); err != nil {
			log.Error("mark failed failed", zap.Error(err))
			return
		}
		d.metrics.RecordWebhookDelivery("exhausted", elapsed)
		log.Warn("webhook delivery exhausted", zap.Error(sendErr))
		return
	}

	nextRetryAt := d.clock.Now().Add(d.cfg.backoff(attempts))
	if err := d.repo.MarkRetry(parent, d.db, event.ID, attempts, nextRetryAt, sendErr.Error()); err != nil {
		log.Error("mark retry failed", zap.Error(err))
		return
	}
	d.metrics.RecordWebhookDelivery("retry", elapsed)
	log.Warn("webhook delivery failed, will retry",
		zap.Time("next_retry_at", nextRetryAt),
		zap.Error(sendErr),
	)
}

func (d *Dispatcher) RunForever(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		if _, err := d.RunOnce(ctx); err != nil {
			d.log.Warn("dispatcher sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
