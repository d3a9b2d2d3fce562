package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/payflow/internal/config"
	"github.com/smallbiznis/payflow/internal/idempotency"
	"github.com/smallbiznis/payflow/internal/merchant"
	merchantdomain "github.com/smallbiznis/payflow/internal/merchant/domain"
	"github.com/smallbiznis/payflow/internal/observability"
	obsmiddleware "github.com/smallbiznis/payflow/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/payflow/internal/observability/metrics"
	"github.com/smallbiznis/payflow/internal/payment"
	paymentdomain "github.com/smallbiznis/payflow/internal/payment/domain"
	"github.com/smallbiznis/payflow/internal/webhook"
	webhookdomain "github.com/smallbiznis/payflow/internal/webhook/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	merchant.Module,
	idempotency.Module,
	webhook.Module,
	payment.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, m *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(metricsMiddleware(m))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})))

	return r
}

func registerGin(obsCfg observability.Config, m *obsmetrics.Metrics) *gin.Engine {
	return NewEngine(obsCfg, m)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	merchantSvc merchantdomain.Service
	paymentSvc  paymentdomain.Service
	webhookRepo webhookdomain.Repository
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	MerchantSvc merchantdomain.Service
	PaymentSvc  paymentdomain.Service
	WebhookRepo webhookdomain.Repository
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		merchantSvc: p.MerchantSvc,
		paymentSvc:  p.PaymentSvc,
		webhookRepo: p.WebhookRepo,
	}

	svc.registerRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1")

	v1.POST("/merchants", s.CreateMerchant)
	v1.POST("/merchants/:id/api_keys", s.IssueAPIKey)

	payments := v1.Group("/payments", s.APIKeyRequired())
	{
		payments.POST("", s.CreatePayment)
		payments.GET("/:id", s.GetPayment)
		payments.POST("/:id/capture", s.CapturePayment)
		payments.POST("/:id/refund", s.RefundPayment)
		payments.GET("/:id/refunds", s.ListRefunds)
		payments.GET("/:id/webhook_events", s.ListWebhookEvents)
	}
}
