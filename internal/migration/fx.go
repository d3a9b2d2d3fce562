package migration

import (
	"github.com/smallbiznis/payflow/internal/config"
	idemdomain "github.com/smallbiznis/payflow/internal/idempotency/domain"
	merchantdomain "github.com/smallbiznis/payflow/internal/merchant/domain"
	paymentdomain "github.com/smallbiznis/payflow/internal/payment/domain"
	"github.com/smallbiznis/payflow/internal/seed"
	webhookdomain "github.com/smallbiznis/payflow/internal/webhook/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, merchantSvc merchantdomain.Service, log *zap.Logger) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite is a dev convenience; let gorm derive the schema.
			if err := conn.AutoMigrate(
				&merchantdomain.Merchant{},
				&merchantdomain.APIKey{},
				&paymentdomain.Payment{},
				&paymentdomain.Refund{},
				&webhookdomain.Event{},
				&idemdomain.Record{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedDemoMerchant {
			return seed.EnsureDemoMerchant(conn, merchantSvc, log)
		}
		return nil
	}),
)
