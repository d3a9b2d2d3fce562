package seed

import (
	"context"
	"errors"

	merchantdomain "github.com/smallbiznis/payflow/internal/merchant/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	demoMerchantName  = "Demo Merchant"
	demoMerchantEmail = "demo@payflow.local"
)

// EnsureDemoMerchant bootstraps a merchant with a printed API key so a
// fresh local install can make authenticated calls immediately. The key is
// logged once and never recoverable afterwards.
func EnsureDemoMerchant(db *gorm.DB, svc merchantdomain.Service, log *zap.Logger) error {
	if db == nil || svc == nil {
		return errors.New("seed requires a database handle and merchant service")
	}

	ctx := context.Background()
	var count int64
	if err := db.WithContext(ctx).Raw(`SELECT COUNT(1) FROM merchants`).Scan(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	merchant, err := svc.Create(ctx, merchantdomain.CreateMerchantRequest{
		Name:  demoMerchantName,
		Email: demoMerchantEmail,
	})
	if err != nil {
		return err
	}

	plaintext, _, err := svc.IssueAPIKey(ctx, merchant.ID)
	if err != nil {
		return err
	}

	log.Named("seed").Info("seeded demo merchant",
		zap.String("merchant_id", merchant.ID),
		zap.String("email", merchant.Email),
		zap.String("api_key", plaintext),
	)
	return nil
}
