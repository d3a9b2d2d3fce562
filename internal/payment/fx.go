package payment

import (
	"github.com/smallbiznis/payflow/internal/payment/repository"
	"github.com/smallbiznis/payflow/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
