package idempotency

import (
	"github.com/smallbiznis/payflow/internal/idempotency/repository"
	"github.com/smallbiznis/payflow/internal/idempotency/service"
	"go.uber.org/fx"
)

var Module = fx.Module("idempotency.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
