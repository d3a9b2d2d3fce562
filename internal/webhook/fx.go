package webhook

import (
	"github.com/smallbiznis/payflow/internal/webhook/repository"
	"github.com/smallbiznis/payflow/internal/webhook/service"
	"go.uber.org/fx"
)

var Module = fx.Module("webhook.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
