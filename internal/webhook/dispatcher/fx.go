package dispatcher

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("webhook.dispatcher",
	fx.Provide(ProvideConfig),
	fx.Provide(ProvideSender),
	fx.Provide(New),
	fx.Invoke(Start),
)

func ProvideSender(cfg Config) Sender {
	return NewHTTPSender(cfg.RequestTimeout)
}

func Start(lc fx.Lifecycle, d *Dispatcher) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go d.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
