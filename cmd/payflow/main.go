package main

import (
	"github.com/smallbiznis/payflow/internal/clock"
	"github.com/smallbiznis/payflow/internal/config"
	"github.com/smallbiznis/payflow/internal/migration"
	"github.com/smallbiznis/payflow/internal/observability"
	"github.com/smallbiznis/payflow/internal/server"
	"github.com/smallbiznis/payflow/internal/webhook/dispatcher"
	"github.com/smallbiznis/payflow/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		db.Module,
		clock.Module,
		server.Module,
		dispatcher.Module,
		migration.Module,
	)
	app.Run()
}
