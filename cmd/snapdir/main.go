package main

import (
	"time"

	"go.uber.org/fx"

	"github.com/snapdir/snapdir/internal/configfx"
	"github.com/snapdir/snapdir/internal/domainfx"
	"github.com/snapdir/snapdir/internal/loggerfx"
	"github.com/snapdir/snapdir/internal/serverfx"
	"github.com/snapdir/snapdir/internal/sqlfx"
)

func main() {
	logger := loggerfx.Logger()

	app := fx.New(
		fx.StartTimeout(15*time.Second),
		fx.StopTimeout(15*time.Second),

		fx.Logger(logger),

		loggerfx.Module,
		configfx.Module,
		sqlfx.Module,
		domainfx.Module,
		serverfx.Module,
	)

	app.Run()
}
