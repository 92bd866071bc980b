package serverfx

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(HttpServerConfigProvider),
	fx.Provide(HttpServer),
	fx.Provide(HttpRouter),
	fx.Provide(Listener),
	fx.Invoke(RunServer),

	fx.Provide(StatusHandler),
	fx.Provide(RunHandler),
	fx.Provide(RunHistoryHandler),
	fx.Provide(LatestRunHandler),
	fx.Invoke(RegisterHandlers),
)
