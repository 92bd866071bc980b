package loggerfx

import (
	"log"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	ConfigLogLevel  = "log.level"
	ConfigLogFormat = "log.format"
)

var logger *logrus.Logger

func init() {
	logger = logrus.StandardLogger()
	logger.SetFormatter(&logrus.TextFormatter{})
}

func Logger() *logrus.Logger {
	return logger
}

// DefaultLoggerAdapter exposes the logrus logger as a *log.Logger for
// libraries that only speak the standard interface (http.Server.ErrorLog).
func DefaultLoggerAdapter(logger *logrus.Logger) *log.Logger {
	return log.New(logger.WriterLevel(logrus.ErrorLevel), "", 0)
}

func ConfigureLogger(logger *logrus.Logger, v *viper.Viper) {
	logLevel := v.GetString(ConfigLogLevel)
	logFormat := v.GetString(ConfigLogFormat)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)

	switch logFormat {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		fallthrough
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{})
	}
}
