package configfx

import (
	"path"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix              = "snapdir"
	DefaultConfigDirectory = "snapdir"
	DefaultConfigFile      = "settings"
)

var (
	defaultConfigPaths = []string{
		".",
		"./config",
		path.Join("/etc", DefaultConfigDirectory),
	}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("schedule.enabled", false)
	v.SetDefault("schedule.mode", "hourly")
	v.SetDefault("schedule.daily_hour", 0)
	v.SetDefault("schedule.daily_minute", 0)
	v.SetDefault("schedule.custom_interval_minutes", 60)

	v.SetDefault("logs.directory", "logs")
	v.SetDefault("logs.retention_days", 30)
	v.SetDefault("logs.max_file_size_mb", 10)
	v.SetDefault("logs.compress_old_logs", false)

	v.SetDefault("database.dsn", "./db/snapdir.db")
	v.SetDefault("database.migrations_path", "file://migrations/")

	v.SetDefault("server.address", "127.0.0.1:8750")
	v.SetDefault("server.timeout.read", "10s")
	v.SetDefault("server.timeout.write", "30s")
	v.SetDefault("server.log.requests", true)
}

func ViperProvider(logger *logrus.Logger, flagSet *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	err := v.BindPFlags(flagSet)
	if err != nil {
		return nil, err
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Settings live in a JSON file, so an external tool (or a GUI) can
	// read and edit them alongside the daemon.
	v.SetConfigType("json")

	// Read config from config file
	if configFile := v.GetString("config"); configFile != "" {
		// If user do specify config file, then this file MUST exist and be valid
		// so missing file is a fatal error

		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		// If user does not specify config file, then we'll still try to find appropriate config,
		// but missing file is not an error

		v.SetConfigName(DefaultConfigFile)

		for _, dir := range defaultConfigPaths {
			v.AddConfigPath(dir)
		}

		if err := v.ReadInConfig(); err != nil {
			logger.WithError(err).Warn("Couldn't read config file")
		}
	}

	return v, nil
}
