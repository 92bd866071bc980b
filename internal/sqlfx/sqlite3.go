package sqlfx

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/fx"

	"github.com/snapdir/snapdir/pkg/util"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const (
	ConfigDatabaseDSN            = "database.dsn"
	ConfigDatabaseMigrationsPath = "database.migrations_path"
)

type SqliteConfig struct {
	DSN            string
	DatabaseName   string
	MigrationsPath string
}

func SqliteConfigProvider(v *viper.Viper) (*SqliteConfig, error) {
	return &SqliteConfig{
		DSN:            v.GetString(ConfigDatabaseDSN),
		DatabaseName:   "snapdir",
		MigrationsPath: v.GetString(ConfigDatabaseMigrationsPath),
	}, nil
}

func OpenSqliteDatabase(config *SqliteConfig, logger *logrus.Logger) (*sqlx.DB, error) {
	logger.WithField("dsn", config.DSN).Debug("Opening run history database")

	if dir := filepath.Dir(config.DSN); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "unable to create database directory")
		}
	}

	db, err := sqlx.Open("sqlite3", config.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open database")
	}

	db.MapperFunc(util.CamelToSnakeCase)

	driver, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "unable to create instance of migrate")
	}

	m, err := migrate.NewWithDatabaseInstance(config.MigrationsPath, config.DatabaseName, driver)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create migrator")
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return nil, errors.Wrap(err, "unable to migrate database")
	}

	return db, nil
}

func CloseSqliteDatabase(lc fx.Lifecycle, db *sqlx.DB) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})
}
