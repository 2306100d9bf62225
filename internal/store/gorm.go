package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/kubev2v/inventory-advisor/internal/config"
	"github.com/mattn/go-sqlite3"
	"github.com/ngrok/sqlmw"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// DialectPostgres is the DB_TYPE value that selects postgres.
	DialectPostgres = "pgsql"

	pgxMetricsDriver    = "pgx-metrics"
	sqliteMetricsDriver = "sqlite3-metrics"
)

var registerDrivers sync.Once

// InitDB opens the configured database. Both drivers are wrapped with the
// metric interceptor so every statement is counted and timed.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	registerDrivers.Do(func() {
		sql.Register(pgxMetricsDriver, sqlmw.Driver(stdlib.GetDefaultDriver(), &metricInterceptor{}))
		sql.Register(sqliteMetricsDriver, sqlmw.Driver(&sqlite3.SQLiteDriver{}, &metricInterceptor{}))
	})

	var dia gorm.Dialector

	if cfg.Database.Type == DialectPostgres {
		dsn := fmt.Sprintf("host=%s user=%s password=%s port=%s",
			cfg.Database.Hostname,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Port,
		)
		if cfg.Database.Name != "" {
			dsn = fmt.Sprintf("%s dbname=%s", dsn, cfg.Database.Name)
		}
		dia = postgres.New(postgres.Config{DriverName: pgxMetricsDriver, DSN: dsn})
	} else {
		dia = sqlite.New(sqlite.Config{DriverName: sqliteMetricsDriver, DSN: cfg.Database.Name})
	}

	newLogger := logger.New(
		logrus.New(),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			ParameterizedQueries:      true,        // Don't include params in the SQL log
			Colorful:                  false,       // Disable color
		},
	)

	newDB, err := gorm.Open(dia, &gorm.Config{Logger: newLogger, TranslateError: true})
	if err != nil {
		zap.S().Named("gorm").Errorf("failed to connect database: %v", err)
		return nil, err
	}

	sqlDB, err := newDB.DB()
	if err != nil {
		zap.S().Named("gorm").Errorf("failed to configure connections: %v", err)
		return nil, err
	}

	if cfg.Database.Type != DialectPostgres {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
		return newDB, nil
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	var minorVersion string
	if result := newDB.Raw("SELECT version()").Scan(&minorVersion); result.Error != nil {
		zap.S().Named("gorm").Infoln(result.Error.Error())
		return nil, result.Error
	}
	zap.S().Named("gorm").Infof("PostgreSQL information: '%s'", minorVersion)

	return newDB, nil
}
