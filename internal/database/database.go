// Package database handles database connections and migrations.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"instaclone/internal/config"
	"instaclone/internal/middleware"
	"instaclone/internal/observability"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database connection instance.
var DB *gorm.DB

// readReplica is the optional read-only connection. Nil when no replica is configured.
var readReplica *gorm.DB

// Supported DB_DRIVER values.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// CustomGormLogger integrates GORM with slog
type CustomGormLogger struct {
	logger *slog.Logger
	Config logger.Config
}

// NewGormLogger returns a slog-backed GORM logger that only reports warnings and errors.
func NewGormLogger() *CustomGormLogger {
	return &CustomGormLogger{
		logger: middleware.Logger,
		Config: logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	}
}

// LogMode sets the logging level and returns a new interface instance.
func (l *CustomGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newlogger := *l
	newlogger.Config.LogLevel = level
	return &newlogger
}

// Info logs an informational message with context.
func (l *CustomGormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Warn logs a warning message with context.
func (l *CustomGormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *CustomGormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Trace logs trace-level information including SQL queries and execution time.
func (l *CustomGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Config.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && l.Config.LogLevel >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		l.logger.ErrorContext(ctx, "GORM query error",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
	case elapsed > l.Config.SlowThreshold && l.Config.SlowThreshold != 0 && l.Config.LogLevel >= logger.Warn:
		l.logger.WarnContext(ctx, "GORM slow query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	case l.Config.LogLevel >= logger.Info:
		l.logger.InfoContext(ctx, "GORM query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	}
}

// PostgresDSN builds a libpq keyword/value connection string.
func PostgresDSN(host, port, user, password, name, sslMode string) string {
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, name, sslMode,
	)
}

// SQLiteDSN appends the pragmas the schema relies on to a sqlite path.
func SQLiteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

func dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "", DriverPostgres:
		return postgres.Open(PostgresDSN(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)), nil
	case DriverSQLite:
		return sqlite.Open(SQLiteDSN(cfg.DBSQLitePath)), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// Connect opens a database connection using the provided configuration and returns the gorm DB instance.
// Schema management is left to ApplySchema.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dial, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	dbInstance, err := Open(dial)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := configurePool(dbInstance, cfg); err != nil {
		return nil, err
	}
	if cfg.DBDriver == DriverSQLite {
		// sqlite serialises writers; a single connection avoids SQLITE_BUSY under load
		if sqlDB, err := dbInstance.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	middleware.Logger.Info("Database connected successfully", slog.String("driver", dbDriverName(cfg)))

	readReplica = nil
	if cfg.DBReadHost != "" && dbDriverName(cfg) == DriverPostgres {
		replica, err := connectReadReplica(cfg)
		if err != nil {
			// The primary can serve reads; a broken replica must not block startup.
			middleware.Logger.Warn("Read replica unavailable, falling back to primary", slog.String("error", err.Error()))
		} else {
			readReplica = replica
		}
	}

	DB = dbInstance
	return DB, nil
}

// Open wraps gorm.Open with the slog logger and query metrics.
func Open(dial gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dial, &gorm.Config{
		Logger:         NewGormLogger(),
		TranslateError: false,
	})
	if err != nil {
		return nil, err
	}
	if err := observability.RegisterQueryMetrics(db); err != nil {
		return nil, fmt.Errorf("register query metrics: %w", err)
	}
	return db, nil
}

func connectReadReplica(cfg *config.Config) (*gorm.DB, error) {
	port := cfg.DBReadPort
	if port == "" {
		port = cfg.DBPort
	}
	dsn := PostgresDSN(cfg.DBReadHost, port, cfg.DBReadUser, cfg.DBReadPassword, cfg.DBName, cfg.DBSSLMode)
	replica, err := Open(postgres.Open(dsn))
	if err != nil {
		return nil, err
	}
	if err := configurePool(replica, cfg); err != nil {
		return nil, err
	}
	middleware.Logger.Info("Read replica connected", slog.String("host", cfg.DBReadHost))
	return replica, nil
}

// GetReadDB returns the read replica when one is connected, otherwise the primary.
func GetReadDB() *gorm.DB {
	if readReplica != nil {
		return readReplica
	}
	return DB
}

// ReadReplica returns the replica connection, or nil when reads go to the primary.
func ReadReplica() *gorm.DB {
	return readReplica
}

// Close releases the primary and replica pools.
func Close() error {
	var errs []error
	for _, db := range []*gorm.DB{readReplica, DB} {
		if db == nil {
			continue
		}
		sqlDB, err := db.DB()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	readReplica = nil
	DB = nil
	return errors.Join(errs...)
}

func configurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("access sql pool: %w", err)
	}
	maxOpen := cfg.DBMaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.DBMaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	lifetime := time.Duration(cfg.DBConnMaxLifetimeMinutes) * time.Minute
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)
	return nil
}

func dbDriverName(cfg *config.Config) string {
	if cfg.DBDriver == "" {
		return DriverPostgres
	}
	return cfg.DBDriver
}
