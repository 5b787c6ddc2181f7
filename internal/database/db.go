package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"elderlink/internal/config"
)

func dsn(user, password, host, port, database string) string {
	return fmt.Sprintf(
		"postgres://%s@%s:%s/%s?sslmode=disable",
		url.UserPassword(user, password).String(),
		host,
		port,
		url.PathEscape(database),
	)
}

// EnsureDatabaseExists creates the application database with the admin
// credentials when they are configured. It is a no-op otherwise.
func EnsureDatabaseExists(ctx context.Context, cfg *config.Config) error {
	if cfg.DBAdminUser == "" || cfg.DBAdminPassword == "" {
		return nil
	}

	pool, err := pgxpool.New(ctx, dsn(cfg.DBAdminUser, cfg.DBAdminPassword, cfg.DBHost, cfg.DBPort, "postgres"))
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var exists bool
	err = pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", cfg.DBDatabase).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}
	if exists {
		log.WithField("database", cfg.DBDatabase).Info("database already exists")
		return nil
	}

	// CREATE DATABASE cannot run inside a transaction or take parameters.
	createQuery := fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{cfg.DBDatabase}.Sanitize())
	if _, err := pool.Exec(ctx, createQuery); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	log.WithField("database", cfg.DBDatabase).Info("database created")
	return nil
}

func Connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	log.Infof("Connecting to database: postgres://%s:***@%s:%s/%s", cfg.DBUsername, cfg.DBHost, cfg.DBPort, cfg.DBDatabase)

	poolConfig, err := pgxpool.ParseConfig(dsn(cfg.DBUsername, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBDatabase))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string (check your .env file): %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute

	return ConnectWithConfig(ctx, poolConfig)
}

func ConnectWithConfig(ctx context.Context, poolConfig *pgxpool.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Database connection pool established successfully")
	return pool, nil
}

// OpenGorm wraps the existing pool so gorm shares its connections.
func OpenGorm(pool *pgxpool.Pool, debug bool) (*gorm.DB, error) {
	level := logger.Silent
	if debug {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn: stdlib.OpenDBFromPool(pool),
	}), &gorm.Config{Logger: logger.Default.LogMode(level)})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return db, nil
}
