package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/iliyamo/atom-referral-tracker/internal/config"
	"github.com/iliyamo/atom-referral-tracker/internal/docstore"
	"github.com/iliyamo/atom-referral-tracker/internal/logger"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenStore returns the document store selected by cfg together with a
// close function. Without DB_HOST the in-memory store is used.
func OpenStore(ctx context.Context, cfg config.Config) (docstore.Store, func() error, error) {
	if !cfg.UseMySQL() {
		logger.Warn("DB_HOST not set, using in-memory document store; data will not survive restarts")
		return docstore.NewMemoryStore(), func() error { return nil }, nil
	}
	db, err := Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, nil, fmt.Errorf("open mysql: %w", err)
	}
	store := docstore.NewMySQLStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, db.Close, nil
}
