package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"go-bizsuite/internal/config"

	_ "github.com/lib/pq"
	"go.uber.org/fx"
)

// PostgresDB wraps the relational store holding permission layers when
// STORE_DRIVER=postgres. DB is nil for any other driver.
type PostgresDB struct {
	DB *sql.DB
}

// NewPostgres opens the relational store only when it is the configured driver
func NewPostgres(lc fx.Lifecycle, cfg *config.Config) (*PostgresDB, error) {
	if cfg.StoreDriver != config.StoreDriverPostgres {
		return &PostgresDB{}, nil
	}

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	log.Println("Connected to PostgreSQL!")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Println("Closing PostgreSQL pool...")
			return db.Close()
		},
	})

	return &PostgresDB{DB: db}, nil
}
