package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/clientmailer/clientmailer/internal/config"
)

// Postgres wraps the SQL database connection
type Postgres struct {
	*sql.DB
}

// NewPostgres opens the template store connection and verifies it with a ping.
func NewPostgres(cfg config.DatabaseConfig) (*Postgres, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(max(1, cfg.MaxConnections/4))
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{DB: db}, nil
}

// NewPostgresFromDB wraps an already opened handle.
func NewPostgresFromDB(db *sql.DB) *Postgres {
	return &Postgres{DB: db}
}

// HealthCheck verifies the database connection is healthy
func (p *Postgres) HealthCheck(ctx context.Context) error {
	return p.PingContext(ctx)
}
