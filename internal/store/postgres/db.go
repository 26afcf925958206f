// Package postgres provides PostgreSQL-based implementations of the store interfaces.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"innsight-go/internal/config"
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// NewDB creates a new PostgreSQL connection pool.
func NewDB(ctx context.Context, cfg *config.PostgresConfig) (*DB, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.SSLMode,
		cfg.MaxOpenConns,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxOpenConns
	poolConfig.MinConns = cfg.MaxIdleConns
	poolConfig.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Pool returns the underlying connection pool.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Ping verifies the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Close closes the connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// RunMigrations creates the required database tables.
func (db *DB) RunMigrations(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS hotels (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(200) NOT NULL,
			city VARCHAR(100) NOT NULL,
			country VARCHAR(100) NOT NULL,
			address VARCHAR(500),
			description TEXT,
			star_rating DOUBLE PRECISION,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_hotels_city ON hotels(city);
		CREATE INDEX IF NOT EXISTS idx_hotels_country ON hotels(country);

		CREATE TABLE IF NOT EXISTS reviews (
			id BIGSERIAL PRIMARY KEY,
			hotel_id BIGINT NOT NULL REFERENCES hotels(id) ON DELETE CASCADE,
			user_name VARCHAR(100) NOT NULL,
			rating INTEGER NOT NULL,
			title VARCHAR(200),
			content TEXT NOT NULL,
			status VARCHAR(20) NOT NULL,
			sentiment_score DOUBLE PRECISION,
			sentiment_label VARCHAR(20),
			aspects JSONB,
			topics JSONB,
			key_phrases JSONB,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_reviews_hotel ON reviews(hotel_id);
		CREATE INDEX IF NOT EXISTS idx_reviews_status ON reviews(status);
	`

	_, err := db.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// SeedHotels inserts sample hotels when the table is empty, so a fresh
// install has something to review against.
func (db *DB) SeedHotels(ctx context.Context) error {
	var count int
	if err := db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM hotels").Scan(&count); err != nil {
		return fmt.Errorf("failed to count hotels: %w", err)
	}
	if count > 0 {
		return nil
	}

	query := `
		INSERT INTO hotels (name, city, country, address, description, star_rating, created_at, updated_at)
		VALUES
			('Grand Plaza Hotel', 'New York', 'USA', '123 Main St, NY 10001', 'Luxury hotel in the heart of Manhattan', 4.5, NOW(), NOW()),
			('Seaside Resort', 'Miami', 'USA', '456 Ocean Drive, Miami 33139', 'Beautiful beachfront resort', 4.0, NOW(), NOW()),
			('Mountain View Lodge', 'Denver', 'USA', '789 Alpine Rd, Denver 80202', 'Cozy mountain retreat', 3.5, NOW(), NOW())
	`
	if _, err := db.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to seed hotels: %w", err)
	}

	return nil
}
