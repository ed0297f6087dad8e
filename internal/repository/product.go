package repository

import (
	"context"
	"fmt"

	"catalog/crawler/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductRepository stores the final records of a crawl run
type ProductRepository interface {
	SaveProducts(ctx context.Context, runID string, records []domain.ProductRecord) error
	Close() error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS products (
		id         BIGSERIAL PRIMARY KEY,
		run_id     TEXT NOT NULL,
		position   INTEGER NOT NULL,
		name       TEXT,
		image_url  TEXT,
		category   TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (run_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_products_category ON products (category)`

// NewPostgresRepository connects to PostgreSQL and creates the products table when missing
func NewPostgresRepository(ctx context.Context, dsn string) (ProductRepository, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create products table: %w", err)
	}

	return &postgresRepository{db: db}, nil
}

// SaveProducts bulk-loads the records in crawl order. Re-saving a run replaces it.
func (r *postgresRepository) SaveProducts(ctx context.Context, runID string, records []domain.ProductRecord) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM products WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("failed to clear products of run %s: %w", runID, err)
	}

	rows := make([][]any, 0, len(records))
	for i, record := range records {
		rows = append(rows, []any{runID, i, record.Name, record.ImageURL, record.CategoryPath})
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"products"},
		[]string{"run_id", "position", "name", "image_url", "category"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to save products: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit products: %w", err)
	}
	return nil
}

func (r *postgresRepository) Close() error {
	r.db.Close()
	return nil
}
