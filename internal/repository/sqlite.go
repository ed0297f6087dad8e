package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"catalog/crawler/internal/domain"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteRepository keeps the products in a local database file
type SQLiteRepository struct {
	db *sql.DB
}

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS products (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id     TEXT NOT NULL,
		position   INTEGER NOT NULL,
		name       TEXT,
		image_url  TEXT,
		category   TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(run_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);`

func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create products table: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) SaveProducts(ctx context.Context, runID string, records []domain.ProductRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to clear products of run %s: %w", runID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO products (run_id, position, name, image_url, category) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, record := range records {
		if _, err := stmt.ExecContext(ctx, runID, i, record.Name, record.ImageURL, record.CategoryPath); err != nil {
			return fmt.Errorf("failed to insert product %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit products: %w", err)
	}
	return nil
}

// LoadProducts returns the records of a run in crawl order
func (r *SQLiteRepository) LoadProducts(ctx context.Context, runID string) ([]domain.ProductRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, image_url, category FROM products WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	records := make([]domain.ProductRecord, 0)
	for rows.Next() {
		var (
			name, imageURL sql.NullString
			record         domain.ProductRecord
		)
		if err := rows.Scan(&name, &imageURL, &record.CategoryPath); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if name.Valid {
			record.Name = &name.String
		}
		if imageURL.Valid {
			record.ImageURL = &imageURL.String
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
