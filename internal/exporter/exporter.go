// Package exporter writes the final crawl artifacts.
package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"catalog/crawler/internal/domain"
)

// csvHeader matches the JSON field names of domain.ProductRecord
var csvHeader = []string{"nombre_producto", "imagen_url", "categoria"}

// Paths returns the JSON and CSV artifact paths for a base name inside dir
func Paths(dir, baseName string) (jsonPath, csvPath string) {
	return filepath.Join(dir, baseName+".json"), filepath.Join(dir, baseName+".csv")
}

// WriteJSON writes records as an indented JSON array
func WriteJSON(path string, records []domain.ProductRecord) error {
	if records == nil {
		records = []domain.ProductRecord{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteCSV writes records with a header row; missing values become empty cells
func WriteCSV(path string, records []domain.ProductRecord) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()

	w := csv.NewWriter(file)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, record := range records {
		if err := w.Write([]string{record.NameOrEmpty(), record.ImageURLOrEmpty(), record.CategoryPath}); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
