package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"catalog/crawler/internal/checkpoint"
	"catalog/crawler/internal/config"
	"catalog/crawler/internal/domain"
	"catalog/crawler/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportConfig(dir string) *config.Config {
	return &config.Config{
		Checkpoint: config.CheckpointConfig{Backend: "file", Path: filepath.Join(dir, "checkpoint.json")},
		Output: config.OutputConfig{
			Dir:        filepath.Join(dir, "out"),
			BaseName:   "productos",
			JSON:       true,
			CSV:        true,
			Database:   "sqlite",
			SQLitePath: filepath.Join(dir, "out", "products.db"),
		},
	}
}

func TestExportCheckpointWritesAllSinks(t *testing.T) {
	dir := t.TempDir()
	cfg := exportConfig(dir)
	ctx := context.Background()

	snapshot := &domain.Snapshot{
		RunID: "run-42",
		Records: []domain.ProductRecord{
			domain.NewProductRecord("Collar", "", "Perros"),
			domain.NewProductRecord("Raton", "https://shop.example/raton.jpg", "Gatos: Juguetes"),
		},
	}
	require.NoError(t, checkpoint.NewFileStore(cfg.Checkpoint.Path).Save(ctx, snapshot))

	app, err := NewForExport(ctx, cfg)
	require.NoError(t, err)
	repo, err := repository.NewSQLiteRepository(ctx, cfg.Output.SQLitePath)
	require.NoError(t, err)
	app.Repository = repo
	defer app.Close()

	require.NoError(t, app.ExportCheckpoint(ctx))

	assert.FileExists(t, filepath.Join(dir, "out", "productos.json"))
	csv, err := os.ReadFile(filepath.Join(dir, "out", "productos.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(csv), "Raton,https://shop.example/raton.jpg,Gatos: Juguetes")

	stored, err := repo.LoadProducts(ctx, "run-42")
	require.NoError(t, err)
	assert.Equal(t, snapshot.Records, stored)
}

func TestExportCheckpointWithoutSnapshot(t *testing.T) {
	cfg := exportConfig(t.TempDir())

	app, err := NewForExport(context.Background(), cfg)
	require.NoError(t, err)

	err = app.ExportCheckpoint(context.Background())
	require.ErrorIs(t, err, domain.ErrNoSnapshot)
}

func TestNewForExportRequiresBackend(t *testing.T) {
	cfg := exportConfig(t.TempDir())
	cfg.Checkpoint.Backend = "none"

	_, err := NewForExport(context.Background(), cfg)
	assert.Error(t, err)
}

func TestPersistSkipsEmptyResults(t *testing.T) {
	dir := t.TempDir()
	app := &Container{Config: exportConfig(dir)}

	require.NoError(t, app.persist(context.Background(), "run-1", nil))
	assert.NoFileExists(t, filepath.Join(dir, "out", "productos.json"))
}
