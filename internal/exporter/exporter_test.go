package exporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"catalog/crawler/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []domain.ProductRecord {
	return []domain.ProductRecord{
		domain.NewProductRecord("Collar, rojo", "https://shop.example/collar.jpg", "Perros"),
		domain.NewProductRecord("", "https://shop.example/raton.jpg", "Gatos: Juguetes"),
	}
}

func TestWriteJSON(t *testing.T) {
	jsonPath, _ := Paths(filepath.Join(t.TempDir(), "out"), "productos")
	require.NoError(t, WriteJSON(jsonPath, sampleRecords()))

	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, map[string]any{
		"nombre_producto": "Collar, rojo",
		"imagen_url":      "https://shop.example/collar.jpg",
		"categoria":       "Perros",
	}, decoded[0])
	assert.Nil(t, decoded[1]["nombre_producto"])
}

func TestWriteJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, WriteJSON(path, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestWriteCSV(t *testing.T) {
	_, csvPath := Paths(t.TempDir(), "productos")
	require.NoError(t, WriteCSV(csvPath, sampleRecords()))

	raw, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t,
		"nombre_producto,imagen_url,categoria\n"+
			"\"Collar, rojo\",https://shop.example/collar.jpg,Perros\n"+
			",https://shop.example/raton.jpg,Gatos: Juguetes\n",
		string(raw))
}
