package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProductRecord(t *testing.T) {
	tests := []struct {
		name      string
		product   string
		image     string
		wantValid bool
	}{
		{name: "name and image", product: "Collar", image: "https://cdn.example/collar.jpg", wantValid: true},
		{name: "name only", product: "Collar", wantValid: true},
		{name: "image only", image: "https://cdn.example/collar.jpg", wantValid: true},
		{name: "neither", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := NewProductRecord(tt.product, tt.image, "Perros")
			assert.Equal(t, tt.wantValid, record.Valid())
			assert.Equal(t, tt.product, record.NameOrEmpty())
			assert.Equal(t, tt.image, record.ImageURLOrEmpty())
			assert.Equal(t, "Perros", record.CategoryPath)
		})
	}
}

func TestCrawlResultStatus(t *testing.T) {
	record := NewProductRecord("Collar", "", "Perros")
	failure := CategoryFailure{Category: Category{URL: "/gatos"}, Reason: "timeout"}

	tests := []struct {
		name   string
		result CrawlResult
		want   CrawlStatus
	}{
		{name: "nothing at all", result: CrawlResult{}, want: CrawlEmpty},
		{name: "only failures", result: CrawlResult{Failures: []CategoryFailure{failure}}, want: CrawlFailed},
		{name: "records and failures", result: CrawlResult{Records: []ProductRecord{record}, Failures: []CategoryFailure{failure}}, want: CrawlCompletedWithFailures},
		{name: "records only", result: CrawlResult{Records: []ProductRecord{record}}, want: CrawlCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.Status())
		})
	}
}

func TestCategoryStateIsTerminal(t *testing.T) {
	assert.False(t, CategoryPending.IsTerminal())
	assert.False(t, CategoryLeafPaginating.IsTerminal())
	assert.True(t, CategoryDone.IsTerminal())
	assert.True(t, CategoryFailed.IsTerminal())
	assert.Equal(t, "leaf-paginating", CategoryLeafPaginating.String())
}
