package task

import "catalog/crawler/internal/domain"

type ListingPageTask struct {
	RunID        string                 `json:"run_id"`
	CategoryURL  string                 `json:"category_url"`  // Leaf category URL without page parameter
	CategoryPath string                 `json:"category_path"` // Normalized path, e.g. "Gatos: Juguetes"
	PageNumber   int                    `json:"page_number"`   // 1-based listing page
	Records      []domain.ProductRecord `json:"records"`       // Records extracted from this page
}

func (t *ListingPageTask) TaskType() string {
	return "ListingPageTask"
}

func (t *ListingPageTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
