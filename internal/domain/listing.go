package domain

// ListingPage is the extraction result for one page of a leaf category listing
type ListingPage struct {
	PageNumber  int             `json:"page_number"`
	Records     []ProductRecord `json:"records"`
	HasNextPage bool            `json:"has_next_page"`
}
