package domain

// Category is a node of the catalog taxonomy discovered by the explorer.
type Category struct {
	Name           string `json:"name"`            // Raw label as shown on the site
	NormalizedPath string `json:"normalized_path"` // "Perros: Ropa y Accesorios"
	URL            string `json:"url"`             // Absolute URL of the category page
	Depth          int    `json:"depth"`           // 0 for roots
}

// CategoryLink is a raw (name, href) pair read from a navigation block
type CategoryLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// CategoryFailure records why a category ended up Failed
type CategoryFailure struct {
	Category Category `json:"category"`
	Reason   string   `json:"reason"`
}
