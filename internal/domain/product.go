package domain

// ProductRecord is a single product card extracted from a listing page.
// Field names follow the exported artifact format.
type ProductRecord struct {
	Name         *string `json:"nombre_producto"`
	ImageURL     *string `json:"imagen_url"`
	CategoryPath string  `json:"categoria"`
}

// NewProductRecord builds a record, treating empty strings as missing values
func NewProductRecord(name, imageURL, categoryPath string) ProductRecord {
	record := ProductRecord{CategoryPath: categoryPath}
	if name != "" {
		record.Name = &name
	}
	if imageURL != "" {
		record.ImageURL = &imageURL
	}
	return record
}

// Valid reports whether at least one of name or image URL is present
func (r ProductRecord) Valid() bool {
	return r.Name != nil || r.ImageURL != nil
}

// NameOrEmpty returns the product name or "" when missing
func (r ProductRecord) NameOrEmpty() string {
	if r.Name == nil {
		return ""
	}
	return *r.Name
}

// ImageURLOrEmpty returns the image URL or "" when missing
func (r ProductRecord) ImageURLOrEmpty() string {
	if r.ImageURL == nil {
		return ""
	}
	return *r.ImageURL
}
