package models

// Shelf represents basic shelf metadata from a library service.
type Shelf struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	BookCount   int    `json:"book_count"`
	Public      bool   `json:"public"`
}

// Book represents book metadata from a library service.
//
// CoverImage holds either a remote URL or a base64 data URI produced by the
// cover ingestion pipeline. ISBN enables cross-service matching when present.
type Book struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	ISBN        string `json:"isbn,omitempty"`
	Pages       int    `json:"pages,omitempty"`
	CoverImage  string `json:"cover_image,omitempty"`
	Description string `json:"description,omitempty"`
}

// ShelfExport bundles a shelf with its complete book listing for transfer
// between services or on-disk export.
type ShelfExport struct {
	Shelf Shelf  `json:"shelf"`
	Books []Book `json:"books"`
}
