package pagination

// Page-number pagination for catalog and order listings.

const (
	// DefaultPerPage is the standard page size when one is not provided.
	DefaultPerPage = 12
	// MaxPerPage caps how many rows any listing query can request.
	MaxPerPage = 100
)

// Params holds pagination inputs from controllers or services.
type Params struct {
	Page    int
	PerPage int
}

// Meta describes the page that was actually returned.
type Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Normalize clamps the params to sane bounds.
func (p Params) Normalize() Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Offset returns the row offset for the normalized page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PerPage
}

// MetaFor builds response metadata from the normalized params and a total count.
func MetaFor(p Params, total int64) Meta {
	n := p.Normalize()
	pages := int((total + int64(n.PerPage) - 1) / int64(n.PerPage))
	if pages < 1 {
		pages = 1
	}
	return Meta{
		Page:       n.Page,
		PerPage:    n.PerPage,
		Total:      total,
		TotalPages: pages,
	}
}
