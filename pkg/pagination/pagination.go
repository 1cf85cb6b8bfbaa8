package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 20
	// MaxLimit caps how many rows any paged query can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Page is the pagination block attached to list responses.
type Page struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Normalize enforces the configured defaults and maximum limits.
func Normalize(p Params) Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	n := Normalize(p)
	return (n.Page - 1) * n.Limit
}

// NewPage assembles the response block, deriving the page count from total.
func NewPage(p Params, total int64) Page {
	n := Normalize(p)
	pages := int((total + int64(n.Limit) - 1) / int64(n.Limit))
	if pages < 0 {
		pages = 0
	}
	return Page{
		Page:  n.Page,
		Limit: n.Limit,
		Total: total,
		Pages: pages,
	}
}
