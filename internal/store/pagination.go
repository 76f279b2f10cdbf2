package store

// DefaultPerPage is used when a caller does not pick a page size.
const DefaultPerPage = 10

// maxPerPage caps page sizes requested through query strings.
const maxPerPage = 100

// PageParams selects one page of a list, numbered from 1.
type PageParams struct {
	Page    int
	PerPage int
}

// Validate checks and corrects pagination parameters.
func (p *PageParams) Validate() {
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	if p.Page < 1 {
		p.Page = 1
	}
}

// Offset returns the number of rows skipped before this page.
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Page is one page of results plus what templates need to render the pager.
type Page[T any] struct {
	Items   []T
	Number  int
	PerPage int
	Total   int
}

// NewPage assembles a page from validated params.
func NewPage[T any](items []T, p PageParams, total int) *Page[T] {
	return &Page[T]{Items: items, Number: p.Page, PerPage: p.PerPage, Total: total}
}

// NumPages is the number of pages, at least 1 so an empty list still renders.
func (p *Page[T]) NumPages() int {
	if p.Total == 0 || p.PerPage == 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// HasPrevious reports whether a page precedes this one.
func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }

// HasNext reports whether a page follows this one.
func (p *Page[T]) HasNext() bool { return p.Number < p.NumPages() }

// IsPaginated reports whether the list spans more than one page.
func (p *Page[T]) IsPaginated() bool { return p.NumPages() > 1 }

// PreviousNumber is the page before this one.
func (p *Page[T]) PreviousNumber() int { return p.Number - 1 }

// NextNumber is the page after this one.
func (p *Page[T]) NextNumber() int { return p.Number + 1 }
