package response

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/mmynk/splitledger/internal/storage"
)

const (
	labelPrevious = "&laquo; Previous"
	labelNext     = "Next &raquo;"

	// onEachSide is how many page links surround the current page before
	// the list collapses with "...".
	onEachSide = 3
)

// Paginator is a length-aware page. Its keys sit at the top level
// of the envelope, next to status and message.
type Paginator[T any] struct {
	CurrentPage  int     `json:"current_page"`
	Data         []T     `json:"data"`
	FirstPageURL string  `json:"first_page_url"`
	From         *int    `json:"from"`
	LastPage     int     `json:"last_page"`
	LastPageURL  string  `json:"last_page_url"`
	Links        []Link  `json:"links"`
	NextPageURL  *string `json:"next_page_url"`
	Path         string  `json:"path"`
	PerPage      int     `json:"per_page"`
	PrevPageURL  *string `json:"prev_page_url"`
	To           *int    `json:"to"`
	Total        int     `json:"total"`
}

// Link is one entry of the paginator's link list.
type Link struct {
	URL    *string `json:"url"`
	Label  string  `json:"label"`
	Active bool    `json:"active"`
}

// List writes items under data. For a paginated request the page keys
// are written alongside.
func List[T any](w http.ResponseWriter, r *http.Request, baseURL, message string, page storage.Page, total int, items []T, extra ...Field) {
	if items == nil {
		items = []T{}
	}
	if !page.Paginated() {
		Success(w, message, items, extra...)
		return
	}
	p := NewPaginator(r, baseURL, page, total, items)
	Success(w, message, p.Data, append(p.fields(), extra...)...)
}

// NewPaginator builds the page for items. baseURL prefixes the request path
// in page links; when empty the request's own host is used.
func NewPaginator[T any](r *http.Request, baseURL string, page storage.Page, total int, items []T) *Paginator[T] {
	if items == nil {
		items = []T{}
	}
	path := requestPath(r, baseURL)
	urlFor := func(n int) string {
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(n))
		return path + "?" + q.Encode()
	}

	lastPage := int(math.Ceil(float64(total) / float64(page.Limit)))
	if lastPage < 1 {
		lastPage = 1
	}

	p := &Paginator[T]{
		CurrentPage:  page.Number,
		Data:         items,
		FirstPageURL: urlFor(1),
		LastPage:     lastPage,
		LastPageURL:  urlFor(lastPage),
		Path:         path,
		PerPage:      page.Limit,
		Total:        total,
	}
	if len(items) > 0 {
		from := page.Offset() + 1
		to := page.Offset() + len(items)
		p.From, p.To = &from, &to
	}
	if page.Number > 1 {
		prev := urlFor(page.Number - 1)
		p.PrevPageURL = &prev
	}
	if page.Number < lastPage {
		next := urlFor(page.Number + 1)
		p.NextPageURL = &next
	}

	p.Links = append(p.Links, Link{URL: p.PrevPageURL, Label: labelPrevious})
	for _, n := range window(page.Number, lastPage) {
		if n == 0 {
			p.Links = append(p.Links, Link{Label: "..."})
			continue
		}
		u := urlFor(n)
		p.Links = append(p.Links, Link{URL: &u, Label: strconv.Itoa(n), Active: n == page.Number})
	}
	p.Links = append(p.Links, Link{URL: p.NextPageURL, Label: labelNext})
	return p
}

// fields lists every page key except data.
func (p *Paginator[T]) fields() []Field {
	return []Field{
		{"current_page", p.CurrentPage},
		{"first_page_url", p.FirstPageURL},
		{"from", p.From},
		{"last_page", p.LastPage},
		{"last_page_url", p.LastPageURL},
		{"links", p.Links},
		{"next_page_url", p.NextPageURL},
		{"path", p.Path},
		{"per_page", p.PerPage},
		{"prev_page_url", p.PrevPageURL},
		{"to", p.To},
		{"total", p.Total},
	}
}

// PageSlice cuts the requested window out of an in-memory list and returns
// it with the full length.
func PageSlice[T any](items []T, page storage.Page) ([]T, int) {
	total := len(items)
	if !page.Paginated() {
		return items, total
	}
	start := page.Offset()
	if start >= total {
		return []T{}, total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}
	return items[start:end], total
}

// window lists the page numbers to link, with 0 marking a "..." gap.
func window(current, last int) []int {
	size := onEachSide * 2
	if last < size+6 {
		return pageRange(1, last)
	}
	switch {
	case current <= size:
		return join(pageRange(1, size+2), pageRange(last-1, last))
	case current > last-size:
		return join(pageRange(1, 2), pageRange(last-(size+2)+1, last))
	default:
		return join(pageRange(1, 2), pageRange(current-onEachSide, current+onEachSide), pageRange(last-1, last))
	}
}

func pageRange(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for n := from; n <= to; n++ {
		out = append(out, n)
	}
	return out
}

func join(parts ...[]int) []int {
	var out []int
	for i, part := range parts {
		if i > 0 {
			out = append(out, 0)
		}
		out = append(out, part...)
	}
	return out
}

func requestPath(r *http.Request, baseURL string) string {
	if baseURL == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		baseURL = scheme + "://" + r.Host
	}
	return strings.TrimRight(baseURL, "/") + r.URL.Path
}
