// Package pagination slices ordered listings into fixed-size, 1-based pages.
package pagination

import (
	"strconv"
	"strings"
)

// Page is one window of a paginated listing.
type Page[T any] struct {
	Items      []T
	Number     int
	PerPage    int
	TotalItems int64
	NumPages   int
}

// NumPagesFor returns how many pages total items span; an empty listing still has one page.
func NumPagesFor(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// Resolve maps the raw page query value onto a valid page number.
// A missing or non-numeric value yields the first page; any number outside
// the available range yields the last page.
func Resolve(raw string, total int64, perPage int) int {
	numPages := NumPagesFor(total, perPage)
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	if n < 1 || n > numPages {
		return numPages
	}
	return n
}

// Offset returns the index of the first item of page number.
func Offset(number, perPage int) int {
	if number < 1 {
		return 0
	}
	return (number - 1) * perPage
}

// New assembles a page from already fetched items.
func New[T any](items []T, number, perPage int, total int64) Page[T] {
	return Page[T]{
		Items:      items,
		Number:     number,
		PerPage:    perPage,
		TotalItems: total,
		NumPages:   NumPagesFor(total, perPage),
	}
}

func (p Page[T]) HasPrevious() bool { return p.Number > 1 }

func (p Page[T]) HasNext() bool { return p.Number < p.NumPages }

func (p Page[T]) HasOtherPages() bool { return p.HasPrevious() || p.HasNext() }

func (p Page[T]) PreviousNumber() int { return p.Number - 1 }

func (p Page[T]) NextNumber() int { return p.Number + 1 }

// PageRange lists every page number, for rendering the paginator.
func (p Page[T]) PageRange() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
