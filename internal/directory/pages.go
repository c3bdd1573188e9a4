package directory

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/JakeFAU/automuseums-gpx/internal/model"
)

// ErrPageLimit is yielded when the page ceiling is hit while the last page
// still links to a next one.
var ErrPageLimit = errors.New("listing page limit reached")

// Page is one listing page of a country.
type Page struct {
	Number   int
	Listings []model.MuseumListing
	HasNext  bool
}

// PageFunc loads page number n.
type PageFunc func(ctx context.Context, n int) (Page, error)

// Pages yields pages 0, 1, 2, … until a page has no successor. At most limit
// pages are loaded; if the last of them still has a successor, ErrPageLimit is
// yielded. A load error is yielded and ends the sequence.
func Pages(ctx context.Context, limit int, load PageFunc) iter.Seq2[Page, error] {
	return func(yield func(Page, error) bool) {
		for n := range limit {
			page, err := load(ctx, n)
			if err != nil {
				yield(Page{}, fmt.Errorf("load page %d: %w", n, err))
				return
			}
			if !yield(page, nil) {
				return
			}
			if !page.HasNext {
				return
			}
		}
		yield(Page{}, fmt.Errorf("%w: %d pages", ErrPageLimit, limit))
	}
}
