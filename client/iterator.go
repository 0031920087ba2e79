package client

import (
	"context"
	"iter"
	"net/http"

	"github.com/jonwraymond/courtlistener/filter"
	"github.com/jonwraymond/courtlistener/schema"
)

// Iterator walks the pages of one list call. It holds at most one page and
// is not safe for concurrent use.
type Iterator struct {
	client   *Client
	endpoint *schema.Endpoint
	query    filter.Query

	page  *Page
	count *int
}

// Endpoint returns the endpoint being listed. For search this is the
// variant selected by the type filter.
func (it *Iterator) Endpoint() *schema.Endpoint { return it.endpoint }

// Query returns a copy of the validated wire query.
func (it *Iterator) Query() filter.Query { return it.query.Clone() }

func (it *Iterator) fetch(ctx context.Context, link string) (*Page, error) {
	var page Page
	var err error
	if link == "" {
		err = it.client.do(ctx, http.MethodGet, it.endpoint.ID, it.endpoint.Path, it.query.Values(), &page)
	} else {
		err = it.client.do(ctx, http.MethodGet, it.endpoint.ID, link, nil, &page)
	}
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// CurrentPage returns the held page, fetching the first one on first use.
func (it *Iterator) CurrentPage(ctx context.Context) (*Page, error) {
	if it.page == nil {
		page, err := it.fetch(ctx, "")
		if err != nil {
			return nil, err
		}
		it.page = page
	}
	return it.page, nil
}

// HasNext reports whether the current page links to a next page.
func (it *Iterator) HasNext(ctx context.Context) (bool, error) {
	page, err := it.CurrentPage(ctx)
	if err != nil {
		return false, err
	}
	return page.Next != nil, nil
}

// HasPrevious reports whether the current page links to a previous page.
func (it *Iterator) HasPrevious(ctx context.Context) (bool, error) {
	page, err := it.CurrentPage(ctx)
	if err != nil {
		return false, err
	}
	return page.Previous != nil, nil
}

// Next replaces the current page with the next one.
func (it *Iterator) Next(ctx context.Context) error {
	return it.move(ctx, DirectionNext)
}

// Previous replaces the current page with the previous one.
func (it *Iterator) Previous(ctx context.Context) error {
	return it.move(ctx, DirectionPrevious)
}

func (it *Iterator) move(ctx context.Context, dir Direction) error {
	page, err := it.CurrentPage(ctx)
	if err != nil {
		return err
	}
	link := page.Next
	if dir == DirectionPrevious {
		link = page.Previous
	}
	if link == nil {
		return &NavigationError{Direction: dir}
	}
	next, err := it.fetch(ctx, *link)
	if err != nil {
		return err
	}
	it.page = next
	return nil
}

// Results returns the records of the current page.
func (it *Iterator) Results(ctx context.Context) ([]map[string]any, error) {
	page, err := it.CurrentPage(ctx)
	if err != nil {
		return nil, err
	}
	return page.Results, nil
}

// All yields every record from the current page onwards, following next
// links until a page has none. Iteration stops at the first error, which
// is yielded with a nil record.
func (it *Iterator) All(ctx context.Context) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		for {
			page, err := it.CurrentPage(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, record := range page.Results {
				if !yield(record, nil) {
					return
				}
			}
			if page.Next == nil {
				return
			}
			if err := it.Next(ctx); err != nil {
				yield(nil, err)
				return
			}
		}
	}
}

// Count returns the total number of results across pages. A count served
// at a URL costs one request, and the result is cached.
func (it *Iterator) Count(ctx context.Context) (int, error) {
	if it.count != nil {
		return *it.count, nil
	}
	page, err := it.CurrentPage(ctx)
	if err != nil {
		return 0, err
	}

	if n, ok := page.Count.Int(); ok {
		it.count = &n
		return n, nil
	}
	link, ok := page.Count.URL()
	if !ok {
		return 0, ErrNoCount
	}
	var body struct {
		Count int `json:"count"`
	}
	if err := it.client.do(ctx, http.MethodGet, it.endpoint.ID, link, nil, &body); err != nil {
		return 0, err
	}
	it.count = &body.Count
	return body.Count, nil
}

// DocumentCount returns the nested document count reported by RECAP
// search, or nil.
func (it *Iterator) DocumentCount(ctx context.Context) (*int, error) {
	page, err := it.CurrentPage(ctx)
	if err != nil {
		return nil, err
	}
	return page.DocumentCount, nil
}
