// Package listing implements the post listing: a first page fetched up front
// and further pages appended on request by following next_page cursors.
package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/eringen/spacetraveling/posts"
	"github.com/eringen/spacetraveling/prismic"
)

var (
	// ErrExhausted is returned by LoadMore once the cursor is null.
	ErrExhausted = errors.New("listing: no more pages")
	// ErrInFlight is returned by LoadMore while another load is pending.
	ErrInFlight = errors.New("listing: load already in progress")
)

// State of a listing page. There is no way back from Exhausted.
type State int

const (
	HasMore State = iota
	Exhausted
)

func (s State) String() string {
	if s == Exhausted {
		return "exhausted"
	}
	return "has_more"
}

// Source runs the first-page query.
type Source interface {
	Query(ctx context.Context, preds []prismic.Predicate, opts prismic.QueryOptions) (*prismic.Response, error)
}

// Fetcher follows a next_page cursor.
type Fetcher interface {
	FetchPage(ctx context.Context, pageURL string) (*prismic.Response, error)
}

// FirstPage queries the first page of post summaries.
func FirstPage(ctx context.Context, src Source, pageSize int) (*prismic.Response, error) {
	if pageSize <= 0 {
		pageSize = 1
	}
	resp, err := src.Query(ctx, []prismic.Predicate{prismic.At("document.type", posts.DocumentType)}, prismic.QueryOptions{
		Fetch:    posts.SummaryFields,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("listing: first page: %w", err)
	}
	return resp, nil
}

// Page is the displayed list plus its cursor. The list only grows, in the
// order pages arrive. Entries are never reordered or deduplicated.
type Page struct {
	mu      sync.Mutex
	posts   []posts.Summary
	next    string
	loading bool
	fetcher Fetcher
}

// NewPage seeds a Page from a first-page response.
func NewPage(resp *prismic.Response, fetcher Fetcher) (*Page, error) {
	p := &Page{fetcher: fetcher}
	if resp == nil {
		return p, nil
	}
	summaries, err := posts.SummariesFromDocuments(resp.Results)
	if err != nil {
		return nil, fmt.Errorf("listing: decode first page: %w", err)
	}
	p.posts = summaries
	p.next = resp.Next()
	return p, nil
}

// Resume returns an empty Page positioned at cursor. Stateless servers use
// it to serve one load-more request.
func Resume(cursor string, fetcher Fetcher) *Page {
	return &Page{next: cursor, fetcher: fetcher}
}

// Posts returns a copy of the displayed list.
func (p *Page) Posts() []posts.Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]posts.Summary(nil), p.posts...)
}

// Len returns the number of displayed posts.
func (p *Page) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.posts)
}

// Cursor returns the current next_page URL, "" when exhausted.
func (p *Page) Cursor() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next
}

// State reports whether more pages can be loaded.
func (p *Page) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.next == "" {
		return Exhausted
	}
	return HasMore
}

// Loading reports whether a LoadMore call is pending.
func (p *Page) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// LoadMore fetches the page at the current cursor, replaces the cursor with
// the response's next_page and appends the results. It returns the appended
// summaries. On failure the list and cursor are left unchanged.
func (p *Page) LoadMore(ctx context.Context) ([]posts.Summary, error) {
	p.mu.Lock()
	if p.next == "" {
		p.mu.Unlock()
		return nil, ErrExhausted
	}
	if p.loading {
		p.mu.Unlock()
		return nil, ErrInFlight
	}
	p.loading = true
	cursor := p.next
	p.mu.Unlock()

	added, next, err := p.fetch(ctx, cursor)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	if err != nil {
		return nil, err
	}
	p.next = next
	p.posts = append(p.posts, added...)
	return added, nil
}

func (p *Page) fetch(ctx context.Context, cursor string) ([]posts.Summary, string, error) {
	resp, err := p.fetcher.FetchPage(ctx, cursor)
	if err != nil {
		return nil, "", fmt.Errorf("listing: load more: %w", err)
	}
	added, err := posts.SummariesFromDocuments(resp.Results)
	if err != nil {
		return nil, "", fmt.Errorf("listing: decode page: %w", err)
	}
	return added, resp.Next(), nil
}
