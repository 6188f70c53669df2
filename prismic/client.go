// Package prismic is a small client for the Prismic REST API v2. It covers
// what a blog needs: ref discovery, predicate search, lookup by UID or ID,
// following next_page cursors and preview refs.
package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned when no document matches a lookup.
var ErrNotFound = errors.New("prismic: document not found")

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("prismic: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Config configures a Client.
type Config struct {
	Endpoint    string        // e.g. https://repo.cdn.prismic.io/api/v2
	AccessToken string        // optional, for private repositories
	Lang        string        // default "*"
	Timeout     time.Duration // per request, default 10s
	RefTTL      time.Duration // how long the master ref is reused, default 30s
	HTTPClient  *http.Client
}

// QueryOptions mirrors the search parameters used by the site.
type QueryOptions struct {
	Fetch     []string // field projection, e.g. "posts.title"
	PageSize  int
	Page      int
	Orderings string // e.g. "[document.first_publication_date desc]"
	Lang      string
}

// Client talks to one Prismic repository. It is safe for concurrent use.
type Client struct {
	endpoint    *url.URL
	accessToken string
	lang        string
	refTTL      time.Duration
	http        *http.Client

	mu         sync.Mutex
	masterRef  string
	refFetched time.Time
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("prismic: endpoint is required")
	}
	u, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("prismic: parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("prismic: endpoint must be http(s), got %q", cfg.Endpoint)
	}
	if cfg.Lang == "" {
		cfg.Lang = "*"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RefTTL == 0 {
		cfg.RefTTL = 30 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		endpoint:    u,
		accessToken: cfg.AccessToken,
		lang:        cfg.Lang,
		refTTL:      cfg.RefTTL,
		http:        hc,
	}, nil
}

type refKey struct{}

// WithRef returns a context whose queries read from ref instead of master.
// Preview sessions use it.
func WithRef(ctx context.Context, ref string) context.Context {
	if ref == "" {
		return ctx
	}
	return context.WithValue(ctx, refKey{}, ref)
}

// RefFromContext returns the ref set by WithRef.
func RefFromContext(ctx context.Context) (string, bool) {
	ref, ok := ctx.Value(refKey{}).(string)
	return ref, ok && ref != ""
}

// Owns reports whether rawURL points at this client's repository. Cursors
// coming back from browsers are checked with it before being fetched.
func (c *Client) Owns(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Scheme == c.endpoint.Scheme && u.Host == c.endpoint.Host &&
		strings.HasPrefix(u.Path, c.endpoint.Path)
}

// API fetches the repository descriptor.
func (c *Client) API(ctx context.Context) (*API, error) {
	u := *c.endpoint
	q := u.Query()
	c.authorize(q)
	u.RawQuery = q.Encode()
	var api API
	if err := c.get(ctx, "api", u.String(), &api); err != nil {
		return nil, err
	}
	return &api, nil
}

// MasterRef returns the current master ref, cached for RefTTL.
func (c *Client) MasterRef(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.masterRef != "" && time.Since(c.refFetched) < c.refTTL {
		ref := c.masterRef
		c.mu.Unlock()
		return ref, nil
	}
	c.mu.Unlock()

	api, err := c.API(ctx)
	if err != nil {
		return "", err
	}
	ref, err := api.MasterRef()
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.masterRef = ref
	c.refFetched = time.Now()
	c.mu.Unlock()
	return ref, nil
}

// ResetRef drops the cached master ref so the next query asks for it again.
// Call it when the repository reports a publish.
func (c *Client) ResetRef() {
	c.mu.Lock()
	c.masterRef = ""
	c.mu.Unlock()
}

func (c *Client) ref(ctx context.Context) (string, error) {
	if ref, ok := RefFromContext(ctx); ok {
		return ref, nil
	}
	return c.MasterRef(ctx)
}

// Query runs a predicate search and returns one page of results.
func (c *Client) Query(ctx context.Context, preds []Predicate, opts QueryOptions) (*Response, error) {
	ref, err := c.ref(ctx)
	if err != nil {
		return nil, err
	}
	u := *c.endpoint
	u.Path = strings.TrimRight(u.Path, "/") + "/documents/search"
	q := url.Values{}
	q.Set("ref", ref)
	if len(preds) > 0 {
		q.Set("q", encodeQuery(preds))
	}
	if len(opts.Fetch) > 0 {
		q.Set("fetch", strings.Join(opts.Fetch, ","))
	}
	if opts.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Orderings != "" {
		q.Set("orderings", opts.Orderings)
	}
	lang := opts.Lang
	if lang == "" {
		lang = c.lang
	}
	q.Set("lang", lang)
	c.authorize(q)
	u.RawQuery = q.Encode()

	var resp Response
	if err := c.get(ctx, "query", u.String(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueryAll follows next_page until the result set is exhausted.
func (c *Client) QueryAll(ctx context.Context, preds []Predicate, opts QueryOptions) ([]Document, error) {
	if opts.PageSize == 0 {
		opts.PageSize = 100
	}
	resp, err := c.Query(ctx, preds, opts)
	if err != nil {
		return nil, err
	}
	docs := append([]Document(nil), resp.Results...)
	for next := resp.Next(); next != ""; next = resp.Next() {
		resp, err = c.FetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		docs = append(docs, resp.Results...)
	}
	return docs, nil
}

// GetByUID returns the document of docType with the given UID.
func (c *Client) GetByUID(ctx context.Context, docType, uid string, opts QueryOptions) (*Document, error) {
	opts.PageSize = 1
	resp, err := c.Query(ctx, []Predicate{At("my."+docType+".uid", uid)}, opts)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}
	return &resp.Results[0], nil
}

// GetByID returns the document with the given ID.
func (c *Client) GetByID(ctx context.Context, id string, opts QueryOptions) (*Document, error) {
	opts.PageSize = 1
	resp, err := c.Query(ctx, []Predicate{At("document.id", id)}, opts)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}
	return &resp.Results[0], nil
}

// FetchPage GETs an opaque next_page cursor URL as-is. The URL must belong
// to this repository.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (*Response, error) {
	if !c.Owns(pageURL) {
		return nil, fmt.Errorf("prismic: cursor %q is not on %s", pageURL, c.endpoint.Host)
	}
	u, _ := url.Parse(pageURL)
	if c.accessToken != "" && u.Query().Get("access_token") == "" {
		q := u.Query()
		c.authorize(q)
		u.RawQuery = q.Encode()
	}
	var resp Response
	if err := c.get(ctx, "page", u.String(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) authorize(q url.Values) {
	if c.accessToken != "" {
		q.Set("access_token", c.accessToken)
	}
}

func (c *Client) get(ctx context.Context, op, rawURL string, v any) error {
	started := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("prismic: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		observe(op, 0, started)
		return fmt.Errorf("prismic: %s: %w", op, err)
	}
	defer res.Body.Close()
	observe(op, res.StatusCode, started)

	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return &APIError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("prismic: decode %s response: %w", op, err)
	}
	return nil
}
