package spacetraveling

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/views"
)

// SiteConfig holds all configuration for a spacetraveling site.
type SiteConfig struct {
	Name        string       // Site name (default "spacetraveling")
	URL         string       // Canonical URL (default "http://localhost:3000")
	Description string       // Site description for RSS and meta tags
	Author      string       // Publisher name for JSON-LD
	Locale      string       // Date and html lang locale (default "pt-BR")
	Labels      views.Labels // UI strings, Portuguese by default

	PrismicEndpoint    string        // Required: e.g. https://repo.cdn.prismic.io/api/v2
	PrismicAccessToken string        // Optional, for private repositories
	PrismicLang        string        // Document language (default "*")
	WebhookSecret      string        // Enables POST /api/revalidate for Prismic webhooks
	RequestTimeout     time.Duration // Per content request (default 10s)

	ListingPageSize       int    // Posts per listing page (default 1)
	WordsPerMinute        int    // Reading speed (default 200)
	MinimumReadingMinutes int    // Floor for the estimate (default 0)
	RichTextPolicy        string // "sanitize" (default) or "trust"

	Addr          string        // Listen address (default ":3000")
	DatabasePath  string        // SQLite snapshot path (default "data/posts.db")
	SessionSecret string        // Required for serve: preview session secret
	CookieSecure  bool          // Set true for HTTPS
	PostCacheTTL  time.Duration // Listing and post cache TTL (default 5min)
	HTMXSrc       string        // htmx script URL

	OutputDir        string // Static build output (default "out")
	BuildConcurrency int    // Post pages rendered in parallel (default 4)
	LocalizeBanners  bool   // Download and downscale banners into the build
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "spacetraveling"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Locale == "" {
		c.Locale = "pt-BR"
	}
	if c.PrismicLang == "" {
		c.PrismicLang = "*"
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.ListingPageSize == 0 {
		c.ListingPageSize = 1
	}
	if c.WordsPerMinute == 0 {
		c.WordsPerMinute = 200
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/posts.db"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.OutputDir == "" {
		c.OutputDir = "out"
	}
	if c.BuildConcurrency == 0 {
		c.BuildConcurrency = 4
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithHTTPClient sets the client used for Prismic and banner downloads.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) {
		a.httpClient = hc
	}
}

// WithLogger replaces the Echo logger used by the server and the builder.
func WithLogger(l echo.Logger) Option {
	return func(a *App) {
		a.Echo.Logger = l
	}
}

// WithViews overrides the default templates. Nil fields keep the default.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}
