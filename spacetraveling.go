// Package spacetraveling is a blog front end over a Prismic repository,
// built with Go, Echo, and templ.
//
// The same App either serves pages on demand (Start) or writes the whole
// site to a directory (Build). Pages are templ components chosen through
// ViewFuncs, so a site can replace any of them.
package spacetraveling

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/eringen/spacetraveling/detail"
	"github.com/eringen/spacetraveling/listing"
	"github.com/eringen/spacetraveling/posts"
	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/richtext"
	"github.com/eringen/spacetraveling/views"
)

// ViewFuncs holds the templ components the handlers and the builder render.
// Nil fields fall back to the components in package views.
type ViewFuncs struct {
	Home        func(site views.Site, meta views.PageMeta, items []views.Item, more views.More) templ.Component
	MorePosts   func(site views.Site, items []views.Item, more views.More) templ.Component
	LoadFailed  func(site views.Site) templ.Component
	Post        func(site views.Site, page views.PostPage) templ.Component
	PostBody    func(site views.Site, page views.PostPage) templ.Component
	Loading     func(site views.Site, pollURL string) templ.Component
	LoadingBody func(site views.Site, pollURL string) templ.Component
	NotFound    func(site views.Site) templ.Component
	ServerError func(site views.Site) templ.Component
}

func (v *ViewFuncs) setDefaults() {
	if v.Home == nil {
		v.Home = views.Home
	}
	if v.MorePosts == nil {
		v.MorePosts = views.MorePosts
	}
	if v.LoadFailed == nil {
		v.LoadFailed = views.LoadFailed
	}
	if v.Post == nil {
		v.Post = views.Post
	}
	if v.PostBody == nil {
		v.PostBody = views.PostBody
	}
	if v.Loading == nil {
		v.Loading = views.Loading
	}
	if v.LoadingBody == nil {
		v.LoadingBody = views.LoadingBody
	}
	if v.NotFound == nil {
		v.NotFound = views.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = views.ServerError
	}
}

// App is the central spacetraveling application. It wires together the
// content client, caches, snapshot store, handlers, and templates.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Client   *prismic.Client
	Store    *Store
	Listing  *ListingCache
	Resolver *detail.Resolver
	Views    ViewFuncs

	site    views.Site
	dates   posts.DateFormatter
	reading posts.ReadingPolicy
	html    *richtext.Serializer
	limiter *RateLimiter
	metrics *prometheus.Registry

	httpClient   *http.Client
	customRoutes []func(*App)
	staticDir    string
	prepared     bool
}

// New creates an App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true

	a := &App{
		Config:    cfg,
		Echo:      e,
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}
	a.Views.setDefaults()

	return a
}

// prepare builds everything Build and Init share: the content client, the
// date and rich-text formatters, and the listing cache.
func (a *App) prepare() error {
	if a.prepared {
		return nil
	}
	client, err := prismic.NewClient(prismic.Config{
		Endpoint:    a.Config.PrismicEndpoint,
		AccessToken: a.Config.PrismicAccessToken,
		Lang:        a.Config.PrismicLang,
		Timeout:     a.Config.RequestTimeout,
		HTTPClient:  a.httpClient,
	})
	if err != nil {
		return fmt.Errorf("spacetraveling: %w", err)
	}
	a.Client = client

	dates, err := posts.NewDateFormatter(a.Config.Locale)
	if err != nil {
		return fmt.Errorf("spacetraveling: %w", err)
	}
	a.dates = dates

	policy, err := richtext.ParsePolicy(a.Config.RichTextPolicy)
	if err != nil {
		return fmt.Errorf("spacetraveling: %w", err)
	}
	a.html = richtext.NewSerializer(policy, func(d richtext.SpanData) string {
		if d.Type == posts.DocumentType && d.UID != "" {
			return PostPath(d.UID)
		}
		return "/"
	})

	a.reading = posts.ReadingPolicy{
		WordsPerMinute: a.Config.WordsPerMinute,
		MinimumMinutes: a.Config.MinimumReadingMinutes,
	}

	a.site = views.Site{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Lang:        a.Config.Locale,
		HTMXSrc:     a.Config.HTMXSrc,
		Labels:      a.Config.Labels,
	}.WithDefaults()

	a.Listing = NewListingCache(a.Config.PostCacheTTL, a.firstPage, a.allSummaries)
	a.prepared = true
	return nil
}

func (a *App) firstPage(ctx context.Context) (*prismic.Response, error) {
	return listing.FirstPage(ctx, a.Client, a.Config.ListingPageSize)
}

func (a *App) allSummaries(ctx context.Context) ([]posts.Summary, error) {
	docs, err := a.Client.QueryAll(ctx, []prismic.Predicate{prismic.At("document.type", posts.DocumentType)}, prismic.QueryOptions{
		Fetch:     posts.SummaryFields,
		Orderings: "[document.first_publication_date desc]",
	})
	if err != nil {
		return nil, err
	}
	return posts.SummariesFromDocuments(docs)
}

// Init opens the snapshot store, warms the known post routes, and installs
// middleware and routes. Start calls it; tests call it to drive a.Echo
// directly.
func (a *App) Init() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("spacetraveling: SessionSecret is required")
	}
	if err := a.prepare(); err != nil {
		return err
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("spacetraveling: init store: %w", err)
	}
	a.Store = store

	a.Resolver = detail.NewResolver(a.Client, detail.ResolverOptions{
		Snapshot: a.Store,
		TTL:      a.Config.PostCacheTTL,
		Timeout:  a.Config.RequestTimeout,
		Logger:   a.Echo.Logger,
	})
	a.limiter = NewRateLimiter(30, time.Minute)
	a.metrics = prometheus.NewRegistry()

	a.warm()

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// warm resolves every post known up front. Content API trouble here is not
// fatal; the posts resolve on first request instead.
func (a *App) warm() {
	ctx, cancel := context.WithTimeout(context.Background(), 4*a.Config.RequestTimeout)
	defer cancel()

	paths, err := detail.StaticPaths(ctx, a.Client)
	if err != nil {
		a.Echo.Logger.Warnf("warm posts: %v", err)
		return
	}
	uids := paths.UIDs
	// Posts first served on demand last run are refreshed too; ones gone
	// from the repository drop out of the store.
	stored, err := a.Store.ListUIDs()
	if err != nil {
		a.Echo.Logger.Warnf("warm stored posts: %v", err)
	}
	seen := make(map[string]bool, len(uids))
	for _, uid := range uids {
		seen[uid] = true
	}
	for _, uid := range stored {
		if !seen[uid] {
			uids = append(uids, uid)
		}
	}
	n := a.Resolver.Warm(ctx, uids)
	a.Echo.Logger.Infof("warmed %d of %d posts", n, len(uids))
}

// Start initializes the app and runs the server until it stops.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Embedded stylesheet and logo, falling through to the user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/styles.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.GET("/public/logo.svg", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/post/:slug/", a.handlePost)

	e.GET("/api/posts", a.handleLoadMore)
	e.GET("/api/preview", a.handlePreview)
	e.GET("/api/exit-preview", handleExitPreview)
	if a.Config.WebhookSecret != "" {
		e.POST("/api/revalidate", a.handleRevalidate)
	}

	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{a.metrics, prometheus.DefaultGatherer},
	}))
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Resolver != nil {
		a.Resolver.Wait()
	}
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
