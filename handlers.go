package spacetraveling

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/detail"
	"github.com/eringen/spacetraveling/listing"
	"github.com/eringen/spacetraveling/posts"
	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/views"
)

func isHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}

func (a *App) handleHome(c echo.Context) error {
	ctx, preview := a.previewContext(c)
	var (
		resp *prismic.Response
		err  error
	)
	if preview {
		resp, err = listing.FirstPage(ctx, a.Client, a.Config.ListingPageSize)
	} else {
		resp, err = a.Listing.FirstPage(ctx)
	}
	if err != nil {
		return err
	}
	page, err := listing.NewPage(resp, a.Client)
	if err != nil {
		return err
	}
	more := views.More{URL: LoadMorePath(page.Cursor())}
	return Render(c, a.Views.Home(a.site, a.homeMeta(), a.items(page.Posts()), more))
}

// handleLoadMore serves one load-more step. The browser holds the list;
// the server only follows the cursor it is handed.
func (a *App) handleLoadMore(c echo.Context) error {
	cursor := c.QueryParam("cursor")
	if cursor == "" || !a.Client.Owns(cursor) {
		return c.String(http.StatusBadRequest, "Invalid cursor")
	}
	if !a.limiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many requests")
	}

	ctx, _ := a.previewContext(c)
	page := listing.Resume(cursor, a.Client)
	added, err := page.LoadMore(ctx)
	if err != nil {
		c.Logger().Warnf("load more: %v", err)
		return RenderStatus(c, http.StatusBadGateway, a.Views.LoadFailed(a.site))
	}
	more := views.More{URL: LoadMorePath(page.Cursor())}
	return Render(c, a.Views.MorePosts(a.site, a.items(added), more))
}

func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	partial := isHTMX(c) && c.QueryParam("partial") == "post"
	if !validUID(slug) {
		return a.renderNotFound(c, partial)
	}

	if ctx, preview := a.previewContext(c); preview {
		d, err := detail.Fetch(ctx, a.Client, slug)
		if errors.Is(err, detail.ErrNotFound) {
			return a.renderNotFound(c, partial)
		}
		if err != nil {
			return err
		}
		return a.renderPost(c, d, true, partial)
	}

	// Unknown slugs cost a content request each.
	if !a.Resolver.Known(slug) && !a.limiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many requests")
	}
	res := a.Resolver.Lookup(slug)
	switch res.Status {
	case detail.Resolved:
		return a.renderPost(c, res.Post, false, partial)
	case detail.NotFound:
		return a.renderNotFound(c, partial)
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	poll := PostPath(slug) + "?partial=post"
	if partial {
		return Render(c, a.Views.LoadingBody(a.site, poll))
	}
	return Render(c, a.Views.Loading(a.site, poll))
}

func (a *App) renderPost(c echo.Context, d posts.Detail, preview, partial bool) error {
	page := a.postPage(d, preview)
	if partial {
		return Render(c, a.Views.PostBody(a.site, page))
	}
	return Render(c, a.Views.Post(a.site, page))
}

// renderNotFound answers 404. A polling placeholder cannot swap a whole
// page in, so it is told to reload instead.
func (a *App) renderNotFound(c echo.Context, partial bool) error {
	if partial {
		c.Response().Header().Set("HX-Refresh", "true")
	}
	return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.site))
}

type webhookPayload struct {
	Type   string `json:"type"`
	Secret string `json:"secret"`
}

// handleRevalidate receives Prismic publish webhooks and marks every cached
// listing and post stale.
func (a *App) handleRevalidate(c echo.Context) error {
	if !a.limiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many requests")
	}
	var p webhookPayload
	if err := c.Bind(&p); err != nil {
		return c.String(http.StatusBadRequest, "Invalid payload")
	}
	if subtle.ConstantTimeCompare([]byte(p.Secret), []byte(a.Config.WebhookSecret)) != 1 {
		return c.String(http.StatusUnauthorized, "Invalid secret")
	}
	if p.Type == "test-trigger" {
		return c.NoContent(http.StatusNoContent)
	}
	a.Client.ResetRef()
	a.Listing.Invalidate()
	a.Resolver.Invalidate()
	c.Logger().Infof("revalidate: %s", p.Type)
	return c.JSON(http.StatusOK, map[string]bool{"revalidated": true})
}

func (a *App) handleSitemap(c echo.Context) error {
	summaries, err := a.Listing.Summaries(c.Request().Context())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return a.writeSitemap(c.Response(), summaries)
}

func (a *App) handleFeed(c echo.Context) error {
	summaries, err := a.Listing.Summaries(c.Request().Context())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return a.writeFeed(c.Response(), summaries)
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(filepath.Join(a.staticDir, "favicon.svg"))
}

// handleRobots serves the user's robots.txt, or a default pointing at the
// sitemap.
func (a *App) handleRobots(c echo.Context) error {
	path := filepath.Join(a.staticDir, "robots.txt")
	if _, err := os.Stat(path); err == nil {
		return c.File(path)
	}
	return c.String(http.StatusOK, a.robots())
}

func (a *App) robots() string {
	return fmt.Sprintf("User-agent: *\nAllow: /\n\nSitemap: %s/sitemap.xml\n", strings.TrimRight(a.Config.URL, "/"))
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.site))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError(a.site))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
