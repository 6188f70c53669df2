package spacetraveling

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/prismic"
)

const (
	sessionName     = "preview_session"
	previewRefKey   = "ref"
	maxPreviewToken = 2048
)

// previewRef returns the Prismic ref of the current preview session.
func previewRef(c echo.Context) string {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return ""
	}
	ref, _ := sess.Values[previewRefKey].(string)
	return ref
}

// inPreview reports whether the request carries a preview session.
func inPreview(c echo.Context) bool {
	return previewRef(c) != ""
}

// previewContext returns the request context, reading from the preview ref
// when a preview session is active.
func (a *App) previewContext(c echo.Context) (context.Context, bool) {
	ctx := c.Request().Context()
	ref := previewRef(c)
	if ref == "" {
		return ctx, false
	}
	return prismic.WithRef(ctx, ref), true
}

func setPreviewSession(c echo.Context, ref string) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values[previewRefKey] = ref
	return sess.Save(c.Request(), c.Response())
}

func clearPreviewSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// handlePreview enters preview mode. Prismic sends the preview ref as token
// and the previewed document's ID.
func (a *App) handlePreview(c echo.Context) error {
	if !a.limiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many requests")
	}
	token := c.QueryParam("token")
	if token == "" || len(token) > maxPreviewToken {
		return c.String(http.StatusBadRequest, "Invalid preview token")
	}

	target := "/"
	if id := c.QueryParam("documentId"); id != "" {
		ctx := prismic.WithRef(c.Request().Context(), token)
		doc, err := a.Client.GetByID(ctx, id, prismic.QueryOptions{})
		switch {
		case errors.Is(err, prismic.ErrNotFound):
		case err != nil:
			return err
		case doc.UID != "":
			target = PostPath(doc.UID)
		}
	}

	if err := setPreviewSession(c, token); err != nil {
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, target)
}

func handleExitPreview(c echo.Context) error {
	if err := clearPreviewSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, "/")
}
