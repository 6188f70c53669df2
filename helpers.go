package spacetraveling

import (
	"encoding/json"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/eringen/spacetraveling/detail"
)

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// PostPath is the site-relative route of a post.
func PostPath(uid string) string {
	return "/post/" + url.PathEscape(uid) + "/"
}

// LoadMorePath is the serve-mode load-more URL for a cursor, "" when the
// cursor is null.
func LoadMorePath(cursor string) string {
	if cursor == "" {
		return ""
	}
	return "/api/posts?cursor=" + url.QueryEscape(cursor)
}

// fragmentPath is the static route of pre-rendered listing page n (n >= 2).
func fragmentPath(n int) string {
	return "/posts/page/" + strconv.Itoa(n) + "/"
}

// validUID rejects path parameters that cannot be Prismic UIDs before they
// reach the resolver.
func validUID(uid string) bool {
	if uid == "" || uid == "." || uid == ".." || len(uid) > 256 {
		return false
	}
	return !strings.ContainsAny(uid, "/?#\\ ")
}

// WebsiteJsonLD returns a JSON-LD string for a WebSite schema using SiteConfig.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        cfg.Name,
		"url":         BuildURL(cfg.URL),
		"description": cfg.Description,
	}
	if cfg.Author != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD returns a JSON-LD string for a BlogPosting schema.
func BlogPostingJsonLD(v detail.View, cfg SiteConfig) string {
	postURL := BuildURL(cfg.URL, "post", v.UID)
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "BlogPosting",
		"headline": v.Title,
		"url":      postURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if v.Published != nil {
		data["datePublished"] = v.Published.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	if v.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  v.Author,
		}
	}
	if v.Banner.URL != "" {
		data["image"] = v.Banner.URL
	}
	if cfg.Name != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
