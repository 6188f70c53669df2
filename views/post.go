package views

import (
	"strconv"

	"github.com/a-h/templ"
)

// Post is the single-post page.
func Post(site Site, page PostPage) templ.Component {
	return Layout(site, page.Meta, PostBody(site, page))
}

// PostBody is the page content without the document shell. The fallback
// poll swaps it into the loading placeholder.
func PostBody(site Site, page PostPage) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<main id="post" class="container"><div class="content">`)
		h.component(Header(site))
		h.raw("</div>")
		if page.BannerURL != "" {
			h.raw(`<img class="banner"`)
			h.url("src", page.BannerURL)
			h.attr("alt", page.BannerAlt)
			h.raw("/>")
		}
		h.raw(`<div class="content"><article class="article"><h1>`)
		h.text(page.Title)
		h.raw(`</h1><div class="info"><span class="date"><time>`)
		h.text(page.Date)
		h.raw(`</time></span><span class="author">`)
		h.text(page.Author)
		h.raw(`</span><span class="reading-time">`)
		h.text(strconv.Itoa(page.Minutes) + " " + site.Labels.Minutes)
		h.raw("</span></div>")
		for _, s := range page.Sections {
			h.raw("<section><h2>")
			h.text(s.Heading)
			h.raw(`</h2><div class="body">`)
			h.component(s.Body)
			h.raw("</div></section>")
		}
		h.raw("</article>")
		if page.Preview {
			h.raw(`<aside class="preview"><a href="/api/exit-preview">`)
			h.text(site.Labels.ExitPreview)
			h.raw("</a></aside>")
		}
		h.raw("</div></main>")
	})
}

// Loading is the placeholder served while a post not known in advance is
// still being fetched. It polls until the post resolves.
func Loading(site Site, pollURL string) templ.Component {
	return Layout(site, PageMeta{Title: site.Labels.Loading}, LoadingBody(site, pollURL))
}

// LoadingBody is the placeholder without the document shell.
func LoadingBody(site Site, pollURL string) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div id="post" class="loading"`)
		h.url("hx-get", pollURL)
		h.raw(` hx-trigger="load delay:1s" hx-swap="outerHTML">`)
		h.text(site.Labels.Loading)
		h.raw("</div>")
	})
}
