// Package views holds the default page templates as templ components.
// Sites can swap any of them through the app's ViewFuncs.
package views

import "github.com/a-h/templ"

// htmxConfig lets 502 answers from the load-more endpoint swap their
// out-of-band error message while other errors stay unswapped.
const htmxConfig = `{"responseHandling":[{"code":"204","swap":false},{"code":"[23]..","swap":true},{"code":"502","swap":true,"error":true},{"code":"[45]..","swap":false,"error":true}]}`

// Layout wraps body in the HTML document shell.
func Layout(site Site, meta PageMeta, body templ.Component) templ.Component {
	return component(func(h *htmlWriter) {
		title := site.Name
		if meta.Title != "" && meta.Title != site.Name {
			title = meta.Title + " | " + site.Name
		}
		h.raw("<!DOCTYPE html><html")
		h.attr("lang", site.Lang)
		h.raw(`><head><meta charset="utf-8"/><meta name="viewport" content="width=device-width, initial-scale=1"/>`)
		h.raw(`<meta name="htmx-config"`)
		h.attr("content", htmxConfig)
		h.raw("/><title>")
		h.text(title)
		h.raw("</title>")
		if meta.Description != "" {
			h.raw(`<meta name="description"`)
			h.attr("content", meta.Description)
			h.raw("/>")
		}
		if meta.URL != "" {
			h.raw(`<link rel="canonical"`)
			h.url("href", meta.URL)
			h.raw(`/><meta property="og:url"`)
			h.attr("content", meta.URL)
			h.raw("/>")
		}
		h.raw(`<meta property="og:title"`)
		h.attr("content", title)
		h.raw(`/><meta property="og:type"`)
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}
		h.attr("content", ogType)
		h.raw("/>")
		if meta.Image != "" {
			h.raw(`<meta property="og:image"`)
			h.attr("content", meta.Image)
			h.raw("/>")
		}
		if meta.JSONLD != "" {
			h.raw(`<script type="application/ld+json">`, meta.JSONLD, "</script>")
		}
		h.raw(`<link rel="stylesheet" href="/public/styles.css"/><script defer`)
		h.url("src", site.HTMXSrc)
		h.raw("></script></head><body>")
		h.component(body)
		h.raw("</body></html>")
	})
}

// Header is the logo linking back to the listing.
func Header(site Site) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<header class="header"><a href="/"><img src="/public/logo.svg"`)
		h.attr("alt", site.Name)
		h.raw("/></a></header>")
	})
}
