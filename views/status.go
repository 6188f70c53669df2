package views

import "github.com/a-h/templ"

func NotFound(site Site) templ.Component {
	return statusPage(site, "404", site.Labels.NotFound)
}

func ServerError(site Site) templ.Component {
	return statusPage(site, "500", site.Labels.ServerError)
}

func statusPage(site Site, code, message string) templ.Component {
	return Layout(site, PageMeta{Title: code}, component(func(h *htmlWriter) {
		h.raw(`<main id="post" class="container"><div class="content">`)
		h.component(Header(site))
		h.raw(`<div class="status"><h1>`)
		h.text(code)
		h.raw("</h1><p>")
		h.text(message)
		h.raw(`</p><a href="/">`)
		h.text(site.Name)
		h.raw("</a></div></div></main>")
	}))
}
