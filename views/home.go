package views

import "github.com/a-h/templ"

// Home is the listing page.
func Home(site Site, meta PageMeta, items []Item, more More) templ.Component {
	return Layout(site, meta, component(func(h *htmlWriter) {
		h.raw(`<main class="container"><div class="content"><img class="logo" src="/public/logo.svg" alt="logo"/>`)
		h.raw(`<div id="posts" class="posts">`)
		h.component(Items(items))
		h.raw("</div>")
		h.component(LoadMore(site, more))
		h.raw(`<div id="load-more-error" class="load-error" role="alert"></div>`)
		h.raw("</div></main>")
	}))
}

// Items renders listing entries. It is the fragment appended on load more.
func Items(items []Item) templ.Component {
	return component(func(h *htmlWriter) {
		for _, it := range items {
			h.raw(`<a class="post"`)
			h.url("href", it.Href)
			h.raw("><strong>")
			h.text(it.Title)
			h.raw("</strong><p>")
			h.text(it.Subtitle)
			h.raw(`</p><div class="info"><span class="date"><time>`)
			h.text(it.Date)
			h.raw(`</time></span><span class="author">`)
			h.text(it.Author)
			h.raw("</span></div></a>")
		}
	})
}

// LoadMore renders the load-more button, or an empty slot once there is
// nothing left to load. The button disables itself while its request runs
// and drops repeated clicks.
func LoadMore(site Site, more More) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div id="load-more">`)
		writeButton(h, site, more)
		h.raw("</div>")
	})
}

func writeButton(h *htmlWriter, site Site, more More) {
	if more.URL == "" {
		return
	}
	h.raw(`<button type="button" class="next-posts"`)
	h.url("hx-get", more.URL)
	h.raw(` hx-target="#posts" hx-swap="beforeend" hx-disabled-elt="this" hx-sync="this:drop"><p>`)
	h.text(site.Labels.LoadMore)
	h.raw("</p></button>")
}

// MorePosts is the load-more response: new entries for #posts plus an
// out-of-band replacement of the button and a cleared error slot.
func MorePosts(site Site, items []Item, more More) templ.Component {
	return component(func(h *htmlWriter) {
		h.component(Items(items))
		h.raw(`<div id="load-more" hx-swap-oob="true">`)
		writeButton(h, site, more)
		h.raw(`</div><div id="load-more-error" class="load-error" role="alert" hx-swap-oob="true"></div>`)
	})
}

// LoadFailed fills the error slot and leaves the list and button alone.
func LoadFailed(site Site) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div id="load-more-error" class="load-error" role="alert" hx-swap-oob="true">`)
		h.text(site.Labels.LoadFailed)
		h.raw("</div>")
	})
}
