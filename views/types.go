package views

import "github.com/a-h/templ"

// Labels are the user-facing strings. Defaults are Brazilian Portuguese.
type Labels struct {
	LoadMore    string
	Loading     string
	LoadFailed  string
	NotFound    string
	ServerError string
	ExitPreview string
	Minutes     string
}

// Site holds site-wide settings every page needs.
type Site struct {
	Name        string
	URL         string
	Description string
	Lang        string // html lang attribute, e.g. "pt-BR"
	HTMXSrc     string
	Labels      Labels
}

// WithDefaults fills empty fields.
func (s Site) WithDefaults() Site {
	if s.Name == "" {
		s.Name = "spacetraveling"
	}
	if s.Lang == "" {
		s.Lang = "pt-BR"
	}
	if s.HTMXSrc == "" {
		s.HTMXSrc = "https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"
	}
	l := &s.Labels
	if l.LoadMore == "" {
		l.LoadMore = "Carregar mais posts"
	}
	if l.Loading == "" {
		l.Loading = "Carregando..."
	}
	if l.LoadFailed == "" {
		l.LoadFailed = "Não foi possível carregar mais posts. Tente novamente."
	}
	if l.NotFound == "" {
		l.NotFound = "Post não encontrado."
	}
	if l.ServerError == "" {
		l.ServerError = "Algo deu errado. Tente novamente em instantes."
	}
	if l.ExitPreview == "" {
		l.ExitPreview = "Sair do modo Preview"
	}
	if l.Minutes == "" {
		l.Minutes = "min"
	}
	return s
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head>.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
	JSONLD      string
}

// Item is one post on the listing page, already reduced to plain text.
type Item struct {
	UID      string
	Href     string
	Title    string
	Subtitle string
	Author   string
	Date     string
}

// More describes the load-more affordance. An empty URL hides it.
type More struct {
	URL string
}

// Section is a rendered content section.
type Section struct {
	Heading string
	Body    templ.Component
}

// PostPage is everything the post template shows.
type PostPage struct {
	UID       string
	Title     string
	Author    string
	Date      string
	Minutes   int
	BannerURL string
	BannerAlt string
	Sections  []Section
	Preview   bool
	Meta      PageMeta
}
