package spacetraveling

import (
	"strings"
	"unicode/utf8"

	"github.com/eringen/spacetraveling/detail"
	"github.com/eringen/spacetraveling/posts"
	"github.com/eringen/spacetraveling/richtext"
	"github.com/eringen/spacetraveling/views"
)

const descriptionLength = 160

// items reduces summaries to what the listing shows.
func (a *App) items(summaries []posts.Summary) []views.Item {
	out := make([]views.Item, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, views.Item{
			UID:      s.UID,
			Href:     PostPath(s.UID),
			Title:    richtext.AsText(s.Data.Title),
			Subtitle: richtext.AsText(s.Data.Subtitle),
			Author:   richtext.AsText(s.Data.Author),
			Date:     a.dates.Format(s.FirstPublicationDate),
		})
	}
	return out
}

func (a *App) homeMeta() views.PageMeta {
	return views.PageMeta{
		Title:       a.Config.Name,
		Description: a.Config.Description,
		URL:         BuildURL(a.Config.URL),
		OGType:      "website",
		JSONLD:      WebsiteJsonLD(a.Config),
	}
}

// postPage builds the detail template's input. Reading time is computed
// here, on every render.
func (a *App) postPage(d posts.Detail, preview bool) views.PostPage {
	v := detail.NewView(d, a.dates)
	sections := make([]views.Section, 0, len(v.Content))
	for _, s := range v.Content {
		sections = append(sections, views.Section{
			Heading: richtext.AsText(s.Heading),
			Body:    a.html.Component(s.Body),
		})
	}
	return views.PostPage{
		UID:       v.UID,
		Title:     v.Title,
		Author:    v.Author,
		Date:      v.Date,
		Minutes:   v.ReadingTime(a.reading),
		BannerURL: v.Banner.URL,
		BannerAlt: v.Banner.Alt,
		Sections:  sections,
		Preview:   preview,
		Meta: views.PageMeta{
			Title:       v.Title,
			Description: excerpt(richtext.AsText(posts.Body(v.Content)), descriptionLength),
			URL:         BuildURL(a.Config.URL, "post", v.UID),
			OGType:      "article",
			Image:       v.Banner.URL,
			JSONLD:      BlogPostingJsonLD(v, a.Config),
		},
	}
}

// excerpt cuts s to at most n runes on a word boundary.
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)[:n]
	cut := string(r)
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
