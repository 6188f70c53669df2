package posts

import (
	"fmt"
	"time"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"
)

// DisplayLayout is day, abbreviated month, year: "25 Mar 2021".
const DisplayLayout = "02 Jan 2006"

// DateFormatter renders publication dates with localized month names.
type DateFormatter struct {
	Locale   monday.Locale
	Layout   string
	Location *time.Location
}

// NewDateFormatter parses a BCP 47 or POSIX-style locale ("pt-BR", "en_US").
func NewDateFormatter(locale string) (DateFormatter, error) {
	loc, err := ParseLocale(locale)
	if err != nil {
		return DateFormatter{}, err
	}
	return DateFormatter{Locale: loc, Layout: DisplayLayout, Location: time.UTC}, nil
}

// Format returns the display date, or "" when t is nil.
func (f DateFormatter) Format(t *time.Time) string {
	if t == nil {
		return ""
	}
	layout := f.Layout
	if layout == "" {
		layout = DisplayLayout
	}
	when := *t
	if f.Location != nil {
		when = when.In(f.Location)
	}
	locale := f.Locale
	if locale == "" {
		locale = monday.LocaleEnUS
	}
	return monday.Format(when, layout, locale)
}

// ParseLocale maps a language tag to a supported monday locale. An empty
// string means en_US.
func ParseLocale(s string) (monday.Locale, error) {
	if s == "" {
		return monday.LocaleEnUS, nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("posts: parse locale %q: %w", s, err)
	}
	base, _ := tag.Base()
	region, _ := tag.Region()
	want := monday.Locale(base.String() + "_" + region.String())
	for _, l := range monday.ListLocales() {
		if l == want {
			return l, nil
		}
	}
	return "", fmt.Errorf("posts: unsupported locale %q", s)
}
