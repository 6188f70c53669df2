package posts

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/goodsign/monday"

	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/richtext"
)

func words(n int) richtext.RichText {
	return richtext.Plain(strings.TrimSpace(strings.Repeat("palavra ", n)))
}

func TestReadingTimeRoundsUp(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 0},
		{1, 1},
		{200, 1},
		{201, 2},
		{400, 2},
		{401, 3},
	}
	p := ReadingPolicy{WordsPerMinute: 200}
	for _, tt := range tests {
		sections := []Section{{Heading: richtext.Plain("h"), Body: words(tt.words)}}
		if tt.words == 0 {
			sections = []Section{{Heading: richtext.Plain("h")}}
		}
		if got := p.Minutes(sections); got != tt.want {
			t.Errorf("Minutes(%d words) = %d, want %d", tt.words, got, tt.want)
		}
	}
}

func TestReadingTimeMinimumPolicy(t *testing.T) {
	p := ReadingPolicy{WordsPerMinute: 200, MinimumMinutes: 1}
	if got := p.Minutes(nil); got != 1 {
		t.Errorf("Minutes(nil) with floor = %d, want 1", got)
	}
	if got := (ReadingPolicy{}).Minutes([]Section{{Body: words(250)}}); got != 2 {
		t.Errorf("zero policy should default to 200 wpm, got %d", got)
	}
}

func TestReadingTimeFlattensSections(t *testing.T) {
	sections := []Section{
		{Heading: richtext.Plain("ignored heading words"), Body: words(150)},
		{Heading: richtext.Plain("more"), Body: richtext.RichText{
			{Type: richtext.TypeParagraph, Text: strings.TrimSpace(strings.Repeat("a ", 30))},
			{Type: richtext.TypeListItem, Text: strings.TrimSpace(strings.Repeat("b ", 21))},
		}},
	}
	if got := WordCount(sections); got != 201 {
		t.Errorf("WordCount = %d, want 201", got)
	}
	if got := (ReadingPolicy{WordsPerMinute: 200}).Minutes(sections); got != 2 {
		t.Errorf("Minutes = %d, want 2", got)
	}
}

func TestFormatDate(t *testing.T) {
	f, err := NewDateFormatter("en-US")
	if err != nil {
		t.Fatalf("NewDateFormatter: %v", err)
	}
	ts := time.Date(2021, time.March, 25, 19, 25, 28, 0, time.UTC)
	if got := f.Format(&ts); got != "25 Mar 2021" {
		t.Errorf("Format = %q, want %q", got, "25 Mar 2021")
	}
	if got := f.Format(nil); got != "" {
		t.Errorf("Format(nil) = %q, want empty", got)
	}
}

func TestFormatDateLocalizedMonth(t *testing.T) {
	f, err := NewDateFormatter("pt-BR")
	if err != nil {
		t.Fatalf("NewDateFormatter: %v", err)
	}
	if f.Locale != monday.LocalePtBR {
		t.Errorf("Locale = %q, want %q", f.Locale, monday.LocalePtBR)
	}
	ts := time.Date(2021, time.February, 3, 0, 0, 0, 0, time.UTC)
	got := f.Format(&ts)
	if !strings.Contains(strings.ToLower(got), "fev") {
		t.Errorf("Format = %q, want portuguese month name", got)
	}
	if !strings.HasPrefix(got, "03 ") || !strings.HasSuffix(got, " 2021") {
		t.Errorf("Format = %q, want day-month-year layout", got)
	}
}

func TestParseLocale(t *testing.T) {
	if l, err := ParseLocale(""); err != nil || l != monday.LocaleEnUS {
		t.Errorf("ParseLocale(\"\") = %q, %v", l, err)
	}
	if l, err := ParseLocale("en_US"); err != nil || l != monday.LocaleEnUS {
		t.Errorf("ParseLocale(en_US) = %q, %v", l, err)
	}
	if _, err := ParseLocale("not a locale!"); err == nil {
		t.Error("expected error for invalid tag")
	}
}

func TestSummaryFromDocument(t *testing.T) {
	ts := "2021-03-25T19:25:28+0000"
	doc := prismic.Document{
		UID:                  "como-utilizar-hooks",
		Type:                 DocumentType,
		FirstPublicationDate: &ts,
		Data: json.RawMessage(`{
			"title": [{"type":"heading1","text":"Como utilizar Hooks","spans":[]}],
			"subtitle": [{"type":"paragraph","text":"Pensando em sincronização","spans":[]}],
			"author": [{"type":"paragraph","text":"Joseph Oliveira","spans":[]}]
		}`),
	}
	s, err := SummaryFromDocument(doc)
	if err != nil {
		t.Fatalf("SummaryFromDocument: %v", err)
	}
	if s.UID != "como-utilizar-hooks" {
		t.Errorf("UID = %q", s.UID)
	}
	if richtext.AsText(s.Data.Title) != "Como utilizar Hooks" {
		t.Errorf("Title = %q", richtext.AsText(s.Data.Title))
	}
	if richtext.AsText(s.Data.Author) != "Joseph Oliveira" {
		t.Errorf("Author = %q", richtext.AsText(s.Data.Author))
	}
	if s.FirstPublicationDate == nil || s.FirstPublicationDate.Day() != 25 {
		t.Errorf("FirstPublicationDate = %v", s.FirstPublicationDate)
	}
}

func TestSummaryWithoutDate(t *testing.T) {
	s, err := SummaryFromDocument(prismic.Document{UID: "draft", Data: json.RawMessage(`{}`)})
	if err != nil {
		t.Fatalf("SummaryFromDocument: %v", err)
	}
	if s.FirstPublicationDate != nil {
		t.Errorf("FirstPublicationDate = %v, want nil", s.FirstPublicationDate)
	}
}

func TestDetailFromDocument(t *testing.T) {
	ts := "2021-03-25T19:25:28+0000"
	doc := prismic.Document{
		UID:                  "hooks",
		FirstPublicationDate: &ts,
		Data: json.RawMessage(`{
			"title": [{"type":"heading1","text":"Hooks","spans":[]}],
			"author": [{"type":"paragraph","text":"Ana","spans":[]}],
			"banner": {"url":"https://images.prismic.io/banner.png","alt":"space"},
			"content": [
				{"heading":"Proin et varius","body":[{"type":"paragraph","text":"Lorem ipsum dolor","spans":[]}]},
				{"heading":[{"type":"heading2","text":"Cras laoreet","spans":[]}],"body":[]}
			]
		}`),
	}
	d, err := DetailFromDocument(doc)
	if err != nil {
		t.Fatalf("DetailFromDocument: %v", err)
	}
	if d.Data.Banner.URL != "https://images.prismic.io/banner.png" || d.Data.Banner.Alt != "space" {
		t.Errorf("Banner = %+v", d.Data.Banner)
	}
	if len(d.Data.Content) != 2 {
		t.Fatalf("Content sections = %d, want 2", len(d.Data.Content))
	}
	if got := richtext.AsText(d.Data.Content[0].Heading); got != "Proin et varius" {
		t.Errorf("string heading = %q", got)
	}
	if got := richtext.AsText(d.Data.Content[1].Heading); got != "Cras laoreet" {
		t.Errorf("rich heading = %q", got)
	}
	if WordCount(d.Data.Content) != 3 {
		t.Errorf("WordCount = %d, want 3", WordCount(d.Data.Content))
	}
}

func TestDetailFromDocumentBadDate(t *testing.T) {
	ts := "someday"
	_, err := DetailFromDocument(prismic.Document{UID: "x", FirstPublicationDate: &ts})
	if err == nil {
		t.Error("expected error for unparseable date")
	}
}
