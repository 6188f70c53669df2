package richtext

import (
	"context"
	"fmt"
	"html"
	"io"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
)

// Policy decides what happens to serialized HTML before it reaches a page.
type Policy int

const (
	// Sanitize runs the output through a user-generated-content allowlist.
	Sanitize Policy = iota
	// Trust emits the serialized HTML untouched, embed markup included.
	Trust
)

func (p Policy) String() string {
	switch p {
	case Trust:
		return "trust"
	default:
		return "sanitize"
	}
}

// ParsePolicy maps a config value to a Policy. Empty means Sanitize.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sanitize":
		return Sanitize, nil
	case "trust":
		return Trust, nil
	}
	return Sanitize, fmt.Errorf("richtext: unknown html policy %q", s)
}

// LinkResolver turns a document link into a URL. Web and media links use
// their own URL and never reach the resolver.
type LinkResolver func(d SpanData) string

// Serializer converts rich text to HTML.
type Serializer struct {
	policy       Policy
	linkResolver LinkResolver
	sanitizer    *bluemonday.Policy
}

// NewSerializer returns a Serializer for the given policy. A nil resolver
// links documents to "/<uid>".
func NewSerializer(policy Policy, resolver LinkResolver) *Serializer {
	s := &Serializer{policy: policy, linkResolver: resolver}
	if s.linkResolver == nil {
		s.linkResolver = func(d SpanData) string {
			if d.UID == "" {
				return "/"
			}
			return "/" + d.UID
		}
	}
	if policy == Sanitize {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").Globally()
		p.AllowAttrs("target").OnElements("a")
		p.AllowAttrs("data-oembed", "data-oembed-type", "data-oembed-provider").OnElements("div")
		s.sanitizer = p
	}
	return s
}

// Policy reports the serializer's HTML policy.
func (s *Serializer) Policy() Policy {
	return s.policy
}

// HTML serializes rt and applies the policy.
func (s *Serializer) HTML(rt RichText) string {
	var b strings.Builder
	s.writeBlocks(&b, rt)
	out := b.String()
	if s.sanitizer != nil {
		out = s.sanitizer.Sanitize(out)
	}
	return out
}

// Component returns a templ.Component that renders rt as HTML.
func (s *Serializer) Component(rt RichText) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s.HTML(rt))
		return err
	})
}

// AsHTML serializes rt without sanitizing. Text is always escaped; only
// embed markup and link targets pass through verbatim.
func AsHTML(rt RichText) string {
	return NewSerializer(Trust, nil).HTML(rt)
}

func (s *Serializer) writeBlocks(b *strings.Builder, rt RichText) {
	list := ""
	closeList := func() {
		if list != "" {
			b.WriteString("</" + list + ">")
			list = ""
		}
	}
	for _, blk := range rt {
		want := ""
		switch blk.Type {
		case TypeListItem:
			want = "ul"
		case TypeOListItem:
			want = "ol"
		}
		if want != list {
			closeList()
			if want != "" {
				b.WriteString("<" + want + ">")
				list = want
			}
		}
		s.writeBlock(b, blk)
	}
	closeList()
}

func (s *Serializer) writeBlock(b *strings.Builder, blk Block) {
	switch blk.Type {
	case TypeHeading1, TypeHeading2, TypeHeading3, TypeHeading4, TypeHeading5, TypeHeading6:
		tag := "h" + strings.TrimPrefix(blk.Type, "heading")
		s.wrap(b, tag, blk)
	case TypeParagraph:
		s.wrap(b, "p", blk)
	case TypePreformatted:
		s.wrap(b, "pre", blk)
	case TypeListItem, TypeOListItem:
		s.wrap(b, "li", blk)
	case TypeImage:
		img := `<img src="` + html.EscapeString(blk.URL) + `" alt="` + html.EscapeString(blk.Alt) + `"`
		if blk.Dimensions != nil {
			img += fmt.Sprintf(` width="%d" height="%d"`, blk.Dimensions.Width, blk.Dimensions.Height)
		}
		img += ` />`
		b.WriteString(`<p class="block-img">`)
		if blk.LinkTo != nil {
			b.WriteString(s.openLink(*blk.LinkTo))
			b.WriteString(img)
			b.WriteString("</a>")
		} else {
			b.WriteString(img)
		}
		b.WriteString("</p>")
	case TypeEmbed:
		if blk.Oembed == nil {
			return
		}
		fmt.Fprintf(b, `<div data-oembed="%s" data-oembed-type="%s" data-oembed-provider="%s">%s</div>`,
			html.EscapeString(blk.Oembed.EmbedURL),
			html.EscapeString(blk.Oembed.Type),
			html.EscapeString(strings.ToLower(blk.Oembed.ProviderName)),
			blk.Oembed.HTML)
	default:
		// Unknown block types degrade to a paragraph so no text is lost.
		s.wrap(b, "p", blk)
	}
}

func (s *Serializer) wrap(b *strings.Builder, tag string, blk Block) {
	b.WriteString("<" + tag)
	if blk.Direction == "rtl" {
		b.WriteString(` dir="rtl"`)
	}
	b.WriteString(">")
	s.writeInline(b, blk)
	b.WriteString("</" + tag + ">")
}

// writeInline renders a block's text with its spans. Overlapping spans are
// closed and reopened at each boundary so the output stays well formed.
func (s *Serializer) writeInline(b *strings.Builder, blk Block) {
	units := utf16.Encode([]rune(blk.Text))
	n := len(units)

	spans := make([]Span, 0, len(blk.Spans))
	for _, sp := range blk.Spans {
		if sp.Start < 0 {
			sp.Start = 0
		}
		if sp.End > n {
			sp.End = n
		}
		if sp.Start >= sp.End {
			continue
		}
		spans = append(spans, sp)
	}
	if len(spans) == 0 {
		b.WriteString(escapeText(blk.Text))
		return
	}
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End > spans[j].End
	})

	seen := map[int]struct{}{0: {}, n: {}}
	points := []int{0, n}
	for _, sp := range spans {
		for _, p := range []int{sp.Start, sp.End} {
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				points = append(points, p)
			}
		}
	}
	sort.Ints(points)

	var stack []int
	for i := 0; i+1 < len(points); i++ {
		from, to := points[i], points[i+1]
		var active []int
		for j, sp := range spans {
			if sp.Start <= from && sp.End >= to {
				active = append(active, j)
			}
		}
		k := 0
		for k < len(stack) && k < len(active) && stack[k] == active[k] {
			k++
		}
		for len(stack) > k {
			b.WriteString(closeTag(spans[stack[len(stack)-1]]))
			stack = stack[:len(stack)-1]
		}
		for _, j := range active[k:] {
			b.WriteString(s.openTag(spans[j]))
			stack = append(stack, j)
		}
		b.WriteString(escapeText(string(utf16.Decode(units[from:to]))))
	}
	for len(stack) > 0 {
		b.WriteString(closeTag(spans[stack[len(stack)-1]]))
		stack = stack[:len(stack)-1]
	}
}

func (s *Serializer) openTag(sp Span) string {
	switch sp.Type {
	case SpanStrong:
		return "<strong>"
	case SpanEm:
		return "<em>"
	case SpanHyperlink:
		if sp.Data == nil {
			return "<a>"
		}
		return s.openLink(*sp.Data)
	case SpanLabel:
		label := ""
		if sp.Data != nil {
			label = sp.Data.Label
		}
		return `<span class="` + html.EscapeString(label) + `">`
	}
	return "<span>"
}

func closeTag(sp Span) string {
	switch sp.Type {
	case SpanStrong:
		return "</strong>"
	case SpanEm:
		return "</em>"
	case SpanHyperlink:
		return "</a>"
	}
	return "</span>"
}

func (s *Serializer) openLink(d SpanData) string {
	href := d.URL
	if d.LinkType == "Document" {
		href = s.linkResolver(d)
	}
	tag := `<a href="` + html.EscapeString(href) + `"`
	if d.Target != "" {
		tag += ` target="` + html.EscapeString(d.Target) + `" rel="noopener"`
	}
	return tag + ">"
}

func escapeText(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br />")
}
