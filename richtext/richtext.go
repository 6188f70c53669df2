// Package richtext models Prismic structured text and converts it to plain
// text or HTML. HTML output can be sanitized or trusted as-is, see Policy.
package richtext

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Block types produced by the Prismic rich text editor.
const (
	TypeHeading1     = "heading1"
	TypeHeading2     = "heading2"
	TypeHeading3     = "heading3"
	TypeHeading4     = "heading4"
	TypeHeading5     = "heading5"
	TypeHeading6     = "heading6"
	TypeParagraph    = "paragraph"
	TypePreformatted = "preformatted"
	TypeListItem     = "list-item"
	TypeOListItem    = "o-list-item"
	TypeImage        = "image"
	TypeEmbed        = "embed"
)

// Span types.
const (
	SpanStrong    = "strong"
	SpanEm        = "em"
	SpanHyperlink = "hyperlink"
	SpanLabel     = "label"
)

// Span styles a range of a block's text. Start and End are UTF-16 offsets,
// which is how the Prismic API counts them.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"`
	Data  *SpanData `json:"data,omitempty"`
}

// SpanData carries the link target of a hyperlink span or the name of a label.
type SpanData struct {
	LinkType string `json:"link_type,omitempty"`
	URL      string `json:"url,omitempty"`
	Target   string `json:"target,omitempty"`
	ID       string `json:"id,omitempty"`
	UID      string `json:"uid,omitempty"`
	Type     string `json:"type,omitempty"`
	Label    string `json:"label,omitempty"`
}

// Dimensions of an image block.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Embed is the oEmbed payload of an embed block.
type Embed struct {
	Type         string `json:"type,omitempty"`
	EmbedURL     string `json:"embed_url,omitempty"`
	ProviderName string `json:"provider_name,omitempty"`
	HTML         string `json:"html,omitempty"`
}

// Block is one node of a rich text value: a heading, a paragraph, a list
// item, an image or an embed.
type Block struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	Spans      []Span      `json:"spans,omitempty"`
	URL        string      `json:"url,omitempty"`
	Alt        string      `json:"alt,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	LinkTo     *SpanData   `json:"linkTo,omitempty"`
	Oembed     *Embed      `json:"oembed,omitempty"`
	Direction  string      `json:"direction,omitempty"`
}

// RichText is an ordered sequence of blocks.
type RichText []Block

// Plain wraps s in a single unstyled paragraph.
func Plain(s string) RichText {
	return RichText{{Type: TypeParagraph, Text: s}}
}

// UnmarshalJSON accepts the regular array form, a bare string (Key Text
// fields such as section headings) and null.
func (rt *RichText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*rt = nil
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*rt = nil
			return nil
		}
		*rt = Plain(s)
		return nil
	}
	var blocks []Block
	if err := json.Unmarshal(b, &blocks); err != nil {
		return err
	}
	*rt = blocks
	return nil
}

// AsText extracts the text of every block, joined by a single space.
// Images and embeds carry no text and are skipped.
func AsText(rt RichText) string {
	return AsTextJoin(rt, " ")
}

// AsTextJoin is AsText with a custom block separator.
func AsTextJoin(rt RichText, sep string) string {
	parts := make([]string, 0, len(rt))
	for _, b := range rt {
		if b.Type == TypeImage || b.Type == TypeEmbed {
			continue
		}
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, sep)
}

// Concat flattens several rich text values into one, preserving order.
func Concat(values ...RichText) RichText {
	n := 0
	for _, v := range values {
		n += len(v)
	}
	out := make(RichText, 0, n)
	for _, v := range values {
		out = append(out, v...)
	}
	return out
}
