// Package posts holds the blog's content types and the pure functions built
// on them: decoding from Prismic documents, display dates and reading time.
package posts

import (
	"fmt"
	"time"

	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/richtext"
)

// DocumentType is the Prismic custom type holding blog posts.
const DocumentType = "posts"

// SummaryFields is the projection used by the listing page.
var SummaryFields = []string{"posts.title", "posts.subtitle", "posts.author"}

// SummaryData is the projected data block of a post summary.
type SummaryData struct {
	Title    richtext.RichText `json:"title"`
	Subtitle richtext.RichText `json:"subtitle"`
	Author   richtext.RichText `json:"author"`
}

// Summary is a post as shown on the listing page.
type Summary struct {
	UID                  string      `json:"uid"`
	FirstPublicationDate *time.Time  `json:"first_publication_date"`
	Data                 SummaryData `json:"data"`
}

// Image is a banner reference.
type Image struct {
	URL        string               `json:"url"`
	Alt        string               `json:"alt,omitempty"`
	Dimensions *richtext.Dimensions `json:"dimensions,omitempty"`
}

// Section is one heading/body group of a post's content.
type Section struct {
	Heading richtext.RichText `json:"heading"`
	Body    richtext.RichText `json:"body"`
}

// DetailData is the full data block of a post.
type DetailData struct {
	Title   richtext.RichText `json:"title"`
	Author  richtext.RichText `json:"author"`
	Banner  Image             `json:"banner"`
	Content []Section         `json:"content"`
}

// Detail is a fully fetched post.
type Detail struct {
	UID                  string     `json:"uid"`
	FirstPublicationDate *time.Time `json:"first_publication_date"`
	Data                 DetailData `json:"data"`
}

// SummaryFromDocument decodes a listing document.
func SummaryFromDocument(doc prismic.Document) (Summary, error) {
	s := Summary{UID: doc.UID}
	if err := doc.DecodeData(&s.Data); err != nil {
		return Summary{}, err
	}
	ts, err := publicationDate(doc)
	if err != nil {
		return Summary{}, err
	}
	s.FirstPublicationDate = ts
	return s, nil
}

// SummariesFromDocuments decodes docs in order.
func SummariesFromDocuments(docs []prismic.Document) ([]Summary, error) {
	out := make([]Summary, 0, len(docs))
	for _, doc := range docs {
		s, err := SummaryFromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// DetailFromDocument decodes a full post document.
func DetailFromDocument(doc prismic.Document) (Detail, error) {
	d := Detail{UID: doc.UID}
	if err := doc.DecodeData(&d.Data); err != nil {
		return Detail{}, err
	}
	ts, err := publicationDate(doc)
	if err != nil {
		return Detail{}, err
	}
	d.FirstPublicationDate = ts
	return d, nil
}

func publicationDate(doc prismic.Document) (*time.Time, error) {
	if doc.FirstPublicationDate == nil || *doc.FirstPublicationDate == "" {
		return nil, nil
	}
	t, err := prismic.ParseTime(*doc.FirstPublicationDate)
	if err != nil {
		return nil, fmt.Errorf("posts: %s: %w", doc.UID, err)
	}
	return &t, nil
}

// Body flattens every section body into one rich text value.
func Body(sections []Section) richtext.RichText {
	bodies := make([]richtext.RichText, len(sections))
	for i, s := range sections {
		bodies[i] = s.Body
	}
	return richtext.Concat(bodies...)
}
