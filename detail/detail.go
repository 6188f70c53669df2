// Package detail builds the single-post page: the set of known routes, the
// props for one post and a lazy resolver for posts not known in advance.
package detail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eringen/spacetraveling/posts"
	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/richtext"
)

// ErrNotFound is returned when the content source has no post for a UID.
var ErrNotFound = errors.New("detail: post not found")

// Source is the part of the content client the detail page uses.
type Source interface {
	QueryAll(ctx context.Context, preds []prismic.Predicate, opts prismic.QueryOptions) ([]prismic.Document, error)
	GetByUID(ctx context.Context, docType, uid string, opts prismic.QueryOptions) (*prismic.Document, error)
}

// Paths is the route set known up front. Fallback means UIDs outside the
// set are still resolved on request instead of answering not found.
type Paths struct {
	UIDs     []string
	Fallback bool
}

// StaticPaths enumerates every post UID.
func StaticPaths(ctx context.Context, src Source) (Paths, error) {
	docs, err := src.QueryAll(ctx, []prismic.Predicate{prismic.At("document.type", posts.DocumentType)}, prismic.QueryOptions{
		Fetch: []string{"posts.uid"},
	})
	if err != nil {
		return Paths{}, fmt.Errorf("detail: enumerate posts: %w", err)
	}
	uids := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.UID != "" {
			uids = append(uids, d.UID)
		}
	}
	return Paths{UIDs: uids, Fallback: true}, nil
}

// Fetch retrieves and decodes one post.
func Fetch(ctx context.Context, src Source, uid string) (posts.Detail, error) {
	doc, err := src.GetByUID(ctx, posts.DocumentType, uid, prismic.QueryOptions{})
	if errors.Is(err, prismic.ErrNotFound) {
		return posts.Detail{}, ErrNotFound
	}
	if err != nil {
		return posts.Detail{}, fmt.Errorf("detail: fetch %s: %w", uid, err)
	}
	return posts.DetailFromDocument(*doc)
}

// View is what the post page renders. Title, author and date are already
// plain text; content and banner pass through untouched.
type View struct {
	UID       string
	Title     string
	Author    string
	Date      string
	Published *time.Time
	Banner    posts.Image
	Content   []posts.Section
}

// NewView converts a fetched post into page props.
func NewView(d posts.Detail, dates posts.DateFormatter) View {
	return View{
		UID:       d.UID,
		Title:     richtext.AsText(d.Data.Title),
		Author:    richtext.AsText(d.Data.Author),
		Date:      dates.Format(d.FirstPublicationDate),
		Published: d.FirstPublicationDate,
		Banner:    d.Data.Banner,
		Content:   d.Data.Content,
	}
}

// Props fetches uid and builds its View.
func Props(ctx context.Context, src Source, uid string, dates posts.DateFormatter) (View, error) {
	d, err := Fetch(ctx, src, uid)
	if err != nil {
		return View{}, err
	}
	return NewView(d, dates), nil
}

// ReadingTime estimates minutes to read the content. It is recomputed on
// every call.
func (v View) ReadingTime(p posts.ReadingPolicy) int {
	return p.Minutes(v.Content)
}
