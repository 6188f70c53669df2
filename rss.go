package spacetraveling

import (
	"encoding/xml"
	"io"
	"time"

	"github.com/eringen/spacetraveling/posts"
	"github.com/eringen/spacetraveling/richtext"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language,omitempty"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Author      string `xml:"author,omitempty"`
	PubDate     string `xml:"pubDate,omitempty"`
	GUID        string `xml:"guid"`
}

func (a *App) writeFeed(w io.Writer, summaries []posts.Summary) error {
	base := a.Config.URL
	items := make([]rssItem, 0, len(summaries))
	for _, s := range summaries {
		pubDate := ""
		if s.FirstPublicationDate != nil {
			pubDate = s.FirstPublicationDate.Format(time.RFC1123Z)
		}
		postURL := BuildURL(base, "post", s.UID)
		items = append(items, rssItem{
			Title:       richtext.AsText(s.Data.Title),
			Link:        postURL,
			Description: richtext.AsText(s.Data.Subtitle),
			Author:      richtext.AsText(s.Data.Author),
			PubDate:     pubDate,
			GUID:        postURL,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        BuildURL(base),
			Description: a.Config.Description,
			Language:    a.Config.Locale,
			Items:       items,
		},
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	return xml.NewEncoder(w).Encode(feed)
}
