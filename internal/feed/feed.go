// Package feed renders stored articles as an RSS 2.0 document.
package feed

import (
	"fmt"
	"io"
	"time"

	"github.com/gorilla/feeds"

	"github.com/IshaanNene/newsrelay/internal/config"
	"github.com/IshaanNene/newsrelay/internal/types"
)

// ContentType is the media type of a rendered feed.
const ContentType = "application/rss+xml; charset=utf-8"

// Build converts articles, newest first, into a feed. now is used for the
// channel timestamp when there are no articles.
func Build(articles []types.Article, cfg config.FeedConfig, now time.Time) *feeds.Feed {
	f := &feeds.Feed{
		Title:       cfg.Title,
		Link:        &feeds.Link{Href: cfg.Link},
		Description: cfg.Description,
		Created:     now,
		Items:       make([]*feeds.Item, 0, len(articles)),
	}

	for i, a := range articles {
		created := itemTime(a)
		if i == 0 {
			f.Created = created
		}
		f.Items = append(f.Items, &feeds.Item{
			Title:       a.Title,
			Link:        &feeds.Link{Href: a.URL},
			Description: a.Excerpt,
			Id:          a.URL,
			Created:     created,
		})
	}
	return f
}

// Write renders articles as RSS 2.0 to w. Item categories are set on the
// RSS form since the generic feed item has no category.
func Write(w io.Writer, articles []types.Article, cfg config.FeedConfig, now time.Time) error {
	rss := (&feeds.Rss{Feed: Build(articles, cfg, now)}).RssFeed()
	for i, item := range rss.Items {
		if i < len(articles) {
			item.Category = articles[i].Category
		}
	}
	if err := feeds.WriteXML(rss, w); err != nil {
		return fmt.Errorf("write rss: %w", err)
	}
	return nil
}

// itemTime is the article's published date, or when it was scraped if the
// date is missing or unparseable.
func itemTime(a types.Article) time.Time {
	if a.PublishedDate != "" {
		if t, err := time.Parse(time.DateOnly, a.PublishedDate); err == nil {
			return t
		}
	}
	return a.ScrapedAt
}
