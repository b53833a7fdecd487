package types

import (
	"time"
)

// DefaultCategory is the label given to articles whose listing carries no category.
const DefaultCategory = "Umum"

// Article is a stored news record. Stores assign ID and ScrapedAt; the
// record is never mutated afterwards.
type Article struct {
	ID            int64     `json:"id"             bson:"_id"`
	Title         string    `json:"title"          bson:"title"`
	Excerpt       string    `json:"excerpt"        bson:"excerpt"`
	URL           string    `json:"url"            bson:"url"`
	Category      string    `json:"category"       bson:"category"`
	PublishedDate string    `json:"published_date" bson:"published_date"`
	ScrapedAt     time.Time `json:"scraped_at"     bson:"scraped_at"`
}

// Candidate is an extracted article that has not been persisted yet.
type Candidate struct {
	Title         string `json:"title"`
	Excerpt       string `json:"excerpt,omitempty"`
	URL           string `json:"url"`
	Category      string `json:"category"`
	PublishedDate string `json:"published_date"`
}

// NewArticle builds the stored form of a candidate.
func NewArticle(id int64, c Candidate, scrapedAt time.Time) Article {
	return Article{
		ID:            id,
		Title:         c.Title,
		Excerpt:       c.Excerpt,
		URL:           c.URL,
		Category:      c.Category,
		PublishedDate: c.PublishedDate,
		ScrapedAt:     scrapedAt,
	}
}

// Clone creates a copy of the candidate.
func (c *Candidate) Clone() *Candidate {
	clone := *c
	return &clone
}
