package article

import (
	"time"

	"github.com/google/uuid"
)

// Record is a finished article. It is never mutated after emission.
type Record struct {
	ID          string    `json:"id"           mapstructure:"id"           db:"id"`
	Title       string    `json:"title"        mapstructure:"title"        db:"title"`
	Author      string    `json:"author"       mapstructure:"author"       db:"author"`
	PublishedAt string    `json:"published_at" mapstructure:"published_at" db:"published_at"`
	SourceURL   string    `json:"source_url"   mapstructure:"source_url"   db:"source_url"`
	FullText    string    `json:"full_text"    mapstructure:"full_text"    db:"full_text"`
	Pages       int       `json:"pages"        mapstructure:"pages"        db:"pages"`
	CrawledAt   time.Time `json:"crawled_at"   mapstructure:"crawled_at"   db:"crawled_at"`
}

// RecordID derives a stable identifier from the article's first-seen URL, so
// re-crawling the same article overwrites instead of duplicating.
func RecordID(sourceURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(sourceURL)).String()
}

// Draft is the in-flight state of one article.
type Draft struct {
	title       string
	author      string
	publishedAt string
	sourceURL   string
	text        string
	pages       int
}

// SourceURL returns the URL the article was first fetched from.
func (d *Draft) SourceURL() string { return d.sourceURL }

// Pages returns how many body chunks have been appended.
func (d *Draft) Pages() int { return d.pages }

func (d *Draft) appendChunk(chunk string) {
	if d.text != "" {
		d.text += " "
	}
	d.text += chunk
	d.pages++
}

func (d *Draft) finalize(crawledAt time.Time) *Record {
	return &Record{
		ID:          RecordID(d.sourceURL),
		Title:       d.title,
		Author:      d.author,
		PublishedAt: d.publishedAt,
		SourceURL:   d.sourceURL,
		FullText:    d.text,
		Pages:       d.pages,
		CrawledAt:   crawledAt,
	}
}
