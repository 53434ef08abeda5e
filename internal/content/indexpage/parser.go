// Package indexpage extracts article links and pagination from a daily index page.
package indexpage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// ErrMalformedMarkup is returned when an index page cannot be parsed.
var ErrMalformedMarkup = errors.New("malformed index markup")

// Selectors locate links on an index page.
type Selectors struct {
	// ArticleLinks matches every article title anchor.
	ArticleLinks string `mapstructure:"article_links" yaml:"article_links"`
	// Pagination matches the pagination anchors; the last one is the next page.
	Pagination string `mapstructure:"pagination" yaml:"pagination"`
}

// DefaultSelectors returns the selectors for news.detik.com index pages.
func DefaultSelectors() Selectors {
	return Selectors{
		ArticleLinks: "h3.media__title > a",
		Pagination:   "div.pagination > a",
	}
}

// Validate checks that both selectors are present and compile.
func (s *Selectors) Validate() error {
	_, _, err := s.compile()
	return err
}

func (s *Selectors) compile() (articles, pagination cascadia.Selector, err error) {
	if s.ArticleLinks == "" {
		return nil, nil, errors.New("article_links selector is required")
	}
	if s.Pagination == "" {
		return nil, nil, errors.New("pagination selector is required")
	}
	if articles, err = cascadia.Compile(s.ArticleLinks); err != nil {
		return nil, nil, fmt.Errorf("invalid article_links selector %q: %w", s.ArticleLinks, err)
	}
	if pagination, err = cascadia.Compile(s.Pagination); err != nil {
		return nil, nil, fmt.Errorf("invalid pagination selector %q: %w", s.Pagination, err)
	}
	return articles, pagination, nil
}

// Result is what one index page yields. Hrefs are returned as found, unresolved.
type Result struct {
	ArticleURLs []string
	// NextPageURL is empty when the page has no pagination anchor.
	NextPageURL string
}

// HasNext reports whether a further index page was found.
func (r Result) HasNext() bool {
	return r.NextPageURL != ""
}

// Parser is stateless and safe for concurrent use.
type Parser struct {
	articles   cascadia.Selector
	pagination cascadia.Selector
}

// NewParser compiles the selectors.
func NewParser(selectors Selectors) (*Parser, error) {
	articles, pagination, err := selectors.compile()
	if err != nil {
		return nil, err
	}
	return &Parser{articles: articles, pagination: pagination}, nil
}

// Parse extracts article hrefs in document order and the href of the last
// pagination anchor.
func (p *Parser) Parse(markup []byte) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrMalformedMarkup, err)
	}

	var result Result
	doc.FindMatcher(p.articles).Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			result.ArticleURLs = append(result.ArticleURLs, href)
		}
	})

	var last string
	doc.FindMatcher(p.pagination).Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			last = href
		}
	})
	result.NextPageURL = last

	return result, nil
}
