package article

import (
	"errors"
	"fmt"

	"github.com/andybalholm/cascadia"
)

// Selectors locate the parts of an article page.
type Selectors struct {
	// Body is the article body container; its outer markup is what gets cleaned.
	Body string `mapstructure:"body" yaml:"body"`
	// Title, Author and PublishedAt are read from the element's own text.
	Title       string `mapstructure:"title" yaml:"title"`
	Author      string `mapstructure:"author" yaml:"author"`
	PublishedAt string `mapstructure:"published_at" yaml:"published_at"`
	// Continuation is the anchor pointing at the next page of the same article.
	Continuation string `mapstructure:"continuation" yaml:"continuation"`
}

// DefaultSelectors returns the selectors for news.detik.com article pages.
func DefaultSelectors() Selectors {
	return Selectors{
		Body:         "div.detail__body-text",
		Title:        "h1.detail__title",
		Author:       "div.detail__author",
		PublishedAt:  "div.detail__date",
		Continuation: "div.detail__body-text > div.detail__long-nav > a",
	}
}

// Validate checks that every selector is present and compiles.
func (s *Selectors) Validate() error {
	_, err := s.compile()
	return err
}

type compiledSelectors struct {
	body         cascadia.Selector
	title        cascadia.Selector
	author       cascadia.Selector
	publishedAt  cascadia.Selector
	continuation cascadia.Selector
}

func (s *Selectors) compile() (*compiledSelectors, error) {
	out := &compiledSelectors{}
	fields := []struct {
		name string
		sel  string
		dst  *cascadia.Selector
	}{
		{"body", s.Body, &out.body},
		{"title", s.Title, &out.title},
		{"author", s.Author, &out.author},
		{"published_at", s.PublishedAt, &out.publishedAt},
		{"continuation", s.Continuation, &out.continuation},
	}
	for _, f := range fields {
		if f.sel == "" {
			return nil, errors.New(f.name + " selector is required")
		}
		compiled, err := cascadia.Compile(f.sel)
		if err != nil {
			return nil, fmt.Errorf("invalid %s selector %q: %w", f.name, f.sel, err)
		}
		*f.dst = compiled
	}
	return out, nil
}
