// Package article reassembles one article from the pages it is split across.
package article

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// TextCleaner normalizes a body fragment into prose.
type TextCleaner interface {
	Clean(fragment string) string
}

// State is the lifecycle position of an Accumulator.
type State int

const (
	StateAwaitingFirstPage State = iota
	StateAccumulating
	StateFinalized
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateAwaitingFirstPage:
		return "awaiting_first_page"
	case StateAccumulating:
		return "accumulating"
	case StateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Step is the outcome of feeding one page to an Accumulator. At most one of
// Next, Record and Skipped is set.
type Step struct {
	// Next is the unresolved href of the next article page.
	Next string
	// Record is the finished article.
	Record *Record
	// Skipped reports a page without a body fragment; nothing was emitted.
	Skipped bool
}

// Extractor holds the compiled selectors and cleaner shared by all accumulators.
type Extractor struct {
	cleaner TextCleaner
	sel     *compiledSelectors
	now     func() time.Time
}

// NewExtractor compiles selectors for use by accumulators.
func NewExtractor(cleaner TextCleaner, selectors Selectors) (*Extractor, error) {
	sel, err := selectors.compile()
	if err != nil {
		return nil, err
	}
	return &Extractor{cleaner: cleaner, sel: sel, now: time.Now}, nil
}

// WithClock overrides the time source used for Record.CrawledAt.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// NewAccumulator starts a fresh article.
func (e *Extractor) NewAccumulator() *Accumulator {
	return &Accumulator{extractor: e, state: StateAwaitingFirstPage}
}

// Accumulator merges the pages of a single article. It must be driven by one
// fetch sequence at a time; it holds no locks.
type Accumulator struct {
	extractor *Extractor
	state     State
	draft     *Draft
}

// State returns the current lifecycle state.
func (a *Accumulator) State() State { return a.state }

// Draft returns the in-flight draft, or nil before the first page and after finalization.
func (a *Accumulator) Draft() *Draft { return a.draft }

// Fetch feeds one fetched page to the accumulator.
func (a *Accumulator) Fetch(pageURL string, markup []byte) (Step, error) {
	if a.state == StateFinalized {
		return Step{}, ErrFinalized
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return Step{}, fmt.Errorf("%w: %s: %w", ErrMalformedMarkup, pageURL, err)
	}

	sel := a.extractor.sel
	body := doc.FindMatcher(sel.body).First()
	if body.Length() == 0 {
		return Step{Skipped: true}, nil
	}
	fragment, err := goquery.OuterHtml(body)
	if err != nil {
		return Step{}, fmt.Errorf("%w: %s: %w", ErrMalformedMarkup, pageURL, err)
	}

	if a.state == StateAwaitingFirstPage {
		draft, startErr := a.extractor.startDraft(doc, pageURL)
		if startErr != nil {
			return Step{}, startErr
		}
		a.draft = draft
		a.state = StateAccumulating
	}

	a.draft.appendChunk(a.extractor.cleaner.Clean(fragment))

	if next := firstHref(doc.FindMatcher(sel.continuation)); next != "" {
		return Step{Next: next}, nil
	}

	record := a.draft.finalize(a.extractor.now())
	a.draft = nil
	a.state = StateFinalized
	return Step{Record: record}, nil
}

func (e *Extractor) startDraft(doc *goquery.Document, pageURL string) (*Draft, error) {
	title := ownText(doc.FindMatcher(e.sel.title))
	if title == "" {
		return nil, &FieldError{Field: "title", URL: pageURL}
	}
	author := ownText(doc.FindMatcher(e.sel.author))
	if author == "" {
		return nil, &FieldError{Field: "author", URL: pageURL}
	}
	publishedAt := ownText(doc.FindMatcher(e.sel.publishedAt))
	if publishedAt == "" {
		return nil, &FieldError{Field: "published_at", URL: pageURL}
	}
	return &Draft{
		title:       title,
		author:      author,
		publishedAt: publishedAt,
		sourceURL:   pageURL,
	}, nil
}

// ownText returns the first non-blank text node that is a direct child of a
// matched element, trimmed.
func ownText(s *goquery.Selection) string {
	for _, n := range s.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.TextNode {
				continue
			}
			if t := strings.TrimSpace(c.Data); t != "" {
				return t
			}
		}
	}
	return ""
}

// firstHref returns the first non-empty href among the matched anchors.
func firstHref(s *goquery.Selection) string {
	for i := range s.Nodes {
		if href, ok := s.Eq(i).Attr("href"); ok {
			if href = strings.TrimSpace(href); href != "" {
				return href
			}
		}
	}
	return ""
}
