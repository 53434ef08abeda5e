// Package cleaner turns an article body fragment into normalized prose.
//
// The pipeline runs in a fixed order: boilerplate element removal, text node
// join, dateline strip, continuation marker strip and contributor signature
// strip. Every step that finds nothing to do leaves the text untouched, and
// surrounding whitespace is only trimmed once the last step has run.
package cleaner

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Cleaner is safe for concurrent use once constructed.
type Cleaner struct {
	cfg       Config
	removals  []cascadia.Selector
	signature *regexp.Regexp
}

// New compiles cfg into a Cleaner.
func New(cfg Config) (*Cleaner, error) {
	removals, err := compileSelectors(cfg.RemoveSelectors)
	if err != nil {
		return nil, err
	}
	signature, err := compileSignature(cfg.SignaturePattern)
	if err != nil {
		return nil, err
	}
	markers := make([]string, len(cfg.ContinuationMarkers))
	copy(markers, cfg.ContinuationMarkers)
	cfg.ContinuationMarkers = markers

	return &Cleaner{cfg: cfg, removals: removals, signature: signature}, nil
}

// Clean never fails; unparseable input yields "".
func (c *Cleaner) Clean(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	for _, sel := range c.removals {
		doc.FindMatcher(sel).Remove()
	}

	text := JoinText(doc.Selection)
	text = c.stripDateline(text)
	text = c.stripContinuationMarkers(text)
	text = c.stripSignature(text)
	return strings.TrimSpace(text)
}

// JoinText joins every non-blank text node under s, trimmed, with single spaces.
func JoinText(s *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func (c *Cleaner) stripDateline(text string) string {
	sep := c.cfg.DatelineSeparator
	if sep == "" {
		return text
	}
	idx := strings.Index(text, sep)
	if idx == -1 {
		return text
	}
	return text[idx+len(sep):]
}

// stripContinuationMarkers cuts at the last occurrence of each marker, also
// dropping the rune right before it.
func (c *Cleaner) stripContinuationMarkers(text string) string {
	for _, marker := range c.cfg.ContinuationMarkers {
		idx := strings.LastIndex(text, marker)
		if idx == -1 {
			continue
		}
		text = truncateBefore(text, idx)
	}
	return text
}

func truncateBefore(text string, idx int) string {
	if idx <= 0 {
		return ""
	}
	_, size := utf8.DecodeLastRuneInString(text[:idx])
	return text[:idx-size]
}

func (c *Cleaner) stripSignature(text string) string {
	if c.signature == nil {
		return text
	}
	loc := c.signature.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return text[:loc[0]]
}
