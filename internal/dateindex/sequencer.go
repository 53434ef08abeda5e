package dateindex

import (
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"
)

// DefaultURLTemplate is the news.detik.com daily index.
const DefaultURLTemplate = "https://news.detik.com/indeks/?date={month}/{day}/{year}"

// Template placeholders.
const (
	PlaceholderMonth = "{month}"
	PlaceholderDay   = "{day}"
	PlaceholderYear  = "{year}"
)

// Sequencer yields today, yesterday, and so on without a lower bound. Stopping
// is the consumer's decision.
type Sequencer struct {
	template string
	clock    func() time.Time

	mu    sync.Mutex
	today Date
}

// NewSequencer creates a sequencer anchored at clock's current date. A nil
// clock uses time.Now.
func NewSequencer(template string, clock func() time.Time) (*Sequencer, error) {
	if err := ValidateTemplate(template); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = time.Now
	}
	s := &Sequencer{template: template, clock: clock}
	s.Restart()
	return s, nil
}

// ValidateTemplate checks that all three placeholders are present.
func ValidateTemplate(template string) error {
	for _, p := range []string{PlaceholderMonth, PlaceholderDay, PlaceholderYear} {
		if !strings.Contains(template, p) {
			return fmt.Errorf("index url template %q is missing %s", template, p)
		}
	}
	return nil
}

// Restart re-reads the clock so the next sequence starts from a fresh today.
func (s *Sequencer) Restart() {
	today := DateOf(s.clock())
	s.mu.Lock()
	s.today = today
	s.mu.Unlock()
}

// Today returns the anchor date of the sequence.
func (s *Sequencer) Today() Date {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.today
}

// At returns the n-th date of the sequence, today minus n days.
func (s *Sequencer) At(n int) Date {
	return s.Today().AddDays(-n)
}

// Dates returns the lazy, infinite, strictly decreasing date sequence.
func (s *Sequencer) Dates() iter.Seq[Date] {
	start := s.Today()
	return func(yield func(Date) bool) {
		for n := 0; ; n++ {
			if !yield(start.AddDays(-n)) {
				return
			}
		}
	}
}

// URL renders the index URL for d.
func (s *Sequencer) URL(d Date) string {
	return strings.NewReplacer(
		PlaceholderMonth, fmt.Sprintf("%02d", int(d.Month)),
		PlaceholderDay, fmt.Sprintf("%02d", d.Day),
		PlaceholderYear, fmt.Sprintf("%04d", d.Year),
	).Replace(s.template)
}
