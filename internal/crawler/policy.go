package crawler

import (
	"fmt"

	"github.com/jansonh/detiknews-crawler/internal/config"
	"github.com/jansonh/detiknews-crawler/internal/dateindex"
)

// Policy decides where a crawl starts and when it stops. A zero Policy
// starts today and never stops on its own.
type Policy struct {
	// Start replaces today as the first date.
	Start dateindex.Date
	// Days stops after this many dates.
	Days int
	// Until stops before the first date earlier than this one.
	Until dateindex.Date
	// MaxEmptyDays stops after this many consecutive dates without article links.
	MaxEmptyDays int
}

// PolicyFromConfig builds the policy described by cfg.
func PolicyFromConfig(cfg *config.CrawlerConfig) (Policy, error) {
	p := Policy{Days: cfg.Days, MaxEmptyDays: cfg.MaxEmptyDays}
	if cfg.Start != "" {
		d, err := dateindex.ParseDate(cfg.Start)
		if err != nil {
			return Policy{}, fmt.Errorf("%w: start: %w", ErrInvalidPolicy, err)
		}
		p.Start = d
	}
	if cfg.Until != "" {
		d, err := dateindex.ParseDate(cfg.Until)
		if err != nil {
			return Policy{}, fmt.Errorf("%w: until: %w", ErrInvalidPolicy, err)
		}
		p.Until = d
	}
	if p.Days < 0 || p.MaxEmptyDays < 0 {
		return Policy{}, fmt.Errorf("%w: limits must be non-negative", ErrInvalidPolicy)
	}
	return p, nil
}

// LastDays returns a policy covering today and the n-1 days before it.
func LastDays(n int) Policy {
	return Policy{Days: n}
}

// Bounded reports whether the policy stops on its own.
func (p Policy) Bounded() bool {
	return p.Days > 0 || !p.Until.IsZero() || p.MaxEmptyDays > 0
}

// stopBefore reports whether d must not be crawled given n dates already done.
func (p Policy) stopBefore(d dateindex.Date, n int) bool {
	if p.Days > 0 && n >= p.Days {
		return true
	}
	return !p.Until.IsZero() && d.Before(p.Until)
}

// stopAfterEmpty reports whether the run of empty dates is long enough to stop.
func (p Policy) stopAfterEmpty(consecutiveEmpty int) bool {
	return p.MaxEmptyDays > 0 && consecutiveEmpty >= p.MaxEmptyDays
}
