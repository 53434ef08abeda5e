package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jansonh/detiknews-crawler/internal/content/article"
)

// MultiSink fans each record out to every wrapped sink.
type MultiSink struct {
	sinks []namedSink
}

type namedSink struct {
	name string
	sink Sink
}

// NewMultiSink creates an empty fan-out sink.
func NewMultiSink() *MultiSink {
	return &MultiSink{}
}

// Add registers a sink under name; the name prefixes its errors.
func (m *MultiSink) Add(name string, s Sink) {
	m.sinks = append(m.sinks, namedSink{name: name, sink: s})
}

// Len returns the number of wrapped sinks.
func (m *MultiSink) Len() int {
	return len(m.sinks)
}

// Save writes rec to every sink, even when earlier ones fail.
func (m *MultiSink) Save(ctx context.Context, rec *article.Record) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.sink.Save(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}
