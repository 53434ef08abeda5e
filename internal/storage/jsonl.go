package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jansonh/detiknews-crawler/internal/content/article"
)

// StdoutPath selects standard output for NewJSONLinesFile.
const StdoutPath = "-"

// JSONLinesSink writes one JSON object per line.
type JSONLinesSink struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

// NewJSONLinesSink writes to w. If w is an io.Closer it is closed by Close.
func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	s := &JSONLinesSink{enc: json.NewEncoder(w)}
	s.enc.SetEscapeHTML(false)
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// NewJSONLinesFile appends to path, or writes to stdout when path is "-".
func NewJSONLinesFile(path string) (*JSONLinesSink, error) {
	if path == StdoutPath {
		return NewJSONLinesSink(stdout{os.Stdout}), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return NewJSONLinesSink(f), nil
}

// stdout hides the Close method of os.Stdout so Close leaves it open.
type stdout struct{ io.Writer }

// Save implements Sink.
func (s *JSONLinesSink) Save(_ context.Context, rec *article.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to write record %s: %w", rec.ID, err)
	}
	return nil
}

// Close implements Sink.
func (s *JSONLinesSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
