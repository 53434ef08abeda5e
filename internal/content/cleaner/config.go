package cleaner

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/andybalholm/cascadia"
)

// Config holds the site-specific knobs of the cleaning pipeline.
type Config struct {
	// RemoveSelectors are deleted from the fragment before text extraction.
	RemoveSelectors []string `mapstructure:"remove_selectors" yaml:"remove_selectors"`
	// DatelineSeparator ends the leading "CITY -" prefix. Empty disables the step.
	DatelineSeparator string `mapstructure:"dateline_separator" yaml:"dateline_separator"`
	// ContinuationMarkers are applied in order; each truncates at its last occurrence.
	ContinuationMarkers []string `mapstructure:"continuation_markers" yaml:"continuation_markers"`
	// SignaturePattern matches one trailing contributor signature. Empty disables the step.
	SignaturePattern string `mapstructure:"signature_pattern" yaml:"signature_pattern"`
}

// DefaultConfig returns the settings for news.detik.com article bodies.
func DefaultConfig() Config {
	return Config{
		RemoveSelectors: []string{
			"script",
			"style",
			"div.lihatjg",
			"a.embed.video20detik",
			"div.detail__body-tag.mgt-16",
			"div.ratiobox.ratio_16_9.sisip_video_ds",
		},
		DatelineSeparator:   "-",
		ContinuationMarkers: []string{"Selanjutnya Halaman 1", "Halaman 1"},
		SignaturePattern:    `\([\p{L}\p{N}_]+/[\p{L}\p{N}_]+\)$`,
	}
}

// Validate checks that every selector and the signature pattern compile.
func (c *Config) Validate() error {
	if _, err := compileSelectors(c.RemoveSelectors); err != nil {
		return err
	}
	if _, err := compileSignature(c.SignaturePattern); err != nil {
		return err
	}
	for i, marker := range c.ContinuationMarkers {
		if marker == "" {
			return fmt.Errorf("continuation marker %d is empty", i)
		}
	}
	return nil
}

func compileSelectors(selectors []string) ([]cascadia.Selector, error) {
	compiled := make([]cascadia.Selector, 0, len(selectors))
	for _, sel := range selectors {
		if sel == "" {
			return nil, errors.New("remove selector must not be empty")
		}
		m, err := cascadia.Compile(sel)
		if err != nil {
			return nil, fmt.Errorf("invalid remove selector %q: %w", sel, err)
		}
		compiled = append(compiled, m)
	}
	return compiled, nil
}

func compileSignature(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid signature pattern %q: %w", pattern, err)
	}
	return re, nil
}
