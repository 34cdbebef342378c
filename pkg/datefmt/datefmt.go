// Package datefmt formats and parses API timestamps
package datefmt

import (
	"fmt"
	"time"
)

// Layout is RFC 3339 with microsecond precision, as sent by the API
const Layout = "2006-01-02T15:04:05.000000Z07:00"

// Formatter converts between time.Time and API timestamps. Formatters are
// immutable and safe for concurrent use.
type Formatter struct {
	loc *time.Location
}

// Option configures a Formatter
type Option func(*Formatter)

// WithLocation sets the zone timestamps are formatted and returned in
func WithLocation(loc *time.Location) Option {
	return func(f *Formatter) {
		if loc != nil {
			f.loc = loc
		}
	}
}

// New creates a Formatter. Timestamps are rendered in UTC unless
// WithLocation is given.
func New(opts ...Option) *Formatter {
	f := &Formatter{loc: time.UTC}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Location returns the zone the formatter renders timestamps in
func (f *Formatter) Location() *time.Location {
	return f.loc
}

// Format renders t using Layout
func (f *Formatter) Format(t time.Time) string {
	return t.In(f.loc).Format(Layout)
}

// Parse reads a timestamp in Layout. Plain RFC 3339 timestamps with any
// fractional precision are accepted as well.
func (f *Formatter) Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		var rfcErr error
		t, rfcErr = time.Parse(time.RFC3339, s)
		if rfcErr != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
	}
	return t.In(f.loc), nil
}
