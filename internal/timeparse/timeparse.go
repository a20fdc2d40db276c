// Package timeparse turns user-supplied time bounds into instants.
package timeparse

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// ErrUnrecognized is returned when no format matches.
var ErrUnrecognized = errors.New("unrecognized time")

var parser = newParser()

func newParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// Since parses a lower time bound relative to now. Accepted forms, in
// order: RFC 3339, a date (2006-01-02, local midnight), a Go duration
// meaning that long ago ("36h"), then English phrases such as
// "2 days ago", "yesterday" or "last monday".
func Since(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrUnrecognized)
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, now.Location()); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			return time.Time{}, fmt.Errorf("%w: negative duration %q", ErrUnrecognized, s)
		}
		return now.Add(-d), nil
	}

	r, err := parser.Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognized, s)
	}
	return r.Time, nil
}
