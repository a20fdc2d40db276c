package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPosition is returned for position hints other than "top",
// "bottom" or "after:<card id>".
var ErrInvalidPosition = errors.New("invalid card position")

// Position is a parsed card position hint.
type Position struct {
	Kind  string // "top", "bottom" or "after"
	After int64  // card id, only for Kind == "after"
}

// String renders the position in the form the remote API expects.
func (p Position) String() string {
	if p.Kind == "after" {
		return fmt.Sprintf("after:%d", p.After)
	}
	return p.Kind
}

// ParsePosition parses a position hint. An empty hint means "top".
func ParsePosition(s string) (Position, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "top":
		return Position{Kind: "top"}, nil
	case "bottom":
		return Position{Kind: "bottom"}, nil
	}

	rest, ok := strings.CutPrefix(s, "after:")
	if !ok {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return Position{}, fmt.Errorf("%w: %q (card id must be a positive integer)", ErrInvalidPosition, s)
	}
	return Position{Kind: "after", After: id}, nil
}
