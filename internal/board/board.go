// Package board defines the local entity model for a project board:
// a project, its ordered columns and the cards placed in them.
package board

import (
	"fmt"
	"strings"
)

// DefaultPosition is the position hint used when a card does not name one.
const DefaultPosition = "top"

// Project is the local description of a board.
//
// The local identity of a project is the name of the directory holding it.
// The remote identity is RemoteID (REST project id, or the project number for
// the graph model) plus NodeID for graph projects.
type Project struct {
	Name     string `yaml:"name"`
	Body     string `yaml:"body,omitempty"`
	Owner    string `yaml:"owner,omitempty"`
	RemoteID int64  `yaml:"github_id,omitempty"`
	NodeID   string `yaml:"github_node_id,omitempty"` // graph model only
	Graph    bool   `yaml:"project_v2,omitempty"`
}

// Synced reports whether the project has been linked to a remote project.
func (p *Project) Synced() bool {
	return p.RemoteID != 0 || p.NodeID != ""
}

// Validate checks the fields required to save a project.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if p.Graph && p.NodeID == "" && p.RemoteID == 0 {
		return fmt.Errorf("graph project %q has neither node id nor number", p.Name)
	}
	return nil
}

// Column is one column of a board. Position is 1-based.
type Column struct {
	Name     string `yaml:"name"`
	Position int    `yaml:"position,omitempty"`
	RemoteID int64  `yaml:"github_id,omitempty"`
}

// Card is a single card. Column names the owning column; it should, but is
// not required to, match one of the project's columns.
type Card struct {
	Column     string `yaml:"column,omitempty"`
	Note       string `yaml:"note,omitempty"`
	Position   string `yaml:"position,omitempty"`
	ContentURL string `yaml:"content_url,omitempty"`
	ItemID     string `yaml:"item_id,omitempty"`
	ItemType   string `yaml:"item_type,omitempty"`
}

// PositionHint returns the card's position hint, defaulting to "top".
func (c Card) PositionHint() string {
	if c.Position == "" {
		return DefaultPosition
	}
	return c.Position
}

// Label returns a short human-readable label for the card.
func (c Card) Label() string {
	switch {
	case c.Note != "":
		return Truncate(firstLine(c.Note), 60)
	case c.ContentURL != "":
		return c.ContentURL
	case c.ItemID != "":
		return c.ItemID
	default:
		return "(empty card)"
	}
}

// ValidateColumns checks that column names are non-empty and unique
// (case-sensitive).
func ValidateColumns(columns []Column) error {
	seen := make(map[string]struct{}, len(columns))
	for i, col := range columns {
		if col.Name == "" {
			return fmt.Errorf("column %d: name is required", i+1)
		}
		if _, dup := seen[col.Name]; dup {
			return fmt.Errorf("duplicate column name %q", col.Name)
		}
		seen[col.Name] = struct{}{}
	}
	return nil
}

// ColumnIndex maps column names to their index in columns.
func ColumnIndex(columns []Column) map[string]int {
	idx := make(map[string]int, len(columns))
	for i, col := range columns {
		if _, ok := idx[col.Name]; !ok {
			idx[col.Name] = i
		}
	}
	return idx
}

// Renumber assigns 1-based positions following slice order.
func Renumber(columns []Column) []Column {
	out := make([]Column, len(columns))
	for i, col := range columns {
		col.Position = i + 1
		out[i] = col
	}
	return out
}

// Truncate shortens s to at most n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
