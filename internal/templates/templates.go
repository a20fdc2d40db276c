// Package templates is the fixed catalog of column layouts used to seed a
// new local project.
package templates

import (
	"errors"
	"fmt"
	"strings"

	"github.com/githubtower/ghtower/internal/board"
)

// ErrUnknownTemplate is returned for a key not in the catalog.
var ErrUnknownTemplate = errors.New("unknown template")

// Template is a named column layout.
type Template struct {
	Key         string
	Name        string
	Description string
	Columns     []string
}

// catalog is ordered; menus and listings follow this order.
var catalog = []Template{
	{
		Key:         "kanban",
		Name:        "Kanban Board",
		Description: "Classic Kanban board with To Do, In Progress, and Done columns",
		Columns:     []string{"To Do", "In Progress", "Done"},
	},
	{
		Key:         "scrum",
		Name:        "Scrum Board",
		Description: "Scrum-style board with Backlog, Sprint Backlog, In Progress, Review, and Done",
		Columns:     []string{"Backlog", "Sprint Backlog", "In Progress", "Review", "Done"},
	},
	{
		Key:         "bug-tracking",
		Name:        "Bug Tracking",
		Description: "Board for tracking bugs with Triage, In Progress, Testing, and Resolved",
		Columns:     []string{"Triage", "In Progress", "Testing", "Resolved"},
	},
	{
		Key:         "feature-request",
		Name:        "Feature Requests",
		Description: "Board for managing feature requests with Ideas, Planned, In Development, and Released",
		Columns:     []string{"Ideas", "Planned", "In Development", "Released"},
	},
	{
		Key:         "simple",
		Name:        "Simple Board",
		Description: "Simple 3-column board: To Do, Doing, Done",
		Columns:     []string{"To Do", "Doing", "Done"},
	},
	{
		Key:         "gtd",
		Name:        "Getting Things Done (GTD)",
		Description: "GTD methodology with Inbox, Next Actions, Waiting, and Completed",
		Columns:     []string{"Inbox", "Next Actions", "Waiting", "Completed"},
	},
	{
		Key:         "minimal",
		Name:        "Minimal",
		Description: "Minimal 2-column board: To Do and Done",
		Columns:     []string{"To Do", "Done"},
	},
	{
		Key:         "custom",
		Name:        "Custom",
		Description: "Start with empty project and define your own structure",
	},
}

// DefaultKey is the template used when none is chosen.
const DefaultKey = "kanban"

// Keys returns the template keys in catalog order.
func Keys() []string {
	keys := make([]string, len(catalog))
	for i, t := range catalog {
		keys[i] = t.Key
	}
	return keys
}

// All returns a copy of the catalog in order.
func All() []Template {
	out := make([]Template, len(catalog))
	for i, t := range catalog {
		t.Columns = append([]string(nil), t.Columns...)
		out[i] = t
	}
	return out
}

// Get returns the template with the given key.
func Get(key string) (Template, error) {
	for _, t := range catalog {
		if t.Key == key {
			t.Columns = append([]string(nil), t.Columns...)
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownTemplate, key, strings.Join(Keys(), ", "))
}

// BoardColumns returns the template's columns with 1-based positions.
func (t Template) BoardColumns() []board.Column {
	columns := make([]board.Column, len(t.Columns))
	for i, name := range t.Columns {
		columns[i] = board.Column{Name: name, Position: i + 1}
	}
	return columns
}

// Apply builds a new local project from the template. An empty body
// defaults to "Project: <name>". Templates carry no cards.
func Apply(key, name, body string) (*board.Project, []board.Column, []board.Card, error) {
	t, err := Get(key)
	if err != nil {
		return nil, nil, nil, err
	}
	if body == "" {
		body = "Project: " + name
	}
	p := &board.Project{Name: name, Body: body}
	if err := p.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid project: %w", err)
	}
	return p, t.BoardColumns(), []board.Card{}, nil
}
