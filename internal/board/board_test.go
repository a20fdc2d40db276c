package board

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValidateColumns(t *testing.T) {
	tests := []struct {
		name    string
		columns []Column
		wantErr bool
		errMsg  string
	}{
		{
			name:    "empty list",
			columns: nil,
		},
		{
			name:    "unique names",
			columns: []Column{{Name: "To Do"}, {Name: "Done"}},
		},
		{
			name:    "case differs",
			columns: []Column{{Name: "done"}, {Name: "Done"}},
		},
		{
			name:    "duplicate",
			columns: []Column{{Name: "Done"}, {Name: "Done"}},
			wantErr: true,
			errMsg:  "duplicate column name",
		},
		{
			name:    "missing name",
			columns: []Column{{Name: "To Do"}, {}},
			wantErr: true,
			errMsg:  "column 2: name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColumns(tt.columns)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestProject_Validate(t *testing.T) {
	if err := (&Project{Name: "roadmap"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (&Project{Name: "  "}).Validate(); err == nil {
		t.Error("expected error for blank name")
	}
	if err := (&Project{Name: "v2", Graph: true}).Validate(); err == nil {
		t.Error("expected error for graph project without ids")
	}
}

func TestTree_RoundTrip(t *testing.T) {
	project := Project{Name: "roadmap", Body: "Q3 plan", Owner: "octocat", RemoteID: 42}
	columns := []Column{
		{Name: "To Do", Position: 1, RemoteID: 11},
		{Name: "In Progress", Position: 2},
		{Name: "Done", Position: 3},
	}
	cards := []Card{
		{Column: "To Do", Note: "write docs", Position: "top"},
		{Column: "To Do", Note: "review api", Position: "bottom"},
		{Column: "In Progress", Note: "ship it", ContentURL: "https://api.github.com/repos/o/r/issues/1"},
		{Column: "Done", ItemID: "PVTI_1", ItemType: "ISSUE"},
	}

	tree := NewTree(project, columns, cards)

	if diff := cmp.Diff(project, tree.Project()); diff != "" {
		t.Errorf("project mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(columns, tree.FlatColumns()); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(cards, tree.FlatCards()); diff != "" {
		t.Errorf("cards mismatch (-want +got):\n%s", diff)
	}
	if got := tree.CardCount(); got != 4 {
		t.Errorf("CardCount() = %d, want 4", got)
	}
}

func TestTree_InterleavedCardsGroupedByColumn(t *testing.T) {
	columns := []Column{{Name: "A", Position: 1}, {Name: "B", Position: 2}}
	cards := []Card{
		{Column: "A", Note: "a1"},
		{Column: "B", Note: "b1"},
		{Column: "A", Note: "a2"},
		{Column: "B", Note: "b2"},
		{Column: "A", Note: "a3"},
	}

	got := NewTree(Project{Name: "p"}, columns, cards).FlatCards()

	want := []Card{
		{Column: "A", Note: "a1"},
		{Column: "A", Note: "a2"},
		{Column: "A", Note: "a3"},
		{Column: "B", Note: "b1"},
		{Column: "B", Note: "b2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cards mismatch (-want +got):\n%s", diff)
	}
}

func TestTree_UnknownColumnKept(t *testing.T) {
	columns := []Column{{Name: "To Do", Position: 1}}
	cards := []Card{
		{Column: "Backlog", Note: "orphan"},
		{Column: "To Do", Note: "placed"},
	}

	tree := NewTree(Project{Name: "p"}, columns, cards)

	if len(tree.Columns[0].Cards) != 1 {
		t.Fatalf("expected 1 nested card, got %d", len(tree.Columns[0].Cards))
	}
	if len(tree.Cards) != 1 || tree.Cards[0].Column != "Backlog" {
		t.Fatalf("expected orphan card to be kept at top level, got %+v", tree.Cards)
	}

	// Nested cards come first, orphans last.
	want := []Card{cards[1], cards[0]}
	if diff := cmp.Diff(want, tree.FlatCards()); diff != "" {
		t.Errorf("cards mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: "top"},
		{in: "top", want: "top"},
		{in: "bottom", want: "bottom"},
		{in: "after:123", want: "after:123"},
		{in: " after:7 ", want: "after:7"},
		{in: "after:", wantErr: true},
		{in: "after:-3", wantErr: true},
		{in: "after:abc", wantErr: true},
		{in: "middle", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			pos, err := ParsePosition(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPosition) {
					t.Fatalf("expected ErrInvalidPosition, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if pos.String() != tt.want {
				t.Errorf("String() = %q, want %q", pos.String(), tt.want)
			}
		})
	}
}

func TestCard_Label(t *testing.T) {
	long := strings.Repeat("x", 80)
	if got := (Card{Note: long}).Label(); got != strings.Repeat("x", 60)+"..." {
		t.Errorf("long note label = %q", got)
	}
	if got := (Card{Note: "first\nsecond"}).Label(); got != "first" {
		t.Errorf("multi-line label = %q, want %q", got, "first")
	}
	if got := (Card{ContentURL: "u"}).Label(); got != "u" {
		t.Errorf("content label = %q", got)
	}
	if got := (Card{}).PositionHint(); got != DefaultPosition {
		t.Errorf("PositionHint() = %q, want %q", got, DefaultPosition)
	}
}

func TestRenumber(t *testing.T) {
	got := Renumber([]Column{{Name: "a", Position: 9}, {Name: "b"}})
	if got[0].Position != 1 || got[1].Position != 2 {
		t.Errorf("unexpected positions: %+v", got)
	}
}
