package syncer

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/githubtower/ghtower/internal/board"
	"github.com/githubtower/ghtower/internal/remote"
	"github.com/githubtower/ghtower/internal/store"
)

// fakeRemote is an in-memory Remote.
type fakeRemote struct {
	orgs  map[string]bool
	users map[string]bool

	projects []*remote.RESTProject
	columns  map[int64][]*remote.Column
	cards    map[int64][]*remote.Card
	moves    []string

	graphProjects map[string][]*remote.GraphProject // owner login -> projects
	items         map[string][]*remote.Item

	failColumn string // CreateColumn fails for this name
	nextID     int64
	calls      map[string]int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		orgs:          map[string]bool{"octo-org": true},
		users:         map[string]bool{"octocat": true},
		columns:       make(map[int64][]*remote.Column),
		cards:         make(map[int64][]*remote.Card),
		graphProjects: make(map[string][]*remote.GraphProject),
		items:         make(map[string][]*remote.Item),
		nextID:        100,
		calls:         make(map[string]int),
	}
}

func notFound(op string) error {
	return &remote.Error{Kind: remote.KindNotFound, Model: remote.ModelREST, Op: op, Message: "Not Found"}
}

func (f *fakeRemote) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeRemote) ResolveOwner(ctx context.Context, owner string) remote.OwnerKind {
	f.calls["ResolveOwner"]++
	switch {
	case owner == "" || f.users[owner]:
		return remote.OwnerUser
	case f.orgs[owner]:
		return remote.OwnerOrganization
	default:
		return remote.OwnerUnknown
	}
}

func (f *fakeRemote) GetRESTProject(ctx context.Context, id int64) (*remote.RESTProject, error) {
	for _, p := range f.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, notFound("get project")
}

func (f *fakeRemote) FindRESTProject(ctx context.Context, owner, name string) (*remote.RESTProject, error) {
	for _, p := range f.projects {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, notFound("find project")
}

func (f *fakeRemote) CreateRESTProject(ctx context.Context, name, body string) (*remote.RESTProject, error) {
	f.calls["CreateRESTProject"]++
	p := &remote.RESTProject{ID: f.id(), Name: name, Body: body, State: "open"}
	f.projects = append(f.projects, p)
	return p, nil
}

func (f *fakeRemote) ListColumns(ctx context.Context, projectID int64) ([]*remote.Column, error) {
	return append([]*remote.Column(nil), f.columns[projectID]...), nil
}

func (f *fakeRemote) CreateColumn(ctx context.Context, projectID int64, name string) (*remote.Column, error) {
	if name == f.failColumn {
		return nil, &remote.Error{Kind: remote.KindPermission, Model: remote.ModelREST, Op: "create column", Status: 403}
	}
	col := &remote.Column{ID: f.id(), Name: name}
	f.columns[projectID] = append(f.columns[projectID], col)
	return col, nil
}

func (f *fakeRemote) ListCards(ctx context.Context, columnID int64) ([]*remote.Card, error) {
	return append([]*remote.Card(nil), f.cards[columnID]...), nil
}

func (f *fakeRemote) CreateCard(ctx context.Context, columnID int64, in remote.CardInput) (*remote.Card, error) {
	card := &remote.Card{ID: f.id(), Note: in.Note}
	f.cards[columnID] = append(f.cards[columnID], card)
	return card, nil
}

func (f *fakeRemote) MoveCard(ctx context.Context, cardID, columnID int64, position string) error {
	f.moves = append(f.moves, fmt.Sprintf("%d:%s", cardID, position))
	return nil
}

func (f *fakeRemote) FindGraphProject(ctx context.Context, owner, title string) (*remote.GraphProject, error) {
	for _, p := range f.graphProjects[owner] {
		if p.Title == title {
			return p, nil
		}
	}
	return nil, &remote.Error{Kind: remote.KindNotFound, Model: remote.ModelGraph, Op: "find graph project"}
}

func (f *fakeRemote) CreateGraphProject(ctx context.Context, owner, title string) error {
	f.calls["CreateGraphProject"]++
	n := int64(len(f.graphProjects[owner]) + 1)
	f.graphProjects[owner] = append(f.graphProjects[owner], &remote.GraphProject{
		NodeID: fmt.Sprintf("PVT_%d", n),
		Number: n,
		Title:  title,
	})
	return nil
}

func (f *fakeRemote) ListGraphItems(ctx context.Context, projectNodeID string) ([]*remote.Item, error) {
	items, ok := f.items[projectNodeID]
	if !ok {
		return nil, &remote.Error{Kind: remote.KindNotFound, Model: remote.ModelGraph, Op: "list graph items"}
	}
	return items, nil
}

// remoteColumnNames returns the column names of a REST project in order.
func (f *fakeRemote) remoteColumnNames(projectID int64) []string {
	var names []string
	for _, col := range f.columns[projectID] {
		names = append(names, col.Name)
	}
	return names
}

// remoteCardCount returns the number of cards across a project's columns.
func (f *fakeRemote) remoteCardCount(projectID int64) int {
	n := 0
	for _, col := range f.columns[projectID] {
		n += len(f.cards[col.ID])
	}
	return n
}

// events collects sink events.
type events []Event

func (e *events) sink() Sink {
	return SinkFunc(func(ev Event) { *e = append(*e, ev) })
}

// setupSyncer returns a syncer over fake with a fresh projects directory.
func setupSyncer(t *testing.T, fake *fakeRemote, opts Options) (Syncer, string) {
	t.Helper()
	if opts.ProjectsDir == "" {
		opts.ProjectsDir = t.TempDir()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	return New(fake, opts), opts.ProjectsDir
}

// writeLocal writes a flat local project.
func writeLocal(t *testing.T, dir string, p board.Project, columns []board.Column, cards []board.Card) *store.Store {
	t.Helper()
	st := store.New(filepath.Join(dir, p.Name), log.New(io.Discard, "", 0))
	if err := st.SaveProject(&p); err != nil {
		t.Fatalf("SaveProject() failed: %v", err)
	}
	if err := st.SaveColumns(columns); err != nil {
		t.Fatalf("SaveColumns() failed: %v", err)
	}
	if err := st.SaveCards(cards); err != nil {
		t.Fatalf("SaveCards() failed: %v", err)
	}
	return st
}

// answers returns a Confirmer replying with the given answers in order,
// then yes.
func answers(replies ...bool) Confirmer {
	i := 0
	return ConfirmFunc(func(string) bool {
		if i >= len(replies) {
			return true
		}
		r := replies[i]
		i++
		return r
	})
}

func kanbanColumns() []board.Column {
	return []board.Column{
		{Name: "To Do", Position: 1},
		{Name: "In Progress", Position: 2},
		{Name: "Done", Position: 3},
	}
}
