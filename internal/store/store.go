// Package store reads and writes the on-disk YAML representation of a
// project: either three flat files (project.yaml, columns.yaml, cards.yaml)
// or one unified project.yaml with columns and cards nested inside.
//
// Absence is a normal state. Loads of missing files report ok == false
// rather than an error, and malformed content is logged and treated as
// absent. Saves are total overwrites performed atomically.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/githubtower/ghtower/internal/board"
)

// File names inside a project directory.
const (
	ProjectFile       = "project.yaml"
	ColumnsFile       = "columns.yaml"
	CardsFile         = "cards.yaml"
	CardColumnMapFile = "card_column_map.yaml"
)

// ErrInvalidTree is returned when a tree cannot be saved because its
// project or columns are invalid.
var ErrInvalidTree = errors.New("invalid project tree")

const (
	dirPerms  = 0o755
	filePerms = 0o644
)

// Store is a handle on one project directory.
type Store struct {
	dir    string
	logger *log.Logger

	onWrite func(path string, data []byte)
}

// New returns a Store for the project directory dir.
// If logger is nil, a default logger writing to stderr is used.
func New(dir string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(os.Stderr, "[store] ", log.LstdFlags)
	}
	return &Store{dir: dir, logger: logger}
}

// OnWrite registers fn to be called with the path and bytes of every file
// the store writes successfully.
func (s *Store) OnWrite(fn func(path string, data []byte)) {
	s.onWrite = fn
}

// Dir returns the project directory.
func (s *Store) Dir() string {
	return s.dir
}

// Exists reports whether the project directory exists.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.dir)
	return err == nil && info.IsDir()
}

// Unified reports whether project.yaml holds the unified tree form.
func (s *Store) Unified() bool {
	pf, ok := s.loadProjectFile()
	return ok && pf.unified
}

// Remove deletes the project directory and everything in it.
func (s *Store) Remove() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to remove project directory %s: %w", s.dir, err)
	}
	return nil
}

// LoadProject loads the project fields from project.yaml. A project without
// a name takes the name of its directory.
func (s *Store) LoadProject() (*board.Project, bool) {
	pf, ok := s.loadProjectFile()
	if !ok {
		return nil, false
	}
	p := pf.tree.Project()
	if p.Name == "" {
		p.Name = filepath.Base(s.dir)
	}
	return &p, true
}

// SaveProject writes the project fields. When project.yaml is a unified
// tree, the nested columns and cards are preserved.
func (s *Store) SaveProject(p *board.Project) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("cannot save invalid project: %w", err)
	}

	if pf, ok := s.loadProjectFile(); ok && pf.unified {
		tree := board.NewTree(*p, pf.tree.FlatColumns(), pf.tree.FlatCards())
		return s.write(ProjectFile, tree)
	}
	return s.write(ProjectFile, p)
}

// LoadColumns loads the ordered column list. Columns without a position get
// their 1-based slice position.
func (s *Store) LoadColumns() ([]board.Column, bool) {
	var columns []board.Column

	if pf, ok := s.loadProjectFile(); ok && pf.unified {
		columns = pf.tree.FlatColumns()
	} else {
		var doc columnsDoc
		if !s.readYAML(ColumnsFile, &doc) {
			return nil, false
		}
		columns = doc.Columns
	}

	for i := range columns {
		if columns[i].Position == 0 {
			columns[i].Position = i + 1
		}
	}
	return columns, true
}

// SaveColumns writes the ordered column list.
func (s *Store) SaveColumns(columns []board.Column) error {
	if err := board.ValidateColumns(columns); err != nil {
		return fmt.Errorf("cannot save columns: %w", err)
	}

	if pf, ok := s.loadProjectFile(); ok && pf.unified {
		tree := board.NewTree(pf.tree.Project(), columns, pf.tree.FlatCards())
		return s.write(ProjectFile, tree)
	}
	return s.write(ColumnsFile, columnsDoc{Columns: nonNil(columns)})
}

// LoadCards loads the card list.
func (s *Store) LoadCards() ([]board.Card, bool) {
	if pf, ok := s.loadProjectFile(); ok && pf.unified {
		return pf.tree.FlatCards(), true
	}

	var doc cardsDoc
	if !s.readYAML(CardsFile, &doc) {
		return nil, false
	}
	return doc.Cards, true
}

// SaveCards writes the card list.
func (s *Store) SaveCards(cards []board.Card) error {
	if pf, ok := s.loadProjectFile(); ok && pf.unified {
		tree := board.NewTree(pf.tree.Project(), pf.tree.FlatColumns(), cards)
		return s.write(ProjectFile, tree)
	}
	return s.write(CardsFile, cardsDoc{Cards: nonNil(cards)})
}

// LoadTree loads the whole project as a unified tree, whichever form it is
// stored in.
func (s *Store) LoadTree() (*board.Tree, bool) {
	pf, ok := s.loadProjectFile()
	if !ok {
		return nil, false
	}
	if pf.unified {
		return &pf.tree, true
	}

	p, _ := s.LoadProject()
	columns, _ := s.LoadColumns()
	cards, _ := s.LoadCards()
	return board.NewTree(*p, columns, cards), true
}

// SaveTree writes the unified form and removes stale flat column and card
// files so the two forms never disagree.
func (s *Store) SaveTree(t *board.Tree) error {
	p := t.Project()
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTree, err)
	}
	if err := board.ValidateColumns(t.FlatColumns()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTree, err)
	}
	if t.Columns == nil {
		t.Columns = []board.TreeColumn{}
	}

	if err := s.write(ProjectFile, t); err != nil {
		return err
	}

	for _, name := range []string{ColumnsFile, CardsFile} {
		err := os.Remove(filepath.Join(s.dir, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove stale %s: %w", name, err)
		}
	}
	return nil
}

// ListProjects returns the names of the project directories under
// projectsDir, sorted. A missing projectsDir yields an empty list.
func ListProjects(projectsDir string) ([]string, error) {
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read projects directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

type columnsDoc struct {
	Columns []board.Column `yaml:"columns"`
}

type cardsDoc struct {
	Cards []board.Card `yaml:"cards"`
}

type projectFile struct {
	tree    board.Tree
	unified bool
}

// loadProjectFile parses project.yaml. The file is a unified tree when it
// carries a columns or cards key.
func (s *Store) loadProjectFile() (*projectFile, bool) {
	data, ok := s.read(ProjectFile)
	if !ok {
		return nil, false
	}

	var keys map[string]yaml.Node
	if err := yaml.Unmarshal(data, &keys); err != nil {
		s.logger.Printf("Error loading %s: %v", s.path(ProjectFile), err)
		return nil, false
	}
	if len(keys) == 0 {
		s.logger.Printf("Ignoring empty %s", s.path(ProjectFile))
		return nil, false
	}

	var tree board.Tree
	if err := yaml.Unmarshal(data, &tree); err != nil {
		s.logger.Printf("Error loading %s: %v", s.path(ProjectFile), err)
		return nil, false
	}

	_, hasColumns := keys["columns"]
	_, hasCards := keys["cards"]
	return &projectFile{tree: tree, unified: hasColumns || hasCards}, true
}

// readYAML decodes a file into v. Missing, unreadable and malformed files
// all report false; the latter two are logged.
func (s *Store) readYAML(name string, v any) bool {
	data, ok := s.read(name)
	if !ok {
		return false
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		s.logger.Printf("Error loading %s: %v", s.path(name), err)
		return false
	}
	return true
}

func (s *Store) read(name string) ([]byte, bool) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Printf("Error reading %s: %v", s.path(name), err)
		}
		return nil, false
	}
	return data, true
}

// write marshals v with two-space indentation and replaces the file
// atomically. Key order follows struct field order.
func (s *Store) write(name string, v any) error {
	if err := os.MkdirAll(s.dir, dirPerms); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	path := s.path(name)
	data := buf.Bytes()
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	// atomic.WriteFile does not set permissions on new files
	if err := os.Chmod(path, filePerms); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if s.onWrite != nil {
		s.onWrite(path, data)
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
