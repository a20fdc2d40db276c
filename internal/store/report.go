package store

import (
	"github.com/githubtower/ghtower/internal/board"
)

type cardColumnMap struct {
	Project    string            `yaml:"project"`
	Columns    []cardColumnEntry `yaml:"columns"`
	Unassigned []unassignedEntry `yaml:"unassigned,omitempty"`
}

type cardColumnEntry struct {
	Name  string   `yaml:"name"`
	Count int      `yaml:"count"`
	Cards []string `yaml:"cards,omitempty"`
}

type unassignedEntry struct {
	Column string `yaml:"column"`
	Card   string `yaml:"card"`
}

// SaveCardColumnMap writes a human-readable summary of which cards sit in
// which column. It is informational only and never read back.
func (s *Store) SaveCardColumnMap(t *board.Tree) error {
	doc := cardColumnMap{
		Project: t.Name,
		Columns: make([]cardColumnEntry, 0, len(t.Columns)),
	}
	for _, col := range t.Columns {
		entry := cardColumnEntry{Name: col.Name, Count: len(col.Cards)}
		for _, tc := range col.Cards {
			entry.Cards = append(entry.Cards, board.Card{
				Note:       tc.Note,
				ContentURL: tc.ContentURL,
				ItemID:     tc.ItemID,
			}.Label())
		}
		doc.Columns = append(doc.Columns, entry)
	}
	for _, card := range t.Cards {
		doc.Unassigned = append(doc.Unassigned, unassignedEntry{Column: card.Column, Card: card.Label()})
	}
	return s.write(CardColumnMapFile, doc)
}
