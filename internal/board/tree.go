package board

// Tree is the unified single-file form of a project: project fields, the
// ordered columns each carrying their cards, and a top-level list of cards
// whose column matches none of the defined columns.
type Tree struct {
	Name     string       `yaml:"name"`
	Body     string       `yaml:"body,omitempty"`
	Owner    string       `yaml:"owner,omitempty"`
	RemoteID int64        `yaml:"github_id,omitempty"`
	NodeID   string       `yaml:"github_node_id,omitempty"`
	Graph    bool         `yaml:"project_v2,omitempty"`
	Columns  []TreeColumn `yaml:"columns"`
	Cards    []Card       `yaml:"cards,omitempty"`
}

// TreeColumn is a column together with the cards placed in it.
type TreeColumn struct {
	Name     string     `yaml:"name"`
	Position int        `yaml:"position,omitempty"`
	RemoteID int64      `yaml:"github_id,omitempty"`
	Cards    []TreeCard `yaml:"cards,omitempty"`
}

// TreeCard is a card nested under its column; the column name is implied.
type TreeCard struct {
	Note       string `yaml:"note,omitempty"`
	Position   string `yaml:"position,omitempty"`
	ContentURL string `yaml:"content_url,omitempty"`
	ItemID     string `yaml:"item_id,omitempty"`
	ItemType   string `yaml:"item_type,omitempty"`
}

// NewTree nests cards under their columns. Cards naming an unknown column
// are kept in Tree.Cards so that nothing is lost.
func NewTree(p Project, columns []Column, cards []Card) *Tree {
	t := &Tree{
		Name:     p.Name,
		Body:     p.Body,
		Owner:    p.Owner,
		RemoteID: p.RemoteID,
		NodeID:   p.NodeID,
		Graph:    p.Graph,
		Columns:  make([]TreeColumn, 0, len(columns)),
	}

	for _, col := range columns {
		t.Columns = append(t.Columns, TreeColumn{
			Name:     col.Name,
			Position: col.Position,
			RemoteID: col.RemoteID,
		})
	}

	idx := ColumnIndex(columns)
	for _, card := range cards {
		i, ok := idx[card.Column]
		if !ok {
			t.Cards = append(t.Cards, card)
			continue
		}
		t.Columns[i].Cards = append(t.Columns[i].Cards, TreeCard{
			Note:       card.Note,
			Position:   card.Position,
			ContentURL: card.ContentURL,
			ItemID:     card.ItemID,
			ItemType:   card.ItemType,
		})
	}

	return t
}

// Project extracts the project fields.
func (t *Tree) Project() Project {
	return Project{
		Name:     t.Name,
		Body:     t.Body,
		Owner:    t.Owner,
		RemoteID: t.RemoteID,
		NodeID:   t.NodeID,
		Graph:    t.Graph,
	}
}

// FlatColumns extracts the columns without their cards.
func (t *Tree) FlatColumns() []Column {
	columns := make([]Column, 0, len(t.Columns))
	for _, col := range t.Columns {
		columns = append(columns, Column{
			Name:     col.Name,
			Position: col.Position,
			RemoteID: col.RemoteID,
		})
	}
	return columns
}

// FlatCards flattens the nested cards, re-attaching each parent column name.
// Cards come back grouped by column in column order, followed by cards with
// unknown columns. Order within each column is kept, but cards of different
// columns that were interleaved on input are not.
func (t *Tree) FlatCards() []Card {
	var cards []Card
	for _, col := range t.Columns {
		for _, tc := range col.Cards {
			cards = append(cards, Card{
				Column:     col.Name,
				Note:       tc.Note,
				Position:   tc.Position,
				ContentURL: tc.ContentURL,
				ItemID:     tc.ItemID,
				ItemType:   tc.ItemType,
			})
		}
	}
	cards = append(cards, t.Cards...)
	return cards
}

// CardCount returns the total number of cards in the tree.
func (t *Tree) CardCount() int {
	n := len(t.Cards)
	for _, col := range t.Columns {
		n += len(col.Cards)
	}
	return n
}
