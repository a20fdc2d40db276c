package syncer

import (
	"context"
	"fmt"
	"strconv"

	"github.com/githubtower/ghtower/internal/board"
	"github.com/githubtower/ghtower/internal/remote"
)

// Pull implements Syncer.Pull.
func (s *syncer) Pull(ctx context.Context, name string, remoteID int64) (*Result, error) {
	if name == "" && remoteID == 0 {
		return nil, fmt.Errorf("pull needs a project name or a GitHub project id")
	}

	owner := s.opts.Org
	if name != "" {
		owner = s.owner(name)
	}

	rp, err := s.resolvePullSource(ctx, owner, name, remoteID)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = rp.ProjectTitle()
	}

	res := &Result{Project: name, Direction: DirectionPull, Model: remote.ModelOf(rp)}
	project := projectFromRemote(rp.ProjectTitle(), owner, rp)
	res.RemoteID = project.RemoteID
	res.NodeID = project.NodeID

	var columns []board.Column
	var cards []board.Card
	switch p := rp.(type) {
	case *remote.GraphProject:
		columns, cards, err = s.pullGraph(ctx, p)
	case *remote.RESTProject:
		columns, cards, err = s.pullREST(ctx, p)
	}
	if err != nil {
		return nil, err
	}

	tree := board.NewTree(*project, columns, cards)
	st := s.store(name)
	if err := st.SaveTree(tree); err != nil {
		return nil, fmt.Errorf("failed to save project %q: %w", name, err)
	}
	if err := st.SaveCardColumnMap(tree); err != nil {
		s.emit(LevelWarn, "%s", res.warn("Could not write card/column report: %v", err))
	}

	res.ColumnsCreated = len(columns)
	res.CardsCreated = len(cards)
	s.emit(LevelSuccess, "Pulled %q: %d columns, %d cards", name, len(columns), len(cards))
	return res, nil
}

// resolvePullSource finds the remote project to pull: an explicit REST id,
// or a lookup by name with the graph model tried first for organizations.
func (s *syncer) resolvePullSource(ctx context.Context, owner, name string, remoteID int64) (remote.Project, error) {
	if remoteID != 0 {
		rp, err := s.remote.GetRESTProject(ctx, remoteID)
		if err != nil {
			return nil, fmt.Errorf("%w: GitHub project %d: %w", ErrNotFound, remoteID, err)
		}
		return rp, nil
	}

	rp := s.findRemote(ctx, owner, name)
	if rp == nil {
		return nil, fmt.Errorf("%w: no GitHub project named %q", ErrNotFound, name)
	}
	return rp, nil
}

// pullGraph turns graph items into cards. Columns are the distinct values of
// the status field in first-seen order; items without a status go to the
// fallback column, which is appended last and only when used.
func (s *syncer) pullGraph(ctx context.Context, p *remote.GraphProject) ([]board.Column, []board.Card, error) {
	items, err := s.remote.ListGraphItems(ctx, p.NodeID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list items of %q: %w", p.Title, err)
	}

	var columns []board.Column
	seen := make(map[string]bool)
	fallbackUsed := false
	cards := make([]board.Card, 0, len(items))

	for _, it := range items {
		status, ok := it.FieldValue(s.opts.StatusField)
		if !ok || status == "" {
			status = s.opts.FallbackColumn
			fallbackUsed = true
		} else if !seen[status] {
			seen[status] = true
			columns = append(columns, board.Column{Name: status})
		}

		cards = append(cards, board.Card{
			Column:     status,
			Note:       it.Title,
			ContentURL: it.URL,
			ItemID:     it.ID,
			ItemType:   it.Type,
		})
	}

	if fallbackUsed && !seen[s.opts.FallbackColumn] {
		columns = append(columns, board.Column{Name: s.opts.FallbackColumn})
	}
	return board.Renumber(columns), cards, nil
}

// pullREST reads columns in board order and the cards of each column.
func (s *syncer) pullREST(ctx context.Context, p *remote.RESTProject) ([]board.Column, []board.Card, error) {
	remoteColumns, err := s.remote.ListColumns(ctx, p.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list columns of %q: %w", p.Name, err)
	}

	columns := make([]board.Column, 0, len(remoteColumns))
	var cards []board.Card
	for i, col := range remoteColumns {
		columns = append(columns, board.Column{Name: col.Name, Position: i + 1, RemoteID: col.ID})

		remoteCards, err := s.remote.ListCards(ctx, col.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list cards of column %q: %w", col.Name, err)
		}
		for _, card := range remoteCards {
			if card.Archived {
				continue
			}
			cards = append(cards, board.Card{
				Column:     col.Name,
				Note:       card.Note,
				ContentURL: card.ContentURL,
				ItemID:     strconv.FormatInt(card.ID, 10),
				Position:   board.DefaultPosition,
			})
		}
	}
	return columns, cards, nil
}
