package syncer

import (
	"context"
	"fmt"

	"github.com/githubtower/ghtower/internal/board"
	"github.com/githubtower/ghtower/internal/remote"
	"github.com/githubtower/ghtower/internal/store"
)

// Push implements Syncer.Push.
func (s *syncer) Push(ctx context.Context, name string) (*Result, error) {
	res := &Result{Project: name, Direction: DirectionPush, Model: remote.ModelREST}

	st := s.store(name)
	if !st.Exists() {
		return nil, fmt.Errorf("%w: no local project %q in %s", ErrNotFound, name, s.opts.ProjectsDir)
	}

	project, err := s.loadOrFetch(ctx, st, name)
	if err != nil {
		return nil, err
	}
	res.RemoteID = project.RemoteID
	res.NodeID = project.NodeID

	if columns, ok := st.LoadColumns(); ok {
		if err := board.ValidateColumns(columns); err != nil {
			return res, fmt.Errorf("%w: %v", ErrInvalidColumns, err)
		}
	}

	if project.Graph {
		res.Model = remote.ModelGraph
		res.MetadataOnly = true
		s.emit(LevelWarn, "%s", res.warn("Project %q is an organization (Projects v2) project; pushing columns and cards is not supported", project.Name))
		return res, nil
	}

	rp, err := s.ensureRemoteProject(ctx, st, project, res)
	if err != nil || rp == nil {
		return res, err
	}

	if err := s.pushColumns(ctx, st, rp, res); err != nil || res.Cancelled {
		return res, err
	}
	if s.opts.SkipCards {
		s.logger.Printf("cards of %q not pushed: SkipCards is set", project.Name)
	} else if err := s.pushCards(ctx, st, rp, res); err != nil {
		return res, err
	}

	s.emit(LevelSuccess, "Pushed %q: %d columns and %d cards created, %d cards skipped",
		project.Name, res.ColumnsCreated, res.CardsCreated, res.CardsSkipped)
	return res, nil
}

// loadOrFetch loads project.yaml, or materializes it from the remote
// project of the same name.
func (s *syncer) loadOrFetch(ctx context.Context, st *store.Store, name string) (*board.Project, error) {
	if p, ok := st.LoadProject(); ok {
		return p, nil
	}

	owner := s.opts.Org
	rp := s.findRemote(ctx, owner, name)
	if rp == nil {
		return nil, fmt.Errorf("%w: %q has no project.yaml and no GitHub project of that name", ErrNotFound, name)
	}

	p := projectFromRemote(name, owner, rp)
	if err := st.SaveProject(p); err != nil {
		return nil, fmt.Errorf("failed to save fetched project: %w", err)
	}
	s.emit(LevelInfo, "Fetched project %q from GitHub", name)
	return p, nil
}

// ensureRemoteProject returns the REST project backing p, creating it when
// needed. A nil project with a nil error means the run ended early
// (cancelled or metadata-only); res says which.
func (s *syncer) ensureRemoteProject(ctx context.Context, st *store.Store, p *board.Project, res *Result) (*remote.RESTProject, error) {
	if p.RemoteID != 0 {
		rp, err := s.remote.GetRESTProject(ctx, p.RemoteID)
		if err == nil {
			return rp, nil
		}
		s.logger.Printf("project %d not reachable, will create: %v", p.RemoteID, err)
		s.emit(LevelWarn, "%s", res.warn("GitHub project %d for %q was not found", p.RemoteID, p.Name))
	}

	if s.opts.NoCreate {
		return nil, fmt.Errorf("%w: %q does not exist on GitHub", ErrNotFound, p.Name)
	}
	if !s.confirm(fmt.Sprintf("Project %q does not exist on GitHub. Create it?", p.Name)) {
		res.Cancelled = true
		s.emit(LevelInfo, "Cancelled: project not created")
		return nil, nil
	}

	owner := p.Owner
	if owner == "" {
		owner = s.opts.Org
	}

	kind := remote.OwnerUser
	if owner != "" {
		kind = s.remote.ResolveOwner(ctx, owner)
	}
	if kind == remote.OwnerUnknown &&
		!s.confirm(fmt.Sprintf("Owner %q is neither an organization nor a user. Continue anyway?", owner)) {
		res.Cancelled = true
		s.emit(LevelInfo, "Cancelled: owner %q could not be resolved", owner)
		return nil, nil
	}

	if kind == remote.OwnerOrganization {
		return nil, s.createGraphProject(ctx, st, p, owner, res)
	}

	body := p.Body
	if body == "" {
		body = DefaultBody(p.Name)
	}
	rp, err := s.remote.CreateRESTProject(ctx, p.Name, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create project %q: %w", p.Name, err)
	}

	p.RemoteID = rp.ID
	p.NodeID = ""
	if err := st.SaveProject(p); err != nil {
		return nil, fmt.Errorf("created project %d but failed to record it locally: %w", rp.ID, err)
	}
	res.RemoteID = rp.ID
	s.emit(LevelSuccess, "Created GitHub project %q (id %d)", p.Name, rp.ID)
	return rp, nil
}

// createGraphProject creates an organization project, looks it up to learn
// its ids and records them locally. Columns and cards are not pushed.
func (s *syncer) createGraphProject(ctx context.Context, st *store.Store, p *board.Project, owner string, res *Result) error {
	if err := s.remote.CreateGraphProject(ctx, owner, p.Name); err != nil {
		return fmt.Errorf("failed to create organization project %q: %w", p.Name, err)
	}
	gp, err := s.remote.FindGraphProject(ctx, owner, p.Name)
	if err != nil {
		return fmt.Errorf("created organization project %q but could not look it up: %w", p.Name, err)
	}

	p.Owner = owner
	p.Graph = true
	p.NodeID = gp.NodeID
	p.RemoteID = gp.Number
	if err := st.SaveProject(p); err != nil {
		return fmt.Errorf("created project %s but failed to record it locally: %w", gp.NodeID, err)
	}

	res.Model = remote.ModelGraph
	res.MetadataOnly = true
	res.RemoteID = gp.Number
	res.NodeID = gp.NodeID
	s.emit(LevelSuccess, "Created organization project %q (#%d)", p.Name, gp.Number)
	s.emit(LevelWarn, "%s", res.warn("Columns and cards are not pushed to organization projects"))
	return nil
}

// pushColumns creates every local column whose name is missing remotely, in
// local order. Remote-only columns are left alone. Remote column ids are
// recorded on the local columns.
func (s *syncer) pushColumns(ctx context.Context, st *store.Store, rp *remote.RESTProject, res *Result) error {
	local, _ := st.LoadColumns()

	existing, err := s.remote.ListColumns(ctx, rp.ID)
	if err != nil {
		return fmt.Errorf("failed to list columns of project %d: %w", rp.ID, err)
	}
	ids := make(map[string]int64, len(existing))
	for _, col := range existing {
		ids[col.Name] = col.ID
	}

	var missing []board.Column
	for _, col := range local {
		if _, ok := ids[col.Name]; !ok {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		if !s.confirm(fmt.Sprintf("Create %d column(s) on GitHub?", len(missing))) {
			res.Cancelled = true
			s.emit(LevelInfo, "Cancelled: no columns created")
			return nil
		}
		for _, col := range missing {
			created, err := s.remote.CreateColumn(ctx, rp.ID, col.Name)
			if err != nil {
				return fmt.Errorf("failed to create column %q: %w", col.Name, err)
			}
			ids[col.Name] = created.ID
			res.ColumnsCreated++
			s.emit(LevelInfo, "Created column %q", col.Name)
		}
	}

	changed := false
	for i := range local {
		if id := ids[local[i].Name]; id != 0 && local[i].RemoteID != id {
			local[i].RemoteID = id
			changed = true
		}
	}
	if changed {
		if err := st.SaveColumns(local); err != nil {
			s.emit(LevelWarn, "%s", res.warn("Could not record column ids locally: %v", err))
		}
	}
	return nil
}

// pushCards creates every local card with a note whose column exists
// remotely. Cards are never matched against existing remote cards.
func (s *syncer) pushCards(ctx context.Context, st *store.Store, rp *remote.RESTProject, res *Result) error {
	cards, _ := st.LoadCards()
	if len(cards) == 0 {
		return nil
	}

	columns, err := s.remote.ListColumns(ctx, rp.ID)
	if err != nil {
		return fmt.Errorf("failed to list columns of project %d: %w", rp.ID, err)
	}
	byName := make(map[string]*remote.Column, len(columns))
	for _, col := range columns {
		if _, dup := byName[col.Name]; !dup {
			byName[col.Name] = col
		}
	}

	type pending struct {
		card   board.Card
		column *remote.Column
	}
	var todo []pending
	for _, card := range cards {
		if card.Note == "" {
			res.CardsSkipped++
			s.logger.Printf("skipping card without note in column %q", card.Column)
			continue
		}
		col, ok := byName[card.Column]
		if !ok {
			res.CardsSkipped++
			s.emit(LevelWarn, "%s", res.warn("Skipped card %q: column %q does not exist on GitHub", card.Label(), card.Column))
			continue
		}
		todo = append(todo, pending{card: card, column: col})
	}

	if len(todo) == 0 {
		return nil
	}
	if !s.confirm(fmt.Sprintf("Create %d card(s) on GitHub?", len(todo))) {
		res.Cancelled = true
		s.emit(LevelInfo, "Cancelled: no cards created")
		return nil
	}

	for _, p := range todo {
		created, err := s.remote.CreateCard(ctx, p.column.ID, remote.CardInput{Note: p.card.Note})
		if err != nil {
			return fmt.Errorf("failed to create card %q: %w", p.card.Label(), err)
		}
		res.CardsCreated++
		s.placeCard(ctx, created, p.column, p.card, res)
	}
	return nil
}

// placeCard applies a card's position hint. New cards land on top, so only
// other hints need a move. Bad hints and failed moves leave the card on top.
func (s *syncer) placeCard(ctx context.Context, created *remote.Card, col *remote.Column, card board.Card, res *Result) {
	pos, err := board.ParsePosition(card.Position)
	if err != nil {
		s.emit(LevelWarn, "%s", res.warn("Card %q left at top: %v", card.Label(), err))
		return
	}
	if pos.Kind == board.DefaultPosition {
		return
	}
	if err := s.remote.MoveCard(ctx, created.ID, col.ID, pos.String()); err != nil {
		s.emit(LevelWarn, "%s", res.warn("Card %q left at top: could not move to %s: %v", card.Label(), pos, err))
	}
}
