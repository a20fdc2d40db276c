package syncer

import (
	"context"

	"github.com/githubtower/ghtower/internal/remote"
)

// Syncer mirrors local projects onto GitHub and back.
//
// Each call is one synchronous run of the state machine:
// resolve direction, load or fetch the project, ensure the remote project,
// reconcile columns, reconcile cards. A terminal failure aborts the
// remaining states and is returned; remote objects created before the
// failure are left in place.
type Syncer interface {
	// ResolveDirection decides which way an "auto" sync of the named
	// project runs. A local project is always pushed. A project that
	// exists only remotely is pulled. A project that exists nowhere yields
	// ErrNotFound.
	ResolveDirection(ctx context.Context, name string) (Direction, error)

	// Sync runs a sync in the given direction. DirectionAuto is resolved
	// with ResolveDirection first. A non-zero remoteID pulls that REST
	// project instead of looking it up by name.
	Sync(ctx context.Context, name string, dir Direction, remoteID int64) (*Result, error)

	// Push creates the remote project if needed, then creates every local
	// column missing remotely and every local card with a note whose
	// column exists remotely.
	//
	// Pushing twice does not duplicate columns. Cards have no identity
	// key, so pushing twice duplicates them.
	Push(ctx context.Context, name string) (*Result, error)

	// Pull fetches the remote project and overwrites the local project
	// with it in unified form. When name is empty the remote project's
	// name is used as the directory name.
	Pull(ctx context.Context, name string, remoteID int64) (*Result, error)
}

// Remote is the part of the GitHub client the syncer needs.
// *remote.Client satisfies it.
type Remote interface {
	ResolveOwner(ctx context.Context, owner string) remote.OwnerKind

	GetRESTProject(ctx context.Context, id int64) (*remote.RESTProject, error)
	FindRESTProject(ctx context.Context, owner, name string) (*remote.RESTProject, error)
	CreateRESTProject(ctx context.Context, name, body string) (*remote.RESTProject, error)
	ListColumns(ctx context.Context, projectID int64) ([]*remote.Column, error)
	CreateColumn(ctx context.Context, projectID int64, name string) (*remote.Column, error)
	ListCards(ctx context.Context, columnID int64) ([]*remote.Card, error)
	CreateCard(ctx context.Context, columnID int64, in remote.CardInput) (*remote.Card, error)
	MoveCard(ctx context.Context, cardID, columnID int64, position string) error

	FindGraphProject(ctx context.Context, owner, title string) (*remote.GraphProject, error)
	CreateGraphProject(ctx context.Context, owner, title string) error
	ListGraphItems(ctx context.Context, projectNodeID string) ([]*remote.Item, error)
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }
