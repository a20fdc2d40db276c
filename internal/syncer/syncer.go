package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/githubtower/ghtower/internal/board"
	"github.com/githubtower/ghtower/internal/remote"
	"github.com/githubtower/ghtower/internal/store"
)

var (
	// ErrNotFound is returned when the project exists neither where the
	// run needs it nor anywhere it could be fetched from.
	ErrNotFound = errors.New("project not found")

	// ErrUnknownDirection is returned for a direction other than auto,
	// to-github or from-github.
	ErrUnknownDirection = errors.New("unknown sync direction")

	// ErrInvalidColumns is returned by a push whose local columns are not
	// unique, non-empty names. Nothing is created remotely.
	ErrInvalidColumns = errors.New("invalid local columns")
)

// Direction selects which side of a sync is the source.
type Direction string

const (
	DirectionAuto Direction = "auto"
	DirectionPush Direction = "to-github"
	DirectionPull Direction = "from-github"
)

// ParseDirection parses a --direction flag value. Empty means auto.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.TrimSpace(s)); d {
	case "":
		return DirectionAuto, nil
	case DirectionAuto, DirectionPush, DirectionPull:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q (want auto, to-github or from-github)", ErrUnknownDirection, s)
	}
}

// Defaults for Options.
const (
	DefaultStatusField    = "Status"
	DefaultFallbackColumn = "No Status"
)

// Options configures a Syncer.
type Options struct {
	// ProjectsDir holds one directory per project.
	ProjectsDir string

	// Org is the owner used when a project names none.
	Org string

	// Confirm gates remote creation. Nil means every question is answered
	// yes.
	Confirm Confirmer

	// Sink receives progress events. Nil means Discard.
	Sink Sink

	// Logger receives diagnostic logging. Nil means stderr.
	Logger *log.Logger

	// StatusField is the graph field whose values become columns on pull.
	StatusField string

	// FallbackColumn holds graph items without a status value.
	FallbackColumn string

	// NoCreate makes a push fail with ErrNotFound instead of creating a
	// missing GitHub project.
	NoCreate bool

	// SkipCards makes a push stop after the columns.
	SkipCards bool

	// OnWrite is called with the path and bytes of every local file the
	// syncer writes. Optional.
	OnWrite func(path string, data []byte)
}

// syncer implements the Syncer interface.
type syncer struct {
	remote      Remote
	opts        Options
	logger      *log.Logger
	storeLogger *log.Logger
}

// New creates a Syncer over the given remote.
//
// If opts.Logger is nil, a default logger writing to stderr is used.
func New(r Remote, opts Options) Syncer {
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	if opts.Sink == nil {
		opts.Sink = Discard
	}
	if opts.StatusField == "" {
		opts.StatusField = DefaultStatusField
	}
	if opts.FallbackColumn == "" {
		opts.FallbackColumn = DefaultFallbackColumn
	}
	return &syncer{
		remote:      r,
		opts:        opts,
		logger:      opts.Logger,
		storeLogger: log.New(opts.Logger.Writer(), "[store] ", opts.Logger.Flags()),
	}
}

func (s *syncer) store(name string) *store.Store {
	st := store.New(filepath.Join(s.opts.ProjectsDir, name), s.storeLogger)
	if s.opts.OnWrite != nil {
		st.OnWrite(s.opts.OnWrite)
	}
	return st
}

func (s *syncer) emit(level Level, format string, args ...any) {
	s.opts.Sink.Emit(Event{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (s *syncer) confirm(prompt string) bool {
	if s.opts.Confirm == nil {
		return true
	}
	return s.opts.Confirm.Confirm(prompt)
}

// owner returns the owner of the named project: the one recorded locally,
// or else the configured organization.
func (s *syncer) owner(name string) string {
	if p, ok := s.store(name).LoadProject(); ok && p.Owner != "" {
		return p.Owner
	}
	return s.opts.Org
}

// findRemote looks a project up by name: the graph model first when owner
// is an organization, then the REST model. Lookup failures are logged and
// reported as not found.
func (s *syncer) findRemote(ctx context.Context, owner, name string) remote.Project {
	if owner != "" && s.remote.ResolveOwner(ctx, owner) == remote.OwnerOrganization {
		gp, err := s.remote.FindGraphProject(ctx, owner, name)
		if err == nil {
			return gp
		}
		s.logger.Printf("graph lookup of %q under %s failed: %v", name, owner, err)
	}

	rp, err := s.remote.FindRESTProject(ctx, owner, name)
	if err != nil {
		s.logger.Printf("REST lookup of %q failed: %v", name, err)
		return nil
	}
	return rp
}

// ResolveDirection implements Syncer.ResolveDirection.
func (s *syncer) ResolveDirection(ctx context.Context, name string) (Direction, error) {
	if s.store(name).Exists() {
		return DirectionPush, nil
	}
	if s.findRemote(ctx, s.opts.Org, name) != nil {
		return DirectionPull, nil
	}
	return "", fmt.Errorf("%w: %q exists neither locally nor on GitHub", ErrNotFound, name)
}

// Sync implements Syncer.Sync.
func (s *syncer) Sync(ctx context.Context, name string, dir Direction, remoteID int64) (*Result, error) {
	if dir == "" || dir == DirectionAuto {
		if remoteID != 0 && !s.store(name).Exists() {
			dir = DirectionPull
		} else {
			resolved, err := s.ResolveDirection(ctx, name)
			if err != nil {
				return nil, err
			}
			dir = resolved
		}
		s.logger.Printf("resolved direction for %q: %s", name, dir)
	}

	switch dir {
	case DirectionPush:
		return s.Push(ctx, name)
	case DirectionPull:
		return s.Pull(ctx, name, remoteID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDirection, dir)
	}
}

// projectFromRemote builds the local project record for a remote project.
func projectFromRemote(name, owner string, rp remote.Project) *board.Project {
	switch p := rp.(type) {
	case *remote.GraphProject:
		return &board.Project{
			Name:     name,
			Body:     p.ShortDescription,
			Owner:    owner,
			RemoteID: p.Number,
			NodeID:   p.NodeID,
			Graph:    true,
		}
	case *remote.RESTProject:
		return &board.Project{
			Name:     name,
			Body:     p.Body,
			Owner:    owner,
			RemoteID: p.ID,
		}
	}
	return nil
}

// DefaultBody is the description given to projects created without one.
func DefaultBody(name string) string {
	return "Project: " + name
}
