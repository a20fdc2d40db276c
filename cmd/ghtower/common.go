package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/githubtower/ghtower/internal/config"
	"github.com/githubtower/ghtower/internal/journal"
	"github.com/githubtower/ghtower/internal/remote"
	"github.com/githubtower/ghtower/internal/store"
	"github.com/githubtower/ghtower/internal/syncer"
	"github.com/githubtower/ghtower/internal/ui"
)

// fail prints an error with its remediation hint and exits 1.
func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s %s: %v\n", ui.RenderFail("Error:"), what, err)
	if hint := remote.HintOf(err); hint != "" {
		fmt.Fprintf(os.Stderr, "%s %s\n", ui.RenderWarn("Hint:"), hint)
	}
	os.Exit(1)
}

// withFolder returns the configuration for a --folder value, which is
// relative to the working directory. create makes the folder.
func withFolder(folder string, create bool) *config.Config {
	if folder == "" {
		return cfg
	}
	abs, err := filepath.Abs(folder)
	if err != nil {
		fail("invalid folder", err)
	}
	if create {
		if err := os.MkdirAll(abs, 0755); err != nil {
			fail("cannot create folder", err)
		}
	}
	fmt.Println(ui.RenderDim("Using folder: " + abs))
	return cfg.WithProjectsDir(abs)
}

// projectStore returns the store of a project under c.
func projectStore(c *config.Config, name string) *store.Store {
	return store.New(c.ProjectDir(name), newLogger("[store] "))
}

// newRemote builds a GitHub client or exits when no token is configured.
func newRemote(c *config.Config) *remote.Client {
	if err := c.RequireToken(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderFail("Error:"), err)
		fmt.Fprintf(os.Stderr, "Add it to %s or export it in your shell.\n", filepath.Join(c.Dir, ".env"))
		os.Exit(1)
	}
	client, err := remote.New(c.Token,
		remote.WithAPIURL(c.APIURL),
		remote.WithGraphURL(c.GraphQLURL),
		remote.WithLogger(newLogger("[remote] ")),
	)
	if err != nil {
		fail("cannot create GitHub client", err)
	}
	return client
}

// newSyncer wires a syncer for c over client.
func newSyncer(c *config.Config, client *remote.Client, assumeYes bool) syncer.Syncer {
	return syncer.New(client, syncer.Options{
		ProjectsDir:    c.ProjectsDir,
		Org:            c.Org,
		Confirm:        ui.NewPrompter(assumeYes),
		Sink:           ui.Sink(os.Stdout),
		Logger:         newLogger("[sync] "),
		StatusField:    c.StatusField,
		FallbackColumn: c.FallbackColumn,
	})
}

// recordRun appends a sync run to the journal. Journal failures are
// logged, never fatal.
func recordRun(ctx context.Context, project string, res *syncer.Result, started time.Time, runErr error) {
	logger := newLogger("[journal] ")
	db, err := journal.Open(cfg.Journal)
	if err != nil {
		logger.Printf("Warning: %v", err)
		return
	}
	defer db.Close()

	run := journal.FromResult(project, res, started, time.Now(), runErr)
	if err := db.Record(ctx, run); err != nil {
		logger.Printf("Warning: %v", err)
	}
}

// runSync runs one sync and records it. It returns the result and the
// error of the run.
func runSync(ctx context.Context, s syncer.Syncer, name string, dir syncer.Direction, remoteID int64) (*syncer.Result, error) {
	started := time.Now()
	res, err := s.Sync(ctx, name, dir, remoteID)
	// An interrupted run is still recorded.
	recordRun(context.WithoutCancel(ctx), name, res, started, err)
	return res, err
}

// syncFailureHelp prints the next steps after a failed sync.
func syncFailureHelp(name string, err error) {
	if errors.Is(err, syncer.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "Create the project first with: ghtower create %s\n", name)
		fmt.Fprintf(os.Stderr, "Or sync from GitHub with: ghtower sync %s --direction from-github --github-id <id>\n", name)
	}
}

// orNone returns s, or "-" when s is blank.
func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
