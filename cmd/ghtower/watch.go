package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/githubtower/ghtower/internal/dashboard"
	"github.com/githubtower/ghtower/internal/store"
	"github.com/githubtower/ghtower/internal/syncer"
	"github.com/githubtower/ghtower/internal/ui"
	"github.com/githubtower/ghtower/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:     "watch <project>",
	GroupID: "sync",
	Short:   "Push a project to GitHub whenever its files change",
	Long: `Watch a local project and push it to GitHub after every change to
project.yaml, columns.yaml or cards.yaml.

Changes are debounced (watch.debounce_ms, default 500ms) and pushes run one
at a time. The watcher does not ask questions: new columns and cards are
created without confirmation, a missing GitHub project is not created.

Cards have no identity on GitHub, so every push that includes cards creates
all of them again. With separate files, cards are pushed only when
cards.yaml changed; a project kept in a single project.yaml pushes its
cards on every change.

With --dashboard ADDR every push is also streamed as JSON to WebSocket
clients of ws://ADDR/ws.

Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		folder, _ := cmd.Flags().GetString("folder")
		dashAddr, _ := cmd.Flags().GetString("dashboard")
		c := withFolder(folder, false)

		st := projectStore(c, name)
		if !st.Exists() {
			fmt.Fprintf(os.Stderr, "Error: project not found: %s\n", name)
			os.Exit(1)
		}
		if p, ok := st.LoadProject(); !ok || !p.Synced() {
			fmt.Fprintf(os.Stderr, "Error: project %s is not linked to GitHub yet\n", name)
			fmt.Fprintf(os.Stderr, "Run 'ghtower sync %s' once first.\n", name)
			os.Exit(1)
		}

		client := newRemote(c)
		var w *watch.Watcher
		newWatchSyncer := func(skipCards bool) syncer.Syncer {
			return syncer.New(client, syncer.Options{
				ProjectsDir:    c.ProjectsDir,
				Org:            c.Org,
				NoCreate:       true,
				SkipCards:      skipCards,
				OnWrite:        func(path string, data []byte) { w.RecordWrite(path, data) },
				Sink:           ui.Sink(os.Stdout),
				Logger:         newLogger("[sync] "),
				StatusField:    c.StatusField,
				FallbackColumn: c.FallbackColumn,
			})
		}
		full, columnsOnly := newWatchSyncer(false), newWatchSyncer(true)

		var feed *dashboard.Handler
		if dashAddr != "" {
			server := dashboard.NewServer(&dashboard.Config{Addr: dashAddr, Logger: newLogger("[dashboard] ")})
			if err := server.Start(); err != nil {
				fail("cannot start dashboard", err)
			}
			defer server.Stop()
			feed = dashboard.NewHandler(server, name, newLogger("[dashboard] "))
			fmt.Printf("%s Dashboard on http://%s\n", ui.RenderAccent("→"), server.Addr())
		}

		// Push and OnPush run on the watcher goroutine, one at a time.
		var (
			lastResult *syncer.Result
			lastTook   time.Duration
		)
		push := func(ctx context.Context, project string, changed []string) error {
			s := full
			// Every push creates every card again, so cards are only pushed
			// when they may have changed.
			if !st.Unified() && !slices.Contains(changed, store.CardsFile) {
				s = columnsOnly
			}
			started := time.Now()
			res, err := runSync(ctx, s, project, syncer.DirectionPush, 0)
			lastResult, lastTook = res, time.Since(started)
			if err != nil {
				return err
			}
			ui.PrintResult(os.Stdout, res)
			return nil
		}

		watcher, err := watch.New(st.Dir(), name, push, &watch.Config{
			Debounce: time.Duration(c.Watch.DebounceMS) * time.Millisecond,
			OnPush: func(project string, err error) {
				if err != nil {
					fmt.Printf("%s Push of %s failed: %v\n", ui.RenderFail("✗"), project, err)
				}
				if feed != nil {
					feed.OnPush(lastResult, err, lastTook)
				}
			},
			OnUnchanged: func(string) {
				if feed != nil {
					feed.OnUnchanged()
				}
			},
			Logger: newLogger("[watch] "),
		})
		if err != nil {
			fail("cannot watch project", err)
		}
		w = watcher

		fmt.Printf("%s Watching %s\n", ui.RenderAccent("👀"), st.Dir())
		fmt.Println("\nPress Ctrl+C to stop")

		if err := w.Run(cmd.Context()); err != nil {
			fail("watcher stopped", err)
		}
		stats := w.Stats()
		fmt.Printf("\n%s Stopped after %d push(es), %d failed\n", ui.RenderPass("✓"), stats.Pushes, stats.Failures)
	},
}

func init() {
	watchCmd.Flags().String("folder", "", "Folder (relative to the working directory) holding the projects")
	watchCmd.Flags().String("dashboard", "", "Serve a live WebSocket feed of pushes on this address (e.g. localhost:8080)")

	rootCmd.AddCommand(watchCmd)
}
