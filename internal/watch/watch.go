// Package watch re-pushes a local project whenever its YAML files change.
//
// The watcher observes one project directory with fsnotify. Changes to
// project.yaml, columns.yaml or cards.yaml are debounced, then the push
// callback runs on the watcher's own goroutine, so pushes never overlap.
//
// Each file has a fingerprint. A burst that leaves every fingerprint as it
// was after the last push is skipped. Files the push writes itself (for
// example to record new remote ids) are reported through RecordWrite and
// do not trigger another push; any other change made while a push runs is
// pushed by the next burst.
package watch

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/githubtower/ghtower/internal/store"
)

// PushFunc pushes project to GitHub. changed holds the names of the
// project files that differ from the last push, in watch order.
type PushFunc func(ctx context.Context, project string, changed []string) error

// files are the watched project files.
var files = []string{store.ProjectFile, store.ColumnsFile, store.CardsFile}

// sum fingerprints one file; absent files have their own sum.
type sum [sha256.Size]byte

func sumOf(data []byte, present bool) sum {
	h := sha256.New()
	if present {
		h.Write([]byte{1})
		h.Write(data)
	} else {
		h.Write([]byte{0})
	}
	var out sum
	copy(out[:], h.Sum(nil))
	return out
}

// Config holds configuration for a Watcher.
type Config struct {
	// Debounce is how long the files must stay quiet before a push.
	Debounce time.Duration

	// OnPush is called after every push attempt with its error. Optional.
	OnPush func(project string, err error)

	// OnUnchanged is called when a burst left the files as they were. Optional.
	OnUnchanged func(project string)

	Logger *log.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Debounce: 500 * time.Millisecond,
		Logger:   log.New(os.Stderr, "[watch] ", log.LstdFlags),
	}
}

// Stats counts what a watcher did.
type Stats struct {
	Pushes   int
	Failures int
	// Unchanged counts debounced bursts that left the files as they were
	// after the last push.
	Unchanged int
}

// Watcher pushes one project when its files change.
type Watcher struct {
	dir     string
	project string
	push    PushFunc
	config  *Config

	fsw  *fsnotify.Watcher
	last map[string]sum

	mu    sync.Mutex
	stats Stats
	// own collects RecordWrite sums while a push runs; nil otherwise.
	own map[string]sum
}

// New watches the project directory dir. The watch is active when New
// returns; call Run to start pushing and Close if Run is never called.
func New(dir, project string, push PushFunc, config *Config) (*Watcher, error) {
	if push == nil {
		return nil, fmt.Errorf("push cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultConfig().Debounce
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[watch] ", log.LstdFlags)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat project directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{
		dir:     filepath.Clean(dir),
		project: project,
		push:    push,
		config:  config,
		fsw:     fsw,
	}
	w.last = w.sums()
	return w, nil
}

// Run processes file events until ctx is cancelled. It closes the
// underlying watcher before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	w.config.Logger.Printf("Watching %s", w.dir)

	timer := time.NewTimer(w.config.Debounce)
	timer.Stop()
	defer timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.config.Logger.Println("Stopping")
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			timer.Reset(w.config.Debounce)
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.config.Logger.Printf("Watcher error: %v", err)

		case <-fire:
			fire = nil
			w.flush(ctx)
		}
	}
}

// Close stops watching without running.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// RecordWrite tells the watcher that the running push wrote data to path.
// It is ignored outside a push and for files the watcher does not watch.
func (w *Watcher) RecordWrite(path string, data []byte) {
	if filepath.Dir(filepath.Clean(path)) != w.dir || !watched(filepath.Base(path)) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.own != nil {
		w.own[filepath.Base(path)] = sumOf(data, true)
	}
}

func watched(name string) bool {
	for _, f := range files {
		if f == name {
			return true
		}
	}
	return false
}

// relevant reports whether event touches one of the project files.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return watched(filepath.Base(event.Name))
}

func (w *Watcher) flush(ctx context.Context) {
	current := w.sums()
	var changed []string
	for _, name := range files {
		if current[name] != w.last[name] {
			changed = append(changed, name)
		}
	}
	if len(changed) == 0 {
		w.mu.Lock()
		w.stats.Unchanged++
		w.mu.Unlock()
		if w.config.OnUnchanged != nil {
			w.config.OnUnchanged(w.project)
		}
		return
	}

	w.mu.Lock()
	w.own = make(map[string]sum)
	w.mu.Unlock()

	w.config.Logger.Printf("Change detected in %v, pushing %s", changed, w.project)
	err := w.push(ctx, w.project, changed)

	after := w.sums()
	w.mu.Lock()
	own := w.own
	w.own = nil
	w.stats.Pushes++
	if err != nil {
		w.stats.Failures++
	}
	w.mu.Unlock()

	if err != nil {
		w.config.Logger.Printf("Push of %s failed: %v", w.project, err)
	}

	// A file rewritten by the push is settled at what the push wrote. A
	// file changed by anyone else keeps its pre-push sum so the pending
	// event pushes it.
	next := make(map[string]sum, len(files))
	for _, name := range files {
		next[name] = current[name]
		if written, ok := own[name]; ok && written == after[name] {
			next[name] = after[name]
		}
	}
	w.last = next

	if w.config.OnPush != nil {
		w.config.OnPush(w.project, err)
	}
}

// sums fingerprints every watched file. Unreadable files count as absent.
func (w *Watcher) sums() map[string]sum {
	out := make(map[string]sum, len(files))
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(w.dir, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			w.config.Logger.Printf("Warning: failed to read %s: %v", name, err)
		}
		out[name] = sumOf(data, err == nil)
	}
	return out
}
