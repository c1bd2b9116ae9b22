package mcp

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reload settles this long after the last write, so editors that save in
// several bursts trigger a single reload.
const reloadSettle = 500 * time.Millisecond

// Reloader swaps the server's rule set whenever the policy file changes
// on disk. A reload that fails to parse or compile leaves the running
// rules in place.
type Reloader struct {
	watcher *fsnotify.Watcher
	server  *Server
	paths   []string
}

// NewReloader starts watching the given policy files. Paths that are empty
// or do not exist yet are skipped.
func NewReloader(server *Server, paths []string) (*Reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch setup: %w", err)
	}

	var watched []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := watcher.Add(p); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", p, err)
		}
		watched = append(watched, p)
	}

	return &Reloader{
		watcher: watcher,
		server:  server,
		paths:   watched,
	}, nil
}

// Run blocks until ctx is cancelled, reloading on each settled change.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	var settle *time.Timer
	stopSettle := func() {
		if settle != nil {
			settle.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopSettle()
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			stopSettle()
			settle = time.AfterFunc(reloadSettle, r.reload)

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "policy watch: %v\n", err)
		}
	}
}

func (r *Reloader) reload() {
	if err := r.server.ReloadPolicy(); err != nil {
		fmt.Fprintf(os.Stderr, "policy reload failed, keeping previous rules: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "policy rules reloaded\n")
}
