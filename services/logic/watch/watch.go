// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch keeps the graph manager in sync with a directory of graph
// description files.
//
// Every *.yaml, *.yml or *.json file in the directory is one graph. Its id
// is derived from the file name (see GraphID), so editing a file replaces
// the graph in place and removing it deletes the graph. Events are
// debounced; after the window closes each touched path is reconciled with
// what is on disk, which makes editor save sequences (write temp, rename)
// converge on the final content.
//
// Graphs created over the API get random (version 4) ids; only the watcher
// registers name-based (version 5) ids. Start uses that to drop graphs
// whose file disappeared while the service was down.
//
// # Thread Safety
//
// Start and Stop are safe to call from any goroutine. Reconciliation runs
// on a single goroutine.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/AleutianAI/LogicNodes/services/logic/graphdesc"
	"github.com/AleutianAI/LogicNodes/services/logic/manager"
)

// fileNamespace seeds the name-based graph ids.
var fileNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("logicnodes.watch"))

// GraphID returns the stable id of the graph loaded from path. Only the
// base name matters.
func GraphID(path string) uuid.UUID {
	return uuid.NewSHA1(fileNamespace, []byte(filepath.Base(path)))
}

// Registry is the subset of the manager the watcher drives.
type Registry interface {
	Put(ctx context.Context, id uuid.UUID, desc *graphdesc.Description) error
	Setup(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	List() []manager.GraphInfo
}

// Options configures a Watcher.
type Options struct {
	// Debounce is how long to wait for more events before reconciling.
	Debounce time.Duration

	// Logger receives load failures and reconciliation results.
	Logger *slog.Logger
}

// DefaultOptions returns a 200ms debounce window.
func DefaultOptions() Options {
	return Options{Debounce: 200 * time.Millisecond}
}

// Watcher reloads graph descriptions from one directory.
type Watcher struct {
	dir      string
	reg      Registry
	debounce time.Duration
	logger   *slog.Logger

	fsw      *fsnotify.Watcher
	paths    chan string
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// New creates a watcher for dir. Call Start to load and begin watching.
func New(dir string, reg Registry, opts Options) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch dir: %s is not a directory", dir)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultOptions().Debounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		dir:      dir,
		reg:      reg,
		debounce: opts.Debounce,
		logger:   logger.With(slog.String("component", "watch"), slog.String("dir", dir)),
		fsw:      fsw,
		paths:    make(chan string, 256),
		done:     make(chan struct{}),
	}, nil
}

// Start loads every description already in the directory, then watches
// for changes until ctx is cancelled or Stop is called.
//
// Outputs:
//
//	int - The number of graphs loaded by the initial scan.
//	error - Non-nil if the directory could not be read or watched.
func (w *Watcher) Start(ctx context.Context) (int, error) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return 0, nil
	}
	w.started = true
	w.mu.Unlock()

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("read watch dir: %w", err)
	}
	loaded := 0
	present := make(map[uuid.UUID]struct{}, len(entries))
	for _, e := range entries {
		path := filepath.Join(w.dir, e.Name())
		if !e.Type().IsRegular() || !isDescription(path) {
			continue
		}
		present[GraphID(path)] = struct{}{}
		if w.reconcile(ctx, path) {
			loaded++
		}
	}
	w.prune(ctx, present)

	if err := w.fsw.Add(w.dir); err != nil {
		return loaded, fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.wg.Add(2)
	go w.processEvents(ctx)
	go w.debounceLoop(ctx)

	w.logger.Info("watching graph descriptions", slog.Int("loaded", loaded))
	return loaded, nil
}

// Stop ends watching and waits for the goroutines to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsw.Close()
	})
	w.wg.Wait()
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !isDescription(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			select {
			case w.paths <- event.Name:
			default:
				w.logger.Warn("event buffer full, dropping event", slog.String("path", event.Name))
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("fsnotify error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	defer w.wg.Done()
	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		slices.Sort(paths)
		clear(pending)
		for _, p := range paths {
			w.reconcile(ctx, p)
		}
		timer, timerC = nil, nil
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case p := <-w.paths:
			pending[p] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			flush()
		}
	}
}

// reconcile makes the registry match the file at path: load it if it
// exists, delete its graph otherwise. It reports whether a graph was
// registered.
func (w *Watcher) reconcile(ctx context.Context, path string) bool {
	id := GraphID(path)
	log := w.logger.With(slog.String("path", path), slog.String("graph_id", id.String()))

	desc, err := graphdesc.LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		err := w.reg.Delete(ctx, id)
		switch {
		case err == nil:
			log.Info("graph removed with its file")
		case !errors.Is(err, manager.ErrGraphNotFound):
			log.Warn("delete failed", slog.String("error", err.Error()))
		}
		return false
	}
	if err != nil {
		log.Warn("cannot load description", slog.String("error", err.Error()))
		return false
	}

	if err := w.reg.Put(ctx, id, desc); err != nil {
		log.Warn("cannot register graph", slog.String("error", err.Error()))
		return false
	}
	if err := w.reg.Setup(ctx, id); err != nil {
		log.Warn("graph registered but setup failed", slog.String("error", err.Error()))
		return true
	}
	log.Info("graph loaded", slog.String("graph", desc.Name))
	return true
}

// prune deletes registered file-backed graphs whose file is not in present.
func (w *Watcher) prune(ctx context.Context, present map[uuid.UUID]struct{}) {
	for _, g := range w.reg.List() {
		if g.ID.Version() != 5 {
			continue
		}
		if _, ok := present[g.ID]; ok {
			continue
		}
		log := w.logger.With(slog.String("graph_id", g.ID.String()), slog.String("graph", g.Name))
		err := w.reg.Delete(ctx, g.ID)
		switch {
		case err == nil:
			log.Info("graph removed, its file is gone")
		case !errors.Is(err, manager.ErrGraphNotFound):
			log.Warn("delete failed", slog.String("error", err.Error()))
		}
	}
}

func isDescription(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	_, err := graphdesc.FormatForPath(path)
	return err == nil
}
