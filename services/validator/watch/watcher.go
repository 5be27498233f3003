// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch turns filesystem activity into document lifecycle events.
package watch

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventKind classifies a document event.
type EventKind int

const (
	// DocumentOpened is emitted for each matching file found on startup
	// and for files created while watching.
	DocumentOpened EventKind = iota

	// DocumentSaved is emitted when a matching file is written.
	DocumentSaved

	// DocumentClosed is emitted when a matching file is removed or
	// renamed away.
	DocumentClosed

	// ConfigChanged is emitted when an explicitly watched file (the
	// configuration) is written or replaced.
	ConfigChanged
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case DocumentOpened:
		return "opened"
	case DocumentSaved:
		return "saved"
	case DocumentClosed:
		return "closed"
	case ConfigChanged:
		return "config-changed"
	default:
		return "unknown"
	}
}

// Event is one document lifecycle notification.
type Event struct {
	// Kind is the lifecycle transition.
	Kind EventKind

	// Path is the absolute file path.
	Path string

	// Time is when the change was observed.
	Time time.Time
}

// Handler receives events on the watcher's dispatch goroutine.
type Handler func(Event)

// Watcher observes a workspace for document and config file changes.
//
// # Description
//
// Recursively watches the workspace root, reports files matching the
// configured extensions as documents, and reports writes to explicitly
// registered config files separately. Editors produce bursts of writes per
// save; burst coalescing is the validation scheduler's job, so events here
// are dispatched as they arrive.
//
// # Thread Safety
//
// Safe for concurrent use. The handler is called from a single goroutine.
type Watcher struct {
	root       string
	extensions []string
	handler    Handler
	fsw        *fsnotify.Watcher
	configs    map[string]bool
	log        *slog.Logger

	done     chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex
	watching bool
}

// ignoredDirs are never descended into.
var ignoredDirs = []string{".git", ".lintwatch", "node_modules", ".idea", "__pycache__"}

// New creates a watcher over root for files with the given extensions
// (lowercase, with leading dot, e.g. ".yml").
func New(root string, extensions []string, handler Handler, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		root:       root,
		extensions: extensions,
		handler:    handler,
		fsw:        fsw,
		configs:    make(map[string]bool),
		log:        logger,
		done:       make(chan struct{}),
	}, nil
}

// WatchConfigFile registers an exact file whose writes are reported as
// ConfigChanged instead of document events. Must be called before Start.
func (w *Watcher) WatchConfigFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.configs[abs] = true
	// Watch the parent so replace-by-rename saves are still seen.
	return w.fsw.Add(filepath.Dir(abs))
}

// Start begins watching and emits DocumentOpened for every matching file
// already present under the root.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	var initial []string
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if w.ignoredDir(d.Name()) {
				return filepath.SkipDir
			}
			return w.fsw.Add(path)
		}
		if w.matches(path) {
			if abs, absErr := filepath.Abs(path); absErr == nil && w.configs[abs] {
				return nil
			}
			initial = append(initial, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	go w.dispatch(initial)
	return nil
}

// Stop stops watching. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.fsw.Close()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching reports whether the dispatch loop is active.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

func (w *Watcher) dispatch(initial []string) {
	for _, path := range initial {
		w.emit(Event{Kind: DocumentOpened, Path: path, Time: time.Now()})
	}

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFsEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) handleFsEvent(ev fsnotify.Event) {
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		abs = ev.Name
	}

	if w.configs[abs] {
		if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
			w.emit(Event{Kind: ConfigChanged, Path: abs, Time: time.Now()})
		}
		return
	}

	// New directories join the watch set.
	if ev.Has(fsnotify.Create) {
		if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
			if !w.ignoredDir(filepath.Base(abs)) {
				if addErr := w.fsw.Add(abs); addErr != nil {
					w.log.Warn("watching new directory failed",
						slog.String("path", abs),
						slog.String("error", addErr.Error()),
					)
				}
			}
			return
		}
	}

	if !w.matches(abs) {
		return
	}

	now := time.Now()
	switch {
	case ev.Has(fsnotify.Create):
		w.emit(Event{Kind: DocumentOpened, Path: abs, Time: now})
	case ev.Has(fsnotify.Write):
		w.emit(Event{Kind: DocumentSaved, Path: abs, Time: now})
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.emit(Event{Kind: DocumentClosed, Path: abs, Time: now})
	}
}

func (w *Watcher) emit(ev Event) {
	if w.handler != nil {
		w.handler(ev)
	}
}

func (w *Watcher) matches(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range w.extensions {
		if ext == want {
			return true
		}
	}
	return false
}

func (w *Watcher) ignoredDir(name string) bool {
	for _, ignored := range ignoredDirs {
		if name == ignored {
			return true
		}
	}
	return false
}
