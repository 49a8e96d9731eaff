// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package workspace watches a workspace root and reports file changes to
// a language server as workspace/didChangeWatchedFiles notifications.
package workspace

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/lspconn/services/lsp"
	"github.com/AleutianAI/lspconn/services/lsp/client"
	"github.com/AleutianAI/lspconn/services/lsp/protocol"
)

// FileChange is one raw file system change.
type FileChange struct {
	// Path is the absolute path to the changed file.
	Path string

	// Type is the LSP change type.
	Type protocol.FileChangeType
}

// NotifyFunc delivers one debounced batch of file events.
type NotifyFunc func(ctx context.Context, changes []protocol.FileEvent) error

// ForConnection returns a NotifyFunc sending workspace/didChangeWatchedFiles
// over conn.
func ForConnection(conn *lsp.Connection) NotifyFunc {
	return func(ctx context.Context, changes []protocol.FileEvent) error {
		return lsp.Notify(ctx, conn, lsp.DidChangeWatchedFiles, protocol.DidChangeWatchedFilesParams{Changes: changes})
	}
}

// Options configures a Watcher.
type Options struct {
	// DebounceWindow is how long to wait for more changes before notifying.
	DebounceWindow time.Duration

	// IgnorePatterns are base names or globs of files and directories to skip.
	IgnorePatterns []string

	// Extensions limits reported files to these extensions. Empty reports all.
	Extensions []string

	// BufferSize is the size of the raw change buffer.
	BufferSize int

	// Logger receives watcher diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the default watcher configuration.
func DefaultOptions() Options {
	return Options{
		DebounceWindow: 100 * time.Millisecond,
		IgnorePatterns: []string{".git", "node_modules", ".idea", ".build", "*.swp", "*.tmp", "__pycache__"},
		BufferSize:     1000,
	}
}

// Watcher watches a directory tree and batches changes for a server.
//
// # Description
//
// Changes are collected until the debounce window passes without new
// ones, merged per path, and handed to the NotifyFunc in one batch.
// Directories created while watching are added automatically.
//
// # Thread Safety
//
// Safe for concurrent use. The NotifyFunc is called from one goroutine.
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
	notify  NotifyFunc
	opts    Options
	logger  *slog.Logger

	changes  chan FileChange
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu       sync.Mutex
	watching bool
}

// NewWatcher creates a watcher for root. Call Start to begin watching.
//
// # Inputs
//
//   - root: Directory to watch recursively.
//   - notify: Receives each debounced batch.
//   - opts: Optional configuration (nil uses DefaultOptions).
func NewWatcher(root string, notify NotifyFunc, opts *Options) (*Watcher, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultOptions().BufferSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		root:    root,
		watcher: fw,
		notify:  notify,
		opts:    *opts,
		logger:  logger.With(slog.String("root", root)),
		changes: make(chan FileChange, opts.BufferSize),
		done:    make(chan struct{}),
	}, nil
}

// Start adds the directory tree and begins watching. Watching stops when
// ctx ends or Stop is called. Calling Start twice is a no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watching {
		return nil
	}

	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	w.watching = true

	w.wg.Add(2)
	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop stops watching, flushes the pending batch and waits for the
// watcher goroutines to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.watcher.Close()
	})
	w.wg.Wait()

	w.mu.Lock()
	w.watching = false
	w.mu.Unlock()
}

// IsWatching reports whether the watcher is active.
func (w *Watcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watching
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.shouldIgnore(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) shouldIgnore(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		for _, pattern := range w.opts.IgnorePatterns {
			if part == pattern {
				return true
			}
			if matched, _ := filepath.Match(pattern, part); matched {
				return true
			}
		}
	}
	return false
}

func (w *Watcher) wanted(path string) bool {
	return len(w.opts.Extensions) == 0 || slices.Contains(w.opts.Extensions, filepath.Ext(path))
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.shouldIgnore(event.Name) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						w.logger.Warn("Failed to watch new directory",
							slog.String("path", event.Name),
							slog.String("error", err.Error()),
						)
					}
					continue
				}
			}
			if !w.wanted(event.Name) {
				continue
			}

			select {
			case w.changes <- FileChange{Path: event.Name, Type: convertOp(event.Op)}:
			default:
				w.logger.Warn("File change buffer full, dropping change", slog.String("path", event.Name))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", slog.String("error", err.Error()))
		}
	}
}

// convertOp maps an fsnotify op to an LSP change type. A rename reports
// the old name, which no longer exists.
func convertOp(op fsnotify.Op) protocol.FileChangeType {
	switch {
	case op.Has(fsnotify.Create):
		return protocol.FileCreated
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return protocol.FileDeleted
	default:
		return protocol.FileChanged
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	defer w.wg.Done()

	var batch []FileChange
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func(ctx context.Context) {
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
		events := FileEvents(batch)
		batch = batch[:0]
		if len(events) == 0 || w.notify == nil {
			return
		}
		if err := w.notify(ctx, events); err != nil {
			w.logger.Warn("Failed to report file changes",
				slog.Int("changes", len(events)),
				slog.String("error", err.Error()),
			)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			flush(context.WithoutCancel(ctx))
			return
		case change := <-w.changes:
			batch = append(batch, change)
			if timer == nil {
				timer = time.NewTimer(w.opts.DebounceWindow)
				timerC = timer.C
			} else {
				timer.Reset(w.opts.DebounceWindow)
			}
		case <-timerC:
			flush(ctx)
		}
	}
}

// FileEvents merges raw changes into LSP file events, one per path, in
// first-seen order.
//
// A file created and then modified is reported as created. A file
// created and then deleted within the batch is not reported at all.
// Otherwise the latest change wins.
func FileEvents(changes []FileChange) []protocol.FileEvent {
	index := make(map[string]int, len(changes))
	merged := make([]*FileChange, 0, len(changes))

	for _, change := range changes {
		idx, seen := index[change.Path]
		if !seen {
			c := change
			index[change.Path] = len(merged)
			merged = append(merged, &c)
			continue
		}

		prev := merged[idx]
		switch {
		case prev == nil:
			c := change
			merged[idx] = &c
		case prev.Type == protocol.FileCreated && change.Type == protocol.FileChanged:
			// still new to the server
		case prev.Type == protocol.FileCreated && change.Type == protocol.FileDeleted:
			merged[idx] = nil
		default:
			prev.Type = change.Type
		}
	}

	events := make([]protocol.FileEvent, 0, len(merged))
	for _, c := range merged {
		if c == nil {
			continue
		}
		events = append(events, protocol.FileEvent{URI: client.PathToURI(c.Path), Type: c.Type})
	}
	return events
}
