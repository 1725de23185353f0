// Package filesystem provides a Connector that reads notices from a local
// directory and watches it for changes.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driven"
	"github.com/wcreiley/notice-alert-system/internal/logger"
)

// DefaultDebounce coalesces bursts of events for one path. Editors and
// scrapers often write a file in several syscalls.
const DefaultDebounce = 100 * time.Millisecond

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector reads files under rootPath.
type Connector struct {
	sourceID string
	rootPath string
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// New creates a filesystem connector for rootPath.
func New(sourceID, rootPath string) *Connector {
	return &Connector{
		sourceID: sourceID,
		rootPath: rootPath,
		debounce: DefaultDebounce,
	}
}

// WithDebounce overrides the event coalescing window.
func (c *Connector) WithDebounce(d time.Duration) *Connector {
	c.debounce = d
	return c
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "filesystem"
}

// SourceID returns the configured source ID.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// Capabilities returns what this connector supports.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsWatch:      true,
		SupportsHierarchy:  true,
		SupportsValidation: true,
	}
}

// Validate checks that rootPath is a readable directory.
func (c *Connector) Validate(_ context.Context) error {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", c.rootPath)
	}
	return nil
}

// FullSync walks rootPath and emits every visible regular file.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument, 16)
	errs := make(chan error, 16)

	go func() {
		defer close(docs)
		defer close(errs)

		if err := c.Validate(ctx); err != nil {
			errs <- err
			return
		}

		walkErr := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return c.sendErr(ctx, errs, fmt.Errorf("walk %s: %w", path, err))
			}
			if path != c.rootPath && c.isHidden(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			doc, err := c.readFile(path)
			if err != nil {
				return c.sendErr(ctx, errs, err)
			}

			select {
			case docs <- *doc:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if walkErr != nil && ctx.Err() == nil {
			errs <- walkErr
		}
	}()

	return docs, errs
}

func (c *Connector) sendErr(ctx context.Context, errs chan<- error, err error) error {
	select {
	case errs <- err:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Watch emits debounced change events for files under rootPath until ctx
// is cancelled. New subdirectories are watched as they appear.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := c.addTree(watcher, c.rootPath); err != nil {
		watcher.Close()
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		watcher.Close()
		return nil, domain.ErrConnectorClosed
	}
	c.watcher = watcher
	c.mu.Unlock()

	changes := make(chan domain.RawDocumentChange, 16)
	go c.watchLoop(ctx, watcher, changes)

	return changes, nil
}

func (c *Connector) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, changes chan<- domain.RawDocumentChange) {
	defer close(changes)
	defer watcher.Close()

	type pendingEvent struct {
		op   fsnotify.Op
		seen time.Time
	}
	pending := make(map[string]pendingEvent)

	tick := c.debounce / 4
	if tick <= 0 {
		tick = time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !c.isHidden(event.Name) {
					if err := c.addTree(watcher, event.Name); err != nil {
						logger.Warn("watch %s: %v", event.Name, err)
					}
				}
			}
			p := pending[event.Name]
			pending[event.Name] = pendingEvent{op: p.op | event.Op, seen: time.Now()}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("filesystem watcher: %v", err)

		case now := <-ticker.C:
			for path, p := range pending {
				if now.Sub(p.seen) < c.debounce {
					continue
				}
				delete(pending, path)

				change := c.handleFsEvent(fsnotify.Event{Name: path, Op: p.op})
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// handleFsEvent converts a (possibly coalesced) fsnotify event into a change.
// It returns nil for events that do not affect a visible regular file.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.RawDocumentChange {
	if c.isHidden(event.Name) {
		return nil
	}

	info, statErr := os.Stat(event.Name)
	if statErr != nil {
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			return &domain.RawDocumentChange{
				Type: domain.ChangeDeleted,
				Document: domain.RawDocument{
					SourceID: c.sourceID,
					ID:       c.documentID(event.Name),
					URI:      event.Name,
				},
			}
		}
		return nil
	}

	if !info.Mode().IsRegular() {
		return nil
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return nil
	}

	doc, err := c.readFile(event.Name)
	if err != nil {
		logger.Warn("read %s: %v", event.Name, err)
		return nil
	}

	changeType := domain.ChangeUpdated
	if event.Has(fsnotify.Create) {
		changeType = domain.ChangeCreated
	}
	return &domain.RawDocumentChange{Type: changeType, Document: *doc}
}

func (c *Connector) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != c.rootPath && c.isHidden(path) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (c *Connector) readFile(path string) (*domain.RawDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	name := filepath.Base(path)
	return &domain.RawDocument{
		SourceID:   c.sourceID,
		ID:         c.documentID(path),
		URI:        path,
		MIMEType:   detectMIMEType(name),
		Content:    content,
		ModifiedAt: info.ModTime(),
		Metadata: map[string]any{
			"filename":  name,
			"extension": strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."),
			"size":      info.Size(),
		},
	}, nil
}

// documentID is the slash-separated path relative to rootPath, so the same
// notice keeps its identity across restarts and machines.
func (c *Connector) documentID(path string) string {
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// isHidden reports whether any component of path below rootPath starts with a dot.
func (c *Connector) isHidden(path string) bool {
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		rel = path
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if len(part) > 1 && strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}

// Close releases resources.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.watcher != nil {
		err := c.watcher.Close()
		c.watcher = nil
		return err
	}
	return nil
}

var extensionTypes = map[string]string{
	"":          "text/plain",
	".txt":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".csv":      "text/csv",
	".html":     "text/html",
	".htm":      "text/html",
}

// detectMIMEType maps a file name to a MIME type without parameters.
func detectMIMEType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if mt, ok := extensionTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		if base, _, err := mime.ParseMediaType(mt); err == nil {
			return base
		}
		return mt
	}
	return "application/octet-stream"
}
