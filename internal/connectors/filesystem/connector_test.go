package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driven"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func collect(t *testing.T, c *Connector) ([]domain.RawDocument, []error) {
	t.Helper()
	docsCh, errsCh := c.FullSync(context.Background())

	var docs []domain.RawDocument
	var errs []error
	for docsCh != nil || errsCh != nil {
		select {
		case d, ok := <-docsCh:
			if !ok {
				docsCh = nil
				continue
			}
			docs = append(docs, d)
		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			errs = append(errs, err)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, errs
}

func TestNew(t *testing.T) {
	c := New("notices", "/tmp/data")

	var _ driven.Connector = c
	assert.Equal(t, "filesystem", c.Type())
	assert.Equal(t, "notices", c.SourceID())
	assert.True(t, c.Capabilities().SupportsWatch)
	assert.True(t, c.Capabilities().SupportsHierarchy)
}

func TestConnector_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("existing directory", func(t *testing.T) {
		assert.NoError(t, New("s", t.TempDir()).Validate(ctx))
	})

	t.Run("missing directory", func(t *testing.T) {
		err := New("s", "/non/existent/path").Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "root path error")
	})

	t.Run("file instead of directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file.txt")
		writeFile(t, path, "x")

		assert.Error(t, New("s", path).Validate(ctx))
	})
}

func TestConnector_FullSync(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "TCEnergy_12347.html"), "<p>Outage</p>")
	writeFile(t, filepath.Join(root, "Enbridge_1.txt"), "Capacity reduced.")
	writeFile(t, filepath.Join(root, "archive", "old.md"), "# Old")
	writeFile(t, filepath.Join(root, ".hidden.txt"), "secret")
	writeFile(t, filepath.Join(root, ".cache", "x.txt"), "cached")

	docs, errs := collect(t, New("notices", root))

	require.Empty(t, errs)
	require.Len(t, docs, 3)

	assert.Equal(t, "Enbridge_1.txt", docs[0].ID)
	assert.Equal(t, "text/plain", docs[0].MIMEType)
	assert.Equal(t, "Capacity reduced.", string(docs[0].Content))
	assert.Equal(t, "notices", docs[0].SourceID)
	assert.Equal(t, "Enbridge_1.txt", docs[0].Metadata["filename"])
	assert.Equal(t, "txt", docs[0].Metadata["extension"])
	assert.False(t, docs[0].ModifiedAt.IsZero())

	assert.Equal(t, "TCEnergy_12347.html", docs[1].ID)
	assert.Equal(t, "text/html", docs[1].MIMEType)
	assert.Equal(t, filepath.Join(root, "TCEnergy_12347.html"), docs[1].URI)

	assert.Equal(t, "archive/old.md", docs[2].ID)
	assert.Equal(t, "text/markdown", docs[2].MIMEType)
}

func TestConnector_FullSync_MissingRoot(t *testing.T) {
	docs, errs := collect(t, New("s", "/non/existent/path"))

	assert.Empty(t, docs)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "root path error")
}

func TestConnector_Watch(t *testing.T) {
	waitFor := func(t *testing.T, ch <-chan domain.RawDocumentChange) domain.RawDocumentChange {
		t.Helper()
		select {
		case change := <-ch:
			return change
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for change event")
		}
		return domain.RawDocumentChange{}
	}

	t.Run("create", func(t *testing.T) {
		root := t.TempDir()
		c := New("s", root).WithDebounce(20 * time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := c.Watch(ctx)
		require.NoError(t, err)

		writeFile(t, filepath.Join(root, "new.txt"), "fresh notice")

		change := waitFor(t, changes)
		assert.Equal(t, domain.ChangeCreated, change.Type)
		assert.Equal(t, "new.txt", change.Document.ID)
		assert.Equal(t, "fresh notice", string(change.Document.Content))
		require.NoError(t, c.Close())
	})

	t.Run("modify", func(t *testing.T) {
		root := t.TempDir()
		path := filepath.Join(root, "notice.txt")
		writeFile(t, path, "10%")

		c := New("s", root).WithDebounce(20 * time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := c.Watch(ctx)
		require.NoError(t, err)

		writeFile(t, path, "20%")

		change := waitFor(t, changes)
		assert.Equal(t, domain.ChangeUpdated, change.Type)
		assert.Equal(t, "20%", string(change.Document.Content))
	})

	t.Run("new subdirectory is watched", func(t *testing.T) {
		root := t.TempDir()
		c := New("s", root).WithDebounce(20 * time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := c.Watch(ctx)
		require.NoError(t, err)

		require.NoError(t, os.Mkdir(filepath.Join(root, "tc"), 0o755))
		time.Sleep(100 * time.Millisecond)
		writeFile(t, filepath.Join(root, "tc", "a.txt"), "nested")

		change := waitFor(t, changes)
		assert.Equal(t, "tc/a.txt", change.Document.ID)
	})

	t.Run("closes channel on cancel", func(t *testing.T) {
		c := New("s", t.TempDir())
		ctx, cancel := context.WithCancel(context.Background())

		changes, err := c.Watch(ctx)
		require.NoError(t, err)
		cancel()

		select {
		case _, ok := <-changes:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("channel not closed")
		}
	})

	t.Run("missing root", func(t *testing.T) {
		changes, err := New("s", "/non/existent/path").Watch(context.Background())
		assert.Error(t, err)
		assert.Nil(t, changes)
	})

	t.Run("closed connector", func(t *testing.T) {
		c := New("s", t.TempDir())
		require.NoError(t, c.Close())

		_, err := c.Watch(context.Background())
		assert.ErrorIs(t, err, domain.ErrConnectorClosed)
	})
}

func TestHandleFsEvent(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		create   bool
		dir      bool
		op       fsnotify.Op
		wantNil  bool
		wantType domain.ChangeType
	}{
		{name: "create", file: "a.txt", create: true, op: fsnotify.Create, wantType: domain.ChangeCreated},
		{name: "write", file: "a.txt", create: true, op: fsnotify.Write, wantType: domain.ChangeUpdated},
		{name: "create then write", file: "a.txt", create: true, op: fsnotify.Create | fsnotify.Write, wantType: domain.ChangeCreated},
		{name: "remove", file: "gone.txt", op: fsnotify.Remove, wantType: domain.ChangeDeleted},
		{name: "rename away", file: "gone.txt", op: fsnotify.Rename, wantType: domain.ChangeDeleted},
		{name: "chmod ignored", file: "a.txt", create: true, op: fsnotify.Chmod, wantNil: true},
		{name: "directory ignored", file: "sub", dir: true, op: fsnotify.Create, wantNil: true},
		{name: "hidden ignored", file: ".swp", create: true, op: fsnotify.Write, wantNil: true},
		{name: "write to missing file ignored", file: "missing.txt", op: fsnotify.Write, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			path := filepath.Join(root, tt.file)
			switch {
			case tt.dir:
				require.NoError(t, os.Mkdir(path, 0o755))
			case tt.create:
				writeFile(t, path, "content")
			}

			change := New("s", root).handleFsEvent(fsnotify.Event{Name: path, Op: tt.op})

			if tt.wantNil {
				assert.Nil(t, change)
				return
			}
			require.NotNil(t, change)
			assert.Equal(t, tt.wantType, change.Type)
			assert.Equal(t, path, change.Document.URI)
			assert.Equal(t, tt.file, change.Document.ID)
			assert.Equal(t, "s", change.Document.SourceID)
		})
	}
}

func TestDetectMIMEType(t *testing.T) {
	tests := map[string]string{
		"notice":           "text/plain",
		"notice.txt":       "text/plain",
		"NOTICE.TXT":       "text/plain",
		"page.html":        "text/html",
		"page.HTM":         "text/html",
		"doc.md":           "text/markdown",
		"rows.csv":         "text/csv",
		"data.json":        "application/json",
		"file.zzzzunknown": "application/octet-stream",
	}

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			got := detectMIMEType(name)
			assert.Equal(t, want, got)
			assert.NotContains(t, got, ";")
		})
	}
}

func TestIsHidden(t *testing.T) {
	c := New("s", "/data")

	assert.False(t, c.isHidden("/data"))
	assert.False(t, c.isHidden("/data/a.txt"))
	assert.False(t, c.isHidden("/data/sub/a.txt"))
	assert.True(t, c.isHidden("/data/.a.txt"))
	assert.True(t, c.isHidden("/data/.git/config"))
	assert.True(t, c.isHidden("/data/sub/.DS_Store"))
}
