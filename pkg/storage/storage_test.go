package storage

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"

	"github.com/caiolrosa/req/pkg/editor"
	"github.com/caiolrosa/req/pkg/templating"
)

// fakeEditor replays queued replies. With nothing queued it returns the
// initial text unchanged, which is what a reviewer accepting the document does.
type fakeEditor struct {
	replies []func(initial string) (string, error)
	seen    []string
}

func (f *fakeEditor) Edit(initial, extension string) (string, error) {
	f.seen = append(f.seen, initial)
	if len(f.replies) == 0 {
		return initial, nil
	}
	next := f.replies[0]
	f.replies = f.replies[1:]
	return next(initial)
}

func (f *fakeEditor) queue(replies ...func(string) (string, error)) {
	f.replies = append(f.replies, replies...)
}

func reply(text string) func(string) (string, error) {
	return func(string) (string, error) { return text, nil }
}

func abort() func(string) (string, error) {
	return func(string) (string, error) { return "", editor.ErrEditAborted }
}

type testEnv struct {
	fs     billy.Filesystem
	store  *Store
	editor *fakeEditor
}

func newEnvOn(fs billy.Filesystem) *testEnv {
	ed := &fakeEditor{}
	return &testEnv{fs: fs, store: New(fs, templating.NewEngine(), ed, nil), editor: ed}
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	return newEnvOn(memfs.New())
}

// filesystems returns the backends every filesystem-sensitive test runs on.
func filesystems(t *testing.T) map[string]func() billy.Filesystem {
	t.Helper()
	return map[string]func() billy.Filesystem{
		"memfs": func() billy.Filesystem { return memfs.New() },
		"osfs":  func() billy.Filesystem { return osfs.New(t.TempDir()) },
	}
}

// crossDeviceFS refuses to rename anything but temp files, like a root
// whose project directories sit on different mounts.
type crossDeviceFS struct {
	billy.Filesystem
}

func (fs crossDeviceFS) Rename(from, to string) error {
	if strings.HasPrefix(filepath.Base(from), ".tmp-") {
		return fs.Filesystem.Rename(from, to)
	}
	return &os.LinkError{Op: "rename", Old: from, New: to, Err: syscall.EXDEV}
}

// fileMovers returns the backends for tests that move single files,
// including one where every rename crosses devices.
func fileMovers(t *testing.T) map[string]func() billy.Filesystem {
	t.Helper()
	backends := filesystems(t)
	backends["cross-device"] = func() billy.Filesystem { return crossDeviceFS{memfs.New()} }
	return backends
}

// mustTemplate creates a template whose edited document is doc.
func (e *testEnv) mustTemplate(t *testing.T, p *Project, name, doc string) *Template {
	t.Helper()
	e.editor.queue(reply(doc))
	tpl, err := e.store.Templates.Create(p, name)
	require.NoError(t, err)
	return tpl
}

func (e *testEnv) mustProject(t *testing.T, name string) *Project {
	t.Helper()
	p, err := e.store.Projects.Create(name)
	require.NoError(t, err)
	return p
}

func (e *testEnv) readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := util.ReadFile(e.fs, path)
	require.NoError(t, err)
	return string(data)
}
