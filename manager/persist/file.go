package persist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-settings/pkg/activity"
)

// File binds a Manager to one snapshot file, providing load-on-startup and
// save-on-demand semantics plus optional reload-on-change watching.
type File struct {
	mu      sync.Mutex
	manager *Manager
	path    string
	meta    Meta
	emitter *activity.Emitter
	root    string
}

// FileOption configures a File.
type FileOption func(*File)

// FileWithEmitter wires an activity emitter so successful loads and saves
// emit snapshot lifecycle events attributed to root.
func FileWithEmitter(emitter *activity.Emitter, root string) FileOption {
	return func(f *File) {
		f.emitter = emitter
		f.root = root
	}
}

// NewFile wires manager to the snapshot file at path. The file is not read
// until Load is called.
func NewFile(manager *Manager, path string, opts ...FileOption) *File {
	f := &File{manager: manager, path: path}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Path returns the snapshot file location.
func (f *File) Path() string { return f.path }

// Meta returns the metadata recorded by the most recent Save.
func (f *File) Meta() Meta {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meta
}

// Load reads and applies the snapshot file. A missing file is reported via
// fs.ErrNotExist so callers can treat first runs as a non-event; decode
// failures surface ErrFormat and leave the store untouched.
func (f *File) Load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("persist: read %s: %w", f.path, err)
	}
	if err := f.manager.Decode(data); err != nil {
		return fmt.Errorf("persist: load %s: %w", f.path, err)
	}
	f.emit(activity.BuildSnapshotLoadedEvent(activity.EventInput{
		Root:     f.root,
		Metadata: map[string]any{"file": f.path},
	}))
	return nil
}

// Save snapshots view and writes the encoded document, creating parent
// directories as needed. The write goes through a temp file and rename so a
// crash never leaves a half-written snapshot behind.
func (f *File) Save(view any) (Meta, error) {
	data, meta, err := f.manager.Encode(view)
	if err != nil {
		return Meta{}, err
	}
	if err := f.write(data, meta); err != nil {
		return Meta{}, err
	}
	f.emit(activity.BuildSnapshotSavedEvent(activity.EventInput{
		Root:       f.root,
		SnapshotID: meta.SnapshotID,
		Metadata:   map[string]any{"file": f.path},
	}))
	return meta, nil
}

func (f *File) write(data []byte, meta Meta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("persist: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("persist: temp file in %s: %w", dir, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("persist: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("persist: close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("persist: rename to %s: %w", f.path, err)
	}
	f.meta = meta
	return nil
}

// Watch re-applies the snapshot file whenever it changes on disk, until ctx
// is done. onReload, when non-nil, observes the outcome of every reload
// attempt. Watching follows the containing directory so editors that replace
// the file wholesale are still noticed.
// emit is best-effort; a failing hook never turns a successful load or save
// into an error.
func (f *File) emit(event activity.Event) {
	if f.emitter == nil || !f.emitter.Enabled() {
		return
	}
	_ = f.emitter.Emit(context.Background(), event)
}

func (f *File) Watch(ctx context.Context, onReload func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("persist: watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("persist: watch %s: %w", filepath.Dir(f.path), err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != f.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				err := f.Load()
				if onReload != nil {
					onReload(err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if onReload != nil {
					onReload(err)
				}
			}
		}
	}()
	return nil
}
