package assets

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/flux/engine/core"
)

/**
 * @brief Watches the directories of registered asset files and reports files
 * that were written or recreated. Events are only collected here; the asset
 * manager drains them on the main thread.
 */
type Watcher struct {
	fsnotify *fsnotify.Watcher
	logger   *core.Logger

	mutex    sync.Mutex
	dirs     map[string]int
	isClosed bool

	changed chan string
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewWatcher(logger *core.Logger, buffer int) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsnotify: fsWatch,
		logger:   logger,
		dirs:     make(map[string]int),
		changed:  make(chan string, buffer),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.start()
	return w, nil
}

func canonical(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Watch starts watching the directory holding file. Directories are reference counted.
func (w *Watcher) Watch(file string) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.isClosed {
		return errors.New("asset watcher already closed")
	}
	dir := filepath.Dir(canonical(file))
	if w.dirs[dir] == 0 {
		if err := w.fsnotify.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	return nil
}

// Unwatch drops one reference on the directory holding file.
func (w *Watcher) Unwatch(file string) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	dir := filepath.Dir(canonical(file))
	if w.dirs[dir] == 0 {
		return
	}
	w.dirs[dir]--
	if w.dirs[dir] == 0 {
		delete(w.dirs, dir)
		if !w.isClosed {
			_ = w.fsnotify.Remove(dir)
		}
	}
}

// Changed delivers absolute paths of files that were written or created.
func (w *Watcher) Changed() <-chan string {
	return w.changed
}

func (w *Watcher) start() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			// Handle create or modify events
			if e.Has(fsnotify.Create) || e.Has(fsnotify.Write) {
				select {
				case w.changed <- canonical(e.Name):
				default:
					w.logger.Warnf("asset watcher backlog full, dropping change of %s", e.Name)
				}
			}
			if e.Has(fsnotify.Remove) {
				w.logger.Warnf("watched asset file %s was removed", e.Name)
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			w.logger.Error(err.Error())

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) Close() error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return nil
	}
	w.isClosed = true
	w.mutex.Unlock()

	close(w.done)
	err := w.fsnotify.Close()
	w.wg.Wait()
	return err
}
