package accounts

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mfo-tools/mfo-claim/internal/domain"
)

// ChangeCallback receives the freshly loaded list after the file changes
type ChangeCallback func(accounts []domain.Account)

// Watcher reloads the account list whenever the file is rewritten.
// Editors often replace files with a rename+create burst, so events are
// debounced before reloading.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	callback ChangeCallback
	debounce time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
}

// NewWatcher creates a watcher for the account list at path
func NewWatcher(path string, callback ChangeCallback) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     path,
		watcher:  fw,
		callback: callback,
		debounce: 500 * time.Millisecond,
	}

	// Watch the directory: a rename-replace removes the file's own watch
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	return w, nil
}

// Start begins watching until ctx is cancelled
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(w.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				w.scheduleReload()

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("accounts watcher: %v", err)
			}
		}
	}()
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		accounts, err := Load(w.path)
		if err != nil {
			log.Printf("reload accounts: %v", err)
			return
		}
		w.callback(accounts)
	})
}

// Stop ends watching and releases the underlying watcher
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	w.watcher.Close()
}
