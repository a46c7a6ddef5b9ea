package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce is how long the watcher waits after the last write event
// before re-indexing a file. Editors saving via temp-file-and-rename fire
// several events per save; only the last one matters.
const watchDebounce = 500 * time.Millisecond

// Watcher keeps a directory in sync with the index: files appearing or
// changing are (re-)indexed under a path-derived document id, files
// disappearing are de-indexed. A startup scan indexes whatever is already
// there.
type Watcher struct {
	dir     string
	service *DocService

	mu     sync.Mutex
	hashes map[string]string
	timers map[string]*time.Timer
}

// NewWatcher builds a watcher over dir backed by the document service.
func NewWatcher(dir string, service *DocService) *Watcher {
	return &Watcher{
		dir:     dir,
		service: service,
		hashes:  make(map[string]string),
		timers:  make(map[string]*time.Timer),
	}
}

// ScanAndIndex walks the directory once and indexes every supported file.
// Called at startup before watching begins.
func (w *Watcher) ScanAndIndex(ctx context.Context) {
	log.Printf("WATCHER: scanning directory %s", w.dir)
	err := filepath.Walk(w.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && SupportedFile(path) {
			w.indexFile(ctx, path)
		}
		return nil
	})
	if err != nil {
		log.Printf("WATCHER: error walking %s: %v", w.dir, err)
	}
	log.Println("WATCHER: directory scan finished")
}

// Watch blocks processing filesystem events until the context is
// cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}
	log.Printf("WATCHER: watching directory %s", w.dir)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !SupportedFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.debounce(ctx, event.Name)
			} else if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.forget(event.Name)
				if err := w.service.RemovePath(ctx, event.Name); err != nil {
					log.Printf("WATCHER: failed to de-index %s: %v", event.Name, err)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("WATCHER: %v", err)
		case <-ctx.Done():
			log.Println("WATCHER: shutting down")
			return nil
		}
	}
}

// debounce schedules an index of path after the event burst settles,
// resetting the timer on every new event for the same path.
func (w *Watcher) debounce(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(watchDebounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.indexFile(ctx, path)
	})
}

// indexFile indexes path unless its content hash matches the last indexed
// version.
func (w *Watcher) indexFile(ctx context.Context, path string) {
	hash, err := fileHash(path)
	if err != nil {
		log.Printf("WATCHER: could not hash %s: %v", path, err)
		return
	}
	w.mu.Lock()
	unchanged := w.hashes[path] == hash
	w.mu.Unlock()
	if unchanged {
		return
	}

	if err := w.service.IndexPath(ctx, path); err != nil {
		log.Printf("WATCHER: failed to index %s: %v", path, err)
		return
	}
	w.mu.Lock()
	w.hashes[path] = hash
	w.mu.Unlock()
	log.Printf("WATCHER: indexed %s", path)
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.hashes, path)
	if timer, ok := w.timers[path]; ok {
		timer.Stop()
		delete(w.timers, path)
	}
}

func fileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
