package ingest

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher ingests result files dropped into a directory. Files that process
// successfully are renamed with an .ingested suffix, rejected ones with
// .rejected, so a restart does not re-process them.
type Watcher struct {
	processor *Processor
	dir       string

	watcher   *fsnotify.Watcher
	stopWatch chan struct{}

	mu       sync.Mutex
	debounce map[string]*time.Timer
}

// NewWatcher creates a watcher over dir. Call Start to begin ingesting.
func NewWatcher(p *Processor, dir string) *Watcher {
	return &Watcher{
		processor: p,
		dir:       dir,
		debounce:  map[string]*time.Timer{},
	}
}

// Start ingests any files already present, then watches for new ones.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.watcher = watcher
	w.stopWatch = make(chan struct{})

	if err := w.ingestExisting(); err != nil {
		log.Printf("[Watcher] Warning: scanning existing files: %v", err)
	}

	go w.watchLoop()
	log.Printf("[Watcher] Watching %s for result files", w.dir)
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	if w.stopWatch != nil {
		close(w.stopWatch)
		w.stopWatch = nil
	}
	if w.watcher != nil {
		w.watcher.Close()
		w.watcher = nil
	}
}

func (w *Watcher) ingestExisting() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !isResultFile(entry.Name()) {
			continue
		}
		w.ingestFile(filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

func (w *Watcher) watchLoop() {
	// Writers may deliver a file in several chunks; debounce per path so we
	// only read it once it has settled.
	const debounceDelay = 500 * time.Millisecond

	for {
		select {
		case <-w.stopWatch:
			w.mu.Lock()
			for _, t := range w.debounce {
				t.Stop()
			}
			w.mu.Unlock()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isResultFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			path := event.Name
			w.mu.Lock()
			if t, ok := w.debounce[path]; ok {
				t.Stop()
			}
			w.debounce[path] = time.AfterFunc(debounceDelay, func() {
				w.mu.Lock()
				delete(w.debounce, path)
				w.mu.Unlock()
				w.ingestFile(path)
			})
			w.mu.Unlock()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[Watcher] Error: %v", err)
		}
	}
}

func (w *Watcher) ingestFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[Watcher] Error reading %s: %v", path, err)
		}
		return
	}

	hint := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	result, err := w.processor.Process(data, hint)

	var verr *ValidationError
	switch {
	case err == nil:
		log.Printf("[Watcher] Ingested %s as run %s", filepath.Base(path), result.RunID)
		w.markDone(path, ".ingested")
	case errors.As(err, &verr):
		log.Printf("[Watcher] Rejected %s: %v", filepath.Base(path), verr)
		w.markDone(path, ".rejected")
	default:
		log.Printf("[Watcher] Error processing %s: %v", filepath.Base(path), err)
	}
}

func (w *Watcher) markDone(path, suffix string) {
	if err := os.Rename(path, path+suffix); err != nil {
		log.Printf("[Watcher] Warning: could not rename %s: %v", path, err)
	}
}

func isResultFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
