package content

import (
	"io/fs"
	"path/filepath"
	"time"
)

// TreeWatcher polls modification times under a directory and triggers a
// callback when files are added, removed or modified.
// It uses only the standard library for simplicity.
type TreeWatcher struct {
	Root      string
	Interval  time.Duration
	onChange  func(string) // called with the first path seen changing in a scan
	stopCh    chan struct{}
	lastMTime map[string]time.Time
}

// NewTreeWatcher creates a watcher for root and interval.
func NewTreeWatcher(root string, interval time.Duration, onChange func(string)) *TreeWatcher {
	return &TreeWatcher{
		Root:      root,
		Interval:  interval,
		onChange:  onChange,
		stopCh:    make(chan struct{}),
		lastMTime: make(map[string]time.Time),
	}
}

// Start begins polling in a goroutine.
func (w *TreeWatcher) Start() {
	ticker := time.NewTicker(w.Interval)
	// prime cache before returning so early edits are not missed
	w.scan(true)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.scan(false)
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the watcher.
func (w *TreeWatcher) Stop() {
	close(w.stopCh)
}

// scan walks the tree once and reports at most one change per call.
func (w *TreeWatcher) scan(prime bool) {
	seen := make(map[string]time.Time, len(w.lastMTime))
	_ = filepath.WalkDir(w.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// missing root or unreadable folder, keep going
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		seen[p] = fi.ModTime()
		return nil
	})
	changed := ""
	for p, mt := range seen {
		last, ok := w.lastMTime[p]
		if !ok || mt.After(last) {
			changed = p
			break
		}
	}
	if changed == "" {
		for p := range w.lastMTime {
			if _, ok := seen[p]; !ok {
				changed = p
				break
			}
		}
	}
	w.lastMTime = seen
	if changed != "" && !prime && w.onChange != nil {
		w.onChange(changed)
	}
}
