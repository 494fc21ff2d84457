package templates

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// DefaultDebounce is how long Watch waits after the last file event
	// before reloading.
	DefaultDebounce = 250 * time.Millisecond

	defaultPollInterval = 2 * time.Second
)

// Watch reloads the catalog when template files change under any configured
// directory. It blocks until ctx is cancelled. When fsnotify is unavailable
// it falls back to polling file modification times.
func (c *Catalog) Watch(ctx context.Context, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if err := c.EnsureLoaded(ctx); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.logger.Warn().Err(err).Msg("fsnotify unavailable, polling template dirs")
		return c.watchPolling(ctx, defaultPollInterval)
	}
	defer watcher.Close()

	watched := 0
	for _, dir := range c.dirs {
		watched += c.addWatchTree(watcher, dir)
	}
	if watched == 0 {
		c.logger.Debug().Msg("no template directories to watch")
	}

	c.logger.Info().Int("dirs", watched).Dur("debounce", debounce).Msg("watching template directories")

	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					c.addWatchTree(watcher, event.Name)
				}
			}
			if !c.relevantEvent(event) {
				continue
			}
			c.logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("template change detected")
			timer.Reset(debounce)

		case <-timer.C:
			if err := c.Load(ctx); err != nil {
				c.logger.Error().Err(err).Msg("template reload failed")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn().Err(err).Msg("template watcher error")
		}
	}
}

func (c *Catalog) relevantEvent(event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	if _, ok := FormatFromPath(event.Name); ok {
		return true
	}
	// Removing or renaming a directory drops every template under it.
	return event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

// addWatchTree registers dir and its non-hidden subdirectories.
func (c *Catalog) addWatchTree(watcher *fsnotify.Watcher, dir string) int {
	added := 0
	_ = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(entry.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			c.logger.Warn().Err(err).Str("dir", path).Msg("cannot watch template directory")
			return nil
		}
		added++
		return nil
	})
	return added
}

func (c *Catalog) watchPolling(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := c.fingerprint()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			current := c.fingerprint()
			if current == last {
				continue
			}
			last = current
			if err := c.Load(ctx); err != nil {
				c.logger.Error().Err(err).Msg("template reload failed")
			}
		}
	}
}

// fingerprint summarizes the template files on disk by path, size and
// modification time.
func (c *Catalog) fingerprint() string {
	var b strings.Builder
	for _, dir := range c.dirs {
		paths, err := templateFiles(dir)
		if err != nil {
			continue
		}
		for _, path := range paths {
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			b.WriteString(path)
			b.WriteByte('|')
			b.WriteString(info.ModTime().UTC().Format(time.RFC3339Nano))
			b.WriteByte('|')
			b.WriteString(strconv.FormatInt(info.Size(), 10))
			b.WriteByte('\n')
		}
	}
	return b.String()
}
