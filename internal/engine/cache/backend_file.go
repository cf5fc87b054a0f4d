package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	// cacheFileExtension is the file extension used for cache entries.
	cacheFileExtension = ".json"

	// tempFileExtension marks in-progress writes. Such files are never read.
	tempFileExtension = ".tmp"

	// lockStripes is the number of per-key mutexes shared by all keys.
	lockStripes = 64

	dirPerm  = 0o750
	filePerm = 0o600
)

// fileBackend stores each entry as <directory>/<category>/<key>.json.
// Writes go to a temp file in the same directory and are renamed into place,
// so readers never observe a partial entry. Writes and sweep removals for the
// same key are serialized by a striped mutex; there is no lock across keys.
type fileBackend struct {
	directory string
	locks     [lockStripes]sync.Mutex
}

func newFileBackend(directory string) (*fileBackend, error) {
	if err := os.MkdirAll(directory, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &fileBackend{directory: directory}, nil
}

func (b *fileBackend) name() string { return BackendFile }

func (b *fileBackend) location() string { return b.directory }

func (b *fileBackend) lockFor(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &b.locks[h.Sum32()%lockStripes]
}

func (b *fileBackend) categoryDir(category Category) string {
	return filepath.Join(b.directory, string(category))
}

func (b *fileBackend) entryPath(category Category, key string) string {
	return filepath.Join(b.categoryDir(category), key+cacheFileExtension)
}

func (b *fileBackend) read(category Category, key string) (*Entry, error) {
	return readEntryFile(b.entryPath(category, key))
}

func readEntryFile(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errEntryMissing
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var entry Entry
	if unmarshalErr := json.Unmarshal(data, &entry); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", unmarshalErr)
	}
	return &entry, nil
}

func (b *fileBackend) write(entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	dir := b.categoryDir(entry.Category)
	if mkErr := os.MkdirAll(dir, dirPerm); mkErr != nil {
		return fmt.Errorf("failed to create category directory: %w", mkErr)
	}

	mu := b.lockFor(entry.Key)
	mu.Lock()
	defer mu.Unlock()

	tmp, err := os.CreateTemp(dir, entry.Key+"-*"+tempFileExtension)
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, writeErr := tmp.Write(data); writeErr != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write cache file: %w", writeErr)
	}
	if closeErr := tmp.Close(); closeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close cache file: %w", closeErr)
	}
	if chmodErr := os.Chmod(tmpPath, filePerm); chmodErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set cache file mode: %w", chmodErr)
	}

	if renameErr := os.Rename(tmpPath, b.entryPath(entry.Category, entry.Key)); renameErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename cache file: %w", renameErr)
	}
	return nil
}

func (b *fileBackend) remove(category Category, key string) error {
	mu := b.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	err := os.Remove(b.entryPath(category, key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}
	return nil
}

// categories lists the category directories present on disk.
func (b *fileBackend) categories() ([]Category, error) {
	dirEntries, err := os.ReadDir(b.directory)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var out []Category
	for _, d := range dirEntries {
		if !d.IsDir() {
			continue
		}
		c := Category(d.Name())
		if c.Validate() != nil {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// entryKeys lists the keys stored under a category.
func (b *fileBackend) entryKeys(category Category) ([]string, error) {
	dirEntries, err := os.ReadDir(b.categoryDir(category))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s directory: %w", category, err)
	}

	keys := make([]string, 0, len(dirEntries))
	for _, d := range dirEntries {
		if d.IsDir() || filepath.Ext(d.Name()) != cacheFileExtension {
			continue
		}
		keys = append(keys, strings.TrimSuffix(d.Name(), cacheFileExtension))
	}
	return keys, nil
}

func (b *fileBackend) targetCategories(category Category) ([]Category, error) {
	if category == CategoryAll {
		return b.categories()
	}
	return []Category{category}, nil
}

func (b *fileBackend) clear(category Category) (int, error) {
	targets, err := b.targetCategories(category)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, c := range targets {
		keys, listErr := b.entryKeys(c)
		if listErr != nil {
			return removed, listErr
		}
		for _, key := range keys {
			ok, rmErr := b.removeIf(c, key, func(*Entry, error) bool { return true })
			if rmErr != nil {
				return removed, rmErr
			}
			if ok {
				removed++
			}
		}
	}
	return removed, nil
}

func (b *fileBackend) sweep(now time.Time) (int, error) {
	targets, err := b.categories()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, c := range targets {
		keys, listErr := b.entryKeys(c)
		if listErr != nil {
			return removed, listErr
		}
		for _, key := range keys {
			ok, rmErr := b.removeIf(c, key, func(e *Entry, readErr error) bool {
				return readErr != nil || !e.IsValidAt(now)
			})
			if rmErr != nil {
				return removed, rmErr
			}
			if ok {
				removed++
			}
		}
	}
	return removed, nil
}

// removeIf re-reads the entry under its key lock and removes it when cond
// holds. A Put racing with the scan either completes before the re-read, in
// which case the fresh entry is judged, or waits until the removal is done.
func (b *fileBackend) removeIf(category Category, key string, cond func(*Entry, error) bool) (bool, error) {
	mu := b.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	path := b.entryPath(category, key)
	entry, readErr := readEntryFile(path)
	if errors.Is(readErr, errEntryMissing) {
		return false, nil
	}
	if !cond(entry, readErr) {
		return false, nil
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to remove cache file: %w", err)
	}
	return true, nil
}

func (b *fileBackend) stats(now time.Time) (map[Category]CategoryStats, error) {
	targets, err := b.categories()
	if err != nil {
		return nil, err
	}

	out := make(map[Category]CategoryStats, len(targets))
	for _, c := range targets {
		keys, listErr := b.entryKeys(c)
		if listErr != nil {
			return nil, listErr
		}

		var cs CategoryStats
		for _, key := range keys {
			path := b.entryPath(c, key)
			info, statErr := os.Stat(path)
			if statErr != nil {
				continue
			}
			cs.TotalEntries++
			cs.SizeBytes += info.Size()

			entry, readErr := readEntryFile(path)
			if readErr == nil && entry.IsValidAt(now) {
				cs.ValidEntries++
			} else {
				cs.ExpiredEntries++
			}
		}
		out[c] = cs
	}
	return out, nil
}

func (b *fileBackend) close() error { return nil }
