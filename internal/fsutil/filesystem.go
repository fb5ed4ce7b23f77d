// Package fsutil provides filesystem abstractions for testability.
package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileSystem abstracts the filesystem lookups used while waiting for the
// serial adapter to appear. Use OSFileSystem for production and
// MemoryFileSystem for testing.
type FileSystem interface {
	// Stat returns a FileInfo describing the named file.
	Stat(name string) (fs.FileInfo, error)

	// Exists checks if a file or directory exists.
	Exists(name string) bool
}

// OSFileSystem implements FileSystem using the os package.
type OSFileSystem struct{}

// Stat returns file info for the named file.
func (OSFileSystem) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

// Exists checks if a file exists.
func (OSFileSystem) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// MemoryFileSystem provides an in-memory filesystem for testing. Entries can
// be added and removed while another goroutine polls it, which is how tests
// simulate a device being plugged in or yanked.
type MemoryFileSystem struct {
	mu      sync.RWMutex
	entries map[string]fs.FileMode
	stats   map[string]int
}

// NewMemoryFileSystem creates a new in-memory filesystem.
func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{
		entries: make(map[string]fs.FileMode),
		stats:   make(map[string]int),
	}
}

// AddDevice registers a character device node at name.
func (m *MemoryFileSystem) AddDevice(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[filepath.Clean(name)] = fs.ModeDevice | fs.ModeCharDevice | 0o660
}

// Remove deletes name if present.
func (m *MemoryFileSystem) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, filepath.Clean(name))
}

// StatCalls reports how many times name has been looked up.
func (m *MemoryFileSystem) StatCalls(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats[filepath.Clean(name)]
}

// Stat returns file info.
func (m *MemoryFileSystem) Stat(name string) (fs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = filepath.Clean(name)
	m.stats[name]++

	mode, ok := m.entries[name]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return &memFileInfo{name: filepath.Base(name), mode: mode}, nil
}

// Exists checks if a path exists.
func (m *MemoryFileSystem) Exists(name string) bool {
	_, err := m.Stat(name)
	return err == nil
}

type memFileInfo struct {
	name string
	mode fs.FileMode
}

func (i *memFileInfo) Name() string       { return i.name }
func (i *memFileInfo) Size() int64        { return 0 }
func (i *memFileInfo) Mode() fs.FileMode  { return i.mode }
func (i *memFileInfo) ModTime() time.Time { return time.Time{} }
func (i *memFileInfo) IsDir() bool        { return i.mode.IsDir() }
func (i *memFileInfo) Sys() interface{}   { return nil }
