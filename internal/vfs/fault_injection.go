package vfs

import (
	"errors"
	"io"
	"os"
	"sync"
)

// ErrInjectedWriteError is returned when an injected write error fires.
var ErrInjectedWriteError = errors.New("vfs: injected write error")

// FaultInjectionFS wraps an FS and can be told to fail writes on demand.
// It exists to exercise consolidation's crash-safety: a Create that fails
// partway through a rebuild must leave the previously-published permanent
// FST file untouched (see internal/consolidate).
type FaultInjectionFS struct {
	base FS

	mu               sync.RWMutex
	injectWriteError bool
	writeErrorPath   string
}

// NewFaultInjectionFS creates a new fault-injecting filesystem wrapper.
func NewFaultInjectionFS(base FS) *FaultInjectionFS {
	return &FaultInjectionFS{base: base}
}

// InjectWriteError arranges for Create, and subsequent Write calls against
// the returned file, to fail with ErrInjectedWriteError. An empty path
// matches every file.
func (fs *FaultInjectionFS) InjectWriteError(path string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.injectWriteError = true
	fs.writeErrorPath = path
}

// ClearErrors disables write error injection.
func (fs *FaultInjectionFS) ClearErrors() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.injectWriteError = false
	fs.writeErrorPath = ""
}

func (fs *FaultInjectionFS) shouldFail(name string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.injectWriteError && (fs.writeErrorPath == "" || fs.writeErrorPath == name)
}

// Create creates a new writable file, failing if a write error was injected
// for name.
func (fs *FaultInjectionFS) Create(name string) (WritableFile, error) {
	if fs.shouldFail(name) {
		return nil, ErrInjectedWriteError
	}
	base, err := fs.base.Create(name)
	if err != nil {
		return nil, err
	}
	return &faultWritableFile{base: base, fs: fs, path: name}, nil
}

// Open opens an existing file for sequential reading.
func (fs *FaultInjectionFS) Open(name string) (SequentialFile, error) {
	return fs.base.Open(name)
}

// OpenRandomAccess opens an existing file for random access reading.
func (fs *FaultInjectionFS) OpenRandomAccess(name string) (RandomAccessFile, error) {
	return fs.base.OpenRandomAccess(name)
}

// Rename atomically renames a file.
func (fs *FaultInjectionFS) Rename(oldname, newname string) error {
	return fs.base.Rename(oldname, newname)
}

// Remove deletes a file.
func (fs *FaultInjectionFS) Remove(name string) error {
	return fs.base.Remove(name)
}

// RemoveAll removes a directory and all its contents.
func (fs *FaultInjectionFS) RemoveAll(path string) error {
	return fs.base.RemoveAll(path)
}

// MkdirAll creates a directory and all parent directories.
func (fs *FaultInjectionFS) MkdirAll(path string, perm os.FileMode) error {
	return fs.base.MkdirAll(path, perm)
}

// Stat returns file info.
func (fs *FaultInjectionFS) Stat(name string) (os.FileInfo, error) {
	return fs.base.Stat(name)
}

// Exists returns true if the file exists.
func (fs *FaultInjectionFS) Exists(name string) bool {
	return fs.base.Exists(name)
}

// ListDir lists files in a directory.
func (fs *FaultInjectionFS) ListDir(path string) ([]string, error) {
	return fs.base.ListDir(path)
}

// Lock acquires an exclusive lock on a file.
func (fs *FaultInjectionFS) Lock(name string) (io.Closer, error) {
	return fs.base.Lock(name)
}

// SyncDir syncs a directory to ensure metadata changes are durable.
func (fs *FaultInjectionFS) SyncDir(path string) error {
	return fs.base.SyncDir(path)
}

// faultWritableFile wraps WritableFile so a write error injected after
// Create still fires on the first Write, matching a builder that opens a
// file successfully but fails while streaming its contents.
type faultWritableFile struct {
	base WritableFile
	fs   *FaultInjectionFS
	path string
}

func (f *faultWritableFile) Write(p []byte) (int, error) {
	if f.fs.shouldFail(f.path) {
		return 0, ErrInjectedWriteError
	}
	return f.base.Write(p)
}

func (f *faultWritableFile) Close() error { return f.base.Close() }

func (f *faultWritableFile) Sync() error { return f.base.Sync() }

func (f *faultWritableFile) Append(data []byte) error {
	_, err := f.Write(data)
	return err
}

func (f *faultWritableFile) Truncate(size int64) error { return f.base.Truncate(size) }

func (f *faultWritableFile) Size() (int64, error) { return f.base.Size() }
