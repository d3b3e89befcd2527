package storage

import (
	"context"
	"encoding"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

const (
	Extension      = ".kms"
	lockSuffix     = ".lock"
	lockRetryDelay = 10 * time.Millisecond
)

var (
	ErrInvalidName = errors.New("invalid sketch name")
	ErrNotFound    = errors.New("sketch not found")
	ErrLockTimeout = errors.New("timed out waiting for sketch lock")
)

// Store keeps encoded sketches as files in one directory. Every file has a
// sibling lock file so separate processes can share the directory: writers
// hold an exclusive lock, readers a shared one.
type Store struct {
	dir         string
	lockTimeout time.Duration
	mu          sync.Mutex
}

// NewStore creates dir if needed. A positive lockTimeout bounds how long
// each operation waits for another process to release a file; zero waits
// forever.
func NewStore(dir string, lockTimeout time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create store directory %s", dir)
	}
	return &Store{dir: dir, lockTimeout: lockTimeout}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Save encodes sketch and replaces the file for name atomically.
func (s *Store) Save(name string, sketch encoding.BinaryMarshaler) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	data, err := sketch.MarshalBinary()
	if err != nil {
		return errors.Wrapf(err, "encode sketch %s", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := s.lock(path, true)
	if err != nil {
		return errors.Wrapf(err, "lock sketch %s", name)
	}
	defer lock.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+name+"-*.tmp")
	if err != nil {
		return errors.Wrapf(err, "save sketch %s", name)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write sketch %s", name)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "sync sketch %s", name)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close sketch %s", name)
	}

	return errors.Wrapf(os.Rename(tmp.Name(), path), "save sketch %s", name)
}

// Load decodes the file for name into sketch.
func (s *Store) Load(name string, sketch encoding.BinaryUnmarshaler) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return errors.Wrap(ErrNotFound, name)
	}

	lock, err := s.lock(path, false)
	if err != nil {
		return errors.Wrapf(err, "lock sketch %s", name)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return errors.Wrap(ErrNotFound, name)
	}
	if err != nil {
		return errors.Wrapf(err, "read sketch %s", name)
	}

	return errors.Wrapf(sketch.UnmarshalBinary(data), "decode sketch %s", name)
}

// List returns the names of all saved sketches in sorted order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", s.dir)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != Extension {
			continue
		}
		names = append(names, strings.TrimSuffix(name, Extension))
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Remove(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := s.lock(path, true)
	if err != nil {
		return errors.Wrapf(err, "lock sketch %s", name)
	}
	defer os.Remove(path + lockSuffix)
	defer lock.Unlock()

	err = os.Remove(path)
	if os.IsNotExist(err) {
		return errors.Wrap(ErrNotFound, name)
	}
	return errors.Wrapf(err, "remove sketch %s", name)
}

func (s *Store) path(name string) (string, error) {
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return "", errors.Wrapf(ErrInvalidName, "%q", name)
	}
	return filepath.Join(s.dir, name+Extension), nil
}

func (s *Store) lock(path string, exclusive bool) (*flock.Flock, error) {
	fl := flock.New(path + lockSuffix)
	if s.lockTimeout <= 0 {
		if exclusive {
			return fl, fl.Lock()
		}
		return fl, fl.RLock()
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.lockTimeout)
	defer cancel()

	try := fl.TryRLockContext
	if exclusive {
		try = fl.TryLockContext
	}
	ok, err := try(ctx, lockRetryDelay)
	if errors.Is(err, context.DeadlineExceeded) || (err == nil && !ok) {
		return nil, ErrLockTimeout
	}
	if err != nil {
		return nil, err
	}
	return fl, nil
}
