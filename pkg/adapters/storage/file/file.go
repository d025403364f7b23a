// Package file stores physical palettes as JSON files, one per palette, in a
// single directory shared by the service and the GIMP plugin.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aescanero/studiomuse/pkg/domain"
	"github.com/aescanero/studiomuse/pkg/ports"
	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

const (
	lockFile   = ".palettes.lock"
	extension  = ".json"
	retryDelay = 20 * time.Millisecond
)

// PaletteStorage implements ports.PaletteStorage on a directory. Writers take
// an exclusive lock on a lock file in the directory, readers a shared one.
// Operations within one process are serialized by mu since a Flock handle
// is not reentrant across goroutines.
type PaletteStorage struct {
	dir    string
	mu     sync.Mutex
	lock   *flock.Flock
	logger *zap.Logger
}

// NewPaletteStorage creates the directory if needed
func NewPaletteStorage(dir string, logger *zap.Logger) (*PaletteStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create palette directory: %w", err)
	}

	return &PaletteStorage{
		dir:    dir,
		lock:   flock.New(filepath.Join(dir, lockFile)),
		logger: logger,
	}, nil
}

// Dir returns the palette directory
func (s *PaletteStorage) Dir() string {
	return s.dir
}

// Save writes the palette to <safe name>.json, replacing any previous file
func (s *PaletteStorage) Save(ctx context.Context, palette *domain.PhysicalPalette) error {
	name := domain.SafeName(palette.Name)
	if name == "" {
		return fmt.Errorf("invalid palette name: %q", palette.Name)
	}

	data, err := json.MarshalIndent(palette, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal palette: %w", err)
	}

	unlock, err := s.acquire(ctx, true)
	if err != nil {
		return err
	}
	defer unlock()

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write palette: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write palette: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("failed to save palette: %w", err)
	}

	s.logger.Debug("palette saved",
		zap.String("name", name),
		zap.String("dir", s.dir))

	return nil
}

// Load reads a palette by name
func (s *PaletteStorage) Load(ctx context.Context, name string) (*domain.PhysicalPalette, error) {
	unlock, err := s.acquire(ctx, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	data, err := os.ReadFile(s.path(domain.SafeName(name)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ports.ErrPaletteNotFound, name)
		}
		return nil, fmt.Errorf("failed to read palette: %w", err)
	}

	var palette domain.PhysicalPalette
	if err := json.Unmarshal(data, &palette); err != nil {
		return nil, fmt.Errorf("failed to unmarshal palette: %w", err)
	}
	if palette.NumColors == 0 {
		palette.NumColors = len(palette.Colors)
	}

	return &palette, nil
}

// Delete removes a palette file
func (s *PaletteStorage) Delete(ctx context.Context, name string) error {
	unlock, err := s.acquire(ctx, true)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(s.path(domain.SafeName(name))); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ports.ErrPaletteNotFound, name)
		}
		return fmt.Errorf("failed to delete palette: %w", err)
	}

	return nil
}

// Exists checks if a palette file exists
func (s *PaletteStorage) Exists(ctx context.Context, name string) (bool, error) {
	_, err := os.Stat(s.path(domain.SafeName(name)))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
}

// List returns the stored palette keys, sorted
func (s *PaletteStorage) List(ctx context.Context) ([]string, error) {
	unlock, err := s.acquire(ctx, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list palettes: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), extension) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), extension))
	}
	sort.Strings(names)

	return names, nil
}

func (s *PaletteStorage) path(name string) string {
	return filepath.Join(s.dir, name+extension)
}

// acquire takes the directory lock, exclusive for writers
func (s *PaletteStorage) acquire(ctx context.Context, exclusive bool) (func(), error) {
	s.mu.Lock()

	var ok bool
	var err error
	if exclusive {
		ok, err = s.lock.TryLockContext(ctx, retryDelay)
	} else {
		ok, err = s.lock.TryRLockContext(ctx, retryDelay)
	}
	if err != nil || !ok {
		s.mu.Unlock()
		if err == nil {
			err = fmt.Errorf("%s busy", s.lock.Path())
		}
		return nil, fmt.Errorf("acquire palette lock: %w", err)
	}

	return func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release palette lock", zap.Error(err))
		}
		s.mu.Unlock()
	}, nil
}
