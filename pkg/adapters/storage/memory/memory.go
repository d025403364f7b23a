package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aescanero/studiomuse/pkg/domain"
	"github.com/aescanero/studiomuse/pkg/ports"
)

// PaletteStorage implements ports.PaletteStorage using an in-memory map
type PaletteStorage struct {
	palettes map[string]*domain.PhysicalPalette
	mu       sync.RWMutex
}

// NewPaletteStorage creates a new in-memory palette storage
func NewPaletteStorage() *PaletteStorage {
	return &PaletteStorage{
		palettes: make(map[string]*domain.PhysicalPalette),
	}
}

// Save stores a copy of the palette under its safe name
func (s *PaletteStorage) Save(ctx context.Context, palette *domain.PhysicalPalette) error {
	key := domain.SafeName(palette.Name)
	if key == "" {
		return fmt.Errorf("invalid palette name: %q", palette.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.palettes[key] = clone(palette)
	return nil
}

// Load retrieves a palette by name
func (s *PaletteStorage) Load(ctx context.Context, name string) (*domain.PhysicalPalette, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.palettes[domain.SafeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrPaletteNotFound, name)
	}

	return clone(p), nil
}

// Delete removes a palette
func (s *PaletteStorage) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.SafeName(name)
	if _, ok := s.palettes[key]; !ok {
		return fmt.Errorf("%w: %s", ports.ErrPaletteNotFound, name)
	}
	delete(s.palettes, key)
	return nil
}

// Exists checks if a palette is stored
func (s *PaletteStorage) Exists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.palettes[domain.SafeName(name)]
	return ok, nil
}

// List returns the stored palette keys, sorted
func (s *PaletteStorage) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.palettes))
	for name := range s.palettes {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

// clone avoids sharing the colors slice with callers
func clone(p *domain.PhysicalPalette) *domain.PhysicalPalette {
	cp := *p
	cp.Colors = append([]string(nil), p.Colors...)
	return &cp
}
