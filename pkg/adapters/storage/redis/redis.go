package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aescanero/studiomuse/pkg/domain"
	"github.com/aescanero/studiomuse/pkg/ports"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "studiomuse:palette:"

// PaletteStorage implements ports.PaletteStorage using Redis
type PaletteStorage struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewPaletteStorage creates a new Redis palette storage. A zero ttl keeps
// palettes until they are deleted.
func NewPaletteStorage(client *redis.Client, ttl time.Duration, logger *zap.Logger) *PaletteStorage {
	return &PaletteStorage{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// Save persists a palette as JSON
func (s *PaletteStorage) Save(ctx context.Context, palette *domain.PhysicalPalette) error {
	name := domain.SafeName(palette.Name)
	if name == "" {
		return fmt.Errorf("invalid palette name: %q", palette.Name)
	}

	data, err := json.Marshal(palette)
	if err != nil {
		return fmt.Errorf("failed to marshal palette: %w", err)
	}

	if err := s.client.Set(ctx, paletteKey(name), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save palette: %w", err)
	}

	s.logger.Debug("palette saved",
		zap.String("name", name),
		zap.Int("num_colors", palette.NumColors))

	return nil
}

// Load retrieves a palette by name
func (s *PaletteStorage) Load(ctx context.Context, name string) (*domain.PhysicalPalette, error) {
	data, err := s.client.Get(ctx, paletteKey(domain.SafeName(name))).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ports.ErrPaletteNotFound, name)
		}
		return nil, fmt.Errorf("failed to get palette: %w", err)
	}

	var palette domain.PhysicalPalette
	if err := json.Unmarshal(data, &palette); err != nil {
		return nil, fmt.Errorf("failed to unmarshal palette: %w", err)
	}

	return &palette, nil
}

// Delete removes a palette
func (s *PaletteStorage) Delete(ctx context.Context, name string) error {
	n, err := s.client.Del(ctx, paletteKey(domain.SafeName(name))).Result()
	if err != nil {
		return fmt.Errorf("failed to delete palette: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ports.ErrPaletteNotFound, name)
	}

	s.logger.Debug("palette deleted", zap.String("name", name))

	return nil
}

// Exists checks if a palette is stored
func (s *PaletteStorage) Exists(ctx context.Context, name string) (bool, error) {
	result, err := s.client.Exists(ctx, paletteKey(domain.SafeName(name))).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return result > 0, nil
}

// List returns the stored palette keys, sorted
func (s *PaletteStorage) List(ctx context.Context) ([]string, error) {
	var cursor uint64
	var names []string
	seen := make(map[string]struct{})

	for {
		var batch []string
		var err error

		batch, cursor, err = s.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}

		for _, key := range batch {
			name := key[len(keyPrefix):]
			if _, dup := seen[name]; dup || name == "" {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}

		if cursor == 0 {
			break
		}
	}

	sort.Strings(names)
	return names, nil
}

// paletteKey returns the Redis key for a palette
func paletteKey(name string) string {
	return keyPrefix + name
}
