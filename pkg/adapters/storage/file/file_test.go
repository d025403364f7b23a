package file_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/studiomuse/pkg/adapters/storage/file"
	"github.com/aescanero/studiomuse/pkg/domain"
	"github.com/aescanero/studiomuse/pkg/ports"
)

func TestPaletteStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "palettes")

	store, err := file.NewPaletteStorage(dir, zap.NewNop())
	require.NoError(t, err)

	palette := domain.NewPhysicalPalette(domain.PaletteDescriptor{
		SetName:    "Mont Marte 52",
		PieceCount: 52,
		Colors:     []string{"Red", "Blue"},
	}, "gemini")
	require.NoError(t, store.Save(ctx, palette))
	assert.FileExists(t, filepath.Join(dir, "Mont_Marte_52.json"))

	got, err := store.Load(ctx, "Mont Marte 52")
	require.NoError(t, err)
	assert.Equal(t, palette.Name, got.Name)
	assert.Equal(t, palette.Colors, got.Colors)
	assert.Equal(t, 52, got.PieceCount)

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mont_Marte_52"}, names)

	require.NoError(t, store.Delete(ctx, "Mont Marte 52"))
	_, err = store.Load(ctx, "Mont Marte 52")
	assert.ErrorIs(t, err, ports.ErrPaletteNotFound)
}

func TestPaletteStorage_LoadsPluginFiles(t *testing.T) {
	dir := t.TempDir()
	legacy := `{"name": "Old set", "colors": ["Red", "Green", "Blue"], "piece_count": 3, "additional_notes": ""}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Old_set.json"), []byte(legacy), 0o644))

	store, err := file.NewPaletteStorage(dir, zap.NewNop())
	require.NoError(t, err)

	got, err := store.Load(context.Background(), "Old set")
	require.NoError(t, err)
	assert.Equal(t, 3, got.NumColors)
	assert.Equal(t, []string{"Red", "Green", "Blue"}, got.Colors)
}

func TestPaletteStorage_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	store, err := file.NewPaletteStorage(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			colors := make([]string, i+1)
			for j := range colors {
				colors[j] = "c"
			}
			assert.NoError(t, store.Save(ctx, &domain.PhysicalPalette{Name: "shared", Colors: colors}))
		}(i)
	}
	wg.Wait()

	got, err := store.Load(ctx, "shared")
	require.NoError(t, err)
	assert.NotEmpty(t, got.Colors)

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"shared"}, names)
}
