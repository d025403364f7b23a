package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/studiomuse/pkg/adapters/storage/redis"
	"github.com/aescanero/studiomuse/pkg/domain"
	"github.com/aescanero/studiomuse/pkg/ports"
)

func newStore(t *testing.T, ttl time.Duration) (*redis.PaletteStorage, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return redis.NewPaletteStorage(client, ttl, zap.NewNop()), mr
}

func TestPaletteStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t, 0)

	palette := domain.NewPhysicalPalette(domain.PaletteDescriptor{
		SetName: "Faber Castell 24",
		Colors:  []string{"Ochre", "Umber"},
	}, "perplexity")
	require.NoError(t, store.Save(ctx, palette))
	assert.True(t, mr.Exists("studiomuse:palette:Faber_Castell_24"))

	got, err := store.Load(ctx, "Faber Castell 24")
	require.NoError(t, err)
	assert.Equal(t, palette.ID, got.ID)
	assert.Equal(t, palette.Colors, got.Colors)
	assert.Equal(t, 2, got.NumColors)
	assert.True(t, palette.CreatedDate.Equal(got.CreatedDate))

	require.NoError(t, store.Save(ctx, &domain.PhysicalPalette{Name: "Another set", Colors: []string{"Red"}}))
	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Another_set", "Faber_Castell_24"}, names)

	require.NoError(t, store.Delete(ctx, "Faber_Castell_24"))
	ok, err := store.Exists(ctx, "Faber Castell 24")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPaletteStorage_NotFound(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, 0)

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrPaletteNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "missing"), ports.ErrPaletteNotFound)
}

func TestPaletteStorage_TTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t, time.Hour)

	require.NoError(t, store.Save(ctx, &domain.PhysicalPalette{Name: "short lived"}))
	assert.Equal(t, time.Hour, mr.TTL("studiomuse:palette:short_lived"))

	mr.FastForward(2 * time.Hour)

	_, err := store.Load(ctx, "short lived")
	assert.ErrorIs(t, err, ports.ErrPaletteNotFound)
}
