package orchestrator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/studiomuse/internal/application/orchestrator"
	"github.com/aescanero/studiomuse/internal/application/workers"
	memevents "github.com/aescanero/studiomuse/pkg/adapters/events/memory"
	"github.com/aescanero/studiomuse/pkg/adapters/llm"
	collector "github.com/aescanero/studiomuse/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/studiomuse/pkg/adapters/storage/memory"
	"github.com/aescanero/studiomuse/pkg/domain"
	"github.com/aescanero/studiomuse/pkg/ports"
)

type fixture struct {
	manager  *orchestrator.Manager
	registry *llm.Registry
	stub     *llm.StubClient
	store    *memory.PaletteStorage
	events   chan ports.Event
}

type panickingClient struct{}

func (panickingClient) Name() string { return "panicking" }

func (panickingClient) CallAPI(context.Context, string) (string, error) {
	panic("provider exploded")
}

func newFixture(t *testing.T, response string) *fixture {
	t.Helper()

	logger := zap.NewNop()
	stub := llm.NewStubClient(response)

	registry := llm.NewDefaultRegistry(logger)
	registry.Register("stub", func(llm.Params, *zap.Logger) (llm.Client, error) { return stub, nil })
	registry.Register("panicking", func(llm.Params, *zap.Logger) (llm.Client, error) { return panickingClient{}, nil })

	metrics := collector.NewCollector(prometheus.NewRegistry())
	pool := workers.NewPool(2, time.Second, metrics, logger, 0, registry)
	store := memory.NewPaletteStorage()

	bus := memevents.NewEventBus(logger)
	t.Cleanup(func() { _ = bus.Close() })
	events := make(chan ports.Event, 10)
	require.NoError(t, bus.Subscribe(context.Background(), ports.TopicPalettes, func(ctx context.Context, e ports.Event) error {
		events <- e
		return nil
	}))

	manager := orchestrator.NewManager(registry, pool, store, bus, metrics, orchestrator.NewValidator(256), logger, orchestrator.Options{
		DefaultProvider:    "stub",
		DefaultTemperature: 0.2,
	})

	return &fixture{manager: manager, registry: registry, stub: stub, store: store, events: events}
}

func (f *fixture) nextEvent(t *testing.T) ports.Event {
	t.Helper()

	select {
	case e := <-f.events:
		return e
	case <-time.After(time.Second):
		t.Fatal("no palette event published")
		return ports.Event{}
	}
}

func TestDemystify_StubProvider(t *testing.T) {
	f := newFixture(t, "")

	out := f.manager.Demystify(context.Background(), orchestrator.DemystifyRequest{
		GimpColors:          domain.GimpColors{"Color 1": {R: 1.0, G: 0.0, B: 0.0}},
		PhysicalPaletteData: []interface{}{"Crimson Red"},
	})

	require.True(t, out.Success, out.Error)
	require.Len(t, out.Response, 3)
	for i, want := range []string{"color1", "color2", "color3"} {
		assert.Equal(t, want, out.Response[i].GimpColor)
	}
	assert.Equal(t, "stub", out.Provider)

	prompts := f.stub.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "rgb(1.000, 0.000, 0.000)")
	assert.Contains(t, prompts[0], "Crimson Red")

	event := f.nextEvent(t)
	assert.Equal(t, ports.EventTypePaletteDemystified, event.Type)
	assert.Equal(t, 3, event.Data["matches"])
}

func TestDemystify_NotJSON(t *testing.T) {
	f := newFixture(t, "not json at all")

	out := f.manager.Demystify(context.Background(), orchestrator.DemystifyRequest{
		GimpColors:          domain.GimpColors{"Color 1": {R: 1.0}},
		PhysicalPaletteData: "Crimson Red",
	})

	assert.False(t, out.Success)
	assert.Equal(t, orchestrator.KindFormat, out.ErrorKind)
	assert.Equal(t, "not json at all", out.RawResponse)
	assert.NotEmpty(t, out.Error)
}

func TestCreate_PersistsPalette(t *testing.T) {
	f := newFixture(t, `{"set_name":"Mont Marte 52","piece_count":52,"colors":["Red","Blue"],"additional_notes":""}`)

	out := f.manager.Create(context.Background(), orchestrator.CreateRequest{EntryText: "Mont Marte 52 pastel set"})

	require.True(t, out.Success, out.Error)
	require.NotNil(t, out.Result)
	assert.Equal(t, 2, out.Result.NumColors)
	assert.Equal(t, 52, out.LLMNumColors)
	assert.Equal(t, "Mont Marte 52", out.Result.Name)
	assert.Equal(t, "stub", out.Result.Source)
	assert.Equal(t, domain.PaletteTypePhysical, out.Result.PaletteType)
	assert.True(t, out.Saved)

	assert.Contains(t, f.stub.Prompts()[0], "The user's physical palette is: Mont Marte 52 pastel set")

	stored, err := f.store.Load(context.Background(), "Mont Marte 52")
	require.NoError(t, err)
	assert.Equal(t, []string{"Red", "Blue"}, stored.Colors)

	event := f.nextEvent(t)
	assert.Equal(t, ports.EventTypePaletteCreated, event.Type)
	assert.Equal(t, "Mont Marte 52", event.Subject)
}

func TestCreate_DryRunSkipsStorage(t *testing.T) {
	f := newFixture(t, "")

	out := f.manager.Create(context.Background(), orchestrator.CreateRequest{EntryText: "test set", DryRun: true})

	require.True(t, out.Success, out.Error)
	assert.Equal(t, "Test Pastel Set", out.Result.Name)
	assert.Equal(t, 3, out.LLMNumColors)
	assert.False(t, out.Saved)

	names, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestDemystifyByName(t *testing.T) {
	f := newFixture(t, "")
	require.NoError(t, f.store.Save(context.Background(), &domain.PhysicalPalette{
		Name:   "Studio Pastels",
		Colors: []string{"Burnt Sienna", "Cobalt"},
	}))

	out := f.manager.DemystifyByName(context.Background(), orchestrator.DemystifyByNameRequest{
		GimpColors:          domain.GimpColors{"Color 1": {B: 1.0}},
		PhysicalPaletteName: "Studio Pastels",
	})

	require.True(t, out.Success, out.Error)
	assert.Contains(t, f.stub.Prompts()[0], "- Burnt Sienna\n- Cobalt")

	missing := f.manager.DemystifyByName(context.Background(), orchestrator.DemystifyByNameRequest{
		GimpColors:          domain.GimpColors{"Color 1": {B: 1.0}},
		PhysicalPaletteName: "nope",
	})
	assert.False(t, missing.Success)
	assert.Equal(t, orchestrator.KindNotFound, missing.ErrorKind)
}

func TestOperations_ErrorKinds(t *testing.T) {
	colors := domain.GimpColors{"Color 1": {R: 0.5}}

	tests := []struct {
		name string
		run  func(f *fixture) *orchestrator.Outcome
		kind orchestrator.ErrorKind
	}{
		{
			name: "unknown provider",
			run: func(f *fixture) *orchestrator.Outcome {
				return f.manager.Demystify(context.Background(), orchestrator.DemystifyRequest{GimpColors: colors, Provider: "nonexistent-provider"})
			},
			kind: orchestrator.KindConfiguration,
		},
		{
			name: "missing credentials",
			run: func(f *fixture) *orchestrator.Outcome {
				return f.manager.Create(context.Background(), orchestrator.CreateRequest{EntryText: "x", Provider: llm.ProviderBase})
			},
			kind: orchestrator.KindConfiguration,
		},
		{
			name: "provider call fails",
			run: func(f *fixture) *orchestrator.Outcome {
				f.stub.Err = &llm.ProviderCallError{Provider: "stub", StatusCode: 503, Err: errors.New("unavailable")}
				return f.manager.Create(context.Background(), orchestrator.CreateRequest{EntryText: "x"})
			},
			kind: orchestrator.KindTransport,
		},
		{
			name: "provider panics",
			run: func(f *fixture) *orchestrator.Outcome {
				return f.manager.Demystify(context.Background(), orchestrator.DemystifyRequest{GimpColors: colors, Provider: "panicking"})
			},
			kind: orchestrator.KindInternal,
		},
		{
			name: "empty colors",
			run: func(f *fixture) *orchestrator.Outcome {
				return f.manager.Demystify(context.Background(), orchestrator.DemystifyRequest{})
			},
			kind: orchestrator.KindValidation,
		},
		{
			name: "color out of range",
			run: func(f *fixture) *orchestrator.Outcome {
				return f.manager.Demystify(context.Background(), orchestrator.DemystifyRequest{GimpColors: domain.GimpColors{"Color 1": {R: 255}}})
			},
			kind: orchestrator.KindValidation,
		},
		{
			name: "unsupported physical data",
			run: func(f *fixture) *orchestrator.Outcome {
				return f.manager.Demystify(context.Background(), orchestrator.DemystifyRequest{GimpColors: colors, PhysicalPaletteData: 42.0})
			},
			kind: orchestrator.KindValidation,
		},
		{
			name: "temperature out of range",
			run: func(f *fixture) *orchestrator.Outcome {
				return f.manager.Create(context.Background(), orchestrator.CreateRequest{EntryText: "x", Temperature: llm.Float(1.5)})
			},
			kind: orchestrator.KindValidation,
		},
		{
			name: "wrong shape",
			run: func(f *fixture) *orchestrator.Outcome {
				f.stub.Response = `["Red", "Blue"]`
				return f.manager.Create(context.Background(), orchestrator.CreateRequest{EntryText: "x"})
			},
			kind: orchestrator.KindFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(llm.BaseAPIKeyEnv, "")
			f := newFixture(t, "")

			out := tt.run(f)

			assert.False(t, out.Success)
			assert.Equal(t, tt.kind, out.ErrorKind)
			assert.NotEmpty(t, out.Error)
		})
	}
}

func TestCreate_UnusableNameIsValidationError(t *testing.T) {
	f := newFixture(t, `{"set_name": "???", "piece_count": 1, "colors": ["Red"]}`)

	out := f.manager.Create(context.Background(), orchestrator.CreateRequest{EntryText: "!!!"})

	assert.False(t, out.Success)
	assert.Equal(t, orchestrator.KindValidation, out.ErrorKind)
	assert.False(t, out.Saved)

	names, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCreate_FallsBackToEntryText(t *testing.T) {
	f := newFixture(t, `{"set_name": "", "piece_count": 2, "colors": ["Red", "Blue"]}`)

	out := f.manager.Create(context.Background(), orchestrator.CreateRequest{EntryText: "  Studio Set  "})

	require.True(t, out.Success, out.Error)
	assert.Equal(t, "Studio Set", out.Result.Name)

	exists, err := f.store.Exists(context.Background(), "Studio Set")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDemystify_TemperatureSelectsInstance(t *testing.T) {
	f := newFixture(t, "")
	req := orchestrator.DemystifyRequest{GimpColors: domain.GimpColors{"Color 1": {}}, Provider: llm.ProviderTest}

	req.Temperature = llm.Float(0.2)
	require.True(t, f.manager.Demystify(context.Background(), req).Success)
	require.True(t, f.manager.Demystify(context.Background(), req).Success)
	assert.Equal(t, 1, f.registry.Len())

	req.Temperature = llm.Float(0.3)
	require.True(t, f.manager.Demystify(context.Background(), req).Success)
	assert.Equal(t, 2, f.registry.Len())
}
