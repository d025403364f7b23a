package llm_test

import (
	"errors"
	"testing"

	"github.com/aescanero/studiomuse/pkg/adapters/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistry_Get_SameParamsReturnSameInstance(t *testing.T) {
	t.Setenv(llm.PerplexityAPIKeyEnv, "pplx-test")
	r := llm.NewDefaultRegistry(zap.NewNop())

	first, err := r.Get("perplexity", llm.Params{Temperature: llm.Float(0.2)})
	require.NoError(t, err)
	second, err := r.Get("perplexity", llm.Params{Temperature: llm.Float(0.2)})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Get_DifferentParamsReturnDistinctInstances(t *testing.T) {
	t.Setenv(llm.PerplexityAPIKeyEnv, "pplx-test")
	r := llm.NewDefaultRegistry(zap.NewNop())

	low, err := r.Get("perplexity", llm.Params{Temperature: llm.Float(0.2)})
	require.NoError(t, err)
	high, err := r.Get("perplexity", llm.Params{Temperature: llm.Float(0.3)})
	require.NoError(t, err)
	otherModel, err := r.Get("perplexity", llm.Params{Temperature: llm.Float(0.2), Model: "sonar"})
	require.NoError(t, err)

	assert.NotSame(t, low, high)
	assert.NotSame(t, low, otherModel)
	assert.Equal(t, 3, r.Len())
}

func TestRegistry_Get_UnknownProviderNeverConstructs(t *testing.T) {
	r := llm.NewRegistry(zap.NewNop())
	calls := 0
	r.Register("known", func(llm.Params, *zap.Logger) (llm.Client, error) {
		calls++
		return llm.NewStubClient("ok"), nil
	})

	client, err := r.Get("nonexistent-provider", llm.Params{})

	assert.Nil(t, client)
	var unknown *llm.UnknownProviderError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nonexistent-provider", unknown.Name)
	assert.True(t, llm.IsConfigurationError(err))
	assert.Zero(t, calls)
}

func TestRegistry_Get_ConstructionFailureIsNotCached(t *testing.T) {
	r := llm.NewRegistry(zap.NewNop())
	calls := 0
	r.Register("flaky", func(llm.Params, *zap.Logger) (llm.Client, error) {
		calls++
		if calls == 1 {
			return nil, llm.ErrMissingAPIKey
		}
		return llm.NewStubClient("ok"), nil
	})

	_, err := r.Get("flaky", llm.Params{})
	var construction *llm.ClientConstructionError
	require.ErrorAs(t, err, &construction)
	assert.Equal(t, "flaky", construction.Provider)
	assert.True(t, errors.Is(err, llm.ErrMissingAPIKey))
	assert.Zero(t, r.Len())

	client, err := r.Get("flaky", llm.Params{})
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Get_MissingKeyIsConfigurationError(t *testing.T) {
	t.Setenv(llm.GeminiAPIKeyEnv, "")
	r := llm.NewDefaultRegistry(zap.NewNop())

	_, err := r.Get("gemini", llm.Params{})

	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrMissingAPIKey)
	assert.True(t, llm.IsConfigurationError(err))
}

func TestRegistry_Register_LastWriteWins(t *testing.T) {
	r := llm.NewRegistry(zap.NewNop())
	r.Register("p", func(llm.Params, *zap.Logger) (llm.Client, error) {
		return llm.NewStubClient("first"), nil
	})
	r.Register("p", func(llm.Params, *zap.Logger) (llm.Client, error) {
		return llm.NewStubClient("second"), nil
	})

	client, err := r.Get("p", llm.Params{})
	require.NoError(t, err)

	stub, ok := client.(*llm.StubClient)
	require.True(t, ok)
	assert.Equal(t, "second", stub.Response)
	assert.Equal(t, []string{"p"}, r.Providers())
}

func TestRegisterDefaults_Providers(t *testing.T) {
	r := llm.NewDefaultRegistry(zap.NewNop())

	assert.Equal(t, []string{"anthropic", "base", "gemini", "openai", "perplexity", "test-provider"}, r.Providers())
	assert.True(t, r.Has("test-provider"))
	assert.False(t, r.Has("claude"))
}
