package llm

import (
	"context"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Client sends a prompt to one LLM provider and returns the model's text.
type Client interface {
	Name() string
	CallAPI(ctx context.Context, prompt string) (string, error)
}

// Params are the constructor parameters of a client. Nil pointers and empty
// strings mean "use the provider default".
type Params struct {
	Model           string
	Temperature     *float64
	TopK            *int
	APIKey          string
	APIURL          string
	MaxOutputTokens *int
}

// Float returns a pointer to v, for Params.Temperature.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v, for Params.TopK and Params.MaxOutputTokens.
func Int(v int) *int {
	return &v
}

// cacheKey renders the set parameters as sorted "k=v" pairs joined by "-".
func (p Params) cacheKey() string {
	var pairs []string
	if p.APIKey != "" {
		pairs = append(pairs, "api_key="+p.APIKey)
	}
	if p.APIURL != "" {
		pairs = append(pairs, "api_url="+p.APIURL)
	}
	if p.MaxOutputTokens != nil {
		pairs = append(pairs, "max_output_tokens="+strconv.Itoa(*p.MaxOutputTokens))
	}
	if p.Model != "" {
		pairs = append(pairs, "model="+p.Model)
	}
	if p.Temperature != nil {
		pairs = append(pairs, "temperature="+strconv.FormatFloat(*p.Temperature, 'f', -1, 64))
	}
	if p.TopK != nil {
		pairs = append(pairs, "top_k="+strconv.Itoa(*p.TopK))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "-")
}

func (p Params) modelOr(def string) string {
	if p.Model != "" {
		return p.Model
	}
	return def
}

func (p Params) temperatureOr(def float64) float64 {
	if p.Temperature != nil {
		return *p.Temperature
	}
	return def
}

func (p Params) topKOr(def int) int {
	if p.TopK != nil {
		return *p.TopK
	}
	return def
}

func (p Params) maxOutputTokensOr(def int) int {
	if p.MaxOutputTokens != nil {
		return *p.MaxOutputTokens
	}
	return def
}

// resolveAPIKey prefers the explicit key and falls back to the provider's
// environment variable.
func resolveAPIKey(explicit, envVar string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if envVar != "" {
		if key := os.Getenv(envVar); key != "" {
			return key, nil
		}
	}
	return "", ErrMissingAPIKey
}
