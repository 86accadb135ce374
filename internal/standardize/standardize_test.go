package standardize

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filippefrulli/ranklens-sub000/internal/model"
)

type fakeCompleter struct {
	text  string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(_ context.Context, _ model.ProviderID, _, _ string) (string, time.Duration, error) {
	f.calls++
	return f.text, 0, f.err
}

func TestStandardizeMapsAndCaches(t *testing.T) {
	gw := &fakeCompleter{text: "1. Acme Corporation\n2. Widgets International"}
	cache := NewCache()
	s := New(gw, cache, model.ProviderOpenAI, "gpt-4o-mini")

	out := s.Standardize(context.Background(), "Acme", []string{"acme corp", "widgets intl"})
	require.Equal(t, []string{"Acme Corporation", "Widgets International"}, out)
	assert.Equal(t, 1, gw.calls)
	assert.Equal(t, 2, cache.Len())

	// second pass with the same names is served from cache
	out = s.Standardize(context.Background(), "Acme", []string{"acme corp", "widgets intl"})
	require.Equal(t, []string{"Acme Corporation", "Widgets International"}, out)
	assert.Equal(t, 1, gw.calls)
}

func TestStandardizeSkipsLargeLists(t *testing.T) {
	gw := &fakeCompleter{}
	s := New(gw, NewCache(), model.ProviderOpenAI, "gpt-4o-mini")

	names := make([]string, 51)
	for i := range names {
		names[i] = fmt.Sprintf("company %d", i)
	}
	out := s.Standardize(context.Background(), "target", names)
	assert.Equal(t, names, out)
	assert.Zero(t, gw.calls)
}

func TestStandardizeFallsBackOnError(t *testing.T) {
	gw := &fakeCompleter{err: errors.New("429 too many requests")}
	s := New(gw, NewCache(), model.ProviderOpenAI, "gpt-4o-mini")

	names := []string{"Acme Co", "Widgets Ltd"}
	out := s.Standardize(context.Background(), "Acme Co", names)
	assert.Equal(t, names, out)
}

func TestStandardizeFallsBackOnEmptyResponse(t *testing.T) {
	gw := &fakeCompleter{text: "   \n  "}
	s := New(gw, NewCache(), model.ProviderOpenAI, "gpt-4o-mini")

	names := []string{"Acme Co"}
	out := s.Standardize(context.Background(), "Acme Co", names)
	assert.Equal(t, names, out)
}

func TestStandardizeShorterResponseNotCached(t *testing.T) {
	// the model merged two variants; the merged list is used but a
	// positional cache mapping is impossible
	gw := &fakeCompleter{text: "1. Acme Corporation"}
	cache := NewCache()
	s := New(gw, cache, model.ProviderOpenAI, "gpt-4o-mini")

	out := s.Standardize(context.Background(), "Acme", []string{"Acme Co", "Acme Corp"})
	assert.Equal(t, []string{"Acme Corporation"}, out)
	assert.Zero(t, cache.Len())
}

func TestCacheNormalizesKeys(t *testing.T) {
	cache := NewCache()
	cache.Put("The Acme Company", "Acme")

	v, ok := cache.Get("acme co")
	require.True(t, ok)
	assert.Equal(t, "Acme", v)
}

func TestStandardizeEmptyInput(t *testing.T) {
	gw := &fakeCompleter{}
	s := New(gw, NewCache(), model.ProviderOpenAI, "gpt-4o-mini")
	assert.Empty(t, s.Standardize(context.Background(), "x", nil))
	assert.Zero(t, gw.calls)
}
