package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdir700/EchoPlayer-sub001/errors"
)

func newReady(t *testing.T) *Service {
	t.Helper()
	s := New()
	require.NoError(t, s.Initialize(context.Background(), nil))
	return s
}

func TestStorage_RequiresInitialization(t *testing.T) {
	s := New()

	err := s.SetSetting(context.Background(), "volume", 0.8)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotInitialized)

	_, _, err = s.Setting("volume")
	require.Error(t, err)
}

func TestStorage_Settings(t *testing.T) {
	s := newReady(t)
	ctx := context.Background()

	require.NoError(t, s.SetSetting(ctx, "volume", 0.8))
	require.NoError(t, s.SetSetting(ctx, "subtitle_lang", "ja"))

	value, found, err := s.Setting("volume")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 0.8, value)

	_, found, err = s.Setting("missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.DeleteSetting(ctx, "volume"))
	_, found, _ = s.Setting("volume")
	assert.False(t, found)

	err = s.SetSetting(ctx, "", 1)
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestStorage_Vocabulary(t *testing.T) {
	s := newReady(t)
	ctx := context.Background()

	require.NoError(t, s.SaveWord(ctx, VocabularyEntry{
		Word:     "serendipity",
		Language: "en",
		Context:  "It was pure serendipity that we met.",
	}))

	entry, err := s.Word("serendipity")
	require.NoError(t, err)
	assert.Equal(t, "en", entry.Language)
	assert.False(t, entry.AddedAt.IsZero())

	_, err = s.Word("nope")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeNotFound))

	err = s.SaveWord(ctx, VocabularyEntry{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeValidation))
}

func TestStorage_WordsSorted(t *testing.T) {
	s := newReady(t)
	ctx := context.Background()

	for _, word := range []string{"zeal", "apple", "mellow"} {
		require.NoError(t, s.SaveWord(ctx, VocabularyEntry{Word: word, Language: "en"}))
	}

	words, err := s.Words()
	require.NoError(t, err)
	require.Len(t, words, 3)
	assert.Equal(t, "apple", words[0].Word)
	assert.Equal(t, "mellow", words[1].Word)
	assert.Equal(t, "zeal", words[2].Word)
}

func TestStorage_RecordLookup(t *testing.T) {
	s := newReady(t)
	ctx := context.Background()

	require.NoError(t, s.RecordLookup(ctx, "ephemeral", "en"))
	require.NoError(t, s.RecordLookup(ctx, "ephemeral", "en"))

	entry, err := s.Word("ephemeral")
	require.NoError(t, err)
	assert.Equal(t, 2, entry.Lookups)

	// An existing entry keeps its context across lookups
	require.NoError(t, s.SaveWord(ctx, VocabularyEntry{
		Word: "mull", Language: "en", Context: "mull it over",
	}))
	require.NoError(t, s.RecordLookup(ctx, "mull", "en"))
	entry, err = s.Word("mull")
	require.NoError(t, err)
	assert.Equal(t, "mull it over", entry.Context)
	assert.Equal(t, 1, entry.Lookups)
}

func TestStorage_RecordLookupConcurrent(t *testing.T) {
	s := newReady(t)
	ctx := context.Background()

	const lookups = 64
	var wg sync.WaitGroup
	for i := 0; i < lookups; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.RecordLookup(ctx, "quorum", "en"))
		}()
	}
	wg.Wait()

	entry, err := s.Word("quorum")
	require.NoError(t, err)
	assert.Equal(t, lookups, entry.Lookups)
}

func TestStorage_DeleteWord(t *testing.T) {
	s := newReady(t)
	ctx := context.Background()

	require.NoError(t, s.SaveWord(ctx, VocabularyEntry{Word: "transient", Language: "en"}))
	require.NoError(t, s.DeleteWord(ctx, "transient"))

	_, err := s.Word("transient")
	require.Error(t, err)
}

func TestStorage_VocabularyTTL(t *testing.T) {
	s := New()
	require.NoError(t, s.Initialize(context.Background(), map[string]any{
		"vocabulary_ttl": "10ms",
	}))

	require.NoError(t, s.SaveWord(context.Background(), VocabularyEntry{Word: "fleeting", Language: "en"}))
	time.Sleep(30 * time.Millisecond)

	_, err := s.Word("fleeting")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeNotFound))
}

func TestStorage_HealthAndDispose(t *testing.T) {
	s := newReady(t)
	ctx := context.Background()

	require.NoError(t, s.SetSetting(ctx, "volume", 1.0))
	require.NoError(t, s.SaveWord(ctx, VocabularyEntry{Word: "echo", Language: "en"}))

	status := s.HealthCheck(ctx)
	assert.True(t, status.Healthy)
	assert.Equal(t, 1, status.Details["settings_count"])
	assert.Equal(t, 1, status.Details["vocabulary_count"])

	require.NoError(t, s.Dispose(ctx))
	err := s.SetSetting(ctx, "volume", 0.5)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDisposed)
}
