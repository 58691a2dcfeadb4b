// Package storage provides the player settings and vocabulary store.
//
// The store is a TTL'd in-memory cache: settings live until changed,
// vocabulary entries until their expiration passes. Both collections
// are safe for concurrent use. Other services depend on storage by
// name and reach it through the registry.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mkdir700/EchoPlayer-sub001/errors"
	"github.com/mkdir700/EchoPlayer-sub001/service"
)

// Name is the service name storage registers under
const Name = "storage"

// Version is the storage service version
const Version = "1.0.0"

const (
	defaultVocabularyTTL   = 0 // no expiration
	defaultCleanupInterval = 10 * time.Minute
)

// VocabularyEntry is one saved word with its learning context
type VocabularyEntry struct {
	Word     string    `json:"word"`
	Language string    `json:"language"`
	Context  string    `json:"context,omitempty"`
	AddedAt  time.Time `json:"added_at"`
	Lookups  int       `json:"lookups"`
}

// Service stores player settings and the learner's vocabulary
type Service struct {
	*service.Base

	settings *gocache.Cache

	// vocabMu serializes vocabulary writes: RecordLookup is a
	// read-modify-write, and the cache only makes single operations safe
	vocabMu    sync.Mutex
	vocabulary *gocache.Cache
}

// New creates the storage service. The caches are built during
// Initialize so TTLs can come from configuration.
func New(opts ...service.Option) *Service {
	s := &Service{}
	s.Base = service.NewBase(Name, Version, append(opts,
		service.WithInitialize(s.initialize),
		service.WithHealthDetails(s.healthDetails),
		service.WithDispose(s.dispose))...)
	return s
}

func (s *Service) initialize(_ context.Context, opts service.InitOptions) error {
	vocabTTL := service.OptionDuration(opts, "vocabulary_ttl", defaultVocabularyTTL)
	cleanup := service.OptionDuration(opts, "cleanup_interval", defaultCleanupInterval)

	s.settings = gocache.New(gocache.NoExpiration, cleanup)
	if vocabTTL <= 0 {
		vocabTTL = gocache.NoExpiration
	}
	s.vocabulary = gocache.New(vocabTTL, cleanup)
	return nil
}

func (s *Service) healthDetails(context.Context) (map[string]any, error) {
	return map[string]any{
		"settings_count":   s.settings.ItemCount(),
		"vocabulary_count": s.vocabulary.ItemCount(),
	}, nil
}

func (s *Service) dispose(context.Context) error {
	s.settings.Flush()
	s.vocabulary.Flush()
	return nil
}

// SetSetting stores one player setting under key
func (s *Service) SetSetting(ctx context.Context, key string, value any) error {
	return s.SafeExecute(ctx, "SetSetting", func(context.Context) error {
		if key == "" {
			return errors.NewConfiguration("setting key cannot be empty")
		}
		s.settings.Set(key, value, gocache.NoExpiration)
		return nil
	})
}

// Setting returns the stored value for key
func (s *Service) Setting(key string) (any, bool, error) {
	if err := s.EnsureInitialized(); err != nil {
		return nil, false, err
	}
	value, found := s.settings.Get(key)
	return value, found, nil
}

// DeleteSetting removes one player setting
func (s *Service) DeleteSetting(ctx context.Context, key string) error {
	return s.SafeExecute(ctx, "DeleteSetting", func(context.Context) error {
		s.settings.Delete(key)
		return nil
	})
}

// SaveWord stores a vocabulary entry, replacing any existing entry for
// the same word. A zero AddedAt is stamped with the current time.
func (s *Service) SaveWord(ctx context.Context, entry VocabularyEntry) error {
	return s.SafeExecute(ctx, "SaveWord", func(context.Context) error {
		if entry.Word == "" {
			return errors.New(errors.TypeValidation, "vocabulary word cannot be empty")
		}
		if entry.AddedAt.IsZero() {
			entry.AddedAt = time.Now().UTC()
		}
		s.vocabMu.Lock()
		s.vocabulary.SetDefault(entry.Word, entry)
		s.vocabMu.Unlock()
		return nil
	})
}

// Word returns the vocabulary entry for word
func (s *Service) Word(word string) (VocabularyEntry, error) {
	if err := s.EnsureInitialized(); err != nil {
		return VocabularyEntry{}, err
	}
	value, found := s.vocabulary.Get(word)
	if !found {
		return VocabularyEntry{}, errors.New(errors.TypeNotFound,
			fmt.Sprintf("word not in vocabulary: %s", word))
	}
	return value.(VocabularyEntry), nil
}

// Words returns all vocabulary entries sorted by word
func (s *Service) Words() ([]VocabularyEntry, error) {
	if err := s.EnsureInitialized(); err != nil {
		return nil, err
	}
	items := s.vocabulary.Items()
	entries := make([]VocabularyEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, item.Object.(VocabularyEntry))
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Word < entries[j].Word
	})
	return entries, nil
}

// RecordLookup increments the lookup counter for word, creating the
// entry when the word is new
func (s *Service) RecordLookup(ctx context.Context, word, language string) error {
	return s.SafeExecute(ctx, "RecordLookup", func(context.Context) error {
		s.vocabMu.Lock()
		defer s.vocabMu.Unlock()

		entry := VocabularyEntry{
			Word:     word,
			Language: language,
			AddedAt:  time.Now().UTC(),
		}
		if value, found := s.vocabulary.Get(word); found {
			entry = value.(VocabularyEntry)
		}
		entry.Lookups++
		s.vocabulary.SetDefault(word, entry)
		return nil
	})
}

// DeleteWord removes a vocabulary entry
func (s *Service) DeleteWord(ctx context.Context, word string) error {
	return s.SafeExecute(ctx, "DeleteWord", func(context.Context) error {
		s.vocabMu.Lock()
		s.vocabulary.Delete(word)
		s.vocabMu.Unlock()
		return nil
	})
}
