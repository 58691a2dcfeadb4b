// Package dictionary provides word lookups against an external
// dictionary API for the language-learning features of the player.
//
// Lookups are rate limited, cached, and retried on transient failures.
// Failures carry the error taxonomy: an unknown word is not_found, a
// slow upstream is timeout, a broken upstream is external, and an
// unreachable one is network.
package dictionary

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/mkdir700/EchoPlayer-sub001/errors"
	"github.com/mkdir700/EchoPlayer-sub001/pkg/retry"
	"github.com/mkdir700/EchoPlayer-sub001/service"
)

// Name is the service name dictionary registers under
const Name = "dictionary"

// Version is the dictionary service version
const Version = "1.0.0"

const (
	defaultBaseURL  = "https://api.dictionaryapi.dev/api/v2/entries"
	defaultTimeout  = 5 * time.Second
	defaultRate     = 5.0
	defaultCacheTTL = time.Hour
	defaultLanguage = "en"
)

// Definition is one sense of a word
type Definition struct {
	PartOfSpeech string `json:"part_of_speech"`
	Meaning      string `json:"meaning"`
	Example      string `json:"example,omitempty"`
}

// Entry is the lookup result for one word
type Entry struct {
	Word        string       `json:"word"`
	Phonetic    string       `json:"phonetic,omitempty"`
	Definitions []Definition `json:"definitions"`
	FetchedAt   time.Time    `json:"fetched_at"`
}

// Recorder receives lookup notifications, typically the storage
// service building the learner's vocabulary
type Recorder interface {
	RecordLookup(ctx context.Context, word, language string) error
}

// Option configures the dictionary service beyond the base options
type Option func(*Service)

// WithRecorder wires a lookup recorder
func WithRecorder(rec Recorder) Option {
	return func(s *Service) {
		s.recorder = rec
	}
}

// WithBaseOptions passes options through to the embedded base service
func WithBaseOptions(opts ...service.Option) Option {
	return func(s *Service) {
		s.baseOpts = append(s.baseOpts, opts...)
	}
}

// Service performs dictionary lookups
type Service struct {
	*service.Base

	baseOpts []service.Option
	recorder Recorder

	client   *http.Client
	limiter  *rate.Limiter
	cache    *gocache.Cache
	retryCfg retry.Config

	baseURL  string
	language string
}

// New creates the dictionary service
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	s.Base = service.NewBase(Name, Version, append(s.baseOpts,
		service.WithInitialize(s.initialize),
		service.WithHealthDetails(s.healthDetails),
		service.WithDispose(s.dispose))...)
	return s
}

func (s *Service) initialize(_ context.Context, opts service.InitOptions) error {
	s.baseURL = strings.TrimRight(service.OptionString(opts, "base_url", defaultBaseURL), "/")
	s.language = service.OptionString(opts, "language", defaultLanguage)

	if _, err := url.Parse(s.baseURL); err != nil || s.baseURL == "" {
		return errors.NewConfiguration(fmt.Sprintf("invalid dictionary base URL: %q", s.baseURL))
	}

	timeout := service.OptionDuration(opts, "request_timeout", defaultTimeout)
	s.client = &http.Client{Timeout: timeout}

	perSecond := defaultRate
	if v, exists := opts["rate_per_second"]; exists {
		switch n := v.(type) {
		case float64:
			perSecond = n
		case int:
			perSecond = float64(n)
		}
	}
	if perSecond <= 0 {
		return errors.NewConfiguration("dictionary rate_per_second must be positive")
	}
	s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)

	ttl := service.OptionDuration(opts, "cache_ttl", defaultCacheTTL)
	s.cache = gocache.New(ttl, 2*ttl)

	s.retryCfg = retry.DefaultConfig()
	return nil
}

func (s *Service) healthDetails(context.Context) (map[string]any, error) {
	return map[string]any{
		"base_url":     s.baseURL,
		"cached_words": s.cache.ItemCount(),
	}, nil
}

func (s *Service) dispose(context.Context) error {
	s.cache.Flush()
	s.client.CloseIdleConnections()
	return nil
}

// Lookup resolves word to its dictionary entry. Cached entries are
// served directly; otherwise the external API is consulted under the
// rate limit, with transient failures retried.
func (s *Service) Lookup(ctx context.Context, word string) (Entry, error) {
	if err := s.EnsureInitialized(); err != nil {
		return Entry{}, err
	}

	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return Entry{}, errors.New(errors.TypeValidation, "lookup word cannot be empty")
	}

	if cached, found := s.cache.Get(word); found {
		s.countLookup("cache_hit")
		return cached.(Entry), nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		s.countLookup("rate_limited")
		return Entry{}, errors.WrapTyped(err, errors.TypeTimeout, Name, "Lookup", "rate limit wait")
	}

	entry, err := retry.DoWithResult(ctx, s.retryCfg, func() (Entry, error) {
		return s.fetch(ctx, word)
	})
	if err != nil {
		s.countLookup("error")
		return Entry{}, errors.Wrap(err, Name, "Lookup", fmt.Sprintf("fetch %q", word))
	}

	s.cache.SetDefault(word, entry)
	s.countLookup("success")

	if s.recorder != nil {
		if recErr := s.recorder.RecordLookup(ctx, word, s.language); recErr != nil {
			s.Logger().Warn("Failed to record lookup", "word", word, "error", recErr)
		}
	}
	return entry, nil
}

// fetch performs one API request. HTTP statuses map onto the error
// taxonomy; only network errors and 5xx responses are retryable.
func (s *Service) fetch(ctx context.Context, word string) (Entry, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", s.baseURL, s.language, url.PathEscape(word))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Entry{}, retry.NonRetryable(
			errors.Newf(errors.TypeValidation, "invalid lookup request: %v", err))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Entry{}, classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fallthrough to decode
	case resp.StatusCode == http.StatusNotFound:
		return Entry{}, retry.NonRetryable(
			errors.Newf(errors.TypeNotFound, "no dictionary entry for %q", word))
	case resp.StatusCode == http.StatusTooManyRequests:
		return Entry{}, errors.Newf(errors.TypeExternal,
			"dictionary API throttled the request (%d)", resp.StatusCode)
	case resp.StatusCode >= 500:
		return Entry{}, errors.Newf(errors.TypeExternal,
			"dictionary API failure (%d)", resp.StatusCode)
	default:
		return Entry{}, retry.NonRetryable(errors.Newf(errors.TypeExternal,
			"unexpected dictionary API response (%d)", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Entry{}, classifyTransportError(err)
	}
	return decodeEntry(word, body)
}

// classifyTransportError maps transport failures onto the taxonomy:
// timeouts are timeout, everything else is network. Both are worth
// retrying.
func classifyTransportError(err error) error {
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) && urlErr.Timeout() {
		return errors.Newf(errors.TypeTimeout, "dictionary request timed out: %v", err)
	}
	return errors.Newf(errors.TypeNetwork, "dictionary request failed: %v", err)
}

// apiEntry mirrors the wire format of the dictionary API
type apiEntry struct {
	Word     string `json:"word"`
	Phonetic string `json:"phonetic"`
	Meanings []struct {
		PartOfSpeech string `json:"partOfSpeech"`
		Definitions  []struct {
			Definition string `json:"definition"`
			Example    string `json:"example"`
		} `json:"definitions"`
	} `json:"meanings"`
}

func decodeEntry(word string, body []byte) (Entry, error) {
	var wire []apiEntry
	if err := json.Unmarshal(body, &wire); err != nil {
		return Entry{}, retry.NonRetryable(
			errors.Newf(errors.TypeExternal, "malformed dictionary response: %v", err))
	}
	if len(wire) == 0 {
		return Entry{}, retry.NonRetryable(
			errors.Newf(errors.TypeNotFound, "no dictionary entry for %q", word))
	}

	entry := Entry{
		Word:      word,
		Phonetic:  wire[0].Phonetic,
		FetchedAt: time.Now().UTC(),
	}
	for _, e := range wire {
		for _, meaning := range e.Meanings {
			for _, def := range meaning.Definitions {
				entry.Definitions = append(entry.Definitions, Definition{
					PartOfSpeech: meaning.PartOfSpeech,
					Meaning:      def.Definition,
					Example:      def.Example,
				})
			}
		}
	}
	return entry, nil
}

func (s *Service) countLookup(result string) {
	if s.Metrics() != nil {
		s.Metrics().CoreMetrics().DictionaryLookups.WithLabelValues(result).Inc()
	}
}
