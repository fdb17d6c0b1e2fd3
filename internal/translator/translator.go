package translator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"pdf-translator/internal/chunker"
	"pdf-translator/internal/logger"
	"pdf-translator/internal/types"
)

const (
	// BaseRetryDelay is the first backoff delay; it doubles per attempt
	BaseRetryDelay = 2 * time.Second
	MaxRetryDelay  = 30 * time.Second

	failurePreviewRunes = 50
	mockPreviewRunes    = 100
)

// TranslatedChunk is the outcome for one chunk. Text always holds something
// printable: the translation, the mock output, or a failure marker.
type TranslatedChunk struct {
	Index  int
	Source string
	Text   string
	Failed bool
	// Degraded is set on mock output produced without a credential
	Degraded  bool
	FromCache bool
	Err       error
}

// Options tune the fan-out
type Options struct {
	// Concurrency caps in-flight backend calls; 0 means no cap
	Concurrency int
	// MaxAttempts per chunk; 1 disables retries
	MaxAttempts   int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	Cache         *Cache
}

// Translator dispatches chunks to a Backend. With a nil backend it runs in
// mock mode.
type Translator struct {
	backend Backend
	opts    Options
}

func New(backend Backend, opts Options) *Translator {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = BaseRetryDelay
	}
	if opts.MaxRetryDelay <= 0 {
		opts.MaxRetryDelay = MaxRetryDelay
	}
	return &Translator{backend: backend, opts: opts}
}

// NewFromConfig builds the translator described by cfg. Without an API key
// the translator is degraded and produces mock output.
func NewFromConfig(ctx context.Context, cfg *types.Config, cache *Cache) (*Translator, error) {
	opts := Options{
		Concurrency: cfg.Concurrency,
		MaxAttempts: cfg.MaxAttempts,
		Cache:       cache,
	}
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OpenAI API key is not set, using mock translation")
		return New(nil, opts), nil
	}

	temperature := DefaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	backend, err := NewChatBackend(ctx, BackendConfig{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		Model:          cfg.OpenAIModel,
		Temperature:    temperature,
		TargetLanguage: cfg.TargetLanguage,
		Timeout:        time.Duration(cfg.RequestTimeout) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return New(backend, opts), nil
}

// Degraded reports whether the translator produces mock output
func (t *Translator) Degraded() bool {
	return t.backend == nil
}

// Translate returns one TranslatedChunk per input chunk, in input order.
// Chunks are translated concurrently and a failing chunk never affects the
// others. When ctx is done, chunks still pending become failure markers.
// In mock mode the whole input collapses into a single degraded chunk.
func (t *Translator) Translate(ctx context.Context, chunks []chunker.Chunk) []TranslatedChunk {
	if len(chunks) == 0 {
		return nil
	}
	if t.backend == nil {
		sources := make([]string, len(chunks))
		for i, c := range chunks {
			sources[i] = c.Text
		}
		return []TranslatedChunk{mockChunk(strings.Join(sources, " "))}
	}

	start := time.Now()
	logger.Info("starting translation",
		logger.Int("chunks", len(chunks)),
		logger.Int("concurrency", t.opts.Concurrency))

	results := make([]TranslatedChunk, len(chunks))

	var sem chan struct{}
	if t.opts.Concurrency > 0 {
		sem = make(chan struct{}, t.opts.Concurrency)
	}

	var wg sync.WaitGroup
	for i, c := range chunks {
		wg.Add(1)
		go func(i int, c chunker.Chunk) {
			defer wg.Done()

			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					results[i] = failedChunk(i, c.Text, ctx.Err())
					return
				}
			}
			results[i] = t.translateChunk(ctx, i, c.Text)
		}(i, c)
	}
	wg.Wait()

	s := Summarize(results)
	logger.Info("translation finished",
		logger.Int("chunks", s.Total),
		logger.Int("failed", s.Failed),
		logger.Int("fromCache", s.FromCache),
		logger.Duration("elapsed", time.Since(start)))

	return results
}

func (t *Translator) translateChunk(ctx context.Context, index int, source string) TranslatedChunk {
	if t.opts.Cache != nil {
		if cached, ok := t.opts.Cache.Get(source); ok {
			return TranslatedChunk{Index: index, Source: source, Text: cached, FromCache: true}
		}
	}

	var lastErr error
	for attempt := 1; attempt <= t.opts.MaxAttempts; attempt++ {
		text, err := t.call(ctx, source)
		if err == nil {
			if t.opts.Cache != nil {
				t.opts.Cache.Set(source, text)
			}
			return TranslatedChunk{Index: index, Source: source, Text: text}
		}

		lastErr = err
		logger.Warn("chunk translation failed",
			logger.Int("chunk", index),
			logger.Int("attempt", attempt),
			logger.Err(err))

		if attempt == t.opts.MaxAttempts || !isRetryable(err) {
			break
		}
		delay := backoffDelay(t.opts.RetryDelay, t.opts.MaxRetryDelay, attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return failedChunk(index, source, ctx.Err())
		}
	}
	return failedChunk(index, source, lastErr)
}

type callResult struct {
	text string
	err  error
}

// call runs one backend request and gives up as soon as ctx is done, even if
// the backend does not observe ctx itself
func (t *Translator) call(ctx context.Context, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	done := make(chan callResult, 1)
	go func() {
		text, err := t.backend.Translate(ctx, source)
		if err == nil && strings.TrimSpace(text) == "" {
			err = types.NewAppError(types.ErrTranslation, "API returned an empty translation", nil)
		}
		done <- callResult{text: text, err: err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// FailureMarker is the placeholder that replaces an untranslated chunk
func FailureMarker(source string) string {
	return fmt.Sprintf("[번역 실패: %s...]", truncateRunes(source, failurePreviewRunes))
}

// MockTranslation is the deterministic output used without a credential
func MockTranslation(source string) string {
	return fmt.Sprintf("원본 텍스트: %s...\n\n한국어 번역 (모의): 이것은 테스트를 위한 한국어 번역 텍스트입니다. "+
		"API 키를 설정하면 실제 번역이 작동합니다.", truncateRunes(source, mockPreviewRunes))
}

func failedChunk(index int, source string, err error) TranslatedChunk {
	return TranslatedChunk{
		Index:  index,
		Source: source,
		Text:   FailureMarker(source),
		Failed: true,
		Err:    err,
	}
}

func mockChunk(source string) TranslatedChunk {
	return TranslatedChunk{Source: source, Text: MockTranslation(source), Degraded: true}
}

// Join concatenates chunk outputs with paragraph breaks
func Join(chunks []TranslatedChunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Text
	}
	return chunker.Join(parts)
}

// Summary counts chunk outcomes
type Summary struct {
	Total     int
	Failed    int
	FromCache int
	Degraded  bool
}

func Summarize(chunks []TranslatedChunk) Summary {
	s := Summary{Total: len(chunks)}
	for _, c := range chunks {
		if c.Failed {
			s.Failed++
		}
		if c.FromCache {
			s.FromCache++
		}
		if c.Degraded {
			s.Degraded = true
		}
	}
	return s
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
