package livetl

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// BatchReport counts the outcome of one BatchTranslator.Translate call.
type BatchReport struct {
	Batches    int // Batches dispatched
	Translated int // Keys translated by the service
	Fallback   int // Keys resolved to their original text
	Failed     int // Keys left uncached after a transport error or timeout
}

// CommitFunc receives one resolved key. Calls are serialized.
type CommitFunc func(key, translation string)

// BatchTranslator fetches translations for novel keys in bounded-concurrency
// batches.
type BatchTranslator struct {
	provider    Provider
	size        int
	concurrency int
	timeout     time.Duration
	sourceLang  string
	context     string
	excluded    []string
	logger      *zap.Logger
}

// BatchOption configures a BatchTranslator.
type BatchOption func(*BatchTranslator)

// WithBatchLogger sets the logger.
func WithBatchLogger(logger *zap.Logger) BatchOption {
	return func(b *BatchTranslator) { b.logger = logger }
}

// WithBatchPrompt sets the page context and the terms to keep verbatim.
func WithBatchPrompt(context string, excluded []string) BatchOption {
	return func(b *BatchTranslator) {
		b.context = context
		b.excluded = excluded
	}
}

// NewBatchTranslator creates a translator. Non-positive limits use the
// package defaults.
func NewBatchTranslator(provider Provider, size, concurrency int, timeout time.Duration, sourceLang string, opts ...BatchOption) *BatchTranslator {
	if size <= 0 {
		size = DefaultBatchSize
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if timeout <= 0 {
		timeout = DefaultBatchTimeout
	}
	if sourceLang == "" {
		sourceLang = DefaultSourceLang
	}

	b := &BatchTranslator{
		provider:    provider,
		size:        size,
		concurrency: concurrency,
		timeout:     timeout,
		sourceLang:  sourceLang,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Translate resolves keys for lang. originals maps each key to the text sent
// to the service. Resolved keys are passed to commit as each batch returns.
//
// A batch whose reply is unusable resolves to its originals; a batch that
// fails in transport or times out is logged and skipped. If ctx is
// cancelled, Translate returns ctx.Err() and nothing more is committed.
func (b *BatchTranslator) Translate(ctx context.Context, lang string, keys []string, originals map[string]string, commit CommitFunc) (BatchReport, error) {
	var report BatchReport
	if len(keys) == 0 {
		return report, nil
	}
	if b.provider == nil {
		return report, ErrNoProvider
	}

	sem := semaphore.NewWeighted(int64(b.concurrency))
	var (
		wg sync.WaitGroup
		mu sync.Mutex // guards commit and report
	)

	for i, batch := range partition(keys, b.size) {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		report.Batches++

		wg.Add(1)
		go func(index int, batch []string) {
			defer wg.Done()
			defer sem.Release(1)

			results, outcome := b.translateBatch(ctx, lang, index, batch, originals)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case batchFailed:
				report.Failed += len(batch)
				return
			case batchCancelled:
				return
			case batchFallback:
				report.Fallback += len(batch)
			default:
				report.Translated += len(batch)
			}
			if ctx.Err() != nil {
				return
			}
			for j, key := range batch {
				commit(key, results[j])
			}
		}(i, batch)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

type batchOutcome int

const (
	batchTranslated batchOutcome = iota
	batchFallback
	batchFailed
	batchCancelled
)

func (b *BatchTranslator) translateBatch(ctx context.Context, lang string, index int, keys []string, originals map[string]string) ([]string, batchOutcome) {
	texts := make([]string, len(keys))
	for i, key := range keys {
		if text, ok := originals[key]; ok {
			texts[i] = text
		} else {
			texts[i] = key
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start := time.Now()
	out, err := b.provider.Translate(callCtx, TranslateRequest{
		Texts:         texts,
		TargetLang:    lang,
		SourceLang:    b.sourceLang,
		Context:       b.context,
		ExcludedTerms: b.excluded,
	})

	fields := []zap.Field{
		zap.String("lang", lang),
		zap.Int("batch", index),
		zap.Int("items", len(keys)),
		zap.Duration("elapsed", time.Since(start)),
	}

	switch {
	case err == nil && len(out) != len(texts):
		err = &CountMismatchError{Expected: len(texts), Got: len(out)}
		fallthrough
	case IsFallback(err):
		b.logger.Warn("translation batch fell back to originals", append(fields, zap.Error(err))...)
		return texts, batchFallback
	case err == nil:
		b.logger.Debug("translation batch done", fields...)
		return out, batchTranslated
	case ctx.Err() != nil:
		return nil, batchCancelled
	case errors.Is(err, context.DeadlineExceeded):
		b.logger.Warn("translation batch timed out", append(fields, zap.Duration("timeout", b.timeout))...)
		return nil, batchFailed
	default:
		b.logger.Warn("translation batch failed", append(fields, zap.Error(err))...)
		return nil, batchFailed
	}
}

func partition(keys []string, size int) [][]string {
	batches := make([][]string, 0, (len(keys)+size-1)/size)
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		batches = append(batches, keys[start:end])
	}
	return batches
}
