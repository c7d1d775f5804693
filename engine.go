package livetl

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ZaguanLabs/livetl/cache"
	"github.com/ZaguanLabs/livetl/dom"
	"github.com/ZaguanLabs/livetl/store"
)

// LanguageCache is the per-language translation cache used by an Engine.
type LanguageCache = cache.LanguageCache

// Engine keeps a live document translated into the chosen language.
//
// It owns the scheduler, the change watcher, the cache and the session
// state for one document. Create it with NewEngine, call Start once the
// document is ready and Dispose when done.
type Engine struct {
	doc      *dom.Document
	provider Provider
	cfg      engineConfig

	batch   *BatchTranslator
	applier *applier
	sup     *suppressor
	tracker *unitTracker
	session *Session
	watcher *changeWatcher
	sched   *Scheduler

	mu       sync.Mutex
	started  bool
	disposed bool
}

type engineConfig struct {
	logger        *zap.Logger
	cache         LanguageCache
	roots         []string
	frames        dom.FrameScheduler
	batchSize     int
	concurrency   int
	batchTimeout  time.Duration
	debounce      time.Duration
	watchdog      time.Duration
	applyCooldown time.Duration
	sourceLang    string
	local         store.KV
	sessionKV     store.KV
	onEvent       EventHandler
	pageContext   string
	excluded      []string
}

// EngineOption configures an Engine.
type EngineOption func(*engineConfig)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(c *engineConfig) { c.logger = logger }
}

// WithCache sets the language cache. Defaults to a new in-memory cache.
func WithCache(c LanguageCache) EngineOption {
	return func(cfg *engineConfig) { cfg.cache = c }
}

// WithRoots sets the selectors scanned for text.
func WithRoots(selectors ...string) EngineOption {
	return func(c *engineConfig) { c.roots = selectors }
}

// WithFrames sets the frame source for paint waits.
func WithFrames(frames dom.FrameScheduler) EngineOption {
	return func(c *engineConfig) { c.frames = frames }
}

// WithBatchSize sets the number of strings per request.
func WithBatchSize(n int) EngineOption {
	return func(c *engineConfig) { c.batchSize = n }
}

// WithConcurrency sets the number of requests in flight.
func WithConcurrency(n int) EngineOption {
	return func(c *engineConfig) { c.concurrency = n }
}

// WithBatchTimeout sets the deadline of each request.
func WithBatchTimeout(d time.Duration) EngineOption {
	return func(c *engineConfig) { c.batchTimeout = d }
}

// WithDebounce sets the coalescing window before a Run.
func WithDebounce(d time.Duration) EngineOption {
	return func(c *engineConfig) { c.debounce = d }
}

// WithWatchdog sets the ceiling on a busy period.
func WithWatchdog(d time.Duration) EngineOption {
	return func(c *engineConfig) { c.watchdog = d }
}

// WithApplyCooldown sets how long the watcher stays paused after a commit.
func WithApplyCooldown(d time.Duration) EngineOption {
	return func(c *engineConfig) { c.applyCooldown = d }
}

// WithSourceLang sets the language the document is authored in.
func WithSourceLang(lang string) EngineOption {
	return func(c *engineConfig) { c.sourceLang = lang }
}

// WithPreferences sets the stores for the chosen language (local scope) and
// the opt-in flag (session scope). Both default to memory stores.
func WithPreferences(local, session store.KV) EngineOption {
	return func(c *engineConfig) {
		c.local = local
		c.sessionKV = session
	}
}

// WithEventHandler receives Started and Ended signals.
func WithEventHandler(h EventHandler) EngineOption {
	return func(c *engineConfig) { c.onEvent = h }
}

// WithContext describes the page to prompt-based services.
func WithContext(description string) EngineOption {
	return func(c *engineConfig) { c.pageContext = description }
}

// WithExcludedTerms lists terms that must not be translated.
func WithExcludedTerms(terms ...string) EngineOption {
	return func(c *engineConfig) { c.excluded = terms }
}

// NewEngine creates an engine for doc. provider may be nil if the document
// is only ever shown in the source language.
func NewEngine(doc *dom.Document, provider Provider, opts ...EngineOption) *Engine {
	cfg := engineConfig{
		roots:         DefaultRoots,
		frames:        dom.TickerFrames{},
		applyCooldown: DefaultApplyCooldown,
		sourceLang:    DefaultSourceLang,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.cache == nil {
		cfg.cache = cache.NewInMemoryCache()
	}

	e := &Engine{
		doc:      doc,
		provider: provider,
		cfg:      cfg,
		sup:      newSuppressor(),
		tracker:  newUnitTracker(),
		session:  newSession(cfg.local, cfg.sessionKV, cfg.sourceLang),
	}

	e.batch = NewBatchTranslator(provider, cfg.batchSize, cfg.concurrency, cfg.batchTimeout, cfg.sourceLang,
		WithBatchLogger(cfg.logger),
		WithBatchPrompt(cfg.pageContext, cfg.excluded))
	e.applier = &applier{doc: doc, frames: cfg.frames, sup: e.sup, cooldown: cfg.applyCooldown}
	e.sched = NewScheduler(e.run, SchedulerConfig{
		Debounce: cfg.debounce,
		Watchdog: cfg.watchdog,
		Logger:   cfg.logger,
		OnEvent:  cfg.onEvent,
		OnReset:  e.sup.reset,
	})
	e.watcher = &changeWatcher{
		doc:     doc,
		sup:     e.sup,
		session: e.session,
		logger:  cfg.logger,
		notify:  func() { e.sched.Notify(e.session.Language(), true) },
	}
	return e
}

// Start marks the document with the active language and begins watching
// for changes. It does not translate: translation starts with the first
// SelectLanguage of the session. Calling Start again is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.disposed {
		return
	}
	e.started = true

	lang := e.session.Language()
	e.doc.SetDocumentLang(ToHTMLLang(lang), GetDirection(lang))
	e.watcher.start()
	e.cfg.logger.Debug("engine started", zap.String("lang", lang), zap.Bool("session_active", e.session.Active()))
}

// SelectLanguage records code as the user's choice, opts the session in and
// runs the pipeline for it, even if code was applied before.
func (e *Engine) SelectLanguage(code string) error {
	if code == "" {
		return errors.New("empty language code")
	}
	if e.isDisposed() {
		return errEngineDisposed
	}
	if err := e.session.Choose(code); err != nil {
		return err
	}
	e.doc.SetDocumentLang(ToHTMLLang(code), GetDirection(code))
	e.sched.Trigger(code, true)
	return nil
}

// OnNavigate reports an in-app navigation. If the user opted in this
// session, the new content is translated into the active language. The
// trigger is forced: a route change replaces content even when the
// language stays the same, and cached keys cost no request.
func (e *Engine) OnNavigate() {
	if e.isDisposed() || !e.session.Active() {
		return
	}
	e.sched.Trigger(e.session.Language(), true)
}

// OnUnload cancels any Run and resets all run state. The session stays as
// it is.
func (e *Engine) OnUnload() {
	if e.isDisposed() {
		return
	}
	e.sched.Cancel()
}

// ActiveLanguage returns the last selected language, or the source language.
func (e *Engine) ActiveLanguage() string {
	return e.session.Language()
}

// State returns the scheduler state.
func (e *Engine) State() State {
	return e.sched.State()
}

// Session returns the engine's session state.
func (e *Engine) Session() *Session {
	return e.session
}

// Cache returns the language cache.
func (e *Engine) Cache() LanguageCache {
	return e.cfg.cache
}

// Reset cancels any Run and forgets every captured original, so the next
// Run treats the current text as source text.
func (e *Engine) Reset() {
	if e.isDisposed() {
		return
	}
	e.sched.Cancel()
	e.tracker.clear()
}

// Dispose stops the watcher and the scheduler and clears caches that are
// scoped to the session. The engine cannot be used afterwards.
func (e *Engine) Dispose() error {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return nil
	}
	e.disposed = true
	e.mu.Unlock()

	e.watcher.stop()
	e.sched.Stop()
	e.tracker.clear()

	if c, ok := e.cfg.cache.(cache.Clearer); ok {
		if err := c.Clear(); err != nil {
			return err
		}
	}
	return nil
}

var errEngineDisposed = errors.New("engine disposed")

func (e *Engine) isDisposed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.disposed
}

// run is the pipeline: paint wait, scan, translate missing keys, apply.
func (e *Engine) run(ctx context.Context, run *Run) (RunStats, error) {
	start := time.Now()
	var stats RunStats
	log := e.cfg.logger.With(zap.String("run_id", run.ID), zap.String("lang", run.Lang))

	if err := dom.StablePaint(ctx, e.cfg.frames); err != nil {
		return stats, err
	}

	units := e.scan()
	stats.Units = len(units)

	keys, originals := dedupeKeys(units)
	stats.UniqueKeys = len(keys)

	restore := SameLanguage(run.Lang, e.cfg.sourceLang)
	if !restore {
		// A language that never ran has nothing cached.
		missing := keys
		if e.cfg.cache.HasRun(run.Lang) {
			missing = nil
			for _, key := range keys {
				if _, ok := e.cfg.cache.Get(run.Lang, key); !ok {
					missing = append(missing, key)
				}
			}
		}
		stats.CachedKeys = len(keys) - len(missing)

		if len(missing) > 0 {
			log.Debug("translating novel keys", zap.Int("keys", len(missing)))
			report, err := e.batch.Translate(ctx, run.Lang, missing, originals, func(key, translation string) {
				if err := e.cfg.cache.Put(run.Lang, key, translation); err != nil {
					log.Warn("caching translation failed", zap.String("key", key), zap.Error(err))
				}
			})
			stats.Translated = report.Translated
			stats.Fallback = report.Fallback
			stats.Failed = report.Failed
			if err != nil {
				stats.ElapsedTime = time.Since(start)
				return stats, err
			}
		}
	}

	if !run.BeginApply() {
		return stats, context.Canceled
	}

	lookup := func(u TextUnit) (string, bool) {
		if restore {
			return u.Original, true
		}
		return e.cfg.cache.Get(run.Lang, u.Key)
	}
	applied, err := e.applier.apply(ctx, units, lookup, e.tracker.recordWrite)
	stats.Applied = applied
	stats.ElapsedTime = time.Since(start)
	return stats, err
}

// scan collects the text units under the configured roots.
func (e *Engine) scan() []TextUnit {
	var units []TextUnit
	e.doc.View(func(doc *goquery.Document) {
		lists := make([][]*html.Node, 0, len(e.cfg.roots))
		for _, sel := range e.cfg.roots {
			lists = append(lists, dom.CollectTextNodes(doc.Find(sel).Nodes...))
		}
		units = e.tracker.capture(dom.Dedupe(lists...))
	})
	return units
}

// dedupeKeys returns the distinct keys in first-seen order and the first
// original seen for each.
func dedupeKeys(units []TextUnit) ([]string, map[string]string) {
	originals := make(map[string]string, len(units))
	keys := make([]string, 0, len(units))
	for _, u := range units {
		if u.Key == "" {
			continue
		}
		if _, ok := originals[u.Key]; ok {
			continue
		}
		originals[u.Key] = u.Original
		keys = append(keys, u.Key)
	}
	return keys, originals
}
