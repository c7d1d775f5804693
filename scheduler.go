package livetl

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the scheduler's run state.
type State int32

const (
	Idle State = iota
	Scheduled
	Running
	Applying
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case Running:
		return "running"
	case Applying:
		return "applying"
	default:
		return "unknown"
	}
}

// Run is one execution of the pipeline for a language.
type Run struct {
	ID   string
	Lang string

	gen   uint64
	sched *Scheduler
}

// BeginApply moves the Run from Running to Applying. It returns false when
// the Run is no longer current (cancelled or cleared by the watchdog), in
// which case the caller must not touch the document.
func (r *Run) BeginApply() bool {
	if r.sched == nil {
		return true
	}
	if r.sched.gen.Load() != r.gen {
		return false
	}
	return r.sched.state.CompareAndSwap(int32(Running), int32(Applying))
}

// RunFunc executes one Run. It must honour ctx.
type RunFunc func(ctx context.Context, run *Run) (RunStats, error)

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	Debounce time.Duration // Coalescing window before a Run starts
	Watchdog time.Duration // Ceiling on a busy period before a forced reset
	Logger   *zap.Logger
	OnEvent  EventHandler
	OnReset  func() // Called when a Run is cancelled or cleared by the watchdog
}

type trigger struct {
	lang  string
	force bool
}

type request struct {
	trigger trigger
	ack     chan struct{}
}

type runResult struct {
	gen   uint64
	lang  string
	stats RunStats
	err   error
}

// Scheduler serializes Runs. All state transitions happen on one goroutine;
// callers talk to it through Trigger, Notify and Cancel.
//
// At most one Run is active. Triggers during the debounce window coalesce
// into it; triggers while a Run is active queue exactly one follow-up Run
// for the latest requested language.
type Scheduler struct {
	cfg   SchedulerConfig
	runFn RunFunc

	state atomic.Int32
	gen   atomic.Uint64

	// Coalescing mailbox for Notify.
	mu      sync.Mutex
	pending *trigger
	wake    chan struct{}

	requests chan request
	cancels  chan chan struct{}
	done     chan runResult
	quit     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	// Owned by the loop goroutine.
	busy        bool
	lang        string
	runID       string
	lastApplied string
	queued      *trigger
	cancelRun   context.CancelFunc
	lastStats   *RunStats
	debounce    *time.Timer
	watchdog    *time.Timer
}

// NewScheduler creates a scheduler and starts its loop.
func NewScheduler(run RunFunc, cfg SchedulerConfig) *Scheduler {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Watchdog <= 0 {
		cfg.Watchdog = DefaultWatchdog
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	s := &Scheduler{
		cfg:      cfg,
		runFn:    run,
		wake:     make(chan struct{}, 1),
		requests: make(chan request),
		cancels:  make(chan chan struct{}),
		done:     make(chan runResult),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go s.loop()
	return s
}

// State returns the current run state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Trigger asks for a Run of lang and returns once the scheduler accepted the
// request, so a resulting Started has already been delivered. A non-forced
// trigger for the language applied last is ignored while idle; force
// invalidates that guard.
func (s *Scheduler) Trigger(lang string, force bool) {
	ack := make(chan struct{})
	select {
	case s.requests <- request{trigger: trigger{lang: lang, force: force}, ack: ack}:
		<-ack
	case <-s.stopped:
	}
}

// Notify is the non-blocking form of Trigger. Notifications coalesce: the
// latest language wins and force is sticky until delivered.
func (s *Scheduler) Notify(lang string, force bool) {
	s.mu.Lock()
	if s.pending == nil {
		s.pending = &trigger{lang: lang, force: force}
	} else {
		s.pending.lang = lang
		s.pending.force = s.pending.force || force
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Cancel aborts the active Run, drops any queued Run and emits Ended if a
// Started is outstanding. It returns after the reset is complete.
func (s *Scheduler) Cancel() {
	ack := make(chan struct{})
	select {
	case s.cancels <- ack:
		<-ack
	case <-s.stopped:
	}
}

// Stop cancels everything and terminates the loop.
func (s *Scheduler) Stop() {
	s.Cancel()
	s.stopOnce.Do(func() { close(s.quit) })
	<-s.stopped
}

func (s *Scheduler) loop() {
	defer close(s.stopped)

	for {
		var debounceC, watchdogC <-chan time.Time
		if s.debounce != nil {
			debounceC = s.debounce.C
		}
		if s.watchdog != nil {
			watchdogC = s.watchdog.C
		}

		select {
		case <-s.quit:
			s.stopTimers()
			return
		case <-s.wake:
			s.mu.Lock()
			t := s.pending
			s.pending = nil
			s.mu.Unlock()
			if t != nil {
				s.handleTrigger(*t)
			}
		case req := <-s.requests:
			s.handleTrigger(req.trigger)
			close(req.ack)
		case ack := <-s.cancels:
			s.reset("cancelled", false)
			close(ack)
		case <-debounceC:
			s.debounce = nil
			s.startRun()
		case <-watchdogC:
			s.watchdog = nil
			s.cfg.Logger.Warn("watchdog: forcing end state",
				zap.String("run_id", s.runID),
				zap.String("lang", s.lang),
				zap.String("state", s.State().String()),
				zap.Duration("ceiling", s.cfg.Watchdog))
			s.reset("watchdog", true)
		case res := <-s.done:
			s.handleDone(res)
		}
	}
}

func (s *Scheduler) handleTrigger(t trigger) {
	if t.force {
		s.lastApplied = ""
	}

	switch s.State() {
	case Idle:
		if !t.force && t.lang == s.lastApplied {
			s.cfg.Logger.Debug("skipping run for applied language", zap.String("lang", t.lang))
			return
		}
		s.lang = t.lang
		s.runID = uuid.NewString()
		s.busy = true
		s.lastStats = nil
		s.emit(Event{Type: Started, Lang: s.lang, RunID: s.runID})
		s.armWatchdog()
		s.state.Store(int32(Scheduled))
		s.debounce = time.NewTimer(s.cfg.Debounce)
	case Scheduled:
		s.lang = t.lang
	case Running, Applying:
		if s.queued == nil {
			s.queued = &t
		} else {
			s.queued.lang = t.lang
			s.queued.force = s.queued.force || t.force
		}
	}
}

func (s *Scheduler) startRun() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelRun = cancel

	run := &Run{ID: s.runID, Lang: s.lang, gen: s.gen.Add(1), sched: s}
	s.state.Store(int32(Running))
	s.cfg.Logger.Debug("run started", zap.String("run_id", run.ID), zap.String("lang", run.Lang))

	go func() {
		stats, err := s.runFn(ctx, run)
		select {
		case s.done <- runResult{gen: run.gen, lang: run.Lang, stats: stats, err: err}:
		case <-s.stopped:
		}
	}()
}

func (s *Scheduler) handleDone(res runResult) {
	if res.gen != s.gen.Load() {
		return // completion of a run that was cancelled or cleared
	}
	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}

	log := s.cfg.Logger.With(zap.String("run_id", s.runID), zap.String("lang", res.lang))
	switch {
	case res.err == nil:
		s.lastApplied = res.lang
		log.Debug("run finished",
			zap.Int("units", res.stats.Units),
			zap.Int("applied", res.stats.Applied),
			zap.Duration("elapsed", res.stats.ElapsedTime))
	case IsCancelled(res.err):
		log.Debug("run cancelled")
	default:
		log.Error("run failed", zap.Error(res.err))
	}
	stats := res.stats
	s.lastStats = &stats

	if q := s.queued; q != nil {
		s.queued = nil
		if q.force || q.lang != s.lastApplied {
			s.lang = q.lang
			s.runID = uuid.NewString()
			s.armWatchdog()
			s.startRun()
			return
		}
	}

	s.finish(res.err, false)
}

// reset returns to Idle from any state.
func (s *Scheduler) reset(reason string, forced bool) {
	s.gen.Add(1)
	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}
	s.queued = nil
	s.lastApplied = ""
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	if s.cfg.OnReset != nil {
		s.cfg.OnReset()
	}
	if s.busy {
		s.cfg.Logger.Debug("run reset", zap.String("reason", reason), zap.String("run_id", s.runID))
	}
	s.lastStats = nil
	s.finish(nil, forced)
}

func (s *Scheduler) finish(err error, forced bool) {
	s.state.Store(int32(Idle))
	if s.watchdog != nil {
		s.watchdog.Stop()
		s.watchdog = nil
	}
	if !s.busy {
		return
	}
	s.busy = false
	s.emit(Event{Type: Ended, Lang: s.lang, RunID: s.runID, Err: err, Forced: forced, Stats: s.lastStats})
}

func (s *Scheduler) armWatchdog() {
	if s.watchdog != nil {
		s.watchdog.Stop()
	}
	s.watchdog = time.NewTimer(s.cfg.Watchdog)
}

func (s *Scheduler) stopTimers() {
	if s.debounce != nil {
		s.debounce.Stop()
	}
	if s.watchdog != nil {
		s.watchdog.Stop()
	}
}

func (s *Scheduler) emit(ev Event) {
	if s.cfg.OnEvent != nil {
		s.cfg.OnEvent(ev)
	}
}
