package dom

import (
	"context"
	"time"
)

// DefaultFrameInterval approximates a 60Hz display.
const DefaultFrameInterval = 16 * time.Millisecond

// FrameScheduler yields until the next animation frame.
type FrameScheduler interface {
	NextFrame(ctx context.Context) error
}

// TickerFrames paces frames with a fixed interval.
type TickerFrames struct {
	Interval time.Duration
}

// NextFrame waits one interval or until ctx is done.
func (f TickerFrames) NextFrame(ctx context.Context) error {
	interval := f.Interval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ImmediateFrames never waits. Useful for tests and batch tools.
type ImmediateFrames struct{}

// NextFrame returns at once, or ctx.Err() if ctx is already done.
func (ImmediateFrames) NextFrame(ctx context.Context) error {
	return ctx.Err()
}

// StablePaint waits for two consecutive frames so that transient
// intermediate states are not observed.
func StablePaint(ctx context.Context, frames FrameScheduler) error {
	if err := frames.NextFrame(ctx); err != nil {
		return err
	}
	return frames.NextFrame(ctx)
}
