package tracker

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// Source produces frames on demand. Implementations wrap whatever is
// upstream of the tracker: a screen capture pipeline, a recorded frame
// log, a test fixture.
type Source interface {
	Capture(ctx context.Context) ([]Frame, error)
}

// Poller drives a Source at a fixed cadence and feeds every captured
// frame to a Tracker. The clock is injected so tests can advance time
// explicitly.
type Poller struct {
	tracker  *Tracker
	source   Source
	interval time.Duration
	clock    quartz.Clock
	logger   *log.Logger
}

func NewPoller(tracker *Tracker, source Source, interval time.Duration, clock quartz.Clock, logger *log.Logger) *Poller {
	return &Poller{
		tracker:  tracker,
		source:   source,
		interval: interval,
		clock:    clock,
		logger:   logger.WithPrefix("poller"),
	}
}

// Run polls until the context is cancelled. Capture failures and
// dropped frames are logged and polling continues; the next tick gets
// a fresh attempt.
func (p *Poller) Run(ctx context.Context) error {
	waiter := p.clock.TickerFunc(ctx, p.interval, func() error {
		p.poll(ctx)
		return nil
	}, "poll")
	return waiter.Wait()
}

func (p *Poller) poll(ctx context.Context) {
	frames, err := p.source.Capture(ctx)
	if err != nil {
		p.logger.Warn("capture failed", "error", err)
		return
	}
	for _, frame := range frames {
		if _, err := p.tracker.Observe(frame); err != nil {
			p.logger.Warn("dropping frame", "error", err)
		}
	}
}
