package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/coder/quartz"
	"github.com/muesli/termenv"

	"github.com/feltvision/tabletracker/internal/display"
	"github.com/feltvision/tabletracker/internal/tracker"
)

// ReplayCmd feeds a recorded frame log through the tracker and prints
// the final state of every table it saw. Frame logs are newline- or
// stream-delimited JSON frame objects.
type ReplayCmd struct {
	Files    []string      `arg:"" type:"existingfile" help:"Frame log files to replay"`
	Interval time.Duration `help:"Pace frames at this interval instead of replaying instantly"`
}

func (c *ReplayCmd) Run(rc *runContext) error {
	var frames []tracker.Frame
	for _, file := range c.Files {
		loaded, err := loadFrames(file)
		if err != nil {
			return fmt.Errorf("loading %s: %w", file, err)
		}
		frames = append(frames, loaded...)
	}
	rc.logger.Info("replaying frames", "count", len(frames), "files", len(c.Files))

	tr := tracker.New(rc.logger, quartz.NewReal())

	if c.Interval > 0 {
		if err := c.replayPaced(rc, tr, frames); err != nil {
			return err
		}
	} else {
		for _, frame := range frames {
			if _, err := tr.Observe(frame); err != nil {
				rc.logger.Warn("dropping frame", "error", err)
			}
		}
	}

	renderer := display.New(os.Stdout, termenv.WithProfile(termenv.EnvColorProfile()))
	for _, window := range tr.Windows() {
		renderer.RenderTable(tr.State(window))
	}
	return nil
}

// replayPaced drives the frames through a poller at the requested
// cadence, simulating a live capture loop.
func (c *ReplayCmd) replayPaced(rc *runContext, tr *tracker.Tracker, frames []tracker.Frame) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &frameLogSource{frames: frames, done: cancel}
	poller := tracker.NewPoller(tr, source, c.Interval, quartz.NewReal(), rc.logger)

	err := poller.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// frameLogSource replays recorded frames one per capture, cancelling
// the replay context once the log is exhausted.
type frameLogSource struct {
	frames []tracker.Frame
	next   int
	done   context.CancelFunc
}

func (s *frameLogSource) Capture(ctx context.Context) ([]tracker.Frame, error) {
	if s.next >= len(s.frames) {
		s.done()
		return nil, nil
	}
	frame := s.frames[s.next]
	s.next++
	return []tracker.Frame{frame}, nil
}

func loadFrames(file string) ([]tracker.Frame, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var frames []tracker.Frame
	dec := json.NewDecoder(f)
	for {
		var frame tracker.Frame
		if err := dec.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}
