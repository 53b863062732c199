package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/feltvision/tabletracker/internal/feed"
	"github.com/feltvision/tabletracker/internal/tracker"
)

// ServeCmd runs the websocket ingest server until interrupted.
type ServeCmd struct {
	Addr string `short:"a" help:"Listen address (overrides config)"`
}

func (c *ServeCmd) Run(rc *runContext) error {
	addr := rc.cfg.Server.Addr
	if c.Addr != "" {
		addr = c.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr := tracker.New(rc.logger, quartz.NewReal())
	srv := feed.NewServer(addr, tr, rc.cfg.TracksWindow, rc.logger)

	rc.logger.Info("starting tabletracker", "addr", addr, "windows", rc.cfg.Tracker.Windows)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		rc.logger.Info("shutting down")
		return srv.Stop()
	})
	return g.Wait()
}
