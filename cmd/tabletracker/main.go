package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/feltvision/tabletracker/internal/config"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Config   string           `short:"c" default:"tabletracker.hcl" help:"Path to HCL configuration file"`
	LogLevel string           `short:"l" help:"Log level (overrides config)"`

	Serve  ServeCmd  `cmd:"" help:"Run the frame ingest server"`
	Replay ReplayCmd `cmd:"" help:"Replay a recorded frame log and print table histories"`
}

// runContext carries the loaded configuration and logger to commands.
type runContext struct {
	cfg    *config.Config
	logger *log.Logger
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("tabletracker"),
		kong.Description("Tracks live poker tables from noisy screen-capture evidence"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		ctx.Exit(1)
	}
	if cli.LogLevel != "" {
		cfg.Server.LogLevel = cli.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	err = ctx.Run(&runContext{
		cfg:    cfg,
		logger: setupLogger(cfg.Server.LogLevel),
	})
	ctx.FatalIfErrorf(err)
}

func setupLogger(level string) *log.Logger {
	logger := log.New(os.Stderr)
	switch level {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}
