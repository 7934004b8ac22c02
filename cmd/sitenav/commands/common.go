package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitenav/internal/config"
)

// Global is bound into every command.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer // command output; os.Stdout when nil
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"mkdocs.yml" env:"SITENAV_CONFIG" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format" default:"text" enum:"text,json" env:"SITENAV_LOG_FORMAT"`
	NoEnvFile bool             `name:"no-env-file" help:"Do not load .env files next to the configuration"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Validate ValidateCmd `cmd:"" help:"Load the configuration and check the navigation against the docs directory"`
	Nav      NavCmd      `cmd:"" help:"Print the navigation tree"`
	Dump     DumpCmd     `cmd:"" help:"Print the configuration in canonical form"`
	Init     InitCmd     `cmd:"" help:"Write a starter configuration and docs directory"`
	Watch    WatchCmd    `cmd:"" help:"Keep the configuration loaded and reload it on changes"`
	History  HistoryCmd  `cmd:"" help:"List recorded reload events"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
	return nil
}

func (c *CLI) loadOptions() []config.Option {
	return []config.Option{config.WithEnvFiles(!c.NoEnvFile)}
}

// load reads the configuration named by --config.
func (c *CLI) load() (*config.SiteConfig, error) {
	return config.LoadFile(c.Config, c.loadOptions()...)
}

// baseDir is the directory relative configuration paths resolve against.
func (c *CLI) baseDir() string {
	return config.BaseDir(c.Config)
}
