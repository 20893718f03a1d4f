package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	"git.home.luguber.info/inful/bookbuilder/internal/history"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
)

// Global is shared state handed to every subcommand.
type Global struct {
	Logger *slog.Logger
	// Out receives user-facing command output. Logs go to LogOutput.
	Out       io.Writer
	LogOutput io.Writer
}

// NewGlobal returns a Global writing to the process streams.
func NewGlobal() *Global {
	return &Global{Logger: slog.Default(), Out: os.Stdout, LogOutput: os.Stderr}
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"bookbuilder.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Render the book into the output directory"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
	Chapters ChaptersCmd `cmd:"" help:"List the chapter index"`
	Steps    StepsCmd    `cmd:"" help:"Show the page step pipeline (text, mermaid)"`
	Serve    ServeCmd    `cmd:"" help:"Preview the book with live reload"`
	History  HistoryCmd  `cmd:"" help:"List recent builds from the history database"`
}

// AfterApply runs after flag parsing and installs a logger driven by -v and
// BOOKBUILDER_LOG_LEVEL. Commands that load a configuration refine it.
func (c *CLI) AfterApply(g *Global) error {
	g.Logger = newLogger(g.logOutput(), c.logLevel(config.LogLevelInfo), config.LogFormatText)
	slog.SetDefault(g.Logger)
	return nil
}

// loadConfig loads the configuration and reconfigures logging from it.
func (c *CLI) loadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	level := c.logLevel(config.NormalizeLogLevel(cfg.Logging.Level))
	g.Logger = newLogger(g.logOutput(), level, config.NormalizeLogFormat(cfg.Logging.Format))
	slog.SetDefault(g.Logger)
	g.Logger.Debug("Loaded configuration", logfields.Path(c.Config))
	return cfg, nil
}

// logLevel applies the precedence -v > BOOKBUILDER_LOG_LEVEL > fallback.
func (c *CLI) logLevel(fallback config.LogLevel) slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	if env := os.Getenv("BOOKBUILDER_LOG_LEVEL"); env != "" {
		if lvl, err := config.ParseLogLevel(env); err == nil {
			return slogLevel(lvl)
		}
	}
	return slogLevel(fallback)
}

func (g *Global) logOutput() io.Writer {
	if g.LogOutput == nil {
		return os.Stderr
	}
	return g.LogOutput
}

func (g *Global) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func newLogger(w io.Writer, level slog.Level, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func slogLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openHistory opens the build history store when history is enabled. A store
// that cannot be opened is logged and builds continue without history.
func openHistory(cfg *config.Config, logger *slog.Logger) (*history.Recorder, func()) {
	if !cfg.History.Enabled {
		return nil, func() {}
	}
	store, err := history.NewSQLiteStore(cfg.HistoryPath())
	if err != nil {
		logger.Warn("Build history unavailable", logfields.Path(cfg.HistoryPath()), logfields.Error(err))
		return nil, func() {}
	}
	return history.NewRecorder(store), func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close history store", logfields.Error(err))
		}
	}
}
