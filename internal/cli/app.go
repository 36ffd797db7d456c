// Package cli implements the suibox command: code generation plus the
// contract lifecycle subcommands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/jshufro/protoc-gen-suibox/config"
	"github.com/jshufro/protoc-gen-suibox/contract"
	"github.com/jshufro/protoc-gen-suibox/internal/logger"
)

const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// UsageError is a command line the app refuses before doing any work.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return e.Message }

func usagef(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// App carries the process boundary. Zero fields fall back to real
// implementations.
type App struct {
	Stdout io.Writer
	Stderr io.Writer

	Runner     contract.Runner
	Publisher  contract.Publisher
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type command struct {
	name    string
	summary string
	run     func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{}

func register(c command) { commands[c.name] = c }

// Run executes one subcommand and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if a.Stdout == nil {
		a.Stdout = io.Discard
	}
	if a.Stderr == nil {
		a.Stderr = io.Discard
	}
	if a.Logger == nil {
		a.Logger = logger.New(a.Stderr)
	}

	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		a.usage()
		if len(args) == 0 {
			return ExitUsage
		}
		return ExitSuccess
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(a.Stderr, "unknown command %q\n", args[0])
		a.usage()
		return ExitUsage
	}

	err := cmd.run(a, ctx, args[1:])
	var usageErr *UsageError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, flag.ErrHelp):
		return ExitSuccess
	case errors.As(err, &usageErr):
		fmt.Fprintf(a.Stderr, "suibox %s: %s\n", cmd.name, usageErr.Message)
		return ExitUsage
	}
	a.Logger.Error("command failed", "command", cmd.name, "error", err)
	fmt.Fprintf(a.Stderr, "suibox %s: %v\n", cmd.name, err)
	return ExitFailure
}

func (a *App) usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("usage: suibox <command> [flags]\n\ncommands:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %-10s %s\n", name, commands[name].summary)
	}
	fmt.Fprint(a.Stderr, b.String())
}

// flagSet returns a subcommand flag set that reports errors instead of
// exiting.
func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("suibox "+name, flag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usagef("%v", err)
	}
	return nil
}

// configFlag registers -config on fs.
func configFlag(fs *flag.FlagSet) *string {
	return fs.String("config", "", "YAML config file; SUI_* environment variables override it")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

func (a *App) manager(configPath string) (*contract.Manager, *config.Config, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	opts := []contract.Option{contract.WithLogger(a.Logger)}
	if a.Runner != nil {
		opts = append(opts, contract.WithRunner(a.Runner))
	}
	if a.Publisher != nil {
		opts = append(opts, contract.WithPublisher(a.Publisher))
	}
	if a.HTTPClient != nil {
		opts = append(opts, contract.WithHTTPClient(a.HTTPClient))
	}
	m, err := contract.NewManager(cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	return m, cfg, nil
}
