// Copyright Ricardo Oliveira 2025.
// SPDX-License-Identifier: MPL-2.0

// Package vagrant drives the vagrant command line tool.
//
// Every operation builds an explicit argument vector, runs vagrant in the
// client's project directory and returns typed results. Nothing is passed
// through a shell. A Client is safe for concurrent use: each call owns its
// own process, buffers and environment snapshot.
package vagrant

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vagrant-mcp/govagrant/internal/cmdexec"
	"github.com/vagrant-mcp/govagrant/internal/config"
	"github.com/vagrant-mcp/govagrant/internal/errors"
	"github.com/vagrant-mcp/govagrant/internal/logger"
	"github.com/vagrant-mcp/govagrant/internal/metrics"
	"github.com/vagrant-mcp/govagrant/internal/parser"
	"github.com/vagrant-mcp/govagrant/internal/watch"
)

// Parsed record types, re-exported for callers
type (
	Status    = parser.StatusEntry
	Box       = parser.BoxEntry
	Plugin    = parser.PluginEntry
	SSHConfig = parser.SSHConfig
	Warning   = parser.Warning
)

// Machine states reported by `vagrant status`
const (
	StateRunning    = "running"
	StateNotCreated = "not_created"
	StatePoweroff   = "poweroff"
	StateAborted    = "aborted"
	StateSaved      = "saved"
	StateStopped    = "stopped"
	StateFrozen     = "frozen"
	StateShutoff    = "shutoff"
)

// Options configures a Client
type Options struct {
	// Root is the project directory holding the Vagrantfile. Empty means the
	// current directory.
	Root string
	// Env is the complete environment for vagrant. Nil inherits the caller's
	// environment; a non-nil map replaces it with nothing merged in.
	Env map[string]string
	// Executable overrides the vagrant lookup
	Executable string
	// Resolver replaces the default lookup entirely when set
	Resolver *cmdexec.Resolver
	// Strict fails parses on malformed output instead of returning warnings
	Strict bool
	// Timeout applies to calls whose Output sets none; 0 means none
	Timeout time.Duration
	// Metrics records invocations and parse warnings; nil disables it
	Metrics *metrics.Recorder
}

// Output controls what one call does with vagrant's output. Nil writers
// discard. For operations whose stdout is parsed, stdout is always captured
// and Stdout additionally receives a copy.
type Output struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Timeout time.Duration
}

// Client runs vagrant against one project directory
type Client struct {
	root     string
	env      map[string]string
	resolver cmdexec.Resolver
	strict   bool
	timeout  time.Duration
	metrics  *metrics.Recorder

	mu       sync.Mutex
	sshCache map[string]SSHConfig
	// sshGen is bumped by every invalidation so an in-flight Conf does not
	// store settings read before the change
	sshGen uint64
	watcher  *watch.Watcher
}

// New creates a client. The project directory is checked when a command
// runs, not here.
func New(opts Options) (*Client, error) {
	root := opts.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory %s: %w", root, err)
	}
	if opts.Timeout < 0 {
		return nil, errors.InvalidInput("timeout must not be negative")
	}

	resolver := cmdexec.Resolver{Override: opts.Executable}
	if opts.Resolver != nil {
		resolver = *opts.Resolver
	}

	var env map[string]string
	if opts.Env != nil {
		env = make(map[string]string, len(opts.Env))
		for k, v := range opts.Env {
			env[k] = v
		}
	}

	return &Client{
		root:     abs,
		env:      env,
		resolver: resolver,
		strict:   opts.Strict,
		timeout:  opts.Timeout,
		metrics:  opts.Metrics,
		sshCache: make(map[string]SSHConfig),
	}, nil
}

// NewFromConfig creates a client from loaded configuration
func NewFromConfig(cfg config.Config, recorder *metrics.Recorder) (*Client, error) {
	return New(Options{
		Root:       cfg.Root,
		Executable: cfg.Executable,
		Strict:     cfg.StrictParse,
		Timeout:    cfg.Timeout,
		Metrics:    recorder,
	})
}

// Root returns the project directory
func (c *Client) Root() string {
	return c.root
}

// Executable resolves the vagrant executable without running it
func (c *Client) Executable() (string, error) {
	return c.resolver.Resolve()
}

// Watch drops every cached ssh config whenever the project's Vagrantfile
// changes. It is a no-op when already watching.
func (c *Client) Watch() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher != nil {
		return nil
	}

	w, err := watch.New(filepath.Join(c.root, "Vagrantfile"), watch.DefaultDebounce, c.invalidateAll)
	if err != nil {
		return err
	}
	c.watcher = w
	return nil
}

// Close stops the Vagrantfile watcher, if any
func (c *Client) Close() error {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	if w == nil {
		return nil
	}
	return w.Close()
}

func (c *Client) parseOptions() parser.Options {
	return parser.Options{Strict: c.strict}
}

// subcommand names an invocation for logs and metrics
func subcommand(args []string) string {
	if len(args) == 0 {
		return ""
	}
	switch args[0] {
	case "box", "plugin", "snapshot", "sandbox":
		if len(args) > 1 {
			return args[0] + " " + args[1]
		}
	case "--version":
		return "version"
	}
	return args[0]
}

// compact drops empty arguments, so an unset machine name disappears from
// the vector instead of becoming ""
func compact(args ...string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// run executes vagrant once. captureStdout is set for commands whose output
// is parsed. Stderr is always captured for diagnostics.
func (c *Client) run(ctx context.Context, out Output, captureStdout bool, args []string) (*cmdexec.Result, error) {
	sub := subcommand(args)
	ctx, log := logger.WithInvocationID(ctx)
	log = log.With().Str("subcommand", sub).Logger()
	ctx = logger.WithContext(ctx, log)

	exe, err := c.resolver.Resolve()
	if err != nil {
		log.Error().Err(err).Msg("Cannot resolve vagrant executable")
		return nil, err
	}

	timeout := out.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	opts := cmdexec.CmdOptions{
		Directory:   c.root,
		Environment: c.env,
		Stdout:      streamConfig(out.Stdout, captureStdout),
		Stderr:      streamConfig(out.Stderr, true),
		Timeout:     timeout,
	}

	log.Debug().Strs("args", args).Str("dir", c.root).Msg("Running vagrant")
	result, err := cmdexec.Execute(ctx, exe, args, opts)
	c.record(sub, result, err)
	return result, err
}

func streamConfig(w io.Writer, capture bool) cmdexec.StreamConfig {
	switch {
	case w != nil && capture:
		return cmdexec.StreamConfig{Mode: cmdexec.OutputModeBoth, Writer: w}
	case w != nil:
		return cmdexec.Stream(w)
	case capture:
		return cmdexec.Capture()
	default:
		return cmdexec.StreamConfig{}
	}
}

func (c *Client) record(sub string, result *cmdexec.Result, err error) {
	if c.metrics == nil {
		return
	}
	var d time.Duration
	if result != nil {
		d = result.Duration
	}
	outcome := metrics.OutcomeOK
	switch {
	case errors.IsTimeout(err):
		outcome = metrics.OutcomeTimeout
	case err != nil:
		outcome = metrics.OutcomeError
	case !result.IsSuccessful():
		outcome = metrics.OutcomeExitError
	}
	c.metrics.ObserveInvocation(sub, outcome, d)
}

// call runs a command whose non-zero exit is a failure and whose output is
// only streamed
func (c *Client) call(ctx context.Context, out Output, args []string) error {
	result, err := c.run(ctx, out, false, args)
	if err != nil {
		return err
	}
	if !result.IsSuccessful() {
		return commandFailed(args, result)
	}
	return nil
}

// capture runs a command whose non-zero exit is a failure and returns its stdout
func (c *Client) capture(ctx context.Context, out Output, args []string) ([]byte, error) {
	result, err := c.run(ctx, out, true, args)
	if err != nil {
		return nil, err
	}
	if !result.IsSuccessful() {
		return nil, commandFailed(args, result)
	}
	return result.Stdout, nil
}

// commandFailed builds the failure for a non-zero exit. With
// --machine-readable vagrant reports errors on stdout, so an error-exit
// record stands in for an empty stderr.
func commandFailed(args []string, result *cmdexec.Result) error {
	stderr := result.StderrString()
	if strings.TrimSpace(stderr) == "" && len(result.Stdout) > 0 {
		records, _, err := parser.ParseRecords(bytes.NewReader(result.Stdout), parser.Options{})
		if err == nil {
			if exit, ok := parser.ErrorExit(records); ok {
				stderr = exit.Message
			}
		}
	}
	return errors.CommandFailed(args, result.ExitCode, stderr)
}

// warn logs and counts lenient parse warnings
func (c *Client) warn(ctx context.Context, view string, warnings []Warning) {
	if len(warnings) == 0 {
		return
	}
	log := logger.FromContext(ctx)
	for _, w := range warnings {
		log.Warn().
			Str("view", view).
			Int("line", w.Line).
			Str("text", w.Text).
			Msg(w.Reason)
	}
	c.metrics.AddParseWarnings(view, len(warnings))
}

func (c *Client) logger(ctx context.Context) zerolog.Logger {
	return logger.FromContext(ctx).With().Str("root", c.root).Logger()
}
