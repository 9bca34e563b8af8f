// Copyright Ricardo Oliveira 2025.
// SPDX-License-Identifier: MPL-2.0

// Package cmdexec runs the vagrant executable with an explicit argument
// vector, working directory and environment, capturing or streaming its
// output.
package cmdexec

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/vagrant-mcp/govagrant/internal/errors"
	"github.com/vagrant-mcp/govagrant/internal/logger"
)

// OutputMode specifies how one output stream should be handled
type OutputMode int

const (
	// OutputModeDiscard drops the stream
	OutputModeDiscard OutputMode = iota
	// OutputModeCapture captures the stream into the result
	OutputModeCapture
	// OutputModeStream forwards the stream to the configured writer as it arrives
	OutputModeStream
	// OutputModeBoth both captures and streams the stream
	OutputModeBoth
)

// String returns the mode name used in logs
func (m OutputMode) String() string {
	switch m {
	case OutputModeDiscard:
		return "discard"
	case OutputModeCapture:
		return "capture"
	case OutputModeStream:
		return "stream"
	case OutputModeBoth:
		return "both"
	default:
		return fmt.Sprintf("OutputMode(%d)", int(m))
	}
}

// StreamConfig configures one of stdout or stderr
type StreamConfig struct {
	Mode OutputMode
	// Writer receives streamed data. Nil means the parent's own stdout/stderr.
	Writer io.Writer
}

// Capture returns a StreamConfig that collects the stream into the result
func Capture() StreamConfig {
	return StreamConfig{Mode: OutputModeCapture}
}

// Stream returns a StreamConfig that forwards the stream to w
func Stream(w io.Writer) StreamConfig {
	return StreamConfig{Mode: OutputModeStream, Writer: w}
}

// CmdOptions represents options for command execution
type CmdOptions struct {
	// Directory is the working directory for the command. It must exist.
	// Empty means the caller's current directory.
	Directory string
	// Environment for the child process. A nil map inherits the caller's
	// environment. A non-nil map replaces it entirely: nothing from the
	// caller's environment is merged in, so an empty map means an empty
	// environment.
	Environment map[string]string
	// Stdout and Stderr are configured independently
	Stdout StreamConfig
	Stderr StreamConfig
	// Timeout kills the process group once exceeded (0 means no timeout)
	Timeout time.Duration
}

// Result contains the results of a command execution
type Result struct {
	// Command that was executed
	Command string
	// Arguments that were passed to the command
	Args []string
	// Dir the command ran in
	Dir string
	// ExitCode returned by the command, -1 if it never exited normally
	ExitCode int
	// Stdout captured from the command, nil unless captured
	Stdout []byte
	// Stderr captured from the command, nil unless captured
	Stderr []byte
	// Duration of the command execution
	Duration time.Duration
	// StartTime when the command started
	StartTime time.Time
	// EndTime when the command completed
	EndTime time.Time
}

// FormatCommand returns the full command that was executed as a string
func (r *Result) FormatCommand() string {
	if len(r.Args) == 0 {
		return r.Command
	}
	return r.Command + " " + strings.Join(r.Args, " ")
}

// IsSuccessful returns true if the command exited with code 0
func (r *Result) IsSuccessful() bool {
	return r.ExitCode == 0
}

// StdoutString returns the captured stdout as text
func (r *Result) StdoutString() string {
	return string(r.Stdout)
}

// StderrString returns the captured stderr as text
func (r *Result) StderrString() string {
	return string(r.Stderr)
}

// waitDelay bounds how long Wait keeps waiting on pipes held open by
// orphaned grandchildren after the process itself is gone.
const waitDelay = 2 * time.Second

// Execute runs a command and returns the result.
//
// A non-zero exit code is not an error: callers decide what it means. The
// returned error is one of the typed failures from the errors package:
// invalid input, invocation failure, executable not found, timeout or
// cancellation. On timeout and cancellation the partial result is returned
// alongside the error.
func Execute(ctx context.Context, command string, args []string, options CmdOptions) (*Result, error) {
	if command == "" {
		return nil, errors.InvalidInput("command must not be empty")
	}
	if len(args) == 0 {
		return nil, errors.InvalidInput("argument list must not be empty")
	}

	display := command + " " + strings.Join(args, " ")

	if options.Directory != "" {
		info, err := os.Stat(options.Directory)
		if err != nil {
			return nil, errors.InvocationFailed(display, fmt.Errorf("working directory: %w", err))
		}
		if !info.IsDir() {
			return nil, errors.InvocationFailed(display, fmt.Errorf("working directory %s is not a directory", options.Directory))
		}
	}

	runCtx := ctx
	if options.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, command, args...)
	cmd.Dir = options.Directory
	if options.Environment != nil {
		cmd.Env = EnvironList(options.Environment)
	}

	// Own process group so a kill reaches the whole tree vagrant spawns.
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return killProcessGroup(cmd.Process.Pid)
	}
	cmd.WaitDelay = waitDelay

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = sinkFor(options.Stdout, &stdoutBuf, os.Stdout)
	cmd.Stderr = sinkFor(options.Stderr, &stderrBuf, os.Stderr)

	result := &Result{
		Command:   command,
		Args:      args,
		Dir:       options.Directory,
		ExitCode:  -1,
		StartTime: time.Now(),
	}

	log := logger.FromContext(ctx)

	if err := cmd.Start(); err != nil {
		if stderrors.Is(err, exec.ErrNotFound) || stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.ExecutableNotFound(command, nil)
		}
		return nil, errors.InvocationFailed(display, err)
	}

	// os/exec copies each non-file writer on its own goroutine, so stdout and
	// stderr are drained concurrently and forwarded chunk by chunk.
	waitErr := cmd.Wait()
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	if captures(options.Stdout.Mode) {
		result.Stdout = stdoutBuf.Bytes()
	}
	if captures(options.Stderr.Mode) {
		result.Stderr = stderrBuf.Bytes()
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	flushStream(options.Stdout)
	flushStream(options.Stderr)

	if waitErr != nil {
		if ctxErr := runCtx.Err(); ctxErr != nil {
			if stderrors.Is(ctxErr, context.DeadlineExceeded) {
				log.Warn().
					Str("command", display).
					Dur("elapsed", result.Duration).
					Msg("Command timed out, process group killed")
				return result, errors.Timeout(display, result.Duration)
			}
			return result, errors.Cancelled(display, ctxErr)
		}

		var exitErr *exec.ExitError
		if !stderrors.As(waitErr, &exitErr) && !stderrors.Is(waitErr, exec.ErrWaitDelay) {
			return result, errors.InvocationFailed(display, waitErr)
		}
	}

	event := log.Debug()
	if !result.IsSuccessful() {
		event = log.Warn()
	}
	event.
		Str("command", command).
		Strs("args", args).
		Str("dir", options.Directory).
		Int("exitCode", result.ExitCode).
		Dur("duration", result.Duration).
		Msg("Command finished")

	return result, nil
}

// EnvironList converts an environment map into sorted KEY=VALUE pairs
func EnvironList(env map[string]string) []string {
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, k+"="+v)
	}
	sort.Strings(list)
	return list
}

func captures(mode OutputMode) bool {
	return mode == OutputModeCapture || mode == OutputModeBoth
}

func streams(mode OutputMode) bool {
	return mode == OutputModeStream || mode == OutputModeBoth
}

// sinkFor wires one stream. A nil return makes os/exec connect the stream
// to the null device.
func sinkFor(cfg StreamConfig, buf *bytes.Buffer, fallback io.Writer) io.Writer {
	var sink io.Writer
	if streams(cfg.Mode) {
		sink = cfg.Writer
		if sink == nil {
			sink = fallback
		}
	}

	switch {
	case captures(cfg.Mode) && sink != nil:
		return io.MultiWriter(buf, sink)
	case captures(cfg.Mode):
		return buf
	default:
		return sink
	}
}
