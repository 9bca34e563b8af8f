// Package testsupport provides shared test utilities that don't depend on other packages
package testsupport

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"
)

// Response is what the fake vagrant prints for a matching invocation
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Sleep delays the reply, for timeout tests
	Sleep time.Duration
}

// FakeVagrant is a shell script standing in for the vagrant executable.
// It records every invocation and answers from a table of responses keyed
// by argument prefix: "status --machine-readable" matches
// `vagrant status --machine-readable web`. The longest matching key wins.
type FakeVagrant struct {
	// Dir holds the script and its logs
	Dir string
	// Path is the executable to hand to the binding
	Path string
	t    *testing.T
}

const argSep = "\x1f"

// NewFakeVagrant writes a fake vagrant executable into a temp directory.
// Tests using it are skipped on Windows.
func NewFakeVagrant(t *testing.T, responses map[string]Response) *FakeVagrant {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake vagrant needs a POSIX shell")
	}

	dir := t.TempDir()
	f := &FakeVagrant{Dir: dir, Path: filepath.Join(dir, "vagrant"), t: t}

	keys := make([]string, 0, len(responses))
	for k := range responses {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	var script strings.Builder
	script.WriteString("#!/bin/sh\n")
	// one write per call keeps concurrent invocations from interleaving
	script.WriteString("sep=$(printf '\\037')\nline=\nfor a in \"$@\"; do line=\"$line$a$sep\"; done\n")
	fmt.Fprintf(&script, "printf '%%s\\n' \"$line\" >> %s\n", shellQuote(f.logPath()))
	fmt.Fprintf(&script, "env > %s\n", shellQuote(filepath.Join(dir, "env.last")))
	fmt.Fprintf(&script, "pwd -P > %s\n", shellQuote(filepath.Join(dir, "pwd.last")))
	script.WriteString("case \"$*\" in\n")

	for i, key := range keys {
		resp := responses[key]
		outFile := filepath.Join(dir, fmt.Sprintf("resp%d.out", i))
		errFile := filepath.Join(dir, fmt.Sprintf("resp%d.err", i))
		writeFile(t, outFile, resp.Stdout)
		writeFile(t, errFile, resp.Stderr)

		pattern := shellQuote(key) + "*"
		if key == "" {
			pattern = "*"
		}
		fmt.Fprintf(&script, "  %s)\n", pattern)
		if resp.Sleep > 0 {
			fmt.Fprintf(&script, "    sleep %.3f\n", resp.Sleep.Seconds())
		}
		fmt.Fprintf(&script, "    cat %s\n", shellQuote(outFile))
		fmt.Fprintf(&script, "    cat %s >&2\n", shellQuote(errFile))
		fmt.Fprintf(&script, "    exit %d;;\n", resp.ExitCode)
	}

	script.WriteString("  *)\n    echo \"fake vagrant: unexpected arguments: $*\" >&2\n    exit 64;;\nesac\n")

	if err := os.WriteFile(f.Path, []byte(script.String()), 0o755); err != nil {
		t.Fatalf("failed to write fake vagrant: %v", err)
	}
	return f
}

func (f *FakeVagrant) logPath() string {
	return filepath.Join(f.Dir, "calls.log")
}

// Calls returns the argument vector of every invocation so far
func (f *FakeVagrant) Calls() [][]string {
	f.t.Helper()
	data, err := os.ReadFile(f.logPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		f.t.Fatalf("failed to read call log: %v", err)
	}

	var calls [][]string
	for _, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
		args := strings.Split(line, argSep)
		// every argument is followed by a separator, so the last element is empty
		calls = append(calls, args[:len(args)-1])
	}
	return calls
}

// LastCall returns the most recent argument vector
func (f *FakeVagrant) LastCall() []string {
	f.t.Helper()
	calls := f.Calls()
	if len(calls) == 0 {
		f.t.Fatalf("fake vagrant was never called")
	}
	return calls[len(calls)-1]
}

// LastEnv returns the environment the most recent invocation saw
func (f *FakeVagrant) LastEnv() map[string]string {
	f.t.Helper()
	data, err := os.ReadFile(filepath.Join(f.Dir, "env.last"))
	if err != nil {
		f.t.Fatalf("failed to read env log: %v", err)
	}
	env := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			env[k] = v
		}
	}
	return env
}

// LastDir returns the working directory of the most recent invocation
func (f *FakeVagrant) LastDir() string {
	f.t.Helper()
	data, err := os.ReadFile(filepath.Join(f.Dir, "pwd.last"))
	if err != nil {
		f.t.Fatalf("failed to read pwd log: %v", err)
	}
	return strings.TrimSpace(string(data))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ProjectDir creates an empty project directory with a Vagrantfile and
// returns its resolved path
func ProjectDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("failed to resolve temp dir: %v", err)
	}
	writeFile(t, filepath.Join(dir, "Vagrantfile"), "Vagrant.configure(\"2\") do |config|\nend\n")
	return dir
}

// SkipIfNotIntegration checks the TEST_INTEGRATION environment variable
// and skips the test if it's not set to "1"
func SkipIfNotIntegration(t *testing.T) {
	if os.Getenv("TEST_INTEGRATION") != "1" {
		t.Skip("Skipping integration test. Set TEST_INTEGRATION=1 to run")
	}
}

// RequireVagrant skips the test unless a real vagrant is installed
func RequireVagrant(t *testing.T) {
	SkipIfNotIntegration(t)
	if err := exec.Command("vagrant", "--version").Run(); err != nil {
		t.Skipf("Skipping test because Vagrant is not installed: %v", err)
	}
}
