// Copyright Ricardo Oliveira 2025.
// SPDX-License-Identifier: MPL-2.0

package cmdexec

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/vagrant-mcp/govagrant/internal/errors"
)

const (
	// DefaultExecutable is the name searched on PATH when nothing overrides it
	DefaultExecutable = "vagrant"
	// DefaultExecutableEnv names the environment variable that overrides the executable path
	DefaultExecutableEnv = "VAGRANT_EXECUTABLE"
)

// Resolver locates the vagrant executable.
//
// Resolution order is fixed: Override, then the environment variable named
// by EnvVar, then a PATH search for Name. Getenv and GOOS are read instead
// of the process globals when set, so tests can resolve against a fake
// environment. The zero value resolves "vagrant" against the real
// environment.
type Resolver struct {
	// Override is an explicit executable path or name
	Override string
	// EnvVar defaults to VAGRANT_EXECUTABLE
	EnvVar string
	// Name defaults to "vagrant"
	Name string
	// Getenv defaults to os.Getenv
	Getenv func(string) string
	// GOOS defaults to runtime.GOOS
	GOOS string
}

// Resolve returns the path of the executable to run. It never spawns anything.
func (r Resolver) Resolve() (string, error) {
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	goos := r.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	envVar := r.EnvVar
	if envVar == "" {
		envVar = DefaultExecutableEnv
	}
	name := r.Name
	if name == "" {
		name = DefaultExecutable
	}

	if r.Override != "" {
		return r.find(r.Override, getenv, goos)
	}
	if fromEnv := strings.TrimSpace(getenv(envVar)); fromEnv != "" {
		return r.find(fromEnv, getenv, goos)
	}
	return r.find(name, getenv, goos)
}

// find mirrors `which`: a program with a directory component is checked
// as-is, anything else is searched on PATH. On Windows the current directory
// is searched first and PATHEXT extensions are tried.
func (r Resolver) find(program string, getenv func(string) string, goos string) (string, error) {
	windows := goos == "windows"

	if strings.ContainsAny(program, `/\`) {
		for _, candidate := range candidates(program, getenv, windows) {
			if isExecutable(candidate, windows) {
				return candidate, nil
			}
		}
		return "", errors.ExecutableNotFound(program, nil)
	}

	pathList := getenv("PATH")
	sep := string(os.PathListSeparator)
	if windows {
		sep = ";"
	}

	var dirs []string
	if pathList != "" {
		dirs = strings.Split(pathList, sep)
	}
	if windows {
		dirs = append([]string{"."}, dirs...)
	}

	names := candidates(program, getenv, windows)
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		for _, n := range names {
			candidate := filepath.Join(dir, n)
			if isExecutable(candidate, windows) {
				return absolute(candidate), nil
			}
		}
	}

	return "", errors.ExecutableNotFound(program, dirs)
}

// candidates returns the file names to try for program. On Windows a
// program already ending in a PATHEXT extension is only tried with that
// extension; otherwise every extension is appended.
func candidates(program string, getenv func(string) string, windows bool) []string {
	if !windows {
		return []string{program}
	}

	pathext := getenv("PATHEXT")
	if pathext == "" {
		pathext = ".COM;.EXE;.BAT;.CMD"
	}

	var exts []string
	for _, ext := range strings.Split(pathext, ";") {
		if ext != "" {
			exts = append(exts, ext)
		}
	}

	lower := strings.ToLower(program)
	for _, ext := range exts {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return []string{program}
		}
	}

	names := make([]string, 0, len(exts))
	for _, ext := range exts {
		names = append(names, program+ext)
	}
	return names
}

// absolute anchors a hit from a relative PATH entry such as "." to our
// working directory, not the child's, and keeps os/exec from searching PATH
// again for a bare name.
func absolute(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return "." + string(filepath.Separator) + path
}

func isExecutable(path string, windows bool) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if windows {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
