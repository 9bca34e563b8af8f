package vagrant

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vagrant-mcp/govagrant/internal/cmdexec"
	"github.com/vagrant-mcp/govagrant/internal/errors"
	"github.com/vagrant-mcp/govagrant/internal/metrics"
	"github.com/vagrant-mcp/govagrant/internal/testsupport"
)

func newTestClient(t *testing.T, responses map[string]testsupport.Response) (*Client, *testsupport.FakeVagrant) {
	t.Helper()
	fake := testsupport.NewFakeVagrant(t, responses)
	client, err := New(Options{Root: testsupport.ProjectDir(t), Executable: fake.Path})
	require.NoError(t, err)
	return client, fake
}

func boolPtr(b bool) *bool { return &b }

func TestNew(t *testing.T) {
	t.Run("defaults to the working directory", func(t *testing.T) {
		client, err := New(Options{})
		require.NoError(t, err)
		wd, _ := os.Getwd()
		assert.Equal(t, wd, client.Root())
	})

	t.Run("relative root becomes absolute", func(t *testing.T) {
		client, err := New(Options{Root: "project"})
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(client.Root()))
	})

	t.Run("negative timeout", func(t *testing.T) {
		_, err := New(Options{Timeout: -time.Second})
		assert.True(t, errors.Is(err, errors.CodeInvalidInput))
	})

	t.Run("env is copied", func(t *testing.T) {
		env := map[string]string{"A": "1"}
		client, err := New(Options{Env: env})
		require.NoError(t, err)
		env["A"] = "2"
		assert.Equal(t, "1", client.env["A"])
	})
}

func TestClient_RunsInProjectDirectory(t *testing.T) {
	client, fake := newTestClient(t, map[string]testsupport.Response{"validate": {}})

	require.NoError(t, client.Validate(context.Background(), Output{}))
	assert.Equal(t, client.Root(), fake.LastDir())
	assert.Equal(t, []string{"validate"}, fake.LastCall())
}

func TestClient_Environment(t *testing.T) {
	fake := testsupport.NewFakeVagrant(t, map[string]testsupport.Response{"validate": {}})

	t.Run("replaces the parent environment", func(t *testing.T) {
		t.Setenv("GOVAGRANT_PARENT_ONLY", "leak")
		client, err := New(Options{
			Root:       testsupport.ProjectDir(t),
			Executable: fake.Path,
			Env:        map[string]string{"PATH": os.Getenv("PATH"), "VAGRANT_CWD": "/elsewhere"},
		})
		require.NoError(t, err)

		require.NoError(t, client.Validate(context.Background(), Output{}))
		env := fake.LastEnv()
		assert.Equal(t, "/elsewhere", env["VAGRANT_CWD"])
		assert.NotContains(t, env, "GOVAGRANT_PARENT_ONLY")
	})

	t.Run("nil inherits", func(t *testing.T) {
		t.Setenv("GOVAGRANT_PARENT_ONLY", "inherited")
		client, err := New(Options{Root: testsupport.ProjectDir(t), Executable: fake.Path})
		require.NoError(t, err)

		require.NoError(t, client.Validate(context.Background(), Output{}))
		assert.Equal(t, "inherited", fake.LastEnv()["GOVAGRANT_PARENT_ONLY"])
	})
}

func TestClient_ExecutableNotFound(t *testing.T) {
	client, err := New(Options{
		Root: testsupport.ProjectDir(t),
		Resolver: &cmdexec.Resolver{
			Getenv: func(string) string { return "" },
		},
	})
	require.NoError(t, err)

	err = client.Validate(context.Background(), Output{})
	assert.True(t, errors.IsExecutableNotFound(err))
}

func TestClient_MissingProjectDirectory(t *testing.T) {
	fake := testsupport.NewFakeVagrant(t, map[string]testsupport.Response{"validate": {}})
	client, err := New(Options{Root: filepath.Join(t.TempDir(), "gone"), Executable: fake.Path})
	require.NoError(t, err)

	err = client.Validate(context.Background(), Output{})
	assert.True(t, errors.Is(err, errors.CodeInvocationFailed))
	assert.Empty(t, fake.Calls())
}

func TestClient_CommandFailed(t *testing.T) {
	client, _ := newTestClient(t, map[string]testsupport.Response{
		"up": {Stderr: "The provider 'nope' could not be found\n", ExitCode: 1},
	})

	err := client.Up(context.Background(), UpOptions{Provider: "nope"})
	require.Error(t, err)
	assert.True(t, errors.IsCommandFailed(err))
	assert.Equal(t, 1, errors.ExitCodeOf(err))
	assert.Contains(t, errors.StderrOf(err), "could not be found")
}

func TestClient_CommandFailedUsesErrorExitRecord(t *testing.T) {
	client, _ := newTestClient(t, map[string]testsupport.Response{
		"box list": {
			Stdout:   "1424099042,,error-exit,Vagrant::Errors::BoxNotFound,The box%!(VAGRANT_COMMA) it is gone\n",
			ExitCode: 1,
		},
	})

	_, _, err := client.BoxList(context.Background())
	require.Error(t, err)
	assert.Equal(t, "The box, it is gone", errors.StderrOf(err))
}

func TestClient_OutputStreaming(t *testing.T) {
	client, _ := newTestClient(t, map[string]testsupport.Response{
		"up": {Stdout: "Bringing machine 'default' up\n", Stderr: "warning\n"},
	})

	var stdout, stderr bytes.Buffer
	err := client.Up(context.Background(), UpOptions{Output: Output{Stdout: &stdout, Stderr: &stderr}})
	require.NoError(t, err)
	assert.Equal(t, "Bringing machine 'default' up\n", stdout.String())
	assert.Equal(t, "warning\n", stderr.String())
}

func TestClient_OutputStreamingWhileParsing(t *testing.T) {
	client, _ := newTestClient(t, map[string]testsupport.Response{
		"status": {Stdout: "1,web,state,running\n"},
	})

	var stdout bytes.Buffer
	entries, _, err := client.Status(context.Background(), StatusOptions{Output: Output{Stdout: &stdout}})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "1,web,state,running\n", stdout.String())
}

func TestClient_Timeout(t *testing.T) {
	client, _ := newTestClient(t, map[string]testsupport.Response{
		"up": {Sleep: 5 * time.Second},
	})

	start := time.Now()
	err := client.Up(context.Background(), UpOptions{Output: Output{Timeout: 200 * time.Millisecond}})
	assert.True(t, errors.IsTimeout(err))
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestClient_DefaultTimeout(t *testing.T) {
	fake := testsupport.NewFakeVagrant(t, map[string]testsupport.Response{"halt": {Sleep: 5 * time.Second}})
	client, err := New(Options{Root: testsupport.ProjectDir(t), Executable: fake.Path, Timeout: 200 * time.Millisecond})
	require.NoError(t, err)

	err = client.Halt(context.Background(), HaltOptions{})
	assert.True(t, errors.IsTimeout(err))
}

func TestClient_Metrics(t *testing.T) {
	fake := testsupport.NewFakeVagrant(t, map[string]testsupport.Response{
		"validate": {},
		"box list": {Stdout: "garbage\n"},
		"halt":     {ExitCode: 1},
	})
	recorder := metrics.New()
	client, err := New(Options{Root: testsupport.ProjectDir(t), Executable: fake.Path, Metrics: recorder})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, client.Validate(ctx, Output{}))
	_, warnings, err := client.BoxList(ctx)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Error(t, client.Halt(ctx, HaltOptions{}))

	families, err := recorder.Registry().Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, family := range families {
		for _, m := range family.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}
			labels := family.GetName()
			for _, l := range m.GetLabel() {
				labels += "," + l.GetValue()
			}
			counts[labels] = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(1), counts["govagrant_invocation_total,ok,validate"])
	assert.Equal(t, float64(1), counts["govagrant_invocation_total,ok,box list"])
	assert.Equal(t, float64(1), counts["govagrant_invocation_total,exit_nonzero,halt"])
	assert.Equal(t, float64(1), counts["govagrant_parser_warnings_total,box-list"])
}

func TestClient_Concurrent(t *testing.T) {
	client, fake := newTestClient(t, map[string]testsupport.Response{
		"status": {Stdout: "1,web,state,running\n1,web,provider-name,virtualbox\n"},
	})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entries, _, err := client.Status(context.Background(), StatusOptions{})
			if err == nil && (len(entries) != 1 || entries[0].State != StateRunning) {
				err = assert.AnError
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, fake.Calls(), 8)
}

func TestSubcommand(t *testing.T) {
	tests := map[string][]string{
		"version":     {"--version"},
		"up":          {"up", "web"},
		"box list":    {"box", "list", "--machine-readable"},
		"snapshot":    {"snapshot"},
		"sandbox on":  {"sandbox", "on"},
		"plugin list": {"plugin", "list"},
		"":            nil,
	}
	for want, args := range tests {
		assert.Equal(t, want, subcommand(args), strings.Join(args, " "))
	}
}
