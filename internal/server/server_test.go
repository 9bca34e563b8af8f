package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vagrant-mcp/govagrant/internal/config"
	"github.com/vagrant-mcp/govagrant/internal/testsupport"
)

func testConfig(t *testing.T, responses map[string]testsupport.Response) config.Config {
	t.Helper()
	fake := testsupport.NewFakeVagrant(t, responses)
	cfg := config.DefaultConfig()
	cfg.Root = testsupport.ProjectDir(t)
	cfg.Executable = fake.Path
	return cfg
}

func TestNewServer_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogLevel = "loud"
	_, err := NewServer(cfg)
	assert.Error(t, err)
}

func TestServer_StdioRoundTrip(t *testing.T) {
	cfg := testConfig(t, map[string]testsupport.Response{
		"--version": {Stdout: "Vagrant 2.4.1\n"},
	})
	cfg.MetricsListen = "127.0.0.1:0"

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	srv, err := NewServer(cfg, WithIO(inR, outW))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, srv.Start(ctx))

	responses := bufio.NewScanner(outR)
	responses.Buffer(make([]byte, 1024*1024), 1024*1024)
	send := func(msg string) string {
		t.Helper()
		_, err := fmt.Fprintln(inW, msg)
		require.NoError(t, err)
		require.True(t, responses.Scan(), "no response to %s", msg)
		return responses.Text()
	}

	resp := send(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"0.0.0"}}}`)
	assert.Contains(t, resp, `"govagrant"`)

	resp = send(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"vagrant_version","arguments":{}}}`)
	assert.Contains(t, resp, `2.4.1`)

	resp = send(`{"jsonrpc":"2.0","id":3,"method":"resources/read","params":{"uri":"vagrant://vagrantfile"}}`)
	assert.Contains(t, resp, `"text/x-ruby"`)

	metricsResp, err := http.Get("http://" + srv.MetricsAddr() + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(metricsResp.Body)
	_ = metricsResp.Body.Close()
	assert.Contains(t, string(body), `govagrant_invocation_total{outcome="ok",subcommand="version"} 1`)

	require.NoError(t, inW.Close())
	select {
	case <-srv.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after stdin closed")
	}
	require.NoError(t, srv.Stop())
}

func TestServer_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t, map[string]testsupport.Response{})
	cfg.WatchVagrantfile = false

	inR, _ := io.Pipe()
	srv, err := NewServer(cfg, WithIO(inR, io.Discard))
	require.NoError(t, err)
	assert.Empty(t, srv.MetricsAddr())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, srv.Start(ctx))
	cancel()

	select {
	case <-srv.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}
