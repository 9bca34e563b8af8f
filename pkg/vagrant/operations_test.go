package vagrant

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vagrant-mcp/govagrant/internal/errors"
	"github.com/vagrant-mcp/govagrant/internal/testsupport"
)

// everything answers with success so only the argument vector matters
var acceptAll = map[string]testsupport.Response{"": {}}

func TestArgumentVectors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		call func(c *Client) error
		want []string
	}{
		{"init bare", func(c *Client) error { return c.Init(ctx, InitOptions{}) }, []string{"init"}},
		{"init box url", func(c *Client) error {
			return c.Init(ctx, InitOptions{BoxName: "hashicorp/bionic64", BoxURL: "https://example.com/b.box"})
		}, []string{"init", "hashicorp/bionic64", "https://example.com/b.box"}},
		{"up default", func(c *Client) error { return c.Up(ctx, UpOptions{}) }, []string{"up"}},
		{"up everything", func(c *Client) error {
			return c.Up(ctx, UpOptions{VMName: "web", Provision: boolPtr(false), Provider: "libvirt", ProvisionWith: []string{"shell", "ansible"}})
		}, []string{"up", "web", "--no-provision", "--provider=libvirt", "--provision-with", "shell,ansible"}},
		{"up provision", func(c *Client) error { return c.Up(ctx, UpOptions{Provision: boolPtr(true)}) }, []string{"up", "--provision"}},
		{"provision", func(c *Client) error {
			return c.Provision(ctx, ProvisionOptions{VMName: "db", ProvisionWith: []string{"shell"}})
		}, []string{"provision", "db", "--provision-with", "shell"}},
		{"reload", func(c *Client) error {
			return c.Reload(ctx, ReloadOptions{VMName: "web", Provision: boolPtr(true), ProvisionWith: []string{"a", "b"}})
		}, []string{"reload", "web", "--provision", "--provision-with", "a,b"}},
		{"suspend", func(c *Client) error { return c.Suspend(ctx, MachineOptions{VMName: "web"}) }, []string{"suspend", "web"}},
		{"resume", func(c *Client) error { return c.Resume(ctx, MachineOptions{}) }, []string{"resume"}},
		{"halt", func(c *Client) error { return c.Halt(ctx, HaltOptions{VMName: "web"}) }, []string{"halt", "web"}},
		{"halt force", func(c *Client) error { return c.Halt(ctx, HaltOptions{Force: true}) }, []string{"halt", "--force"}},
		{"destroy", func(c *Client) error { return c.Destroy(ctx, MachineOptions{VMName: "web"}) }, []string{"destroy", "web", "--force"}},
		{"destroy all", func(c *Client) error { return c.Destroy(ctx, MachineOptions{}) }, []string{"destroy", "--force"}},
		{"package", func(c *Client) error {
			return c.Package(ctx, PackageOptions{VMName: "web", File: "web.box", Vagrantfile: "Vagrantfile.pkg"})
		}, []string{"package", "web", "--output", "web.box", "--vagrantfile", "Vagrantfile.pkg"}},
		{"validate", func(c *Client) error { return c.Validate(ctx, Output{}) }, []string{"validate"}},
		{"box add", func(c *Client) error {
			return c.BoxAdd(ctx, BoxAddOptions{Name: "alpine", URL: "https://example.com/a.box", Force: true, Provider: "virtualbox"})
		}, []string{"box", "add", "alpine", "https://example.com/a.box", "--force", "--provider", "virtualbox"}},
		{"box add catalog", func(c *Client) error { return c.BoxAdd(ctx, BoxAddOptions{Name: "generic/alpine315"}) },
			[]string{"box", "add", "generic/alpine315"}},
		{"box update", func(c *Client) error { return c.BoxUpdate(ctx, "alpine", "virtualbox") }, []string{"box", "update", "alpine", "virtualbox"}},
		{"box remove", func(c *Client) error { return c.BoxRemove(ctx, "alpine", "virtualbox") }, []string{"box", "remove", "--force", "alpine", "virtualbox"}},
		{"snapshot push", func(c *Client) error { return c.SnapshotPush(ctx) }, []string{"snapshot", "push"}},
		{"snapshot save", func(c *Client) error { return c.SnapshotSave(ctx, "before") }, []string{"snapshot", "save", "before"}},
		{"snapshot restore", func(c *Client) error { return c.SnapshotRestore(ctx, "before") }, []string{"snapshot", "restore", "before"}},
		{"snapshot delete", func(c *Client) error { return c.SnapshotDelete(ctx, "before") }, []string{"snapshot", "delete", "before"}},
		{"sandbox on", func(c *Client) error { return c.Sandbox().On(ctx, "web") }, []string{"sandbox", "on", "web"}},
		{"sandbox off", func(c *Client) error { return c.Sandbox().Off(ctx, "") }, []string{"sandbox", "off"}},
		{"sandbox commit", func(c *Client) error { return c.Sandbox().Commit(ctx, "web") }, []string{"sandbox", "commit", "web"}},
		{"sandbox rollback", func(c *Client) error { return c.Sandbox().Rollback(ctx, "web") }, []string{"sandbox", "rollback", "web"}},
		{"ssh", func(c *Client) error {
			_, err := c.SSH(ctx, SSHOptions{VMName: "web", Command: "uname -a", ExtraArgs: `-L 8080:localhost:80 -o "StrictHostKeyChecking no"`})
			return err
		}, []string{"ssh", "web", "--command", "uname -a", "--", "-L", "8080:localhost:80", "-o", "StrictHostKeyChecking no"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, fake := newTestClient(t, acceptAll)
			require.NoError(t, tt.call(client))
			assert.Equal(t, tt.want, fake.LastCall())
		})
	}
}

func TestInvalidInput(t *testing.T) {
	client, fake := newTestClient(t, acceptAll)
	ctx := context.Background()

	for name, err := range map[string]error{
		"init url only":  client.Init(ctx, InitOptions{BoxURL: "https://example.com/b.box"}),
		"box add":        client.BoxAdd(ctx, BoxAddOptions{}),
		"box remove":     client.BoxRemove(ctx, "", "virtualbox"),
		"snapshot save":  client.SnapshotSave(ctx, ""),
		"snapshot apply": client.SnapshotRestore(ctx, ""),
	} {
		assert.True(t, errors.Is(err, errors.CodeInvalidInput), name)
	}

	_, err := client.SSH(ctx, SSHOptions{})
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))

	_, err = client.SSH(ctx, SSHOptions{Command: "ls", ExtraArgs: `"unterminated`})
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))

	assert.Empty(t, fake.Calls())
}

func TestVersion(t *testing.T) {
	client, fake := newTestClient(t, map[string]testsupport.Response{
		"--version": {Stdout: "Vagrant 2.4.1\n"},
	})

	v, err := client.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.4.1", v)
	assert.Equal(t, []string{"--version"}, fake.LastCall())
}

func TestVersion_Unrecognised(t *testing.T) {
	client, _ := newTestClient(t, map[string]testsupport.Response{
		"--version": {Stdout: "something else\n"},
	})

	_, err := client.Version(context.Background())
	assert.True(t, errors.IsParseError(err))
}

const multiStatus = `1424098924,web,provider-name,virtualbox
1424098924,web,state,running
1424098924,web,state-human-short,running
1424098924,db,provider-name,virtualbox
1424098924,db,state,not_created
`

func TestStatus(t *testing.T) {
	client, fake := newTestClient(t, map[string]testsupport.Response{
		"status --machine-readable": {Stdout: multiStatus},
	})

	entries, warnings, err := client.Status(context.Background(), StatusOptions{})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, []Status{
		{Name: "web", State: StateRunning, Provider: "virtualbox"},
		{Name: "db", State: StateNotCreated, Provider: "virtualbox"},
	}, entries)
	assert.Equal(t, []string{"status", "--machine-readable"}, fake.LastCall())

	_, _, err = client.Status(context.Background(), StatusOptions{VMName: "web"})
	require.NoError(t, err)
	assert.Equal(t, []string{"status", "--machine-readable", "web"}, fake.LastCall())
}

func TestStatus_NonZeroExit(t *testing.T) {
	t.Run("tolerated with entries", func(t *testing.T) {
		client, _ := newTestClient(t, map[string]testsupport.Response{
			"status": {Stdout: multiStatus, Stderr: "one machine is unreachable\n", ExitCode: 1},
		})
		entries, _, err := client.Status(context.Background(), StatusOptions{})
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("failure without entries", func(t *testing.T) {
		client, _ := newTestClient(t, map[string]testsupport.Response{
			"status": {
				Stdout:   "1424099042,,error-exit,Vagrant::Errors::MachineNotFound,The machine with the name 'api' was not found\n",
				ExitCode: 1,
			},
		})
		_, _, err := client.Status(context.Background(), StatusOptions{VMName: "api"})
		require.Error(t, err)
		assert.True(t, errors.IsCommandFailed(err))
		assert.Contains(t, errors.StderrOf(err), "was not found")
	})
}

func TestStatus_Strictness(t *testing.T) {
	fake := testsupport.NewFakeVagrant(t, map[string]testsupport.Response{
		"status": {Stdout: "not,a\n1,web,state,running\n"},
	})
	root := testsupport.ProjectDir(t)

	lenient, err := New(Options{Root: root, Executable: fake.Path})
	require.NoError(t, err)
	entries, warnings, err := lenient.Status(context.Background(), StatusOptions{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	require.Len(t, warnings, 1)
	assert.Equal(t, 1, warnings[0].Line)

	strict, err := New(Options{Root: root, Executable: fake.Path, Strict: true})
	require.NoError(t, err)
	_, _, err = strict.Status(context.Background(), StatusOptions{})
	assert.True(t, errors.IsParseError(err))
	assert.Equal(t, 1, errors.LineOf(err))
}

func TestState(t *testing.T) {
	client, _ := newTestClient(t, map[string]testsupport.Response{
		"status --machine-readable web": {Stdout: "1,web,state,poweroff\n"},
		"status --machine-readable db":  {Stdout: "1,web,state,poweroff\n"},
	})

	state, err := client.State(context.Background(), "web")
	require.NoError(t, err)
	assert.Equal(t, StatePoweroff, state)

	_, err = client.State(context.Background(), "db")
	assert.True(t, errors.Is(err, errors.CodeInvalidState))
}

func TestBoxList(t *testing.T) {
	client, _ := newTestClient(t, map[string]testsupport.Response{
		"box list --machine-readable": {Stdout: `1,,box-name,generic/alpine315
1,,box-provider,virtualbox
1,,box-version,4.3.12
1,,box-name,ubuntu/focal64
1,,box-provider,libvirt
1,,box-version,20230607.0.0
`},
	})

	boxes, warnings, err := client.BoxList(context.Background())
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, []Box{
		{Name: "generic/alpine315", Provider: "virtualbox", Version: "4.3.12"},
		{Name: "ubuntu/focal64", Provider: "libvirt", Version: "20230607.0.0"},
	}, boxes)
}

func TestPluginList(t *testing.T) {
	client, fake := newTestClient(t, map[string]testsupport.Response{
		"plugin list --machine-readable": {Stdout: `1,,plugin-name,vagrant-share
1,vagrant-share,plugin-version,1.1.3%!(VAGRANT_COMMA) system
1,,plugin-name,vagrant-libvirt
1,vagrant-libvirt,plugin-version,0.12.2
`},
	})

	plugins, _, err := client.PluginList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Plugin{
		{Name: "vagrant-share", Version: "1.1.3", System: true},
		{Name: "vagrant-libvirt", Version: "0.12.2"},
	}, plugins)
	assert.Equal(t, []string{"plugin", "list", "--machine-readable"}, fake.LastCall())
}

const sshConfigOutput = `Host default
  HostName 127.0.0.1
  User vagrant
  Port 2222
  UserKnownHostsFile /dev/null
  IdentityFile "/home/me/.vagrant.d/insecure private key"
  IdentitiesOnly yes
`

func TestConf_Accessors(t *testing.T) {
	client, fake := newTestClient(t, map[string]testsupport.Response{
		"ssh-config": {Stdout: sshConfigOutput},
	})
	ctx := context.Background()

	user, err := client.User(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "vagrant", user)

	host, _ := client.HostName(ctx, "")
	assert.Equal(t, "127.0.0.1", host)
	port, _ := client.Port(ctx, "")
	assert.Equal(t, "2222", port)
	key, _ := client.KeyFile(ctx, "")
	assert.Equal(t, "/home/me/.vagrant.d/insecure private key", key)
	uh, _ := client.UserHostname(ctx, "")
	assert.Equal(t, "vagrant@127.0.0.1", uh)
	uhp, _ := client.UserHostnamePort(ctx, "")
	assert.Equal(t, "vagrant@127.0.0.1:2222", uhp)

	// every accessor after the first was served from the cache
	assert.Len(t, fake.Calls(), 1)
}

func TestConf_MissingKey(t *testing.T) {
	client, _ := newTestClient(t, map[string]testsupport.Response{
		"ssh-config": {Stdout: "Host default\n  HostName 127.0.0.1\n"},
	})

	_, err := client.Port(context.Background(), "")
	assert.True(t, errors.IsParseError(err))
}

func TestConf_CacheInvalidation(t *testing.T) {
	client, fake := newTestClient(t, map[string]testsupport.Response{
		"ssh-config": {Stdout: sshConfigOutput},
		"":           {},
	})
	ctx := context.Background()

	_, err := client.Conf(ctx, "web")
	require.NoError(t, err)
	_, err = client.Conf(ctx, "db")
	require.NoError(t, err)
	require.Len(t, fake.Calls(), 2)

	// halting web drops only web
	require.NoError(t, client.Halt(ctx, HaltOptions{VMName: "web"}))
	_, _ = client.Conf(ctx, "db")
	assert.Len(t, fake.Calls(), 3)
	_, _ = client.Conf(ctx, "web")
	assert.Len(t, fake.Calls(), 4)

	// a command on every machine drops everything
	require.NoError(t, client.Up(ctx, UpOptions{}))
	_, _ = client.Conf(ctx, "db")
	assert.Len(t, fake.Calls(), 6)
}

func TestConf_FailureIsNotCached(t *testing.T) {
	client, fake := newTestClient(t, map[string]testsupport.Response{
		"ssh-config": {Stderr: "machine not created\n", ExitCode: 1},
	})

	_, err := client.Conf(context.Background(), "")
	require.Error(t, err)
	_, err = client.Conf(context.Background(), "")
	require.Error(t, err)
	assert.Len(t, fake.Calls(), 2)
}

func TestConf_CallerEditsDoNotReachCache(t *testing.T) {
	client, fake := newTestClient(t, map[string]testsupport.Response{
		"ssh-config": {Stdout: sshConfigOutput},
	})
	ctx := context.Background()

	conf, err := client.Conf(ctx, "")
	require.NoError(t, err)
	conf["HostName"] = "10.6.6.6"

	again, err := client.Conf(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", again.HostName())
	again["Port"] = "1"

	host, err := client.HostName(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)
	port, err := client.Port(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "2222", port)
	assert.Len(t, fake.Calls(), 1)
}

func TestConf_InvalidatedWhileReadingIsNotStored(t *testing.T) {
	client, fake := newTestClient(t, map[string]testsupport.Response{
		"ssh-config": {Stdout: sshConfigOutput, Sleep: 500 * time.Millisecond},
		"halt":       {},
	})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := client.Conf(ctx, "web")
		done <- err
	}()

	require.Eventually(t, func() bool { return len(fake.Calls()) == 1 }, 3*time.Second, 10*time.Millisecond)
	require.NoError(t, client.Halt(ctx, HaltOptions{VMName: "web"}))
	require.NoError(t, <-done)

	client.mu.Lock()
	_, cached := client.sshCache["web"]
	client.mu.Unlock()
	assert.False(t, cached)

	_, err := client.Conf(ctx, "web")
	require.NoError(t, err)
	assert.Len(t, fake.Calls(), 3)
}

func TestWatch_InvalidatesOnVagrantfileChange(t *testing.T) {
	client, fake := newTestClient(t, map[string]testsupport.Response{
		"ssh-config": {Stdout: sshConfigOutput},
	})
	require.NoError(t, client.Watch())
	require.NoError(t, client.Watch())
	defer client.Close()

	ctx := context.Background()
	_, err := client.Conf(ctx, "")
	require.NoError(t, err)

	vagrantfile := filepath.Join(client.Root(), "Vagrantfile")
	require.NoError(t, os.WriteFile(vagrantfile, []byte("# changed\n"), 0o644))

	assert.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return len(client.sshCache) == 0
	}, 3*time.Second, 20*time.Millisecond)

	_, err = client.Conf(ctx, "")
	require.NoError(t, err)
	assert.Len(t, fake.Calls(), 2)
	assert.NoError(t, client.Close())
}

func TestSSHHosts(t *testing.T) {
	client, _ := newTestClient(t, map[string]testsupport.Response{
		"ssh-config": {Stdout: `Host web
  HostName 127.0.0.1
  Port 2222

Host db
  HostName 127.0.0.1
  Port 2200
`},
	})

	hosts, err := client.SSHHosts(context.Background())
	require.NoError(t, err)
	require.Len(t, hosts, 2)
	assert.Equal(t, "2222", hosts["web"].Port())
	assert.Equal(t, "2200", hosts["db"].Port())
}

func TestSSHConfigRaw(t *testing.T) {
	client, fake := newTestClient(t, map[string]testsupport.Response{
		"ssh-config": {Stdout: sshConfigOutput},
	})

	raw, err := client.SSHConfig(context.Background(), "web")
	require.NoError(t, err)
	assert.Equal(t, sshConfigOutput, raw)
	assert.Equal(t, []string{"ssh-config", "web"}, fake.LastCall())
}

func TestSSH_ReturnsOutput(t *testing.T) {
	client, _ := newTestClient(t, map[string]testsupport.Response{
		"ssh": {Stdout: "Linux web 5.15\n"},
	})

	out, err := client.SSH(context.Background(), SSHOptions{Command: "uname -a"})
	require.NoError(t, err)
	assert.Equal(t, "Linux web 5.15\n", out)
}

func TestSnapshots(t *testing.T) {
	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		client, _ := newTestClient(t, map[string]testsupport.Response{
			"snapshot list": {Stdout: "==> default: \nbefore\nafter-upgrade\n"},
		})
		names, err := client.SnapshotList(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"before", "after-upgrade"}, names)
	})

	t.Run("list empty", func(t *testing.T) {
		client, _ := newTestClient(t, map[string]testsupport.Response{
			"snapshot list": {Stdout: "==> default: No snapshots have been taken yet!\n"},
		})
		names, err := client.SnapshotList(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)
		assert.NotNil(t, names)
	})

	t.Run("pop", func(t *testing.T) {
		client, fake := newTestClient(t, map[string]testsupport.Response{"snapshot pop": {}})
		require.NoError(t, client.SnapshotPop(ctx))
		assert.Equal(t, []string{"snapshot", "pop"}, fake.LastCall())
	})

	t.Run("pop without push", func(t *testing.T) {
		client, _ := newTestClient(t, map[string]testsupport.Response{
			"snapshot pop": {Stdout: "==> default: No pushed snapshot found!\n"},
		})
		err := client.SnapshotPop(ctx)
		assert.True(t, errors.Is(err, errors.CodeInvalidState))
	})

	t.Run("pop without push, failing", func(t *testing.T) {
		client, _ := newTestClient(t, map[string]testsupport.Response{
			"snapshot pop": {Stderr: "No pushed snapshot found!\n", ExitCode: 1},
		})
		err := client.SnapshotPop(ctx)
		assert.True(t, errors.Is(err, errors.CodeInvalidState))
	})
}

func TestSandboxStatus(t *testing.T) {
	tests := []struct {
		name string
		resp testsupport.Response
		want string
	}{
		{"on", testsupport.Response{Stdout: "[default] - snapshot mode is on\n"}, SandboxOn},
		{"off", testsupport.Response{Stdout: "[default] - snapshot mode is off\n"}, SandboxOff},
		{"not created", testsupport.Response{Stdout: "[default] - machine not created\n"}, SandboxUnknown},
		{"usage on stdout", testsupport.Response{Stdout: "Usage: vagrant [options] <command> [<args>]\n"}, SandboxNotInstalled},
		{"usage on failure", testsupport.Response{Stderr: "Usage: vagrant [options] <command> [<args>]\n", ExitCode: 1}, SandboxNotInstalled},
		{"empty", testsupport.Response{}, SandboxUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, fake := newTestClient(t, map[string]testsupport.Response{"sandbox status": tt.resp})
			status, err := client.Sandbox().Status(context.Background(), "default")
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
			assert.Equal(t, []string{"sandbox", "status", "default"}, fake.LastCall())
		})
	}
}

func TestSandboxStatus_OtherFailure(t *testing.T) {
	client, _ := newTestClient(t, map[string]testsupport.Response{
		"sandbox status": {Stderr: "boom\n", ExitCode: 2},
	})
	_, err := client.Sandbox().Status(context.Background(), "")
	assert.True(t, errors.IsCommandFailed(err))
}
