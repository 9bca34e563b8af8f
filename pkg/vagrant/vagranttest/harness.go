// Package vagranttest brings vagrant machines up for a test and puts them
// back the way it found them.
//
//	func TestProvisioning(t *testing.T) {
//		h := vagranttest.New(t, vagranttest.Options{Root: "testdata/project"})
//		h.UpAll()
//		h.AssertRunning("web")
//	}
//
// Machines that were not created before the test are destroyed afterwards,
// powered off machines are halted and saved machines are suspended. Running
// machines are left running.
package vagranttest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vagrant-mcp/govagrant/pkg/vagrant"
)

// Options configures a Harness
type Options struct {
	// Root is the project directory; empty means the working directory
	Root string
	// Machines lists the machines under test; empty means every machine
	// vagrant status reports
	Machines []string
	// Client is used as is when set; Root is ignored then
	Client *vagrant.Client
}

// Harness controls a set of machines during a test
type Harness struct {
	t        testing.TB
	ctx      context.Context
	client   *vagrant.Client
	machines []string
	initial  map[string]string
}

// restoreActions maps an initial state to the command returning a machine to it
var restoreActions = map[string]func(ctx context.Context, c *vagrant.Client, vm string) error{
	vagrant.StateNotCreated: func(ctx context.Context, c *vagrant.Client, vm string) error {
		return c.Destroy(ctx, vagrant.MachineOptions{VMName: vm})
	},
	vagrant.StatePoweroff: func(ctx context.Context, c *vagrant.Client, vm string) error {
		return c.Halt(ctx, vagrant.HaltOptions{VMName: vm})
	},
	vagrant.StateSaved: func(ctx context.Context, c *vagrant.Client, vm string) error {
		return c.Suspend(ctx, vagrant.MachineOptions{VMName: vm})
	},
}

// New records the current state of every machine under test and registers
// a cleanup that restores it
func New(t testing.TB, opts Options) *Harness {
	t.Helper()

	client := opts.Client
	if client == nil {
		var err error
		client, err = vagrant.New(vagrant.Options{Root: opts.Root})
		require.NoError(t, err, "failed to create vagrant client")
	}

	h := &Harness{
		t:       t,
		ctx:     context.Background(),
		client:  client,
		initial: make(map[string]string),
	}

	machines := opts.Machines
	if len(machines) == 0 {
		entries, _, err := client.Status(h.ctx, vagrant.StatusOptions{})
		require.NoError(t, err, "failed to list machines")
		for _, e := range entries {
			machines = append(machines, e.Name)
		}
	}
	h.machines = machines

	for _, vm := range machines {
		h.initial[vm] = h.State(vm)
	}

	t.Cleanup(h.Restore)
	return h
}

// Client returns the underlying client
func (h *Harness) Client() *vagrant.Client {
	return h.client
}

// Machines returns the machines under test
func (h *Harness) Machines() []string {
	return h.machines
}

// InitialState returns the state a machine had when the harness was created
func (h *Harness) InitialState(vm string) string {
	return h.initial[vm]
}

// State returns the current state of a machine
func (h *Harness) State(vm string) string {
	h.t.Helper()
	state, err := h.client.State(h.ctx, vm)
	require.NoError(h.t, err, "failed to read state of %s", vm)
	return state
}

// UpAll brings every machine under test up
func (h *Harness) UpAll() {
	h.t.Helper()
	for _, vm := range h.machines {
		require.NoError(h.t, h.client.Up(h.ctx, vagrant.UpOptions{VMName: vm}), "failed to bring %s up", vm)
	}
}

// Restore returns every machine to its initial state. Errors are reported
// but do not stop the remaining machines from being restored.
func (h *Harness) Restore() {
	h.t.Helper()
	for _, vm := range h.machines {
		action, ok := restoreActions[h.initial[vm]]
		if !ok {
			continue
		}
		if err := action(h.ctx, h.client, vm); err != nil {
			h.t.Errorf("failed to restore %s to %s: %v", vm, h.initial[vm], err)
		}
	}
}

// AssertState fails the test unless the machine is in the given state
func (h *Harness) AssertState(vm, want string) {
	h.t.Helper()
	if got := h.State(vm); got != want {
		h.t.Errorf("%s has state %s, not %s", vm, got, want)
	}
}

// AssertRunning fails the test unless the machine is running
func (h *Harness) AssertRunning(vm string) { h.t.Helper(); h.AssertState(vm, vagrant.StateRunning) }

// AssertSaved fails the test unless the machine is suspended
func (h *Harness) AssertSaved(vm string) { h.t.Helper(); h.AssertState(vm, vagrant.StateSaved) }

// AssertPoweroff fails the test unless the machine is halted
func (h *Harness) AssertPoweroff(vm string) { h.t.Helper(); h.AssertState(vm, vagrant.StatePoweroff) }

// AssertNotCreated fails the test unless the machine does not exist
func (h *Harness) AssertNotCreated(vm string) {
	h.t.Helper()
	h.AssertState(vm, vagrant.StateNotCreated)
}
