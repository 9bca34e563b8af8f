package vagrant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vagrant-mcp/govagrant/internal/testsupport"
)

func TestIntegration_Version(t *testing.T) {
	testsupport.RequireVagrant(t)

	client, err := New(Options{Root: testsupport.ProjectDir(t), Timeout: time.Minute})
	require.NoError(t, err)

	version, err := client.Version(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, `^\d+\.\d+`, version)
}

func TestIntegration_Inventory(t *testing.T) {
	testsupport.RequireVagrant(t)

	client, err := New(Options{Root: testsupport.ProjectDir(t), Timeout: time.Minute, Strict: true})
	require.NoError(t, err)
	ctx := context.Background()

	boxes, _, err := client.BoxList(ctx)
	require.NoError(t, err)
	for _, box := range boxes {
		assert.NotEmpty(t, box.Name)
	}

	plugins, _, err := client.PluginList(ctx)
	require.NoError(t, err)
	for _, plugin := range plugins {
		assert.NotEmpty(t, plugin.Name)
	}
}
