package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"

	openlcb "github.com/samsamfire/go-openlcb"
)

func TestFromFileDefaults(t *testing.T) {
	file := ini.Empty()
	_, err := file.Section("node").NewKey("id", "01.02.00.00.01.01")
	require.NoError(t, err)

	cfg, err := fromFile(file)
	require.NoError(t, err)
	assert.Equal(t, openlcb.NewNodeID(0x010200000101), cfg.NodeID)
	assert.Equal(t, defaultTransport, cfg.Transport)
	assert.Equal(t, ExecutorPool, cfg.Executor)
	assert.Equal(t, defaultExecutorQueue, cfg.ExecutorQueue)
}

func TestFromFileOverrides(t *testing.T) {
	file := ini.Empty()
	_, err := file.Section("node").NewKey("id", "01.02.00.00.01.01")
	require.NoError(t, err)
	_, err = file.Section("transport").NewKey("kind", "loopback")
	require.NoError(t, err)
	_, err = file.Section("transport").NewKey("device", "segment-a")
	require.NoError(t, err)
	_, err = file.Section("executor").NewKey("kind", "inline")
	require.NoError(t, err)

	cfg, err := fromFile(file)
	require.NoError(t, err)
	assert.Equal(t, "loopback", cfg.Transport)
	assert.Equal(t, "segment-a", cfg.Device)
	assert.Equal(t, ExecutorInline, cfg.Executor)
}

func TestFromFileMissingNodeID(t *testing.T) {
	file := ini.Empty()
	_, err := fromFile(file)
	assert.Error(t, err)
}

func TestParseNodeIDRejectsMalformed(t *testing.T) {
	_, err := parseNodeID("not-a-node-id")
	assert.Error(t, err)
}
