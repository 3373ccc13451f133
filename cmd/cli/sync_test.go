package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xrpscan/tezsync/models"
)

const addr = "tz1AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

func TestSyncCommandValidate(t *testing.T) {
	cmd := NewSyncCommand()
	require.NoError(t, cmd.Init([]string{}))
	assert.EqualError(t, cmd.Validate(), "--address is required")

	cmd = NewSyncCommand()
	require.NoError(t, cmd.Init([]string{"--address", addr, "--incremental"}))
	assert.EqualError(t, cmd.Validate(), "--incremental requires --state")

	cmd = NewSyncCommand()
	require.NoError(t, cmd.Init([]string{"--address", addr, "--incremental", "--state", "state.json"}))
	assert.NoError(t, cmd.Validate())
	assert.Equal(t, SyncCommandName, cmd.Name())
}

func TestSyncCommandState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	cmd := NewSyncCommand()
	require.NoError(t, cmd.Init([]string{"--address", addr, "--state", path}))

	account, err := cmd.loadState()
	require.NoError(t, err)
	assert.Nil(t, account, "missing state file means first sync")

	saved := models.NewAccount(addr)
	saved.BlockHeight = 99
	require.NoError(t, cmd.saveState(saved))

	account, err = cmd.loadState()
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, saved.ID, account.ID)
	assert.Equal(t, int64(99), account.BlockHeight)
}

func TestSyncCommandStateOfAnotherAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"address":"tz1other"}`), 0o644))

	cmd := NewSyncCommand()
	require.NoError(t, cmd.Init([]string{"--address", addr, "--state", path}))

	_, err := cmd.loadState()
	assert.ErrorContains(t, err, "tz1other")
}

func TestRootUnknownSubcommand(t *testing.T) {
	assert.EqualError(t, root([]string{"backfill"}), "unknown subcommand: backfill")
	assert.Error(t, root(nil))
}
