package config

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/SirZenith/taskmon/config"
	"github.com/SirZenith/taskmon/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func run(t *testing.T, args ...string) error {
	root := &cli.Command{
		Name:     "taskmon",
		Flags:    app.GlobalFlags(),
		Commands: []*cli.Command{Cmd()},
	}

	return root.Run(context.Background(), append([]string{"taskmon"}, args...))
}

func TestInitCreatesDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "conf")

	require.NoError(t, run(t, "config", "init", dir))

	c, err := config.ReadConfigFile(filepath.Join(dir, config.DefaultFileName))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultRPCURL, c.RPCURL)
	assert.EqualValues(t, config.DefaultChainID, c.ChainID)
}

func TestInitKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultFileName)

	existing := config.Default()
	existing.APIURL = "http://tasks.internal:9000"
	existing.ReceiptTimeout = 2 * time.Minute
	existing.ChainID = 31337
	require.NoError(t, existing.SaveFile(path))

	require.NoError(t, run(t, "config", "init", dir))

	c, err := config.ReadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://tasks.internal:9000", c.APIURL)
	assert.Equal(t, 2*time.Minute, c.ReceiptTimeout)
	assert.EqualValues(t, 31337, c.ChainID)
	assert.Equal(t, config.DefaultRPCURL, c.RPCURL)
}

func TestShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultFileName)
	require.NoError(t, config.Default().SaveFile(path))

	assert.NoError(t, run(t, "--config", path, "config", "show"))
}
