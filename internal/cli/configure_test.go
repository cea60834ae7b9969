package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pgtools/replctl/internal/config"
)

func runCommand(t *testing.T, args ...string) {
	t.Helper()
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
}

func TestReverseConfigurationSwapsTopologyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topology.env")

	runCommand(t, "--config", path, "configure",
		"--source", "postgres://pg-src/postgres",
		"--destination", "postgres://pg-dest/postgres")
	runCommand(t, "--config", path, "reverse-configuration")

	topo, err := config.NewStore(path).Load()
	require.NoError(t, err)
	require.Equal(t, "postgres://pg-dest/postgres", topo.Source.DSN)
	require.Equal(t, "postgres://pg-src/postgres", topo.Destination.DSN)
}

func TestReverseConfigurationUnconfigured(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topology.env")
	rootCmd.SetArgs([]string{"--config", path, "reverse-configuration"})
	err := rootCmd.ExecuteContext(context.Background())
	require.ErrorIs(t, err, config.ErrNotConfigured)
}
