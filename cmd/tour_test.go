package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v7h-lab/Nomen-origins/internal/tour"
)

func TestTourRejectsShortDwell(t *testing.T) {
	rootCmd.SetArgs([]string{
		"--config", filepath.Join(t.TempDir(), "missing.toml"),
		"tour", "--dwell", "0s", "Sophia",
	})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		tourDwell = tour.DefaultDwell
		tourCmd.Flags().Lookup("dwell").Changed = false
	})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--dwell must be at least 8s")
}
