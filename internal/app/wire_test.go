package app_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/automuseums-gpx/internal/app"
	"github.com/JakeFAU/automuseums-gpx/internal/config"
)

func TestNewCreatesDirectories(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	root := t.TempDir()
	cfg.Cache.Dir = filepath.Join(root, "cache")
	cfg.Output.Dir = filepath.Join(root, "output")

	runner, err := app.New(cfg, nil, nil, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, runner)

	for _, dir := range []string{cfg.Cache.Dir, cfg.Output.Dir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestNewRejectsFileAsCacheDir(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	root := t.TempDir()
	cfg.Cache.Dir = filepath.Join(root, "cache")
	require.NoError(t, os.WriteFile(cfg.Cache.Dir, []byte("x"), 0o600))
	cfg.Output.Dir = filepath.Join(root, "output")

	_, err = app.New(cfg, nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init cache")
}
