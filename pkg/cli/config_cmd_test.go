package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSetProfileCreatesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	root := newRootCmd()
	root.SetArgs([]string{"config", "set-profile", "--name", "work", "--data-path", "/data/flow.parquet", "--model", "gpt-4o"})
	require.NoError(t, root.Execute())

	cfg, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, "/data/flow.parquet", cfg.Profiles["work"].DataPath)
	assert.Equal(t, "gpt-4o", cfg.Profiles["work"].Model)
	assert.Equal(t, "default", cfg.CurrentProfile)
}

func TestConfigSetProfileUpdatesOnlyChangedFields(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, SaveUserConfig(&UserConfig{
		CurrentProfile: "default",
		Profiles: map[string]Profile{
			"work": {DataPath: "/data/flow.parquet", Model: "gpt-4o-mini"},
		},
	}))

	root := newRootCmd()
	root.SetArgs([]string{"config", "set-profile", "--name", "work", "--model", "gpt-4o"})
	require.NoError(t, root.Execute())

	cfg, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, "/data/flow.parquet", cfg.Profiles["work"].DataPath)
	assert.Equal(t, "gpt-4o", cfg.Profiles["work"].Model)
}

func TestConfigUseProfile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, SaveUserConfig(&UserConfig{
		CurrentProfile: "default",
		Profiles: map[string]Profile{
			"default": {},
			"work":    {DataPath: "/data/flow.parquet"},
		},
	}))

	root := newRootCmd()
	root.SetArgs([]string{"config", "use-profile", "work"})
	require.NoError(t, root.Execute())

	cfg, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, "work", cfg.CurrentProfile)
}

func TestConfigUseProfileUnknown(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, SaveUserConfig(&UserConfig{
		CurrentProfile: "default",
		Profiles:       map[string]Profile{"default": {}},
	}))

	root := newRootCmd()
	root.SetArgs([]string{"config", "use-profile", "missing"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
