package cli

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("HUBCONNECT_BASE_URL", "http://gateway:8000")
	t.Setenv("HUBCONNECT_USER_ID", "env-user")
	t.Setenv("HUBCONNECT_HUBSPOT_CLIENT_ID", "cid")
	t.Setenv("HUBCONNECT_HUBSPOT_SCOPES", "a, b,,c")

	fs := newFlagSet(io.Discard)
	require.NoError(t, fs.Parse([]string{"items"}))

	cfg, err := LoadConfig(fs)
	require.NoError(t, err)

	require.Equal(t, "http://gateway:8000", cfg.BaseURL)
	require.Equal(t, "env-user", cfg.UserID)
	require.Equal(t, 30*time.Second, cfg.Timeout)
	require.Equal(t, []string{"a", "b", "c"}, cfg.HubSpot.Scopes)
	require.NotNil(t, cfg.provider())
}

func TestLoadConfig_FlagBeatsEnv(t *testing.T) {
	t.Setenv("HUBCONNECT_USER_ID", "env-user")

	fs := newFlagSet(io.Discard)
	require.NoError(t, fs.Parse([]string{"tokens", "--user-id", "flag-user"}))

	cfg, err := LoadConfig(fs)
	require.NoError(t, err)
	require.Equal(t, "flag-user", cfg.UserID)
	require.Nil(t, cfg.provider())
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	fs := newFlagSet(io.Discard)
	require.NoError(t, fs.Parse([]string{"tokens", "--config", "/does/not/exist.yaml"}))

	_, err := LoadConfig(fs)
	require.Error(t, err)
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	require.Nil(t, splitList(nil))
	require.Equal(t, []string{"x", "y"}, splitList([]string{"x,y"}))
	require.Equal(t, []string{"x", "y"}, splitList([]string{" x ", "y"}))
}
