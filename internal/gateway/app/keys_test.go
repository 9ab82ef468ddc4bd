package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aussiebroadwan/crmconnect/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestInitSealer(t *testing.T) {
	t.Run("mints key file once", func(t *testing.T) {
		t.Setenv(MasterKeyEnv, "")
		path := filepath.Join(t.TempDir(), "keys", "master.key")

		first, err := InitSealer(Config{MasterKeyPath: path}, slogx.Discard())
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Len(t, strings.TrimSpace(string(data)), 43)

		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		sealed, err := first.Seal([]byte("blob"), []byte("u1"))
		require.NoError(t, err)

		second, err := InitSealer(Config{MasterKeyPath: path}, slogx.Discard())
		require.NoError(t, err)

		opened, err := second.Open(sealed, []byte("u1"))
		require.NoError(t, err)
		require.Equal(t, "blob", string(opened))
	})

	t.Run("inline key", func(t *testing.T) {
		t.Setenv(MasterKeyEnv, "inline-key")

		a, err := InitSealer(Config{}, slogx.Discard())
		require.NoError(t, err)
		b, err := InitSealer(Config{}, slogx.Discard())
		require.NoError(t, err)

		sealed, err := a.Seal([]byte("blob"), nil)
		require.NoError(t, err)
		_, err = b.Open(sealed, nil)
		require.NoError(t, err)
	})

	t.Run("ephemeral key differs per start", func(t *testing.T) {
		t.Setenv(MasterKeyEnv, "")

		a, err := InitSealer(Config{}, slogx.Discard())
		require.NoError(t, err)
		b, err := InitSealer(Config{}, slogx.Discard())
		require.NoError(t, err)

		sealed, err := a.Seal([]byte("blob"), nil)
		require.NoError(t, err)
		_, err = b.Open(sealed, nil)
		require.Error(t, err)
	})
}
