package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aussiebroadwan/crmconnect/pkg/cryptox"
)

// InitSealer builds the credential sealer from the configured master key.
//
// Key sources, in order:
//   - GATEWAY_MASTER_KEY_PATH: read the file, or mint a new random key into
//     it when it does not exist yet.
//   - GATEWAY_MASTER_KEY: inline key material.
//   - neither: a random in-memory key. Stored credentials become unreadable
//     after a restart.
func InitSealer(cfg Config, logger *slog.Logger) (*cryptox.Sealer, error) {
	if cfg.MasterKeyPath != "" {
		created, err := ensureMasterKeyFile(cfg.MasterKeyPath)
		if err != nil {
			return nil, err
		}
		if created {
			logger.Info("generated master key file", "path", cfg.MasterKeyPath)
		}
	}

	key, ephemeral, err := cryptox.LoadMasterKey(cfg.MasterKeyPath, MasterKeyEnv)
	if err != nil {
		return nil, fmt.Errorf("load master key: %w", err)
	}

	if ephemeral {
		logger.Warn("no master key configured, stored credentials will not survive a restart")
	} else {
		logger.Info("master key loaded", "fingerprint", cryptox.Fingerprint(key))
	}

	sealer, err := cryptox.NewSealer(key)
	if err != nil {
		return nil, fmt.Errorf("create sealer: %w", err)
	}
	return sealer, nil
}

func ensureMasterKeyFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat master key file: %w", err)
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return false, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, fmt.Errorf("create master key dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return false, fmt.Errorf("write master key file: %w", err)
	}
	return true, nil
}
