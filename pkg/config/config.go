// Package config loads jsh's engine configuration in layers: embedded
// defaults, then jsh.toml at the repository root, then JSH_-prefixed
// environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jovalle/jsh/pkg/errors"
	"github.com/jovalle/jsh/pkg/logging"
)

// ConfigFileName is the optional per-repository config file.
const ConfigFileName = "jsh.toml"

// EnvPrefix scopes environment overrides, e.g. JSH_STRICT.
const EnvPrefix = "JSH_"

// Config holds the engine settings that are not link rules.
type Config struct {
	// BackupDir is the directory name under $HOME for snapshots.
	BackupDir string `koanf:"backup_dir" toml:"backup_dir"`

	// Strict makes a run with failures exit non-zero.
	Strict bool `koanf:"strict" toml:"strict"`

	// PrivateDir is the repository subdirectory adopt --private targets.
	PrivateDir string `koanf:"private_dir" toml:"private_dir"`
}

// Load reads configuration for the repository rooted at jshRoot.
func Load(jshRoot string) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to load default config")
	}

	// 2. Repository config, if present
	path := filepath.Join(jshRoot, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrRulesLoad, "failed to load %s", path)
		}
		logger.Debug().Str("path", path).Msg("Loaded repository config")
	}

	// 3. Environment overrides: JSH_BACKUP_DIR, JSH_STRICT, ...
	// JSH_DIR and JSH_PLATFORM are resolved elsewhere, not config keys.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		switch key {
		case "dir", "platform":
			return ""
		}
		return key
	}), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to load environment config")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrRulesLoad, "failed to unmarshal config")
	}

	logger.Debug().
		Str("backup_dir", cfg.BackupDir).
		Bool("strict", cfg.Strict).
		Msg("Configuration loaded")
	return &cfg, nil
}
