package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/utils"
)

// PathEnv names the environment variable that points at the config file.
const PathEnv = "STREAKLIT_CONFIG"

// DefaultPath returns ~/.config/streaklit/config.yaml.
func DefaultPath() (string, error) {
	dir, err := utils.ExpandHome(constants.DefaultConfigDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// The file is $STREAKLIT_CONFIG or ~/.config/streaklit/config.yaml. A missing default
// file is fine; a missing explicit one is an error.
func Load() (*Config, error) {
	path := os.Getenv(PathEnv)
	explicitPath := path != ""
	if !explicitPath {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("config: resolve default path: %w", err)
		}
		path = p
	}
	return LoadFile(path, explicitPath)
}

// LoadFile loads path. When required is false and the file does not exist, only ENV and
// defaults apply.
func LoadFile(path string, required bool) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if required {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func (c *Config) expandPaths() error {
	var err error
	if c.Database.Conn, err = utils.ExpandHome(c.Database.Conn); err != nil {
		return fmt.Errorf("database.conn: %w", err)
	}
	if c.Log.Dir, err = utils.ExpandHome(c.Log.Dir); err != nil {
		return fmt.Errorf("log.dir: %w", err)
	}
	return nil
}
