package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// UserConfigDir is the per-user settings directory under $HOME.
const UserConfigDir = ".vacpac"

// LoadFromUserConfig merges ~/.vacpac/config.json, a flat map of environment
// variables, into the process environment.
func LoadFromUserConfig() error {
	home, err := os.UserHomeDir()
	if err != nil {
		// Best-effort: if we can't resolve home, just skip file loading.
		return nil
	}

	return loadEnvFile(filepath.Join(home, UserConfigDir, "config.json"))
}

func loadEnvFile(configPath string) error {
	file, err := os.Open(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	var cfg map[string]string
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return err
	}

	for key, value := range cfg {
		if value == "" {
			continue
		}
		// Values from the user config take precedence over existing env vars.
		_ = os.Setenv(key, value)
	}

	return nil
}

// LoadDotEnv reads <dir>/.env without overriding variables that are already
// set. A missing file is not an error.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}
