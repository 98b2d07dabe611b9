package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// InitEnvironmentVariables loads <dir>/.env.<goEnv> and then <dir>/.env.
// Variables already present in the process environment are never overridden.
// A missing file is only an error outside of production, where secrets are
// expected to come from the host environment instead.
func InitEnvironmentVariables(dir, goEnv string) error {
	if goEnv == "" {
		goEnv = "development"
	}

	envFiles := []string{
		filepath.Join(dir, fmt.Sprintf(".env.%s", goEnv)),
		filepath.Join(dir, ".env"),
	}

	loaded := 0
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("InitEnvironmentVariables: failed to load %s: %w", envFile, err)
		}

		log.Debugf("loaded environment from %s", envFile)
		loaded++
	}

	if loaded == 0 && goEnv != "production" {
		log.Warnf("InitEnvironmentVariables: no .env files found in %s", dir)
	}

	return nil
}
