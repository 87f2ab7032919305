// Package config loads process configuration from .env files and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath string
	LogPath      string
	LogLevel     string
	ExportDir    string
	HistoryYears int
}

const defaultHistoryYears = 2

// Load reads configuration from the first .env file found and the environment.
// Variables already set in the environment win over .env values.
func Load() (*Config, error) {
	for _, path := range envPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
			break
		}
	}

	cfg := &Config{
		DatabasePath: getEnvString("DATABASE_PATH", defaultPath("mymonth.db")),
		LogPath:      getEnvString("LOG_PATH", defaultPath("mymonth.log")),
		LogLevel:     getEnvString("LOG_LEVEL", "info"),
		ExportDir:    getEnvString("EXPORT_DIR", defaultExportDir()),
		HistoryYears: getEnvInt("HISTORY_YEARS", defaultHistoryYears),
	}

	if cfg.HistoryYears < 0 {
		return nil, fmt.Errorf("HISTORY_YEARS must not be negative, got %d", cfg.HistoryYears)
	}
	return cfg, nil
}

// envPaths returns the .env locations checked, in priority order.
func envPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "mymonth", ".env"))
	}
	return paths
}

func defaultPath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, "mymonth", name)
}

func defaultExportDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func getEnvString(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
