package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	DBPath       string
	ServerURL    string // base URL the client talks to
	ReadTimeout  int    // seconds
	WriteTimeout int    // seconds
}

func Load() *Config {
	// .env is optional; real env vars win.
	godotenv.Load()

	cfg := &Config{
		Port:         5000,
		DBPath:       "parley.db",
		ServerURL:    "http://localhost:5000",
		ReadTimeout:  120,
		WriteTimeout: 30,
	}

	if portStr := os.Getenv("PARLEY_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Port = port
		}
	}

	if dbPath := os.Getenv("PARLEY_DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}

	if url := os.Getenv("PARLEY_SERVER_URL"); url != "" {
		cfg.ServerURL = url
	}

	if timeoutStr := os.Getenv("PARLEY_READ_TIMEOUT"); timeoutStr != "" {
		if timeout, err := strconv.Atoi(timeoutStr); err == nil {
			cfg.ReadTimeout = timeout
		}
	}

	if timeoutStr := os.Getenv("PARLEY_WRITE_TIMEOUT"); timeoutStr != "" {
		if timeout, err := strconv.Atoi(timeoutStr); err == nil {
			cfg.WriteTimeout = timeout
		}
	}

	return cfg
}
