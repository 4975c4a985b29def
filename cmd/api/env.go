package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"calcsession/internal/config"
)

// loadDotEnv loads environment variables from .env when present.
// Existing process environment variables are not overridden.
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil {
		return nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("load .env: %w", err)
}

// loadConfig merges .env into the environment and binds the CALC_* settings.
func loadConfig() (config.Config, error) {
	if err := loadDotEnv(); err != nil {
		return config.Config{}, err
	}
	return config.Load()
}
