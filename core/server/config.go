package server

import (
	"fmt"
	"os"
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// JobsDir is the directory holding job definition files.
	JobsDir string `mapstructure:"jobs_dir" default:"jobs"`
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

// Validate checks the settings needed to serve jobs.
func (c Config) Validate() error {
	if c.ApiKey == "" {
		return fmt.Errorf("server.api_key must be set")
	}
	info, err := os.Stat(c.JobsDir)
	if err != nil {
		return fmt.Errorf("jobs directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("jobs directory %s is not a directory", c.JobsDir)
	}
	return nil
}
