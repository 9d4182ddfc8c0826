// Package app wires the catalog, configuration, driver, and output
// together for the command-line entrypoint.
package app

import (
	"io"
	"log/slog"
)

// Config holds everything an App needs to run once.
type Config struct {
	CatalogPath string
	ConfigPath  string
	Seed        int64
	LogFormat   string
	LogLevel    string
}

// App encapsulates the application's dependencies and lifecycle.
type App struct {
	outW   io.Writer
	logW   io.Writer
	logger *slog.Logger
	config *Config
}

// New returns an initialized App with its own isolated logger. Logs go
// to logW so the generated JSON on outW stays machine-readable.
func New(outW, logW io.Writer, cfg *Config) *App {
	return &App{
		outW:   outW,
		logW:   logW,
		logger: newLogger(cfg.LogLevel, cfg.LogFormat, logW),
		config: cfg,
	}
}
