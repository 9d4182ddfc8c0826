// Package cli parses command-line arguments into an app configuration.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/rbignon/speedfog-sub000/internal/app"
)

// ExitError is an error carrying a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app
// config, a boolean indicating a clean early exit (help requested), or
// an ExitError for invalid input.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("speedfog", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
speedfog - seeded fog-gate run graph generator.

Builds a randomized run graph from a cluster catalog and a generator
configuration, and prints it as JSON for the content writer.

Usage:
  speedfog [options]

Options:
`)
		flagSet.PrintDefaults()
	}

	catalogFlag := flagSet.String("catalog", "", "Path to the catalog .hcl file or directory.")
	configFlag := flagSet.String("config", "", "Path to the generator configuration .hcl file.")
	seedFlag := flagSet.Int64("seed", 0, "Generation seed. 0 rerolls random seeds until a run validates.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Log level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if *catalogFlag == "" || *configFlag == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	return &app.Config{
		CatalogPath: *catalogFlag,
		ConfigPath:  *configFlag,
		Seed:        *seedFlag,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
	}, false, nil
}
