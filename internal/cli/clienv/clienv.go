// Package clienv builds the objects every gdpm command needs from the command line
// context: the project root, user settings and a logger.
package clienv

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/gdpm-go/internal/core/config"
	"github.com/nightconcept/gdpm-go/internal/core/installer"
)

// VerboseFlag enables debug logging for a command.
var VerboseFlag = &cli.BoolFlag{
	Name:  "verbose",
	Usage: "Enable verbose output",
}

// Logger returns a stderr logger, at debug level when verbose is set.
func Logger(c *cli.Context, verbose bool) *log.Logger {
	var w io.Writer = os.Stderr
	if c.App != nil && c.App.ErrWriter != nil {
		w = c.App.ErrWriter
	}
	logger := log.NewWithOptions(w, log.Options{Prefix: "gdpm"})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// Installer returns an Installer rooted at the working directory, configured from
// the user settings file and environment.
func Installer(c *cli.Context) (*installer.Installer, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}
	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	logger := Logger(c, c.Bool(VerboseFlag.Name) || settings.Verbose)
	logger.Debug("loaded settings", "default_source", settings.DefaultSource, "schema", settings.Schema)
	return installer.New(root, installer.WithSettings(settings), installer.WithLogger(logger)), nil
}

// PrintReport writes the batch tally and returns a non-nil exit error when any
// package failed.
func PrintReport(c *cli.Context, report *installer.Report) error {
	w := c.App.Writer
	failedColor := color.New(color.FgRed).SprintFunc()

	for _, f := range report.Failed {
		_, _ = fmt.Fprintf(w, "%s %s: %v\n", failedColor("Failed to install"), f.Key, f.Err)
	}
	_, _ = fmt.Fprintf(w, "Installation complete: %d installed, %d failed\n", len(report.Installed), len(report.Failed))

	if report.Err() != nil {
		return cli.Exit(fmt.Sprintf("Error: %d of %d packages failed to install", len(report.Failed), report.Total()), 1)
	}
	return nil
}
