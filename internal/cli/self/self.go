package self

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/gdpm-go/internal/cli/clienv"
)

// DefaultRepository is the GitHub repository gdpm releases are published to.
const DefaultRepository = "nightconcept/gdpm-go"

// NewSelfCommand creates a new command for self-management.
func NewSelfCommand() *cli.Command {
	return &cli.Command{
		Name:  "self",
		Usage: "Manage the gdpm CLI application itself",
		Subcommands: []*cli.Command{
			{
				Name:  "update",
				Usage: "Update gdpm to the latest version",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Automatically confirm the update",
					},
					&cli.BoolFlag{
						Name:  "check",
						Usage: "Check for available updates without installing",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Specify a custom GitHub update source as 'owner/repo' (e.g., 'nightconcept/gdpm-go')",
					},
					clienv.VerboseFlag,
				},
				Action: updateAction,
			},
		},
	}
}

// ParseCurrentVersion parses the running version, with or without a leading "v".
func ParseCurrentVersion(v string) (*semver.Version, error) {
	parsed, err := semver.NewVersion(strings.TrimPrefix(v, "v"))
	if err != nil {
		return nil, fmt.Errorf("error parsing current version '%s': %w. Ensure version is like vX.Y.Z or X.Y.Z", v, err)
	}
	return parsed, nil
}

// RepositorySlug validates a --source value, falling back to DefaultRepository.
func RepositorySlug(source string) (string, error) {
	if source == "" {
		return DefaultRepository, nil
	}
	parts := strings.Split(source, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("invalid --source format. Expected 'owner/repo', got: %s", source)
	}
	return source, nil
}

// confirm asks a yes/no question on in and reports whether the answer was "y".
func confirm(w io.Writer, in io.Reader, question string) bool {
	_, _ = fmt.Fprintf(w, "%s (y/N): ", question)
	input, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(strings.ToLower(input)) == "y"
}

func updateAction(c *cli.Context) error {
	w := c.App.Writer
	logger := clienv.Logger(c, c.Bool(clienv.VerboseFlag.Name))
	currentVersionStr := c.App.Version
	logger.Debug("gdpm current version", "version", currentVersionStr)

	currentSemVer, err := ParseCurrentVersion(currentVersionStr)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	repoSlug, err := RepositorySlug(c.String("source"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	logger.Debug("using GitHub source", "repository", repoSlug)

	ghSource, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error creating GitHub source: %v", err), 1)
	}
	updater, err := selfupdate.NewUpdater(selfupdate.Config{Source: ghSource})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to initialize updater: %v", err), 1)
	}

	logger.Debug("checking for latest version")
	latestRelease, found, err := updater.DetectLatest(c.Context, selfupdate.ParseSlug(repoSlug))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error detecting latest version: %v", err), 1)
	}
	if !found {
		_, _ = fmt.Fprintf(w, "Current version %s is already the latest.\n", currentVersionStr)
		return nil
	}
	logger.Debug("latest version detected", "version", latestRelease.Version(), "url", latestRelease.URL)

	if !latestRelease.GreaterThan(currentSemVer.String()) {
		_, _ = fmt.Fprintf(w, "Current version %s is already the latest or newer.\n", currentVersionStr)
		return nil
	}

	_, _ = fmt.Fprintf(w, "New version available: %s (current: %s)\n", latestRelease.Version(), currentVersionStr)
	if c.Bool("check") {
		return nil
	}

	if !c.Bool("yes") && !confirm(w, os.Stdin, "Do you want to update?") {
		_, _ = fmt.Fprintln(w, "Update cancelled.")
		return nil
	}

	_, _ = fmt.Fprintf(w, "Updating to %s...\n", latestRelease.Version())
	execPath, err := os.Executable()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Could not get executable path: %v", err), 1)
	}
	logger.Debug("current executable path", "path", execPath)

	if err := updater.UpdateTo(c.Context, latestRelease, execPath); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to update: %v", err), 1)
	}

	_, _ = fmt.Fprintf(w, "Successfully updated to version %s.\n", latestRelease.Version())
	return nil
}
