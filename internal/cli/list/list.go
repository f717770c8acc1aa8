package list

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/gdpm-go/internal/cli/clienv"
	"github.com/nightconcept/gdpm-go/internal/core/manifest"
)

// NewListCommand defines the 'list' command.
func NewListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "Displays project dependencies and their install status.",
		Flags:   []cli.Flag{clienv.VerboseFlag},
		Action: func(c *cli.Context) error {
			inst, err := clienv.Installer(c)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}

			m, statuses, err := inst.Status()
			if err != nil {
				if errors.Is(err, manifest.ErrNotFound) {
					return cli.Exit(fmt.Sprintf("Error: %s/%s not found. Run `gdpm init` to create one.", manifest.Dir, manifest.FileName), 1)
				}
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}

			projectNameColor := color.New(color.FgMagenta, color.Bold, color.Underline).SprintFunc()
			projectVersionColor := color.New(color.FgMagenta).SprintFunc()
			projectPathColor := color.New(color.FgHiBlack, color.Bold, color.Underline).SprintFunc()
			dependenciesHeaderColor := color.New(color.FgCyan, color.Bold).SprintFunc()
			depNameColor := color.New(color.FgWhite).SprintFunc()
			depHashColor := color.New(color.FgYellow).SprintFunc()
			depPathColor := color.New(color.FgHiBlack).SprintFunc()
			missingColor := color.New(color.FgRed).SprintFunc()
			updateColor := color.New(color.FgGreen).SprintFunc()

			w := c.App.Writer
			_, _ = fmt.Fprintf(w, "%s@%s %s\n\n", projectNameColor(m.Name), projectVersionColor(m.Version), projectPathColor(inst.Root))
			_, _ = fmt.Fprintln(w, dependenciesHeaderColor("dependencies:"))

			if len(statuses) == 0 {
				_, _ = fmt.Fprintln(w, "No dependencies found in manifest.")
				return nil
			}

			for _, st := range statuses {
				line := fmt.Sprintf("%s@%s", depNameColor(st.Key), st.Dependency.Version)
				if st.Installed {
					rel, err := filepath.Rel(inst.Root, st.Path)
					if err != nil {
						rel = st.Path
					}
					digest := st.Digest
					if digest == "" {
						digest = "no digest"
					}
					line += fmt.Sprintf(" %s %s %s", st.Kind, depHashColor(digest), depPathColor(filepath.ToSlash(rel)))
				} else {
					line += " " + missingColor("missing")
				}
				if st.UpdateAvailable() {
					line += " " + updateColor(fmt.Sprintf("(update available: %s)", st.SourceVersion))
				}
				_, _ = fmt.Fprintln(w, line)
			}
			return nil
		},
	}
}
