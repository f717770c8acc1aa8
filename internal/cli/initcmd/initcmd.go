package initcmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/gdpm-go/internal/core/config"
	"github.com/nightconcept/gdpm-go/internal/core/manifest"
)

// NewInitCommand returns the definition for the "init" command.
func NewInitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a gdpm manifest (creates project/godot-package.json)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "addon",
				Usage: "Declare this project as an addon package",
			},
			&cli.BoolFlag{
				Name:  "module",
				Usage: "Declare this project as a module package",
			},
		},
		Action: func(c *cli.Context) error {
			w := c.App.Writer
			if c.Bool("addon") && c.Bool("module") {
				return cli.Exit("Error: --addon and --module are mutually exclusive.", 1)
			}

			settings, err := config.Load()
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}
			root, err := os.Getwd()
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: failed to get current directory: %v", err), 1)
			}

			opts := manifest.InitOptions{Schema: settings.Schema}
			switch {
			case c.Bool("addon"):
				opts.Type = manifest.TypeAddon
			case c.Bool("module"):
				opts.Type = manifest.TypeModule
			}

			_, _ = fmt.Fprintln(w, "Initializing gdpm manifest...")
			store := manifest.NewStore(root)
			if store.Exists() {
				warnColor := color.New(color.FgYellow).SprintFunc()
				_, _ = fmt.Fprintf(w, "%s %s/%s already exists\n", warnColor("Warning:"), manifest.Dir, manifest.FileName)
				return nil
			}

			m, err := store.Init(opts)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: failed to initialize manifest: %v", err), 1)
			}

			successColor := color.New(color.FgGreen).SprintFunc()
			_, _ = fmt.Fprintf(w, "%s %s/%s for project: %s\n", successColor("Created"), manifest.Dir, manifest.FileName, m.Name)
			return nil
		},
	}
}
