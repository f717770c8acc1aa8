package install

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/gdpm-go/internal/cli/clienv"
	"github.com/nightconcept/gdpm-go/internal/core/installer"
)

// NewInstallCommand creates a new cli.Command for the "install" command.
func NewInstallCommand() *cli.Command {
	return &cli.Command{
		Name:      "install",
		Aliases:   []string{"i"},
		Usage:     "Installs a package, or every dependency in project/godot-package.json",
		ArgsUsage: "[package_name]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "key",
				Aliases: []string{"k"},
				Usage:   "Record the package under this name in the manifest",
			},
			&cli.BoolFlag{
				Name:    "refresh",
				Aliases: []string{"r"},
				Usage:   "After installing, reinstall every other declared dependency",
			},
			clienv.VerboseFlag,
		},
		Action: func(c *cli.Context) error {
			if c.NArg() > 1 {
				return cli.Exit("Error: install takes at most one package name.", 1)
			}
			inst, err := clienv.Installer(c)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}
			w := c.App.Writer

			name := c.Args().First()
			if name == "" {
				if c.IsSet("key") || c.Bool("refresh") {
					return cli.Exit("Error: --key and --refresh require a package name.", 1)
				}
				_, _ = fmt.Fprintln(w, "Installing all dependencies...")
				report, err := inst.InstallAll()
				if err != nil {
					return abortBatch(c, report, err)
				}
				if report.Total() == 0 {
					_, _ = fmt.Fprintln(w, "No dependencies found in manifest.")
					return nil
				}
				return clienv.PrintReport(c, report)
			}

			_, _ = fmt.Fprintf(w, "Installing package: %s\n", name)
			res, err := inst.Install(name, c.String("key"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: failed to install package: %v", err), 1)
			}

			successColor := color.New(color.FgGreen).SprintFunc()
			_, _ = fmt.Fprintf(w, "%s %s@%s (%s)\n", successColor("Successfully installed"), res.Package.Name, res.Package.Version, res.Kind)
			if res.Key != res.Package.Name {
				_, _ = fmt.Fprintf(w, "Recorded as %q in the manifest.\n", res.Key)
			}

			if !c.Bool("refresh") {
				return nil
			}
			_, _ = fmt.Fprintln(w, "Reinstalling other dependencies...")
			report, err := inst.InstallOthers(res.Key)
			if err != nil {
				return abortBatch(c, report, err)
			}
			return clienv.PrintReport(c, report)
		},
	}
}

// abortBatch reports whatever a stopped batch managed before failing on err.
func abortBatch(c *cli.Context, report *installer.Report, err error) error {
	if report != nil && report.Total() > 0 {
		_ = clienv.PrintReport(c, report)
	}
	return cli.Exit(fmt.Sprintf("Error: installation aborted: %v", err), 1)
}
