package uninstall

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/gdpm-go/internal/cli/clienv"
)

// NewUninstallCommand defines the structure for the 'uninstall' CLI command.
func NewUninstallCommand() *cli.Command {
	return &cli.Command{
		Name:      "uninstall",
		Aliases:   []string{"remove", "rm"},
		Usage:     "Removes an installed package and its manifest entry",
		ArgsUsage: "<package_name>",
		Flags:     []cli.Flag{clienv.VerboseFlag},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.Exit("Error: Missing package name argument.", 1)
			}
			name := c.Args().First()

			inst, err := clienv.Installer(c)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}

			_, _ = fmt.Fprintf(c.App.Writer, "Uninstalling package: %s\n", name)
			if _, err := inst.Uninstall(name); err != nil {
				return cli.Exit(fmt.Sprintf("Error: failed to uninstall package: %v", err), 1)
			}

			successColor := color.New(color.FgGreen).SprintFunc()
			_, _ = fmt.Fprintf(c.App.Writer, "%s %s\n", successColor("Successfully uninstalled"), name)
			return nil
		},
	}
}
