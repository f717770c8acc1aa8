package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/gdpm-go/internal/cli/initcmd"
	"github.com/nightconcept/gdpm-go/internal/cli/install"
	"github.com/nightconcept/gdpm-go/internal/cli/list"
	"github.com/nightconcept/gdpm-go/internal/cli/self"
	"github.com/nightconcept/gdpm-go/internal/cli/uninstall"
)

// version is set at build time with -ldflags "-X main.version=vX.Y.Z".
var version = "v0.1.0"

func main() {
	app := &cli.App{
		Name:    "gdpm",
		Usage:   "A package manager for Godot addons and modules",
		Version: version,
		Action: func(c *cli.Context) error {
			_ = cli.ShowAppHelp(c)
			return nil
		},
		Commands: []*cli.Command{
			initcmd.NewInitCommand(),
			install.NewInstallCommand(),
			uninstall.NewUninstallCommand(),
			list.NewListCommand(),
			self.NewSelfCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
