package main

import (
	"github.com/urfave/cli/v2"

	"salesagent/pkg/config"
	"salesagent/pkg/logx"
	"salesagent/pkg/version"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	app := &cli.App{
		Name:    "salesagent",
		Usage:   "AutoStream sales-qualification agent",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: ".", Usage: "Project directory holding .salesagent/"},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Config file (default <dir>/" + config.DefaultConfigPath + ")"},
			&cli.BoolFlag{Name: "debug", EnvVars: []string{"DEBUG"}, Usage: "Enable debug logging"},
			&cli.StringSliceFlag{Name: "debug-domains", Usage: "Limit debug output to these domains (sales, leads, knowledge, session)"},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				logx.SetDebugConfig(true, false, "")
			}
			if domains := c.StringSlice("debug-domains"); len(domains) > 0 {
				logx.SetDebugDomains(domains)
			}
			return nil
		},
		Commands: []*cli.Command{
			chatCmd(),
			serveCmd(),
			leadsCmd(),
			statsCmd(),
			secretsCmd(),
		},
	}
	// Errors are printed by main
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}
