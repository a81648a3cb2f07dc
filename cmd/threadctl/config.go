package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/Swind/go-osthread/config"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Write a configuration file with default values",

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "osthread.toml",
				Usage:   "Path of the file to write",
			},
		},

		Action: configAction,
	}
}

func configAction(c *cli.Context) error {
	path := c.String("output")
	if path == "" {
		return cli.Exit("output path must not be empty", 1)
	}

	if err := config.SaveConfig(path, config.DefaultConfig()); err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
	return nil
}
