// Command threadctl exercises an osthread runtime from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "threadctl",
		Usage: "Start, prioritize and join OS threads",
		Commands: []*cli.Command{
			runCommand(),
			configCommand(),
		},
	}
}
