package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := newRoot(newApp()).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newRoot(a *app) *cli.Command {
	return &cli.Command{
		Name:  "ut",
		Usage: "Convert coding-agent session logs into unified transcripts",
		Description: `Decodes Codex rollouts, OpenCode exports, pi session trees and Claude Code
logs into one transcript format, with binary attachments split into a
content-addressed blob map.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log",
				Usage: "Log level: debug, info, warn, error",
				Value: "error",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to config.toml (default $XDG_CONFIG_HOME/unitrans/config.toml)",
			},
		},
		Before: a.setup,
		Commands: []*cli.Command{
			convertCmd(a),
			showCmd(a),
			redactCmd(),
			priceCmd(a),
		},
	}
}
