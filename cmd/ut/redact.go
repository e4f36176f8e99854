package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/sonnes/unitrans/core"
	"github.com/sonnes/unitrans/redact"
	jsonrender "github.com/sonnes/unitrans/render/json"
)

func redactCmd() *cli.Command {
	return &cli.Command{
		Name:      "redact",
		Usage:     "Mask sensitive content in a unified transcript",
		ArgsUsage: "FILE (- for stdin)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "secrets",
				Usage: "Also mask API keys, tokens and connection strings",
			},
			&cli.BoolFlag{
				Name:  "pii",
				Usage: "Also mask emails, IPs and phone numbers",
			},
			&cli.StringSliceFlag{
				Name:  "allow",
				Usage: "Regex of values never to mask (repeatable)",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write to this file instead of stdout",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New("expected exactly one FILE")
			}
			data, err := readInput(cmd.Args().First())
			if err != nil {
				return err
			}
			var t core.Transcript
			if err := json.Unmarshal(data, &t); err != nil {
				return fmt.Errorf("parse transcript: %w", err)
			}

			r := redact.New(redact.Config{
				Secrets:   cmd.Bool("secrets"),
				PII:       cmd.Bool("pii"),
				Allowlist: cmd.StringSlice("allow"),
			})
			out, err := r.Transform(&t)
			if err != nil {
				return fmt.Errorf("redact: %w", err)
			}

			w := cmd.Root().Writer
			if path := cmd.String("out"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("create %s: %w", path, err)
				}
				defer f.Close()
				w = f
			}
			return (&jsonrender.Renderer{Indent: true}).Render(w, out)
		},
	}
}
