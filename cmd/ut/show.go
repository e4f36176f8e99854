package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/sonnes/unitrans/core"
	"github.com/sonnes/unitrans/reader"
	"github.com/sonnes/unitrans/render/terminal"
)

func showCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print a transcript or raw session log to the terminal",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "pricing",
				Usage: "Pricing table (YAML) used when decoding a raw log",
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: "Output width; detected from the terminal when unset",
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

			t, err := a.loadTranscript(cmd, data)
			if err != nil {
				return err
			}
			r := &terminal.Renderer{Width: cmd.Int("width")}
			return r.Render(cmd.Root().Writer, t)
		},
	}
}

// loadTranscript accepts either a unified transcript or a raw session log in
// any supported format.
func (a *app) loadTranscript(cmd *cli.Command, data []byte) (*core.Transcript, error) {
	if reader.Detect(data) == reader.FormatUnknown {
		var t core.Transcript
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("parse transcript: %w", err)
		}
		return &t, nil
	}

	opts, err := a.options(cmd)
	if err != nil {
		return nil, err
	}
	res, err := a.autoDecode(data, opts)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errors.New("session has no messages")
	}
	return res.Transcript, nil
}
