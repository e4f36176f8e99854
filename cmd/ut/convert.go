package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/sonnes/unitrans/core"
	"github.com/sonnes/unitrans/manifest"
	"github.com/sonnes/unitrans/reader"
	jsonrender "github.com/sonnes/unitrans/render/json"
	"github.com/sonnes/unitrans/render/terminal"
)

func convertCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert session logs to unified transcripts",
		ArgsUsage: "FILE... (- for stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "Input format: codex, opencode, pi, claude, auto",
				Value: "auto",
			},
			&cli.StringFlag{
				Name:  "session",
				Usage: "Claude Code session id to locate under ~/.claude/projects",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output directory; transcripts go to stdout when unset",
			},
			&cli.StringFlag{
				Name:  "pricing",
				Usage: "Pricing table (YAML)",
			},
			&cli.BoolFlag{
				Name:  "redact",
				Usage: "Mask sensitive file content and secrets",
			},
			&cli.StringFlag{
				Name:  "compact",
				Usage: "Summarize verbose tool content: on, no-thinking, off",
			},
			&cli.StringFlag{
				Name:  "client-version",
				Usage: "Label recorded as the converting client",
			},
			&cli.StringFlag{Name: "repo", Usage: "Git repository URL"},
			&cli.StringFlag{Name: "branch", Usage: "Git branch"},
			&cli.StringFlag{Name: "commit", Usage: "Git commit"},
			&cli.TimestampFlag{
				Name:   "time",
				Usage:  "Override the transcript timestamp",
				Config: cli.TimestampConfig{Layouts: timeLayouts},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			format := cmd.String("format")
			if id := cmd.String("session"); id != "" {
				path, err := a.claude.Locate(id)
				if err != nil {
					return err
				}
				files = append(files, path)
				format = string(reader.FormatClaude)
			}
			if len(files) == 0 {
				return errors.New("no input files")
			}

			d, err := a.decoder(format)
			if err != nil {
				return err
			}
			opts, err := a.options(cmd)
			if err != nil {
				return err
			}

			var inputs []reader.Input
			for _, f := range files {
				data, err := readInput(f)
				if err != nil {
					log.Warn("skipping input", "name", f, "err", err)
					continue
				}
				inputs = append(inputs, reader.Input{Name: f, Data: data})
			}

			converted := reader.Batch(d, inputs, opts)
			if len(converted) == 0 {
				return errors.New("no transcripts converted")
			}
			return a.emit(cmd, converted)
		},
	}
}

// emit applies the post-decode passes and writes each transcript to the
// output directory or stdout, printing a summary line per file to stderr.
func (a *app) emit(cmd *cli.Command, converted []reader.Converted) error {
	outDir := a.stringOr(cmd, "out", a.cfg.OutDir)
	passes := a.transformers(cmd)
	root := cmd.Root()
	term := terminal.New()
	stdout := &jsonrender.Renderer{Indent: true}

	var store *manifest.Store
	if outDir != "" {
		store = manifest.NewStore(outDir)
	}

	for _, c := range converted {
		t, err := core.Chain(c.Result.Transcript, passes...)
		if err != nil {
			return fmt.Errorf("transform %s: %w", c.Name, err)
		}

		if store != nil {
			if _, err := store.Save(t, c.Result.Blobs); err != nil {
				return err
			}
		} else if err := stdout.Render(root.Writer, t); err != nil {
			return err
		}

		fmt.Fprintln(root.ErrWriter, term.Summary(errFile(root), c.Name, t, len(c.Result.Blobs)))
	}
	return nil
}
