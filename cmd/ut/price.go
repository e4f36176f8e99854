package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/sonnes/unitrans/core"
	"github.com/sonnes/unitrans/pricing"
)

func priceCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "price",
		Usage: "Compute the cost of token usage for a model",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "model",
				Aliases:  []string{"m"},
				Usage:    "Model name, bare or provider-prefixed",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "pricing",
				Usage: "Pricing table (YAML)",
			},
			&cli.Int64Flag{Name: "input", Usage: "Input tokens, cached included"},
			&cli.Int64Flag{Name: "cached", Usage: "Cached input tokens"},
			&cli.Int64Flag{Name: "cache-write", Usage: "Cache write tokens"},
			&cli.Int64Flag{Name: "output", Usage: "Output tokens"},
			&cli.Int64Flag{Name: "reasoning", Usage: "Reasoning output tokens"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			table, err := a.pricingTable(cmd)
			if err != nil {
				return err
			}
			if table.Len() == 0 {
				return errors.New("no pricing table: pass --pricing or set pricing_file")
			}

			u := core.Usage{
				InputTokens:           cmd.Int64("input"),
				CachedInputTokens:     cmd.Int64("cached"),
				CacheWriteTokens:      cmd.Int64("cache-write"),
				OutputTokens:          cmd.Int64("output"),
				ReasoningOutputTokens: cmd.Int64("reasoning"),
			}
			u.TotalTokens = u.InputTokens + u.CacheWriteTokens + u.OutputTokens

			cost, err := pricing.Cost(table, cmd.String("model"), u)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.Root().Writer, "$%.6f\n", cost)
			return nil
		},
	}
}
