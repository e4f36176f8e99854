package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/sonnes/unitrans/compact"
	"github.com/sonnes/unitrans/core"
	"github.com/sonnes/unitrans/pricing"
	"github.com/sonnes/unitrans/reader"
	"github.com/sonnes/unitrans/reader/claude"
	"github.com/sonnes/unitrans/reader/codex"
	"github.com/sonnes/unitrans/reader/opencode"
	"github.com/sonnes/unitrans/reader/pi"
	"github.com/sonnes/unitrans/redact"
)

// app holds the decoder registry and the loaded config used by commands.
type app struct {
	cfg      config
	claude   *claude.Reader
	decoders map[reader.Format]reader.Decoder
}

func newApp() *app {
	cl := &claude.Reader{}
	return &app{
		claude: cl,
		decoders: map[reader.Format]reader.Decoder{
			reader.FormatCodex:    &codex.Reader{},
			reader.FormatOpenCode: &opencode.Reader{},
			reader.FormatPi:       &pi.Reader{},
			reader.FormatClaude:   cl,
		},
	}
}

// setup loads the config file and applies the log level. It runs as the root
// command's Before hook.
func (a *app) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return ctx, err
	}
	a.cfg = cfg
	a.claude.Dir = cfg.ClaudeDir

	level := cmd.String("log")
	if !cmd.IsSet("log") && cfg.LogLevel != "" {
		level = cfg.LogLevel
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return ctx, err
	}
	log.SetLevel(lvl)
	return ctx, nil
}

// decoder returns the decoder for a --format value. "auto" detects the
// format of every input separately.
func (a *app) decoder(format string) (reader.Decoder, error) {
	if format == "" || format == "auto" {
		return reader.DecoderFunc(a.autoDecode), nil
	}
	d, ok := a.decoders[reader.Format(format)]
	if !ok {
		return nil, fmt.Errorf("unknown format %q", format)
	}
	return d, nil
}

func (a *app) autoDecode(data []byte, opts reader.Options) (*reader.Result, error) {
	f := reader.Detect(data)
	d, ok := a.decoders[f]
	if !ok {
		return nil, fmt.Errorf("detect format: unrecognized session log")
	}
	log.Debug("detected format", "format", f)
	return d.Decode(data, opts)
}

// options builds decoder options from flags and config.
func (a *app) options(cmd *cli.Command) (reader.Options, error) {
	table, err := a.pricingTable(cmd)
	if err != nil {
		return reader.Options{}, err
	}
	opts := reader.Options{
		Pricing:       table,
		ClientVersion: a.stringOr(cmd, "client-version", a.cfg.ClientVersion),
	}
	if cmd.IsSet("time") {
		opts.Timestamp = cmd.Timestamp("time").UTC()
	}
	git := &core.GitContext{
		Repository: cmd.String("repo"),
		Branch:     cmd.String("branch"),
		Commit:     cmd.String("commit"),
	}
	if *git != (core.GitContext{}) {
		opts.Git = git
	}
	return opts, nil
}

func (a *app) pricingTable(cmd *cli.Command) (pricing.Table, error) {
	path := a.stringOr(cmd, "pricing", a.cfg.PricingFile)
	if path == "" {
		return pricing.Table{}, nil
	}
	return pricing.LoadFile(path)
}

// transformers returns the post-decode passes selected by --redact and
// --compact, redaction first.
func (a *app) transformers(cmd *cli.Command) []core.Transformer {
	var out []core.Transformer
	doRedact := a.cfg.Redact
	if cmd.IsSet("redact") {
		doRedact = cmd.Bool("redact")
	}
	if doRedact {
		out = append(out, redact.New(redact.Config{Secrets: true}))
	}
	switch mode := a.stringOr(cmd, "compact", a.cfg.Compact); mode {
	case "", "off":
	case "no-thinking":
		out = append(out, compact.New(compact.Config{StripThinking: true}))
	default:
		out = append(out, compact.New(compact.Config{}))
	}
	return out
}

func (a *app) stringOr(cmd *cli.Command, name, fallback string) string {
	if cmd.IsSet(name) {
		return cmd.String(name)
	}
	return fallback
}

// readInput reads a file, or stdin for "-".
func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

var timeLayouts = []string{time.RFC3339, time.DateTime, time.DateOnly}

// errFile returns the command's error stream when it is a file, for terminal
// width detection.
func errFile(cmd *cli.Command) *os.File {
	f, _ := cmd.ErrWriter.(*os.File)
	return f
}
