// Package terminal renders transcripts as ANSI-colored one-line-per-message
// listings, plus the per-file summary lines printed by the CLI.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/term"

	"github.com/sonnes/unitrans/core"
)

const defaultWidth = 100

// Renderer pretty-prints a transcript to the terminal.
type Renderer struct {
	// Width overrides terminal width detection. Zero means auto-detect.
	Width int
}

// New creates a terminal Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render writes the session header followed by one line per message.
func (r *Renderer) Render(w io.Writer, t *core.Transcript) error {
	width := r.termWidth(os.Stdout)

	writeHeader(w, t)
	fmt.Fprintln(w)

	var prev time.Time
	for _, m := range t.Messages {
		var gap string
		if !prev.IsZero() && !m.Timestamp.IsZero() {
			gap = formatDuration(m.Timestamp.Sub(prev))
		}
		if !m.Timestamp.IsZero() {
			prev = m.Timestamp
		}
		writeMessage(w, m, gap, width)
	}
	return nil
}

// Summary returns a single styled line describing a converted file, cut to
// the width of f when f is a terminal.
func (r *Renderer) Summary(f *os.File, name string, t *core.Transcript, blobs int) string {
	parts := []string{
		styleTitle.Render(name),
		styleMeta.Render(string(t.Source)),
		t.ID,
		fmt.Sprintf("%d msgs", t.Stats.MessageCount),
		fmt.Sprintf("%d tools", t.Stats.ToolCallCount),
	}
	if t.Stats.LinesAdded > 0 || t.Stats.LinesRemoved > 0 {
		parts = append(parts, styleAdded.Render(fmt.Sprintf("+%d", t.Stats.LinesAdded))+" "+
			styleRemoved.Render(fmt.Sprintf("-%d", t.Stats.LinesRemoved)))
	}
	if blobs > 0 {
		parts = append(parts, fmt.Sprintf("%d blobs", blobs))
	}
	if t.CostUSD > 0 {
		parts = append(parts, styleStat.Render(formatCost(t.CostUSD)))
	}
	if t.Preview != "" {
		parts = append(parts, styleDetail.Render(firstLine(t.Preview)))
	}
	return ansi.Truncate(strings.Join(parts, "  "), r.termWidth(f), "...")
}

func (r *Renderer) termWidth(f *os.File) int {
	if r.Width > 0 {
		return r.Width
	}
	if f != nil && term.IsTerminal(f.Fd()) {
		if w, _, err := term.GetSize(f.Fd()); err == nil && w > 0 {
			return w
		}
	}
	return defaultWidth
}

// writeHeader renders the session metadata block.
func writeHeader(w io.Writer, t *core.Transcript) {
	title := t.Summary
	if title == "" {
		title = "Session " + t.ID
	}
	row1 := styleTitle.Render(title)
	if t.Stats.LinesAdded > 0 || t.Stats.LinesRemoved > 0 {
		row1 += "  " + styleAdded.Render("+"+formatNumber(int64(t.Stats.LinesAdded))) +
			" " + styleRemoved.Render("-"+formatNumber(int64(t.Stats.LinesRemoved)))
	}
	fmt.Fprintln(w, row1)

	parts := []string{"@" + string(t.Source)}
	if !t.Timestamp.IsZero() {
		parts = append(parts, formatTime(t.Timestamp))
	}
	if t.Model != "" {
		parts = append(parts, t.Model)
	}
	if t.Cwd != "" {
		dir := t.Cwd
		if t.Git != nil && t.Git.Branch != "" {
			dir += "(" + t.Git.Branch + ")"
		}
		parts = append(parts, dir)
	}
	fmt.Fprintln(w, styleMeta.Render(strings.Join(parts, "  ")))

	if t.Usage != nil {
		fmt.Fprintln(w)
		writeUsage(w, t.Usage, t.CostUSD)
	}
}

// writeUsage renders token counters in two rows: values then labels.
func writeUsage(w io.Writer, u *core.Usage, cost float64) {
	type stat struct {
		value string
		label string
	}
	stats := []stat{
		{formatNumber(u.InputTokens), "INPUT"},
		{formatNumber(u.OutputTokens), "OUTPUT"},
	}
	if u.CachedInputTokens > 0 {
		stats = append(stats, stat{formatNumber(u.CachedInputTokens), "CACHE READ"})
	}
	if u.CacheWriteTokens > 0 {
		stats = append(stats, stat{formatNumber(u.CacheWriteTokens), "CACHE WRITE"})
	}
	if u.ReasoningOutputTokens > 0 {
		stats = append(stats, stat{formatNumber(u.ReasoningOutputTokens), "REASONING"})
	}
	if cost > 0 {
		stats = append(stats, stat{formatCost(cost), "COST"})
	}

	var values, labels []string
	for _, s := range stats {
		colWidth := max(len(s.value), len(s.label))
		values = append(values, fmt.Sprintf("%*s", colWidth, s.value))
		labels = append(labels, fmt.Sprintf("%-*s", colWidth, s.label))
	}

	fmt.Fprintln(w, "  "+styleStat.Render(strings.Join(values, "    ")))
	fmt.Fprintln(w, "  "+styleStatLabel.Render(strings.Join(labels, "    ")))
}

func writeMessage(w io.Writer, m core.Message, gap string, width int) {
	badge := messageBadge(m)
	prefix := " " + badge + " "
	if gap != "" {
		prefix += styleMeta.Render(gap) + " "
	}
	avail := max(width-lipgloss.Width(prefix), 20)
	fmt.Fprintln(w, prefix+messageDetail(m, avail))
}

func messageBadge(m core.Message) string {
	label := fmt.Sprintf("%-8s", strings.ToUpper(badgeLabel(m.Type)))
	switch m.Type {
	case core.MessageUser:
		return styleUserBadge.Render(label)
	case core.MessageAgent:
		return styleAgentBadge.Render(label)
	case core.MessageToolCall:
		return styleToolBadge.Render(label)
	case core.MessageCommand:
		return styleCommandBadge.Render(label)
	case core.MessageCompaction:
		return styleSummaryBadge.Render(label)
	default:
		return styleMeta.Render(label)
	}
}

func badgeLabel(t core.MessageType) string {
	switch t {
	case core.MessageToolCall:
		return "tool"
	case core.MessageCompaction:
		return "summary"
	default:
		return string(t)
	}
}

func messageDetail(m core.Message, width int) string {
	switch m.Type {
	case core.MessageThinking:
		return styleThinking.Render(truncate(m.Text, width))
	case core.MessageToolCall:
		line := truncate(summarizeTool(m), width)
		if m.IsError {
			return styleError.Render(line)
		}
		return styleDetail.Render(line)
	case core.MessageCommand:
		line := "$ " + m.Command
		if m.ExitCode != nil && *m.ExitCode != 0 {
			line += fmt.Sprintf("  (exit %d)", *m.ExitCode)
		}
		return truncate(line, width)
	case core.MessageImage:
		if m.Image == nil {
			return ""
		}
		return styleDetail.Render(m.Image.MediaType + " " + shortSHA(m.Image.SHA256))
	default:
		text := m.Text
		if n := len(m.Images); n > 0 {
			text = fmt.Sprintf("%s [%d image(s)]", text, n)
		}
		return truncate(text, width)
	}
}

// truncate reduces s to its first line and cuts it to maxWidth cells.
func truncate(s string, maxWidth int) string {
	return ansi.Truncate(firstLine(s), max(maxWidth, 4), "...")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}

func formatTime(t time.Time) string {
	return t.Format("Jan 2, 2006 3:04 PM")
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return formatNumber(n/1000) + "," + fmt.Sprintf("%03d", n%1000)
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}
