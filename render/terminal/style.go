package terminal

import "github.com/charmbracelet/lipgloss"

var (
	// Message colors: blue for user, emerald for agent, slate for summaries.
	colorUser    = lipgloss.AdaptiveColor{Light: "#2563eb", Dark: "#60a5fa"}
	colorAgent   = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34d399"}
	colorSummary = lipgloss.AdaptiveColor{Light: "#64748b", Dark: "#94a3b8"}

	colorBright  = lipgloss.AdaptiveColor{Light: "#0f172a", Dark: "#f1f5f9"}
	colorDim     = lipgloss.AdaptiveColor{Light: "#94a3b8", Dark: "#64748b"}
	colorTool    = lipgloss.AdaptiveColor{Light: "#7c3aed", Dark: "#a78bfa"}
	colorCommand = lipgloss.AdaptiveColor{Light: "#b45309", Dark: "#fbbf24"}
	colorAdded   = lipgloss.AdaptiveColor{Light: "#16a34a", Dark: "#4ade80"}
	colorRemoved = lipgloss.AdaptiveColor{Light: "#dc2626", Dark: "#f87171"}
)

var (
	styleUserBadge    = lipgloss.NewStyle().Foreground(colorUser).Bold(true)
	styleAgentBadge   = lipgloss.NewStyle().Foreground(colorAgent).Bold(true)
	styleSummaryBadge = lipgloss.NewStyle().Foreground(colorSummary).Bold(true)
	styleToolBadge    = lipgloss.NewStyle().Foreground(colorTool).Bold(true)
	styleCommandBadge = lipgloss.NewStyle().Foreground(colorCommand).Bold(true)

	styleTitle = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleMeta  = lipgloss.NewStyle().Foreground(colorDim)

	styleStat      = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleStatLabel = lipgloss.NewStyle().Foreground(colorDim)

	styleDetail   = lipgloss.NewStyle().Foreground(colorDim)
	styleThinking = lipgloss.NewStyle().Foreground(colorDim).Italic(true)
	styleError    = lipgloss.NewStyle().Foreground(colorRemoved)

	styleAdded   = lipgloss.NewStyle().Foreground(colorAdded)
	styleRemoved = lipgloss.NewStyle().Foreground(colorRemoved)
)
