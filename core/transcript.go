// Package core defines the unified transcript, a source-agnostic representation
// of one coding-agent session that every reader produces and every downstream
// pass (redaction, compaction, storage) consumes.
package core

import "time"

// Transcript is the top-level container for a single converted session.
type Transcript struct {
	ID            string       `json:"id"`
	Source        Source       `json:"source"`
	Timestamp     time.Time    `json:"timestamp"`
	Preview       string       `json:"preview"`
	Summary       string       `json:"summary,omitempty"`
	Model         string       `json:"model,omitempty"`          // primary model, provider-prefixed
	ClientVersion string       `json:"clientVersion,omitempty"`  // label of the converting client
	SourceVersion string       `json:"sourceVersion,omitempty"`  // version of the agent that wrote the log
	Usage         *Usage       `json:"usage,omitempty"`          // aggregate session usage
	ModelUsage    []ModelUsage `json:"modelUsage,omitempty"`     // usage split per model, first-seen order
	CostUSD       float64      `json:"costUsd"`
	Git           *GitContext  `json:"git,omitempty"`
	Cwd           string       `json:"cwd,omitempty"`
	Messages      []Message    `json:"messages"`
	Stats         Stats        `json:"stats"`
}

// Source identifies the agent tool a transcript was decoded from.
type Source string

const (
	SourceCodex    Source = "codex"
	SourceOpenCode Source = "opencode"
	SourcePi       Source = "pi"
	SourceClaude   Source = "claude"
)

// GitContext is the repository state a session ran against.
type GitContext struct {
	Repository string `json:"repository,omitempty"`
	Branch     string `json:"branch,omitempty"`
	Commit     string `json:"commit,omitempty"`
}

// Merge fills empty fields of g from other and returns the result. A nil
// receiver or argument is treated as empty. Returns nil when both are empty.
func (g *GitContext) Merge(other *GitContext) *GitContext {
	var out GitContext
	if g != nil {
		out = *g
	}
	if other != nil {
		if out.Repository == "" {
			out.Repository = other.Repository
		}
		if out.Branch == "" {
			out.Branch = other.Branch
		}
		if out.Commit == "" {
			out.Commit = other.Commit
		}
	}
	if out == (GitContext{}) {
		return nil
	}
	return &out
}

// ModelUsage is the share of usage attributed to one model.
type ModelUsage struct {
	Model   string  `json:"model"`
	Usage   Usage   `json:"usage"`
	CostUSD float64 `json:"costUsd"`
}

// Stats holds counts derived from the final message list.
type Stats struct {
	MessageCount     int `json:"messageCount"`
	ToolCallCount    int `json:"toolCallCount"`
	UserMessageCount int `json:"userMessageCount"`
	LinesAdded       int `json:"linesAdded"`
	LinesRemoved     int `json:"linesRemoved"`
	FilesChanged     int `json:"filesChanged"`
}

// Message is one entry of the unified transcript. The Type field determines
// which other fields are populated.
type Message struct {
	Type      MessageType `json:"type"`
	ID        string      `json:"id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`

	// user, agent, thinking, compaction-summary
	Text   string    `json:"text,omitempty"`
	Model  string    `json:"model,omitempty"`  // agent
	Images []BlobRef `json:"images,omitempty"` // user

	// tool-call
	CallID   string `json:"callId,omitempty"`
	ToolName string `json:"toolName,omitempty"`
	Input    any    `json:"input,omitempty"`
	Output   any    `json:"output,omitempty"` // also set for command
	Error    string `json:"error,omitempty"`
	IsError  bool   `json:"isError,omitempty"`

	// command
	Command  string `json:"command,omitempty"`
	ExitCode *int   `json:"exitCode,omitempty"`

	// image
	Image *BlobRef `json:"image,omitempty"`
}

// MessageType enumerates the variants of Message.
type MessageType string

const (
	MessageUser       MessageType = "user"
	MessageAgent      MessageType = "agent"
	MessageThinking   MessageType = "thinking"
	MessageToolCall   MessageType = "tool-call"
	MessageCommand    MessageType = "command"
	MessageCompaction MessageType = "compaction-summary"
	MessageImage      MessageType = "image"
)

// Canonical tool names shared by all readers.
const (
	ToolBash      = "Bash"
	ToolRead      = "Read"
	ToolWrite     = "Write"
	ToolEdit      = "Edit"
	ToolGrep      = "Grep"
	ToolGlob      = "Glob"
	ToolLS        = "LS"
	ToolWebFetch  = "WebFetch"
	ToolWebSearch = "WebSearch"
	ToolTodoWrite = "TodoWrite"
	ToolTask      = "Task"
)

// Blob is a binary attachment extracted from message content.
type Blob struct {
	Data      []byte `json:"data"`
	MediaType string `json:"mediaType"`
}

// BlobMap holds extracted blobs keyed by the sha256 hex digest of their bytes.
type BlobMap map[string]Blob

// BlobRef points at an entry of a BlobMap.
type BlobRef struct {
	SHA256    string `json:"sha256"`
	MediaType string `json:"mediaType"`
}
