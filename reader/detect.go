package reader

import (
	"bytes"

	"github.com/tidwall/gjson"
)

// Format names a supported session log format.
type Format string

const (
	FormatUnknown  Format = ""
	FormatCodex    Format = "codex"
	FormatOpenCode Format = "opencode"
	FormatPi       Format = "pi"
	FormatClaude   Format = "claude"
)

// Formats lists the formats Detect can return, in a stable order.
var Formats = []Format{FormatCodex, FormatOpenCode, FormatPi, FormatClaude}

var codexRecordTypes = map[string]bool{
	"session_meta":  true,
	"turn_context":  true,
	"response_item": true,
	"event_msg":     true,
	"compacted":     true,
}

// Detect sniffs the format of a raw payload from its first record.
func Detect(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormatUnknown
	}

	switch trimmed[0] {
	case '[':
		if first := gjson.GetBytes(trimmed, "0"); first.IsObject() {
			return detectRecord(first)
		}
		return FormatUnknown
	case '{':
		if gjson.ValidBytes(trimmed) {
			doc := gjson.ParseBytes(trimmed)
			switch {
			case doc.Get("info").IsObject() && doc.Get("messages").IsArray():
				return FormatOpenCode
			case doc.Get("header").IsObject() && doc.Get("entries").IsArray():
				return FormatPi
			}
			return detectRecord(doc)
		}
	}

	line, _, _ := bytes.Cut(trimmed, []byte("\n"))
	if !gjson.ValidBytes(line) {
		return FormatUnknown
	}
	return detectRecord(gjson.ParseBytes(line))
}

// detectRecord classifies a single event record.
func detectRecord(r gjson.Result) Format {
	typ := r.Get("type").String()
	switch {
	case codexRecordTypes[typ] && r.Get("payload").Exists():
		return FormatCodex
	case typ == "session" && r.Get("id").Exists():
		return FormatPi
	case r.Get("uuid").Exists() || r.Get("sessionId").Exists() || typ == "summary":
		return FormatClaude
	}
	return FormatUnknown
}
