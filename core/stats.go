package core

import "strings"

// ComputeStats walks the message list and derives message, tool and
// line-change counts. Line changes come from Write content, Edit old/new
// strings and Edit patches (apply_patch style hunks).
func ComputeStats(messages []Message) Stats {
	var s Stats
	files := make(map[string]bool)

	for _, m := range messages {
		s.MessageCount++
		switch m.Type {
		case MessageUser:
			s.UserMessageCount++
		case MessageToolCall:
			s.ToolCallCount++
			added, removed := lineChanges(m, files)
			s.LinesAdded += added
			s.LinesRemoved += removed
		}
	}
	s.FilesChanged = len(files)
	return s
}

func lineChanges(m Message, files map[string]bool) (added, removed int) {
	in, ok := m.Input.(map[string]any)
	if !ok || in == nil {
		return 0, 0
	}

	switch m.ToolName {
	case ToolWrite:
		if fp := StringField(in, "file_path"); fp != "" {
			files[fp] = true
		}
		added = countLines(StringField(in, "content"))
	case ToolEdit:
		if patch := StringField(in, "patch"); patch != "" {
			return patchChanges(patch, files)
		}
		if fp := StringField(in, "file_path"); fp != "" {
			files[fp] = true
		}
		removed = countLines(StringField(in, "old_string"))
		added = countLines(StringField(in, "new_string"))
	}
	return added, removed
}

// patchChanges counts +/- lines of an apply_patch envelope and records the
// files named by its "*** Add/Update/Delete File:" headers.
func patchChanges(patch string, files map[string]bool) (added, removed int) {
	for _, line := range strings.Split(patch, "\n") {
		switch {
		case strings.HasPrefix(line, "*** "):
			for _, h := range []string{"*** Add File: ", "*** Update File: ", "*** Delete File: "} {
				if name, ok := strings.CutPrefix(line, h); ok {
					files[strings.TrimSpace(name)] = true
				}
			}
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return added, removed
}

// StringField returns m[key] when it is a string, otherwise "".
func StringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// countLines returns the number of lines in s.
// An empty string has 0 lines. A string with no newline has 1 line.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n") + 1
	if strings.HasSuffix(s, "\n") {
		n--
	}
	return n
}
