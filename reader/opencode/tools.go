package opencode

import "github.com/sonnes/unitrans/core"

var toolNames = map[string]string{
	"bash":      core.ToolBash,
	"read":      core.ToolRead,
	"write":     core.ToolWrite,
	"edit":      core.ToolEdit,
	"grep":      core.ToolGrep,
	"glob":      core.ToolGlob,
	"list":      core.ToolLS,
	"webfetch":  core.ToolWebFetch,
	"websearch": core.ToolWebSearch,
	"todowrite": core.ToolTodoWrite,
	"task":      core.ToolTask,
}

// inputKeys renames OpenCode's camelCase arguments to the canonical keys.
var inputKeys = map[string]string{
	"filePath":   "file_path",
	"oldString":  "old_string",
	"newString":  "new_string",
	"replaceAll": "replace_all",
	"include":    "glob",
}

func mapTool(tool string, input map[string]any) (string, any) {
	name, ok := toolNames[tool]
	if !ok {
		name = tool
	}
	if input == nil {
		return name, nil
	}
	out := make(map[string]any, len(input))
	for k, v := range input {
		if renamed, ok := inputKeys[k]; ok {
			k = renamed
		}
		out[k] = v
	}
	return name, out
}
