package pi

import "github.com/sonnes/unitrans/core"

var toolNames = map[string]string{
	"bash":  core.ToolBash,
	"read":  core.ToolRead,
	"write": core.ToolWrite,
	"edit":  core.ToolEdit,
	"grep":  core.ToolGrep,
	"find":  core.ToolGlob,
	"ls":    core.ToolLS,
}

// fileTools take a single file argument named "path".
var fileTools = map[string]bool{
	core.ToolRead:  true,
	core.ToolWrite: true,
	core.ToolEdit:  true,
}

var inputKeys = map[string]string{
	"oldText": "old_string",
	"newText": "new_string",
}

func mapTool(tool string, args map[string]any) (string, any) {
	name, ok := toolNames[tool]
	if !ok {
		name = tool
	}
	if args == nil {
		return name, nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		switch {
		case k == "path" && fileTools[name]:
			k = "file_path"
		case inputKeys[k] != "":
			k = inputKeys[k]
		}
		out[k] = v
	}
	return name, out
}
