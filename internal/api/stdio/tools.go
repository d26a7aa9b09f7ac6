package stdio

import (
	"strings"

	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/types"
)

// ToolName maps a registry tool ID to its MCP name. Filesystem tools keep
// their bare names ("read_file_contents"); other services are flattened
// ("system.info" becomes "system_info").
func ToolName(toolID string) string {
	if rest, ok := strings.CutPrefix(toolID, primaryService+"."); ok {
		return rest
	}
	return strings.ReplaceAll(toolID, ".", "_")
}

func toMCPTool(t types.Tool) Tool {
	schema := InputSchema{
		Type:       "object",
		Properties: make(map[string]SchemaProperty, len(t.Parameters)),
	}
	for _, p := range t.Parameters {
		schema.Properties[p.Name] = SchemaProperty{
			Type:        schemaType(p.Type),
			Description: p.Description,
			Default:     p.Default,
		}
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}

	return Tool{
		Name:        ToolName(t.ID),
		Description: t.Description,
		InputSchema: schema,
		Annotations: &ToolAnnotations{
			Title:           t.Name,
			ReadOnlyHint:    t.ReadOnly,
			DestructiveHint: t.Destructive,
		},
	}
}

func schemaType(t string) string {
	switch t {
	case "string", "boolean", "number", "integer", "array", "object":
		return t
	case "bool":
		return "boolean"
	case "int":
		return "integer"
	default:
		return "string"
	}
}
