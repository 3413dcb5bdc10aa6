package verify

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcpcheck/mcpcheck/llm"
)

// ConvertTool maps an MCP tool descriptor into the function-call schema the
// completion call expects. Absent fields default rather than fail: a missing
// properties map becomes an empty one so providers always see a well-formed
// parameter object.
func ConvertTool(tool mcp.Tool) llm.Tool {
	schemaType := tool.InputSchema.Type
	if schemaType == "" {
		schemaType = "object"
	}
	properties := tool.InputSchema.Properties
	if properties == nil {
		properties = map[string]any{}
	}
	parameters := map[string]interface{}{
		"type":       schemaType,
		"properties": properties,
	}
	if len(tool.InputSchema.Required) > 0 {
		parameters["required"] = tool.InputSchema.Required
	}
	return llm.Tool{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  parameters,
		},
	}
}

// ConvertedTools fetches the tool catalog from the session and converts
// every descriptor for use in a completion call.
func ConvertedTools(ctx context.Context, sess ToolCaller) ([]llm.Tool, error) {
	list, err := sess.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	tools := make([]llm.Tool, 0, len(list.Tools))
	for _, t := range list.Tools {
		tools = append(tools, ConvertTool(t))
	}
	return tools, nil
}
