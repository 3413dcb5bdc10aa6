// Package verify implements the tool-call verification protocol: one
// completion round that must produce the expected structured tool
// invocation, which is then dispatched against a live MCP session and
// folded back into the conversation.
//
// The protocol has two modes. The strict mode requires exactly one tool
// call across the whole completion response and exact equality for every
// expected argument. The flexible mode processes only the first tool call
// of the first choice and checks just the caller's required parameters.
// Neither mode retries: any mismatch fails the round immediately and
// leaves the conversation unmodified.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/mcpcheck/mcpcheck/llm"
)

// ToolCaller is the slice of an MCP session the verifier needs.
// *session.Session implements it.
type ToolCaller interface {
	ListTools(ctx context.Context) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
}

// ToolCallSequence runs one strict verification round: it submits the
// conversation to the model, requires exactly one tool call in the
// response, validates its name and arguments, dispatches it against the
// session, and returns the conversation extended with the assistant
// message(s) and the tool result. On any failure the input conversation is
// returned untouched semantics-wise: the returned slice is nil and messages
// is never mutated.
func ToolCallSequence(ctx context.Context, client llm.Client, model string, messages []llm.Message, tools []llm.Tool, sess ToolCaller, expectedTool string, expectedArgs map[string]any) ([]llm.Message, error) {
	resp, err := client.Chat(ctx, &llm.ChatRequest{
		Model:    model,
		Messages: messages,
		Tools:    tools,
	})
	if err != nil {
		return nil, err
	}

	// Extract: collect tool calls and assistant messages across all choices
	var collected []llm.Message
	var calls []llm.ToolCall
	for _, choice := range resp.Choices {
		calls = append(calls, choice.Message.ToolCalls...)
		collected = append(collected, choice.Message)
	}
	if len(calls) != 1 {
		return nil, fmt.Errorf("expected exactly 1 tool call for %q, got %d", expectedTool, len(calls))
	}

	call := calls[0]
	args, err := validateCall(call, tools, expectedTool)
	if err != nil {
		return nil, err
	}
	for key, want := range expectedArgs {
		got, ok := args[key]
		if !ok {
			return nil, fmt.Errorf("expected argument %q in tool call for %q, got arguments %v", key, expectedTool, args)
		}
		if !reflect.DeepEqual(got, want) {
			return nil, fmt.Errorf("argument %q: expected %v, got %v", key, want, got)
		}
	}

	text, err := dispatch(ctx, sess, call.Function.Name, args)
	if err != nil {
		return nil, err
	}

	// Append only after the full round succeeded
	out := make([]llm.Message, 0, len(messages)+len(collected)+1)
	out = append(out, messages...)
	out = append(out, collected...)
	out = append(out, llm.Message{
		Role:       "tool",
		ToolCallID: call.ID,
		Content:    text,
	})
	return out, nil
}

// FlexibleToolCall runs one flexible verification round: the first choice
// must carry at least one tool call, only the first call is processed, and
// only the caller's required parameters are checked — a nil required value
// checks presence without comparing. Returns the extended conversation.
func FlexibleToolCall(ctx context.Context, client llm.Client, model string, messages []llm.Message, tools []llm.Tool, sess ToolCaller, expectedTool string, requiredParams map[string]any) ([]llm.Message, error) {
	resp, err := client.Chat(ctx, &llm.ChatRequest{
		Model:    model,
		Messages: messages,
		Tools:    tools,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("expected tool call for %q, response has no choices", expectedTool)
	}
	first := resp.Choices[0].Message
	if len(first.ToolCalls) == 0 {
		return nil, fmt.Errorf("expected at least one tool call for %q, got none", expectedTool)
	}

	// Only the first call is processed; any others are ignored
	call := first.ToolCalls[0]
	args, err := validateCall(call, tools, expectedTool)
	if err != nil {
		return nil, err
	}
	for key, want := range requiredParams {
		got, ok := args[key]
		if !ok {
			return nil, fmt.Errorf("expected parameter %q in tool call for %q, got arguments %v", key, expectedTool, args)
		}
		if want != nil && !reflect.DeepEqual(got, want) {
			return nil, fmt.Errorf("parameter %q: expected %v, got %v", key, want, got)
		}
	}

	text, err := dispatch(ctx, sess, call.Function.Name, args)
	if err != nil {
		return nil, err
	}

	out := make([]llm.Message, 0, len(messages)+2)
	out = append(out, messages...)
	out = append(out, first)
	out = append(out, llm.Message{
		Role:       "tool",
		ToolCallID: call.ID,
		Content:    text,
	})
	return out, nil
}

// validateCall checks the requested tool against the expected name and the
// advertised catalog, and parses its argument payload.
func validateCall(call llm.ToolCall, tools []llm.Tool, expectedTool string) (map[string]any, error) {
	if call.Function.Name != expectedTool {
		return nil, fmt.Errorf("expected tool %q, got %q", expectedTool, call.Function.Name)
	}
	if len(tools) > 0 && !inCatalog(call.Function.Name, tools) {
		return nil, fmt.Errorf("tool %q is not in the advertised catalog", call.Function.Name)
	}
	return parseArguments(call.Function.Arguments)
}

// parseArguments decodes the string-encoded argument payload. An empty
// payload is an empty mapping, not a parse error.
func parseArguments(payload string) (map[string]any, error) {
	if len(payload) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(payload), &args); err != nil {
		return nil, fmt.Errorf("parse tool call arguments %q: %w", payload, err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func inCatalog(name string, tools []llm.Tool) bool {
	for _, t := range tools {
		if t.Function.Name == name {
			return true
		}
	}
	return false
}

// dispatch invokes the tool against the session and requires the result to
// be exactly one text content item. Multi-part and binary results are not
// supported by this protocol.
func dispatch(ctx context.Context, sess ToolCaller, name string, args map[string]any) (string, error) {
	result, err := sess.CallTool(ctx, name, args)
	if err != nil {
		return "", err
	}
	if n := len(result.Content); n != 1 {
		return "", fmt.Errorf("expected exactly 1 content item from %q, got %d", name, n)
	}
	text, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		return "", fmt.Errorf("expected text content from %q, got %T", name, result.Content[0])
	}
	return text.Text, nil
}

// MustToolCallSequence is ToolCallSequence for use inside tests: a failed
// round fails the test immediately.
func MustToolCallSequence(t testing.TB, ctx context.Context, client llm.Client, model string, messages []llm.Message, tools []llm.Tool, sess ToolCaller, expectedTool string, expectedArgs map[string]any) []llm.Message {
	t.Helper()
	out, err := ToolCallSequence(ctx, client, model, messages, tools, sess, expectedTool, expectedArgs)
	require.NoError(t, err)
	return out
}

// MustFlexibleToolCall is FlexibleToolCall for use inside tests.
func MustFlexibleToolCall(t testing.TB, ctx context.Context, client llm.Client, model string, messages []llm.Message, tools []llm.Tool, sess ToolCaller, expectedTool string, requiredParams map[string]any) []llm.Message {
	t.Helper()
	out, err := FlexibleToolCall(ctx, client, model, messages, tools, sess, expectedTool, requiredParams)
	require.NoError(t, err)
	return out
}
