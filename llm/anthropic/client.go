package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/mcpcheck/mcpcheck/llm"
)

// Client implements the llm.Client interface for Anthropic Claude
type Client struct {
	client *anthropic.Client
	config Config
}

// Config holds Anthropic-specific configuration
type Config struct {
	APIKey      string        `json:"api_key"`
	Model       string        `json:"model"` // e.g., "claude-3-5-sonnet-20240620"
	BaseURL     string        `json:"base_url,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty"`
}

// NewClient creates a new Anthropic client
func NewClient(config Config) (*Client, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Set defaults
	if config.Model == "" {
		config.Model = llm.ModelClaude35Sonnet
	}
	if config.MaxTokens == 0 {
		// The Anthropic API requires max_tokens
		config.MaxTokens = 1024
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	opts := []anthropic.ClientOption{}
	if config.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(config.BaseURL))
	}
	if config.Timeout > 0 {
		opts = append(opts, anthropic.WithHTTPClient(&http.Client{
			Timeout: config.Timeout,
		}))
	}

	return &Client{
		client: anthropic.NewClient(config.APIKey, opts...),
		config: config,
	}, nil
}

// validateConfig validates the Anthropic configuration
func validateConfig(config Config) error {
	if config.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	if config.Model != "" {
		provider, err := llm.InferProvider(config.Model)
		if err != nil {
			return fmt.Errorf("invalid model: %w", err)
		}
		if provider != llm.ProviderAnthropic {
			return fmt.Errorf("model %s is not an Anthropic model", config.Model)
		}
	}

	if config.Temperature < 0 || config.Temperature > 1 {
		return fmt.Errorf("temperature must be between 0 and 1")
	}

	if config.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative")
	}

	return nil
}

// Chat implements llm.Client interface
func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.Response, error) {
	// Convert messages - Anthropic separates system from messages
	messages := make([]anthropic.Message, 0, len(req.Messages))

	var systemPrompt string
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			if systemPrompt != "" {
				systemPrompt += "\n\n" + msg.Content
			} else {
				systemPrompt = msg.Content
			}
		case "user":
			messages = append(messages, anthropic.Message{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{{Type: anthropic.MessagesContentTypeText, Text: textPtr(msg.Content)}},
			})
		case "assistant":
			messages = append(messages, convertAssistantMessage(msg))
		case "tool":
			// Tool results travel back to Anthropic as user tool_result blocks
			messages = append(messages, anthropic.NewToolResultsMessage(msg.ToolCallID, msg.Content, false))
		default:
			messages = append(messages, anthropic.Message{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{{Type: anthropic.MessagesContentTypeText, Text: textPtr(msg.Content)}},
			})
		}
	}

	// Build request
	model := c.config.Model
	if req.Model != "" {
		model = req.Model
	}

	anthReq := anthropic.MessagesRequest{
		Model:     anthropic.Model(model),
		Messages:  messages,
		MaxTokens: c.config.MaxTokens,
	}

	if systemPrompt != "" {
		anthReq.System = systemPrompt
	}

	if req.Temperature != nil {
		t := float32(*req.Temperature)
		anthReq.Temperature = &t
	} else if c.config.Temperature > 0 {
		t := float32(c.config.Temperature)
		anthReq.Temperature = &t
	}

	if req.MaxTokens != nil {
		anthReq.MaxTokens = *req.MaxTokens
	}

	// Handle tools
	if len(req.Tools) > 0 {
		tools := make([]anthropic.ToolDefinition, len(req.Tools))
		for i, tool := range req.Tools {
			tools[i] = anthropic.ToolDefinition{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				InputSchema: tool.Function.Parameters,
			}
		}
		anthReq.Tools = tools
	}

	// Make the API call
	resp, err := c.client.CreateMessages(ctx, anthReq)
	if err != nil {
		return nil, c.convertError(err)
	}

	if len(resp.Content) == 0 {
		return nil, llm.NewLLMError(llm.ProviderAnthropic, llm.ErrorTypeUnknown, "no content returned")
	}

	// Extract content blocks: text accumulates, tool_use becomes tool calls
	var content strings.Builder
	var toolCalls []llm.ToolCall
	for _, block := range resp.Content {
		switch block.Type {
		case anthropic.MessagesContentTypeText:
			if block.Text != nil {
				content.WriteString(*block.Text)
			}
		case anthropic.MessagesContentTypeToolUse:
			if block.MessageContentToolUse != nil {
				toolCalls = append(toolCalls, llm.ToolCall{
					ID:   block.MessageContentToolUse.ID,
					Type: "function",
					Function: llm.Function{
						Name:      block.MessageContentToolUse.Name,
						Arguments: string(block.MessageContentToolUse.Input),
					},
				})
			}
		}
	}

	var usage *llm.Usage
	if resp.Usage.OutputTokens > 0 {
		usage = &llm.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
		}
	}

	// Anthropic always returns a single alternative
	return &llm.Response{
		Choices: []llm.Choice{{
			Index: 0,
			Message: llm.Message{
				Role:      "assistant",
				Content:   content.String(),
				ToolCalls: toolCalls,
			},
			FinishReason: string(resp.StopReason),
		}},
		Model:    model,
		Provider: llm.ProviderAnthropic,
		Usage:    usage,
		Meta: map[string]string{
			"id":   resp.ID,
			"type": string(resp.Type),
			"role": string(resp.Role),
		},
	}, nil
}

// Completion implements llm.Client interface
func (c *Client) Completion(ctx context.Context, prompt string) (*llm.Response, error) {
	req := &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "user", Content: prompt},
		},
	}
	return c.Chat(ctx, req)
}

// Model implements llm.Client interface
func (c *Client) Model() string {
	return c.config.Model
}

// Provider implements llm.Client interface
func (c *Client) Provider() llm.Provider {
	return llm.ProviderAnthropic
}

// Validate implements llm.Client interface
func (c *Client) Validate() error {
	return validateConfig(c.config)
}

// convertAssistantMessage rebuilds an assistant turn, including any tool_use
// blocks the model emitted, so multi-round conversations replay correctly.
func convertAssistantMessage(msg llm.Message) anthropic.Message {
	var blocks []anthropic.MessageContent
	if msg.Content != "" {
		blocks = append(blocks, anthropic.MessageContent{
			Type: anthropic.MessagesContentTypeText,
			Text: textPtr(msg.Content),
		})
	}
	for _, tc := range msg.ToolCalls {
		blocks = append(blocks, anthropic.MessageContent{
			Type: anthropic.MessagesContentTypeToolUse,
			MessageContentToolUse: &anthropic.MessageContentToolUse{
				ID:    tc.ID,
				Name:  tc.Function.Name,
				Input: json.RawMessage(tc.Function.Arguments),
			},
		})
	}
	if len(blocks) == 0 {
		blocks = append(blocks, anthropic.MessageContent{
			Type: anthropic.MessagesContentTypeText,
			Text: textPtr(""),
		})
	}
	return anthropic.Message{
		Role:    anthropic.RoleAssistant,
		Content: blocks,
	}
}

func textPtr(s string) *string { return &s }

// convertError maps go-anthropic errors to typed LLM errors while keeping
// the SDK error reachable through Unwrap.
func (c *Client) convertError(err error) error {
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		llmErr := llm.NewLLMErrorWithCause(llm.ProviderAnthropic, llm.ErrorTypeUnknown, apiErr.Message, err)
		llmErr.Code = string(apiErr.Type)
		return llmErr
	}
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		llmErr := llm.ParseHTTPError(llm.ProviderAnthropic, reqErr.StatusCode, err.Error())
		llmErr.Cause = err
		return llmErr
	}
	return llm.NewLLMErrorWithCause(llm.ProviderAnthropic, llm.ErrorTypeConnectionError, err.Error(), err)
}
