package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/mcpcheck/mcpcheck/llm"
)

// Client implements the llm.Client interface for OpenAI
type Client struct {
	client *openai.Client
	config Config
}

// Config holds OpenAI-specific configuration
type Config struct {
	APIKey       string        `json:"api_key"`
	Model        string        `json:"model"` // e.g., "gpt-4o", "gpt-4o-mini"
	BaseURL      string        `json:"base_url,omitempty"`
	Temperature  float64       `json:"temperature,omitempty"`
	MaxTokens    int           `json:"max_tokens,omitempty"`
	Timeout      time.Duration `json:"timeout,omitempty"`
	Organization string        `json:"organization,omitempty"`
}

// NewClient creates a new OpenAI client
func NewClient(config Config) (*Client, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Set defaults
	if config.Model == "" {
		config.Model = llm.ModelGPT4o
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	openaiConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		openaiConfig.BaseURL = config.BaseURL
	}
	if config.Organization != "" {
		openaiConfig.OrgID = config.Organization
	}

	openaiConfig.HTTPClient = &http.Client{
		Timeout: config.Timeout,
	}

	return &Client{
		client: openai.NewClientWithConfig(openaiConfig),
		config: config,
	}, nil
}

// validateConfig validates the OpenAI configuration
func validateConfig(config Config) error {
	if config.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	if config.Model != "" {
		provider, err := llm.InferProvider(config.Model)
		if err != nil {
			return fmt.Errorf("invalid model: %w", err)
		}
		if provider != llm.ProviderOpenAI {
			return fmt.Errorf("model %s is not an OpenAI model", config.Model)
		}
	}

	if config.Temperature < 0 || config.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}

	if config.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative")
	}

	return nil
}

// Chat implements llm.Client interface
func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.Response, error) {
	// Convert messages
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		oaiMsg := openai.ChatCompletionMessage{
			Content: msg.Content,
		}

		switch msg.Role {
		case "system":
			oaiMsg.Role = openai.ChatMessageRoleSystem
		case "user":
			oaiMsg.Role = openai.ChatMessageRoleUser
		case "assistant":
			oaiMsg.Role = openai.ChatMessageRoleAssistant
			if len(msg.ToolCalls) > 0 {
				oaiMsg.ToolCalls = convertToolCallsOut(msg.ToolCalls)
			}
		case "tool":
			oaiMsg.Role = openai.ChatMessageRoleTool
			if msg.ToolCallID != "" {
				oaiMsg.ToolCallID = msg.ToolCallID
			}
		default:
			oaiMsg.Role = openai.ChatMessageRoleUser
		}

		if msg.Name != "" {
			oaiMsg.Name = msg.Name
		}

		messages = append(messages, oaiMsg)
	}

	// Build request
	model := c.config.Model
	if req.Model != "" {
		model = req.Model
	}

	oaiReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}

	if req.Temperature != nil {
		oaiReq.Temperature = float32(*req.Temperature)
	} else if c.config.Temperature > 0 {
		oaiReq.Temperature = float32(c.config.Temperature)
	}

	if req.MaxTokens != nil {
		oaiReq.MaxTokens = *req.MaxTokens
	} else if c.config.MaxTokens > 0 {
		oaiReq.MaxTokens = c.config.MaxTokens
	}

	// Handle tools/functions
	if len(req.Tools) > 0 {
		tools := make([]openai.Tool, len(req.Tools))
		for i, tool := range req.Tools {
			tools[i] = openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        tool.Function.Name,
					Description: tool.Function.Description,
					Parameters:  tool.Function.Parameters,
				},
			}
		}
		oaiReq.Tools = tools

		if req.ToolChoice != nil {
			oaiReq.ToolChoice = req.ToolChoice
		}
	}

	// Make the API call
	resp, err := c.client.CreateChatCompletion(ctx, oaiReq)
	if err != nil {
		return nil, c.convertError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, llm.NewLLMError(llm.ProviderOpenAI, llm.ErrorTypeUnknown, "no choices returned")
	}

	// Convert every choice; the verifier inspects all of them
	choices := make([]llm.Choice, len(resp.Choices))
	for i, choice := range resp.Choices {
		choices[i] = llm.Choice{
			Index: choice.Index,
			Message: llm.Message{
				Role:      "assistant",
				Content:   choice.Message.Content,
				ToolCalls: convertToolCallsIn(choice.Message.ToolCalls),
			},
			FinishReason: string(choice.FinishReason),
		}
	}

	var usage *llm.Usage
	if resp.Usage.TotalTokens > 0 {
		usage = &llm.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		}
	}

	return &llm.Response{
		Choices:  choices,
		Model:    model,
		Provider: llm.ProviderOpenAI,
		Usage:    usage,
		Meta: map[string]string{
			"id":      resp.ID,
			"object":  resp.Object,
			"created": fmt.Sprintf("%d", resp.Created),
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
	return llm.ProviderOpenAI
}

// Validate implements llm.Client interface
func (c *Client) Validate() error {
	return validateConfig(c.config)
}

func convertToolCallsOut(calls []llm.ToolCall) []openai.ToolCall {
	out := make([]openai.ToolCall, len(calls))
	for i, tc := range calls {
		out[i] = openai.ToolCall{
			ID:   tc.ID,
			Type: openai.ToolType(tc.Type),
			Function: openai.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		}
	}
	return out
}

func convertToolCallsIn(calls []openai.ToolCall) []llm.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]llm.ToolCall, len(calls))
	for i, tc := range calls {
		out[i] = llm.ToolCall{
			ID:   tc.ID,
			Type: string(tc.Type),
			Function: llm.Function{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		}
	}
	return out
}

// convertError maps go-openai errors to typed LLM errors while keeping the
// SDK error reachable through Unwrap.
func (c *Client) convertError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		llmErr := llm.ParseHTTPError(llm.ProviderOpenAI, apiErr.HTTPStatusCode, apiErr.Message)
		llmErr.Cause = err
		if code, ok := apiErr.Code.(string); ok {
			llmErr.Code = code
		}
		return llmErr
	}
	return llm.NewLLMErrorWithCause(llm.ProviderOpenAI, llm.ErrorTypeConnectionError, err.Error(), err)
}
