package llm

import (
	"context"
	"errors"
	"testing"
)

type dummyClient struct{ id string }

func (d dummyClient) Chat(ctx context.Context, req *ChatRequest) (*Response, error) {
	return &Response{
		Choices: []Choice{{Message: Message{Role: "assistant", Content: d.id}}},
		Model:   req.Model,
	}, nil
}
func (d dummyClient) Completion(ctx context.Context, prompt string) (*Response, error) {
	return &Response{Choices: []Choice{{Message: Message{Role: "assistant", Content: d.id}}}}, nil
}
func (d dummyClient) Model() string      { return d.id }
func (d dummyClient) Provider() Provider { return Provider("x") }
func (d dummyClient) Validate() error    { return nil }

func TestProviderPolicyRouting(t *testing.T) {
	oai := dummyClient{id: "oai"}
	anth := dummyClient{id: "anth"}
	r := NewRouterClient(ProviderPolicy{OpenAI: oai, Anthropic: anth, Default: oai})
	if err := r.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	out, err := r.Chat(context.Background(), &ChatRequest{Model: ModelGPT4o})
	if err != nil || out.Choices[0].Message.Content != "oai" {
		t.Fatalf("openai route: %v %#v", err, out)
	}

	out, err = r.Chat(context.Background(), &ChatRequest{Model: ModelClaude35Sonnet})
	if err != nil || out.Choices[0].Message.Content != "anth" {
		t.Fatalf("anthropic route: %v %#v", err, out)
	}

	// Default path when no model is set
	out, err = r.Chat(context.Background(), &ChatRequest{})
	if err != nil || out.Choices[0].Message.Content != "oai" {
		t.Fatalf("default route: %v %#v", err, out)
	}

	// Unroutable model
	if _, err := r.Chat(context.Background(), &ChatRequest{Model: "llama-3-70b"}); err == nil {
		t.Fatalf("expected routing error")
	}
}

func TestProviderPolicyMissingClient(t *testing.T) {
	r := NewRouterClient(ProviderPolicy{OpenAI: dummyClient{id: "oai"}})
	if _, err := r.Chat(context.Background(), &ChatRequest{Model: ModelClaude35Sonnet}); err == nil {
		t.Fatalf("expected error for unconfigured anthropic client")
	}
	if _, err := r.Completion(context.Background(), "p"); err == nil {
		t.Fatalf("expected error with no default client")
	}
}

func TestStaticPolicyAndRouter(t *testing.T) {
	def := dummyClient{id: "def"}
	p := StaticPolicy{Default: def, ByModel: map[string]Client{"m": dummyClient{id: "m"}}}
	r := NewRouterClient(p)

	// Model override path
	out, err := r.Chat(context.Background(), &ChatRequest{Model: "m"})
	if err != nil || out.Model != "m" || out.Choices[0].Message.Content != "m" {
		t.Fatalf("chat override: %v %#v", err, out)
	}

	// Default path
	out, err = r.Chat(context.Background(), &ChatRequest{})
	if err != nil || out.Choices[0].Message.Content != "def" {
		t.Fatalf("chat default: %v %#v", err, out)
	}
}

type errPolicy struct{}

func (errPolicy) Select(req *ChatRequest) (Client, string, error) { return nil, "", errors.New("no") }

func TestRouterPolicyError(t *testing.T) {
	r := NewRouterClient(errPolicy{})
	if _, err := r.Chat(context.Background(), &ChatRequest{}); err == nil {
		t.Fatalf("expected error")
	}
}
