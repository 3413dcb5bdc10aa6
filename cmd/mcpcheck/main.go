package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/mcpcheck/mcpcheck/llm"
	anthropicllm "github.com/mcpcheck/mcpcheck/llm/anthropic"
	openaillm "github.com/mcpcheck/mcpcheck/llm/openai"
	"github.com/mcpcheck/mcpcheck/session"
	"github.com/mcpcheck/mcpcheck/verify"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "tools":
		handleTools()
	case "call":
		handleCall()
	case "verify":
		handleVerify()
	case "version":
		handleVersion()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("mcpcheck - tool-call checker for Grafana MCP servers %s\n\n", version)
	fmt.Println("Usage:")
	fmt.Println("  mcpcheck tools                          List the tools the server advertises")
	fmt.Println("  mcpcheck call <tool> [json-args]        Invoke a tool and print its text result")
	fmt.Println("  mcpcheck verify --tool <name> --prompt <text> [--model gpt-4o] [--args json] [--flexible]")
	fmt.Println("  mcpcheck version                        Show version information")
	fmt.Println("  mcpcheck help                           Show this help message")
	fmt.Println()
	fmt.Println("The server connection is configured through MCP_TRANSPORT, MCP_GRAFANA_URL,")
	fmt.Println("MCP_GRAFANA_PATH and the GRAFANA_* credential variables. verify additionally")
	fmt.Println("needs OPENAI_API_KEY and/or ANTHROPIC_API_KEY.")
}

func handleVersion() {
	fmt.Printf("mcpcheck version %s\n", version)
}

func handleTools() {
	fs := flag.NewFlagSet("tools", flag.ExitOnError)
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Parse(os.Args[2:])
	setupLogging(*debug)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sess, err := connect(ctx)
	if err != nil {
		fatal(err)
	}
	defer sess.Close()

	list, err := sess.ListTools(ctx)
	if err != nil {
		fatal(err)
	}
	for _, tool := range list.Tools {
		fmt.Printf("%s\t%s\n", tool.Name, tool.Description)
	}
}

func handleCall() {
	fs := flag.NewFlagSet("call", flag.ExitOnError)
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Parse(os.Args[2:])
	setupLogging(*debug)

	if fs.NArg() < 1 {
		fmt.Println("call requires a tool name")
		os.Exit(1)
	}
	name := fs.Arg(0)
	args := map[string]any{}
	if fs.NArg() > 1 {
		if err := json.Unmarshal([]byte(fs.Arg(1)), &args); err != nil {
			fatal(fmt.Errorf("parse arguments: %w", err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sess, err := connect(ctx)
	if err != nil {
		fatal(err)
	}
	defer sess.Close()

	result, err := sess.CallTool(ctx, name, args)
	if err != nil {
		fatal(err)
	}
	for _, content := range result.Content {
		if text, ok := mcp.AsTextContent(content); ok {
			fmt.Println(text.Text)
		}
	}
}

func handleVerify() {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	model := fs.String("model", llm.ModelGPT4o, "Model to drive the tool call")
	tool := fs.String("tool", "", "Tool the model is expected to call")
	prompt := fs.String("prompt", "", "User prompt to send")
	argsJSON := fs.String("args", "", "Expected tool arguments as JSON")
	flexible := fs.Bool("flexible", false, "Check only the listed parameters on the first tool call")
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Parse(os.Args[2:])
	setupLogging(*debug)

	if *tool == "" || *prompt == "" {
		fmt.Println("--tool and --prompt are required")
		os.Exit(1)
	}
	var expectedArgs map[string]any
	if *argsJSON != "" {
		if err := json.Unmarshal([]byte(*argsJSON), &expectedArgs); err != nil {
			fatal(fmt.Errorf("parse --args: %w", err))
		}
	}

	client, err := buildClient()
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sess, err := connect(ctx)
	if err != nil {
		fatal(err)
	}
	defer sess.Close()

	tools, err := verify.ConvertedTools(ctx, sess)
	if err != nil {
		fatal(err)
	}

	messages := []llm.Message{{Role: "user", Content: *prompt}}
	if *flexible {
		messages, err = verify.FlexibleToolCall(ctx, client, *model, messages, tools, sess, *tool, expectedArgs)
	} else {
		messages, err = verify.ToolCallSequence(ctx, client, *model, messages, tools, sess, *tool, expectedArgs)
	}
	if err != nil {
		fatal(err)
	}

	tail := messages[len(messages)-1]
	fmt.Printf("ok: %s called %s\n", *model, *tool)
	fmt.Println(tail.Content)
}

// buildClient assembles a router over the provider clients whose API keys are
// present in the environment.
func buildClient() (llm.Client, error) {
	policy := llm.ProviderPolicy{}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c, err := openaillm.NewClient(openaillm.Config{APIKey: key})
		if err != nil {
			return nil, err
		}
		policy.OpenAI = c
		policy.Default = c
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c, err := anthropicllm.NewClient(anthropicllm.Config{APIKey: key})
		if err != nil {
			return nil, err
		}
		policy.Anthropic = c
		if policy.Default == nil {
			policy.Default = c
		}
	}
	if policy.OpenAI == nil && policy.Anthropic == nil {
		return nil, errors.New("set OPENAI_API_KEY and/or ANTHROPIC_API_KEY")
	}
	return llm.NewRouterClient(policy), nil
}

func connect(ctx context.Context) (*session.Session, error) {
	cfg, err := session.FromEnv()
	if err != nil {
		return nil, err
	}
	return session.Acquire(ctx, cfg)
}

func setupLogging(debug bool) {
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

func fatal(err error) {
	fmt.Printf("Error: %v\n", err)
	os.Exit(1)
}
