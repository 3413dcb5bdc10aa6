package session

import (
	"context"
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	log "github.com/sirupsen/logrus"
)

const (
	clientName    = "mcpcheck"
	clientVersion = "0.1.0"
)

// Session is a live, initialized bidirectional channel to the MCP server
// under test. It must be released with Close.
type Session struct {
	client *client.Client
	info   *mcp.InitializeResult
}

// Acquire opens the transport selected by cfg, performs the MCP
// initialization handshake, and returns a ready Session. Transport and
// handshake errors propagate to the caller; the underlying client is closed
// before returning an error so no subprocess or connection leaks.
func Acquire(ctx context.Context, cfg Config) (*Session, error) {
	c, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	initReq := mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    clientName,
				Version: clientVersion,
			},
		},
	}
	info, err := c.Initialize(ctx, initReq)
	if err != nil {
		if closeErr := c.Close(); closeErr != nil {
			return nil, fmt.Errorf("initialize session: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("initialize session: %w", err)
	}

	log.WithFields(log.Fields{
		"transport": cfg.Kind,
		"server":    info.ServerInfo.Name,
		"version":   info.ServerInfo.Version,
	}).Debug("mcp session initialized")

	return &Session{client: c, info: info}, nil
}

// connect builds the transport-specific client. The switch is exhaustive
// over Kind; an unmatched tag fails before any connection attempt.
func connect(ctx context.Context, cfg Config) (*client.Client, error) {
	switch cfg.Kind {
	case KindStdio:
		env := make([]string, 0, len(cfg.Stdio.Env))
		for k, v := range cfg.Stdio.Env {
			env = append(env, k+"="+v)
		}
		log.WithField("command", cfg.Stdio.Command).Debug("spawning stdio mcp server")
		return client.NewStdioMCPClient(cfg.Stdio.Command, env, cfg.Stdio.Args...)
	case KindSSE:
		c, err := client.NewSSEMCPClient(cfg.HTTP.URL, transport.WithHeaders(cfg.HTTP.Headers))
		if err != nil {
			return nil, err
		}
		if err := c.Start(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
		return c, nil
	case KindStreamableHTTP:
		c, err := client.NewStreamableHttpClient(cfg.HTTP.URL, transport.WithHTTPHeaders(cfg.HTTP.Headers))
		if err != nil {
			return nil, err
		}
		if err := c.Start(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("unsupported transport: %q", cfg.Kind)
}

// AcquireT acquires a Session for a test and guarantees teardown on every
// exit path via t.Cleanup, including a best-effort pass to reclaim
// straggling transport resources between tests.
func AcquireT(t testing.TB, cfg Config) *Session {
	t.Helper()
	sess, err := Acquire(context.Background(), cfg)
	if err != nil {
		t.Fatalf("acquire session: %v", err)
	}
	t.Cleanup(func() {
		if err := sess.Close(); err != nil {
			t.Logf("close session: %v", err)
		}
		// Hygiene only; Close above is what releases the transport.
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	})
	return sess
}

// ServerInfo returns the result of the initialization handshake.
func (s *Session) ServerInfo() *mcp.InitializeResult {
	return s.info
}

// ListTools fetches the tool catalog advertised by the server.
func (s *Session) ListTools(ctx context.Context) (*mcp.ListToolsResult, error) {
	return s.client.ListTools(ctx, mcp.ListToolsRequest{})
}

// CallTool invokes the named tool with the given argument mapping.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return s.client.CallTool(ctx, req)
}

// Close tears down the underlying transport.
func (s *Session) Close() error {
	return s.client.Close()
}
