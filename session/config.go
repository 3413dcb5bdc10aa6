// Package session provisions initialized MCP client sessions against the
// Grafana MCP server under test, over stdio, SSE, or streamable-HTTP
// transports, with configuration and credentials drawn from the environment.
package session

import (
	"encoding/base64"
	"fmt"

	"github.com/spf13/viper"
)

// Kind selects the transport used to reach the MCP server under test.
type Kind string

const (
	KindStdio          Kind = "stdio"
	KindSSE            Kind = "sse"
	KindStreamableHTTP Kind = "streamable-http"
)

// Environment variables consumed by FromEnv
const (
	EnvTransport       = "MCP_TRANSPORT"
	EnvServerURL       = "MCP_GRAFANA_URL"
	EnvServerPath      = "MCP_GRAFANA_PATH"
	EnvGrafanaURL      = "GRAFANA_URL"
	EnvGrafanaAPIKey   = "GRAFANA_API_KEY"
	EnvGrafanaUsername = "GRAFANA_USERNAME"
	EnvGrafanaPassword = "GRAFANA_PASSWORD"
)

// Defaults applied when the corresponding variable is unset
const (
	DefaultTransport  = string(KindSSE)
	DefaultServerURL  = "http://localhost:8000"
	DefaultServerPath = "../dist/mcp-grafana"
	DefaultGrafanaURL = "http://localhost:3000"
)

// Headers understood by the Grafana MCP server
const (
	grafanaURLHeader    = "X-Grafana-URL"
	grafanaAPIKeyHeader = "X-Grafana-API-Key"
	authorizationHeader = "Authorization"
)

// debugArgs are always passed to a locally spawned server binary
var debugArgs = []string{"--debug", "--log-level", "debug"}

// ParseKind validates a transport selector string
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindStdio, KindSSE, KindStreamableHTTP:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unsupported transport: %q", s)
}

// StdioConfig describes how to spawn the server binary as a subprocess
type StdioConfig struct {
	Command string
	Args    []string
	Env     map[string]string
}

// HTTPConfig describes an HTTP-based transport endpoint
type HTTPConfig struct {
	URL     string
	Headers map[string]string
}

// Config is a tagged variant: Kind selects which payload is populated.
// Stdio is set for KindStdio; HTTP is set for KindSSE and
// KindStreamableHTTP.
type Config struct {
	Kind  Kind
	Stdio StdioConfig
	HTTP  HTTPConfig
}

// FromEnv builds a Config from the environment. An unrecognized
// MCP_TRANSPORT value is a configuration error reported here, before any
// connection attempt.
func FromEnv() (Config, error) {
	v := newViper()

	kind, err := ParseKind(v.GetString(EnvTransport))
	if err != nil {
		return Config{}, err
	}

	switch kind {
	case KindStdio:
		return Config{
			Kind: kind,
			Stdio: StdioConfig{
				Command: v.GetString(EnvServerPath),
				Args:    append([]string(nil), debugArgs...),
				Env:     grafanaEnv(v),
			},
		}, nil
	case KindSSE:
		return Config{
			Kind: kind,
			HTTP: HTTPConfig{
				URL:     v.GetString(EnvServerURL) + "/sse",
				Headers: grafanaHeaders(v),
			},
		}, nil
	case KindStreamableHTTP:
		return Config{
			Kind: kind,
			HTTP: HTTPConfig{
				URL:     v.GetString(EnvServerURL) + "/mcp",
				Headers: grafanaHeaders(v),
			},
		}, nil
	}
	return Config{}, fmt.Errorf("unsupported transport: %q", kind)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(EnvTransport, DefaultTransport)
	v.SetDefault(EnvServerURL, DefaultServerURL)
	v.SetDefault(EnvServerPath, DefaultServerPath)
	v.SetDefault(EnvGrafanaURL, DefaultGrafanaURL)
	v.AutomaticEnv()
	return v
}

// grafanaEnv builds the environment passed to a spawned server binary.
// Credentials resolve in priority order: API key first, then a full
// username/password pair.
func grafanaEnv(v *viper.Viper) map[string]string {
	env := map[string]string{
		EnvGrafanaURL: v.GetString(EnvGrafanaURL),
	}
	if key := v.GetString(EnvGrafanaAPIKey); key != "" {
		env[EnvGrafanaAPIKey] = key
		return env
	}
	username := v.GetString(EnvGrafanaUsername)
	password := v.GetString(EnvGrafanaPassword)
	if username != "" && password != "" {
		env[EnvGrafanaUsername] = username
		env[EnvGrafanaPassword] = password
	}
	return env
}

// grafanaHeaders builds the HTTP headers carrying the same credential
// material for the sse and streamable-http transports. The API-key header
// and the Authorization header are mutually exclusive, API key winning.
func grafanaHeaders(v *viper.Viper) map[string]string {
	headers := map[string]string{
		grafanaURLHeader: v.GetString(EnvGrafanaURL),
	}
	if key := v.GetString(EnvGrafanaAPIKey); key != "" {
		headers[grafanaAPIKeyHeader] = key
		return headers
	}
	username := v.GetString(EnvGrafanaUsername)
	password := v.GetString(EnvGrafanaPassword)
	if username != "" && password != "" {
		credentials := username + ":" + password
		headers[authorizationHeader] = "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
	}
	return headers
}
