package session

import (
	"encoding/base64"
	"strings"
	"testing"
)

func clearGrafanaEnv(t *testing.T) {
	t.Helper()
	// t.Setenv with an empty value makes viper fall back to defaults and
	// makes credential lookups treat the variable as unset.
	for _, key := range []string{
		EnvTransport, EnvServerURL, EnvServerPath,
		EnvGrafanaURL, EnvGrafanaAPIKey, EnvGrafanaUsername, EnvGrafanaPassword,
	} {
		t.Setenv(key, "")
	}
}

func TestParseKind(t *testing.T) {
	for _, valid := range []string{"stdio", "sse", "streamable-http"} {
		k, err := ParseKind(valid)
		if err != nil || string(k) != valid {
			t.Errorf("ParseKind(%q) = %q, %v", valid, k, err)
		}
	}
	for _, invalid := range []string{"", "http", "websocket", "SSE"} {
		if _, err := ParseKind(invalid); err == nil {
			t.Errorf("ParseKind(%q): expected error", invalid)
		}
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearGrafanaEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.Kind != KindSSE {
		t.Fatalf("default transport = %q, want sse", cfg.Kind)
	}
	if cfg.HTTP.URL != DefaultServerURL+"/sse" {
		t.Fatalf("default url = %q", cfg.HTTP.URL)
	}
	if got := cfg.HTTP.Headers[grafanaURLHeader]; got != DefaultGrafanaURL {
		t.Fatalf("grafana url header = %q", got)
	}
}

func TestFromEnvEndpointDerivation(t *testing.T) {
	cases := []struct {
		transport string
		suffix    string
	}{
		{"sse", "/sse"},
		{"streamable-http", "/mcp"},
	}
	for _, tc := range cases {
		t.Run(tc.transport, func(t *testing.T) {
			clearGrafanaEnv(t)
			t.Setenv(EnvTransport, tc.transport)
			t.Setenv(EnvServerURL, "http://mcp.example.com:9000")

			cfg, err := FromEnv()
			if err != nil {
				t.Fatalf("from env: %v", err)
			}
			want := "http://mcp.example.com:9000" + tc.suffix
			if cfg.HTTP.URL != want {
				t.Fatalf("url = %q, want %q", cfg.HTTP.URL, want)
			}
		})
	}
}

func TestFromEnvUnknownTransport(t *testing.T) {
	clearGrafanaEnv(t)
	t.Setenv(EnvTransport, "carrier-pigeon")

	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected configuration error")
	} else if !strings.Contains(err.Error(), "carrier-pigeon") {
		t.Fatalf("error does not identify the transport: %v", err)
	}
}

func TestFromEnvStdio(t *testing.T) {
	clearGrafanaEnv(t)
	t.Setenv(EnvTransport, "stdio")
	t.Setenv(EnvServerPath, "/opt/bin/mcp-grafana")
	t.Setenv(EnvGrafanaURL, "http://grafana.example.com")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.Kind != KindStdio {
		t.Fatalf("kind = %q", cfg.Kind)
	}
	if cfg.Stdio.Command != "/opt/bin/mcp-grafana" {
		t.Fatalf("command = %q", cfg.Stdio.Command)
	}
	wantArgs := []string{"--debug", "--log-level", "debug"}
	if len(cfg.Stdio.Args) != len(wantArgs) {
		t.Fatalf("args = %v", cfg.Stdio.Args)
	}
	for i, a := range wantArgs {
		if cfg.Stdio.Args[i] != a {
			t.Fatalf("args = %v", cfg.Stdio.Args)
		}
	}
	if got := cfg.Stdio.Env[EnvGrafanaURL]; got != "http://grafana.example.com" {
		t.Fatalf("env grafana url = %q", got)
	}
}

func TestCredentialPrecedenceAPIKeyWins(t *testing.T) {
	clearGrafanaEnv(t)
	t.Setenv(EnvGrafanaAPIKey, "secret-key")
	t.Setenv(EnvGrafanaUsername, "admin")
	t.Setenv(EnvGrafanaPassword, "hunter2")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if got := cfg.HTTP.Headers[grafanaAPIKeyHeader]; got != "secret-key" {
		t.Fatalf("api key header = %q", got)
	}
	if _, ok := cfg.HTTP.Headers[authorizationHeader]; ok {
		t.Fatalf("Authorization header must not be set when an API key is present")
	}

	// Same precedence for the stdio env mapping
	t.Setenv(EnvTransport, "stdio")
	cfg, err = FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if got := cfg.Stdio.Env[EnvGrafanaAPIKey]; got != "secret-key" {
		t.Fatalf("stdio api key = %q", got)
	}
	if _, ok := cfg.Stdio.Env[EnvGrafanaUsername]; ok {
		t.Fatalf("username must not be passed when an API key is present")
	}
}

func TestBasicAuthHeader(t *testing.T) {
	clearGrafanaEnv(t)
	t.Setenv(EnvGrafanaUsername, "admin")
	t.Setenv(EnvGrafanaPassword, "hunter2")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:hunter2"))
	if got := cfg.HTTP.Headers[authorizationHeader]; got != want {
		t.Fatalf("authorization header = %q, want %q", got, want)
	}
	if _, ok := cfg.HTTP.Headers[grafanaAPIKeyHeader]; ok {
		t.Fatalf("api key header must not be set")
	}
}

func TestBasicAuthRequiresBothCredentials(t *testing.T) {
	clearGrafanaEnv(t)
	t.Setenv(EnvGrafanaUsername, "admin")
	// Password deliberately unset

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if _, ok := cfg.HTTP.Headers[authorizationHeader]; ok {
		t.Fatalf("Authorization header must not be set without a password")
	}

	t.Setenv(EnvTransport, "stdio")
	cfg, err = FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if _, ok := cfg.Stdio.Env[EnvGrafanaUsername]; ok {
		t.Fatalf("stdio env must not carry a username without a password")
	}
}
