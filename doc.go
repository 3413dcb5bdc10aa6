// Package mcpcheck provides top-level documentation and a minimal facade for
// the mcpcheck module, a harness for verifying that an MCP (Model Context
// Protocol) server correctly exposes tool-call capabilities to LLM clients.
// The module is organized as multiple subpackages (e.g. `llm`, `session`,
// and `verify`).
//
// Importers typically depend on the subpackages directly, for example:
//
//	import (
//	  "github.com/mcpcheck/mcpcheck/llm"
//	  "github.com/mcpcheck/mcpcheck/session"
//	  "github.com/mcpcheck/mcpcheck/verify"
//	)
//
// The root package intentionally keeps a small surface area to avoid stuttering
// and to keep subpackages composable.
package mcpcheck
