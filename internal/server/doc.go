// Package server provides the MCP server context and the HTTP transport for
// mailmcp.
//
// # Key Components
//
// ServerContext owns the mailbox backend. The backend is created lazily by a
// MailboxFactory on first use, so the server starts even when credentials are
// not yet in place. NewMailboxFactory builds the Gmail or IMAP/SMTP backend
// from a config.Config.
//
// HTTPServer exposes the MCP server on the streamable HTTP endpoint (/mcp)
// and registers the Kubernetes style health endpoints (/healthz, /readyz,
// /healthz/detailed). When metrics are enabled every request is counted.
//
// MetricsServer serves Prometheus metrics on a dedicated port.
package server
