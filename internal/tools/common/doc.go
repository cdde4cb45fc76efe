// Package common provides shared helpers for the MCP tool packages: the
// instrumentation wrapper applied to every tool handler and small argument
// accessors.
package common
