// Package mcp provides a Model Context Protocol server for docsift.
//
// It exposes the extraction pipeline as MCP tools (extract fields, score
// confidence, inspect the active tier) over stdio transport, so editor and
// agent hosts can pull structured invoice fields out of raw text.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/docsift/docsift/internal/extract"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Coordinator *extract.Coordinator
	Version     string
}

// NewServer creates a configured MCP server with all docsift tools.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"docsift",
		ver,
		server.WithToolCapabilities(false),
	)

	registerExtractTool(s, cfg.Coordinator)
	registerConfidenceTool(s, cfg.Coordinator)
	registerModelInfoTool(s, cfg.Coordinator)

	return s
}

// ServeStdio runs the server over stdin/stdout until the host disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func registerExtractTool(s *server.MCPServer, coord *extract.Coordinator) {
	tool := mcp.NewTool("docsift_extract",
		mcp.WithDescription("Extract structured invoice fields (invoice number, dates, amounts, vendor and bill-to details) from raw document text. Returns a field-to-value map; fields that could not be extracted are absent."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Raw document text to extract fields from"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}
		if strings.TrimSpace(text) == "" {
			return mcp.NewToolResultError("document text cannot be empty"), nil
		}

		fields := coord.ExtractFields(ctx, text)

		data, _ := json.MarshalIndent(fields, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerConfidenceTool(s *server.MCPServer, coord *extract.Coordinator) {
	tool := mcp.NewTool("docsift_confidence",
		mcp.WithDescription("Score per-field extraction confidence for raw document text. Returns a field-to-score map in [0,1]; use it to decide which extracted fields need human review."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Raw document text to score"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}
		if strings.TrimSpace(text) == "" {
			return mcp.NewToolResultError("document text cannot be empty"), nil
		}

		fields := coord.ExtractFields(ctx, text)
		scores := coord.ConfidenceScores(ctx, fields, text)

		data, _ := json.MarshalIndent(scores, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerModelInfoTool(s *server.MCPServer, coord *extract.Coordinator) {
	tool := mcp.NewTool("docsift_model_info",
		mcp.WithDescription("Report the active extraction tier, per-tier availability, and the extraction methods and model artifacts in use."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		info := coord.ModelInfo()

		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode error: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}
