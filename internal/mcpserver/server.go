// Package mcpserver exposes parsing as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dgallion1/parsegest/internal/model"
	"github.com/dgallion1/parsegest/internal/pipeline"
)

const ServerName = "parsegest"

// Server wraps the MCP server around a parse factory.
type Server struct {
	mcp     *server.MCPServer
	factory *pipeline.Factory
}

// NewServer registers the parse tools. Paths are resolved by the
// factory's resources.
func NewServer(factory *pipeline.Factory, version string) *Server {
	s := &Server{
		mcp:     server.NewMCPServer(ServerName, version),
		factory: factory,
	}
	s.mcp.AddTool(parseSourceTool(), s.handleParseSource)
	s.mcp.AddTool(listParsersTool(), s.handleListParsers)
	return s
}

// Serve runs the server on stdio until the client disconnects.
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

func parseSourceTool() mcp.Tool {
	return mcp.Tool{
		Name:        "parse_source",
		Description: "Parse a source file into a typed object and return it as JSON",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Path of the source, relative to the resource root",
				},
				"type": map[string]any{
					"type":        "string",
					"description": "Target type; picked from the extension when omitted",
					"enum":        model.Names(),
				},
			},
			Required: []string{"path"},
		},
	}
}

func listParsersTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_parsers",
		Description: "List the registered parsers, preprocessors, mappings and postprocessors in order",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}
}

func (s *Server) handleParseSource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return mcp.NewToolResultError("invalid arguments"), nil
	}
	path, _ := args["path"].(string)
	if path == "" {
		return mcp.NewToolResultError("path parameter is required"), nil
	}
	typeName, _ := args["type"].(string)
	if typeName == "" {
		typeName = model.DefaultType(path)
	}
	target, err := model.Lookup(typeName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.factory.ParsePath(ctx, path, target)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		failure := map[string]any{"error": err.Error()}
		if loc := pipeline.LocationOf(err); loc != nil {
			failure["location"] = loc
		}
		return mcp.NewToolResultError(formatJSON(failure)), nil
	}
	return mcp.NewToolResultText(formatJSON(map[string]any{
		"type":   typeName,
		"result": result,
	})), nil
}

func (s *Server) handleListParsers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(formatJSON(s.factory.Plugins())), nil
}

func formatJSON(data any) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(b)
}
