// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the property document to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/propdoc/internal/docgen"
	"github.com/starford/propdoc/internal/proptree"
)

// DocumentService renders the property document on demand.
type DocumentService interface {
	Render(ctx context.Context) (*docgen.Result, error)
	Tree(ctx context.Context) (*proptree.Node, error)
}

// Server wraps the MCP server with the document tools.
type Server struct {
	mcp *server.MCPServer
	svc DocumentService
}

type propertyEntry struct {
	Name  string `json:"name"`
	Depth int    `json:"depth"`
}

type propertyDetail struct {
	Name        string   `json:"name"`
	Depth       int      `json:"depth"`
	DataType    string   `json:"data_type"`
	Cardinality string   `json:"cardinality"`
	Notes       string   `json:"notes"`
	Children    []string `json:"children"`
}

// New creates a new MCP server with all tools registered.
func New(svc DocumentService) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"propdoc",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("render_document",
		mcp.WithDescription("Render the full property document: outline, separator, "+
			"section title and reference table."),
	), s.renderDocument)

	s.mcp.AddTool(mcp.NewTool("list_properties",
		mcp.WithDescription("List every property in outline order with its depth."),
	), s.listProperties)

	s.mcp.AddTool(mcp.NewTool("describe_property",
		mcp.WithDescription("Show the table row of one property: data type, cardinality, notes and child names."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Property name (the anchor id)")),
	), s.describeProperty)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) renderDocument(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Render(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(res.Document), nil
}

func (s *Server) listProperties(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tree, err := s.svc.Tree(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entries := make([]propertyEntry, 0, tree.Count())
	for _, n := range tree.Flatten() {
		entries = append(entries, propertyEntry{Name: n.Name, Depth: n.Depth})
	}
	out, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) describeProperty(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name = strings.TrimSpace(name)
	tree, err := s.svc.Tree(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, ok := tree.Find(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("property not found: %s", name)), nil
	}
	children := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		children = append(children, c.Name)
	}
	out, _ := json.MarshalIndent(propertyDetail{
		Name:        n.Name,
		Depth:       n.Depth,
		DataType:    n.Attrs.DataType,
		Cardinality: n.Attrs.Cardinality,
		Notes:       n.Attrs.Notes,
		Children:    children,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
