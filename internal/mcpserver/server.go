// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the TIL catalog to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/til/internal/apperr"
	"github.com/starford/til/internal/index"
	"github.com/starford/til/internal/noteservice"
)

// Resource URIs.
const (
	IndexResourceURI  = "til://readme/index"
	LayoutResourceURI = "til://note-layout"
)

const defaultSearchLimit = 20

// Server wraps the MCP server with catalog tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all catalog tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"til",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note titles and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits (default 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("list_topics",
		mcp.WithDescription("List every topic with the number of notes in it."),
	), s.listTopics)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read one catalogued note: title, link, dates and body."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Catalog key (go_defer.md) or relative path (go/defer.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List catalogued notes newest first, optionally for one topic."),
		mcp.WithString("topic", mcp.Description("Optional topic (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_note_layout",
		mcp.WithDescription("Returns the rules a note must follow to be catalogued. "+
			"Read this before adding a note to the repository."),
	), s.getNoteLayout)

	s.mcp.AddResource(
		mcp.NewResource(IndexResourceURI, "README index",
			mcp.WithResourceDescription("The rendered index section of the README, grouped by topic."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readIndexResource,
	)

	s.mcp.AddResource(
		mcp.NewResource(LayoutResourceURI, "Note Layout",
			mcp.WithResourceDescription("Where notes live and how their title and dates are derived."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLayoutResource,
	)

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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", defaultSearchLimit))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) listTopics(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topics, err := s.svc.Topics(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(topics)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, index.Key(path))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(note)
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := s.svc.ListNotes(ctx, req.GetString("topic", ""), 0, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(notes) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}

	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		lines = append(lines, n.Path+"\t"+n.Title)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getNoteLayout(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteLayoutGuide), nil
}

func (s *Server) readIndexResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	frag, err := s.svc.IndexFragment(ctx)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      IndexResourceURI,
			MIMEType: "text/markdown",
			Text:     frag,
		},
	}, nil
}

func (s *Server) readLayoutResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      LayoutResourceURI,
			MIMEType: "text/markdown",
			Text:     NoteLayoutGuide,
		},
	}, nil
}
