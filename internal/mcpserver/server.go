// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes flashdeck tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/flashdeck/internal/apperr"
	"github.com/starford/flashdeck/internal/deckservice"
)

const cardFormatURI = "flashdeck://card-format"

// Server wraps the MCP server with flashdeck tools.
type Server struct {
	mcp *server.MCPServer
	svc *deckservice.Service
}

// New creates a new MCP server with all flashdeck tools registered.
func New(svc *deckservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Flashdeck",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("Return the whole tag hierarchy as a JSON tree with card counts."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("get_tag",
		mcp.WithDescription("Describe one tag: ancestors, child tags and the cards placed directly in it."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Dotted tag path (e.g. math.algebra)")),
	), s.getTag)

	s.mcp.AddTool(mcp.NewTool("read_card",
		mcp.WithDescription("Read the question, answer, header and tags of a card."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Card id")),
	), s.readCard)

	s.mcp.AddTool(mcp.NewTool("search_cards",
		mcp.WithDescription("Full-text search through card names, questions, answers and tag paths."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits (default 20)")),
	), s.searchCards)

	s.mcp.AddTool(mcp.NewTool("summarize_selection",
		mcp.WithDescription("Condense a selection of cards into the fewest tags and cards that cover it exactly."),
		mcp.WithString("card_ids", mcp.Required(), mcp.Description("Comma-separated card ids")),
	), s.summarizeSelection)

	s.mcp.AddTool(mcp.NewTool("create_study",
		mcp.WithDescription("Save a named study over a selection of cards."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Study name")),
		mcp.WithString("card_ids", mcp.Required(), mcp.Description("Comma-separated card ids")),
	), s.createStudy)

	s.mcp.AddTool(mcp.NewTool("list_sources",
		mcp.WithDescription("List deck source files, optionally restricted to a folder."),
		mcp.WithString("folder", mcp.Description("Optional folder prefix (empty for all)")),
	), s.listSources)

	s.mcp.AddTool(mcp.NewTool("write_source",
		mcp.WithDescription("Create or replace a deck source file. "+
			"Content MUST follow the card format contract. Read it first via "+
			"the get_card_format tool or the "+cardFormatURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the source file (must end with .typ)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("File content following the card format contract")),
	), s.writeSource)

	s.mcp.AddTool(mcp.NewTool("get_card_format",
		mcp.WithDescription("Returns the card source format contract. "+
			"Call this before writing source files to ensure correct structure."),
	), s.getCardFormat)

	// Resource: card format contract.
	s.mcp.AddResource(
		mcp.NewResource(cardFormatURI, "Card Format Contract",
			mcp.WithResourceDescription("Source format every deck file must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCardFormatResource,
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

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func errorResult(err error, subject string) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", subject))
	}
	return mcp.NewToolResultError(err.Error())
}

// splitIDs parses a comma-separated id list, dropping blanks.
func splitIDs(raw string) []string {
	var out []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func (s *Server) listTags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Tree(ctx)), nil
}

func (s *Server) getTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tag, err := s.svc.GetTag(ctx, path)
	if err != nil {
		return errorResult(err, path), nil
	}
	return jsonResult(tag), nil
}

func (s *Server) readCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	card, err := s.svc.GetCard(ctx, id)
	if err != nil {
		return errorResult(err, id), nil
	}
	return jsonResult(card), nil
}

func (s *Server) searchCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) summarizeSelection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("card_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Summarize(ctx, splitIDs(raw))), nil
}

func (s *Server) createStudy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("card_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	st, err := s.svc.CreateStudy(ctx, name, splitIDs(raw))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(st), nil
}

func (s *Server) listSources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := strings.Trim(req.GetString("folder", ""), "/")

	sources, err := s.svc.ListSources(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var lines []string
	for _, src := range sources {
		if folder != "" && !strings.HasPrefix(src.Path, folder+"/") {
			continue
		}
		status := fmt.Sprintf("%d cards", src.Cards)
		if !src.Indexed {
			status = "not indexed"
		}
		lines = append(lines, fmt.Sprintf("%s (%s)", src.Path, status))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no sources found"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) writeSource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	src, created, err := s.svc.PutSource(ctx, path, []byte(content), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	verb := "updated"
	if created {
		verb = "created"
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: %s (%d cards)", verb, src.Path, src.Cards)), nil
}

func (s *Server) getCardFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CardFormatContract), nil
}

func (s *Server) readCardFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      cardFormatURI,
			MIMEType: "text/markdown",
			Text:     CardFormatContract,
		},
	}, nil
}
