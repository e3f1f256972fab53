package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"cnav/internal/index"
	"cnav/internal/source"
	"cnav/internal/workspace"
)

// Handler answers tool calls against files on disk. Each call reindexes the
// file so answers follow edits; the workspace cache makes unchanged files
// cheap.
type Handler struct {
	ws *workspace.Workspace
}

func NewHandler(ws *workspace.Workspace) *Handler {
	return &Handler{ws: ws}
}

func (h *Handler) baseName() string {
	return strconv.Itoa(h.ws.Coords().Base)
}

// Location is the structured result of a lookup.
type Location struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	EndLine int    `json:"end_line"`
	EndCol  int    `json:"end_column"`
	Text    string `json:"text,omitempty"`
}

type SymbolInfo struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Location Location `json:"location"`
}

func (h *Handler) load(ctx context.Context, req mcp.CallToolRequest) (*index.Index, error) {
	raw, err := req.RequireString("file")
	if err != nil {
		return nil, err
	}
	path, err := filepath.Abs(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid file: %w", err)
	}
	// #nosec G304 -- the caller names the file to inspect
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return h.ws.Update(ctx, path, text)
}

func requirePosition(req mcp.CallToolRequest) (index.Position, error) {
	line, err := req.RequireInt("line")
	if err != nil {
		return index.Position{}, err
	}
	col, err := req.RequireInt("column")
	if err != nil {
		return index.Position{}, err
	}
	return index.Position{Line: line, Col: col}, nil
}

func (h *Handler) location(ix *index.Index, sp source.Span) Location {
	r := ix.Range(h.ws.Coords(), sp)
	return Location{
		File:    ix.Path(),
		Line:    r.Line,
		Column:  r.StartCol,
		EndLine: r.EndLine,
		EndCol:  r.EndCol,
		Text:    ix.Text(sp),
	}
}

func (loc Location) String() string {
	return fmt.Sprintf("%s:%d:%d-%d:%d %s", loc.File, loc.Line, loc.Column, loc.EndLine, loc.EndCol, loc.Text)
}

// Definition handles the definition tool.
func (h *Handler) Definition(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pos, err := requirePosition(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ix, err := h.load(ctx, req)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("cannot index file", err), nil
	}
	off, err := ix.Offset(h.ws.Coords(), pos)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sp, err := ix.DefinitionAt(off)
	if errors.Is(err, index.ErrNotFound) {
		return mcp.NewToolResultText("no definition found"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	loc := h.location(ix, sp)
	return mcp.NewToolResultStructured(loc, loc.String()), nil
}

type referencesResult struct {
	References []Location `json:"references"`
}

// References handles the references tool.
func (h *Handler) References(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pos, err := requirePosition(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ix, err := h.load(ctx, req)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("cannot index file", err), nil
	}
	off, err := ix.Offset(h.ws.Coords(), pos)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	spans, err := ix.ReferencesAt(off, req.GetBool("include_declaration", true))
	if errors.Is(err, index.ErrNotFound) {
		return mcp.NewToolResultText("no symbol at position"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := referencesResult{References: make([]Location, len(spans))}
	lines := make([]string, len(spans))
	for i, sp := range spans {
		res.References[i] = h.location(ix, sp)
		lines[i] = res.References[i].String()
	}
	return mcp.NewToolResultStructured(res, strings.Join(lines, "\n")), nil
}

type symbolsResult struct {
	Symbols []SymbolInfo `json:"symbols"`
}

// Symbols handles the symbols tool.
func (h *Handler) Symbols(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ix, err := h.load(ctx, req)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("cannot index file", err), nil
	}
	var (
		res   symbolsResult
		lines []string
	)
	for _, id := range ix.Definitions() {
		sym := ix.Symbol(id)
		info := SymbolInfo{
			Name:     sym.Name,
			Kind:     sym.Kind.String(),
			Location: h.location(ix, sym.Def),
		}
		res.Symbols = append(res.Symbols, info)
		lines = append(lines, fmt.Sprintf("%-12s %s %d:%d", info.Kind, info.Name, info.Location.Line, info.Location.Column))
	}
	return mcp.NewToolResultStructured(res, strings.Join(lines, "\n")), nil
}
