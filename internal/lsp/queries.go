package lsp

import (
	"encoding/json"
	"errors"
	"os"

	"cnav/internal/index"
	"cnav/internal/workspace"
)

func (s *Server) handleDefinition(msg *rpcMessage) error {
	var params definitionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	ix := s.indexFor(params.TextDocument.URI)
	if ix == nil {
		return s.sendResponse(msg.ID, []location{})
	}
	return s.sendResponse(msg.ID, buildDefinition(ix, params.Position))
}

func (s *Server) handleReferences(msg *rpcMessage) error {
	var params referenceParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	ix := s.indexFor(params.TextDocument.URI)
	if ix == nil {
		return s.sendResponse(msg.ID, []location{})
	}
	return s.sendResponse(msg.ID, buildReferences(ix, params.Position, params.Context.IncludeDeclaration))
}

func buildDefinition(ix *index.Index, pos position) []location {
	span, err := ix.DefinitionAt(caretOffset(ix, pos))
	if err != nil {
		return []location{}
	}
	return []location{{URI: pathToURI(ix.Path()), Range: rangeForSpan(&ix.File, span)}}
}

func buildReferences(ix *index.Index, pos position, includeDecl bool) []location {
	spans, err := ix.ReferencesAt(caretOffset(ix, pos), includeDecl)
	if err != nil {
		return []location{}
	}
	uri := pathToURI(ix.Path())
	out := make([]location, len(spans))
	for i, sp := range spans {
		out[i] = location{URI: uri, Range: rangeForSpan(&ix.File, sp)}
	}
	return out
}

// caretOffset maps an editor caret to the byte to query. A caret between an
// identifier and the next character still names the identifier.
func caretOffset(ix *index.Index, pos position) uint32 {
	off := offsetInFile(&ix.File, pos)
	if _, ok := ix.OccurrenceAt(off); ok || off == 0 {
		return off
	}
	if _, ok := ix.OccurrenceAt(off - 1); ok {
		return off - 1
	}
	return off
}

// indexFor returns the current snapshot for uri. Files the client never
// opened are indexed from disk on first use.
func (s *Server) indexFor(rawURI string) *index.Index {
	uri := canonicalURI(rawURI)
	path := uriToPath(uri)
	if path == "" {
		return nil
	}
	ws := s.workspace()
	ix, err := ws.Snapshot(path)
	if err == nil {
		return ix
	}
	if !errors.Is(err, workspace.ErrUnknownUnit) {
		return nil
	}
	// #nosec G304 -- the client asked about this file
	text, err := os.ReadFile(path)
	if err != nil {
		s.logf("load %s: %v", path, err)
		return nil
	}
	ix, err = ws.Update(s.context(), path, text)
	if err != nil {
		s.logf("index %s: %v", path, err)
		return nil
	}
	return ix
}
