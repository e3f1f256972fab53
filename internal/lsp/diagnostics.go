package lsp

import (
	"errors"

	"cnav/internal/diag"
	"cnav/internal/source"
	"cnav/internal/workspace"
)

// reindex rebuilds an open document and publishes its diagnostics. Builds
// overtaken by a newer edit publish nothing.
func (s *Server) reindex(uri string) {
	s.mu.Lock()
	text, open := s.openDocs[uri]
	version := s.versions[uri]
	ws := s.ws
	ctx := s.baseCtx
	s.mu.Unlock()
	if !open {
		return
	}
	path := uriToPath(uri)
	ix, err := ws.Update(ctx, path, []byte(text))
	if errors.Is(err, workspace.ErrStale) {
		return
	}

	var (
		file  *source.File
		diags []diag.Diagnostic
	)
	if err == nil {
		file, diags = &ix.File, ix.Diagnostics
	} else {
		st, serr := ws.State(path)
		if serr != nil {
			s.logf("index %s: %v", path, err)
			return
		}
		diags = st.Diagnostics
		fs := source.NewFileSet()
		file = fs.Get(fs.AddVirtual(path, []byte(text)))
		if len(diags) == 0 {
			s.logf("index %s: %v", path, err)
		}
	}

	s.mu.Lock()
	if _, still := s.openDocs[uri]; !still {
		s.mu.Unlock()
		return
	}
	if len(diags) > 0 {
		s.published[uri] = struct{}{}
	} else {
		delete(s.published, uri)
	}
	s.mu.Unlock()
	if err := s.sendPublish(uri, &version, toLSPDiagnostics(file, diags)); err != nil {
		s.logf("failed to publish diagnostics: %v", err)
	}
}

func toLSPDiagnostics(file *source.File, diags []diag.Diagnostic) []lspDiagnostic {
	out := make([]lspDiagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, lspDiagnostic{
			Range:    rangeForSpan(file, d.Primary),
			Severity: lspSeverity(d.Severity),
			Code:     d.Code.ID(),
			Source:   "cnav",
			Message:  d.Message,
		})
	}
	return out
}

// LSP DiagnosticSeverity: 1 error, 2 warning, 3 information.
func lspSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SevError:
		return 1
	case diag.SevWarning:
		return 2
	}
	return 3
}

func (s *Server) sendPublish(uri string, version *int, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Version:     version,
			Diagnostics: list,
		},
	}
	return s.send(msg)
}

func (s *Server) clearPublishedDiagnostics() {
	s.mu.Lock()
	uris := make([]string, 0, len(s.published))
	for uri := range s.published {
		uris = append(uris, uri)
	}
	clear(s.published)
	s.mu.Unlock()
	for _, uri := range uris {
		if err := s.sendPublish(uri, nil, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
}
