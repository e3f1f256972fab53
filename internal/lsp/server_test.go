package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

func frame(t *testing.T, in *bytes.Buffer, id int, method string, params any) {
	t.Helper()
	msg := map[string]any{"jsonrpc": "2.0", "method": method}
	if id > 0 {
		msg["id"] = id
	}
	if params != nil {
		msg["params"] = params
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	if err := writeMessage(in, payload); err != nil {
		t.Fatal(err)
	}
}

func readAll(t *testing.T, data []byte) []rpcMessage {
	t.Helper()
	r := bufio.NewReader(bytes.NewReader(data))
	var out []rpcMessage
	for {
		payload, err := readMessage(r)
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		out = append(out, msg)
	}
}

func response(t *testing.T, msgs []rpcMessage, id int, out any) {
	t.Helper()
	want, _ := json.Marshal(id)
	for _, m := range msgs {
		if m.Method == "" && bytes.Equal(m.ID, want) {
			if m.Error != nil {
				t.Fatalf("request %d failed: %+v", id, m.Error)
			}
			if err := json.Unmarshal(m.Result, out); err != nil {
				t.Fatalf("decode result %d: %v", id, err)
			}
			return
		}
	}
	t.Fatalf("no response for request %d", id)
}

func publishes(t *testing.T, msgs []rpcMessage) []publishDiagnosticsParams {
	t.Helper()
	var out []publishDiagnosticsParams
	for _, m := range msgs {
		if m.Method != "textDocument/publishDiagnostics" {
			continue
		}
		var p publishDiagnosticsParams
		if err := json.Unmarshal(m.Params, &p); err != nil {
			t.Fatal(err)
		}
		out = append(out, p)
	}
	return out
}

const pointSrc = "struct point { int x; int y; };\n" +
	"int norm(struct point *p) {\n" +
	"  return p->x + p->y;\n" +
	"}\n"

func at(line, char int) map[string]any {
	return map[string]any{"line": line, "character": char}
}

func TestSessionDefinitionAndReferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "point.c")
	uri := pathToURI(path)
	doc := map[string]any{"uri": uri}

	var in bytes.Buffer
	frame(t, &in, 1, "initialize", map[string]any{"rootUri": pathToURI(filepath.Dir(path))})
	frame(t, &in, 0, "initialized", map[string]any{})
	frame(t, &in, 0, "textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{"uri": uri, "languageId": "c", "version": 1, "text": pointSrc},
	})
	frame(t, &in, 2, "textDocument/definition", map[string]any{"textDocument": doc, "position": at(2, 12)})
	frame(t, &in, 3, "textDocument/references", map[string]any{
		"textDocument": doc, "position": at(2, 9), "context": map[string]any{"includeDeclaration": true},
	})
	frame(t, &in, 4, "textDocument/references", map[string]any{
		"textDocument": doc, "position": at(2, 9), "context": map[string]any{"includeDeclaration": false},
	})
	frame(t, &in, 5, "textDocument/hover", map[string]any{"textDocument": doc, "position": at(0, 0)})
	frame(t, &in, 6, "shutdown", nil)
	frame(t, &in, 0, "exit", nil)

	var out syncBuffer
	srv := NewServer(&in, &out, ServerOptions{Debounce: time.Hour, Log: io.Discard})
	if err := srv.Run(context.Background()); !errors.Is(err, ErrExit) {
		t.Fatalf("Run = %v, want ErrExit", err)
	}
	msgs := readAll(t, out.Bytes())

	var init initializeResult
	response(t, msgs, 1, &init)
	if !init.Capabilities.DefinitionProvider || !init.Capabilities.ReferencesProvider {
		t.Fatalf("capabilities = %+v", init.Capabilities)
	}

	var def []location
	response(t, msgs, 2, &def)
	want := lspRange{Start: position{Line: 0, Character: 19}, End: position{Line: 0, Character: 20}}
	if len(def) != 1 || def[0].Range != want || def[0].URI != uri {
		t.Fatalf("definition = %+v", def)
	}

	var refs []location
	response(t, msgs, 3, &refs)
	if len(refs) != 3 || refs[0].Range.Start != (position{Line: 1, Character: 23}) {
		t.Fatalf("references with declaration = %+v", refs)
	}
	response(t, msgs, 4, &refs)
	if len(refs) != 2 || refs[1].Range.Start != (position{Line: 2, Character: 16}) {
		t.Fatalf("references without declaration = %+v", refs)
	}

	for _, m := range msgs {
		if string(m.ID) == "5" && (m.Error == nil || m.Error.Code != codeMethodNotFound) {
			t.Fatalf("hover should be method-not-found, got %+v", m)
		}
	}
	pubs := publishes(t, msgs)
	if len(pubs) == 0 || len(pubs[0].Diagnostics) != 0 {
		t.Fatalf("clean open should publish an empty list, got %+v", pubs)
	}
}

func TestExitWithoutShutdown(t *testing.T) {
	var in bytes.Buffer
	frame(t, &in, 0, "exit", nil)
	srv := NewServer(&in, io.Discard, ServerOptions{Log: io.Discard})
	if err := srv.Run(context.Background()); !errors.Is(err, ErrExitWithoutShutdown) {
		t.Fatalf("Run = %v", err)
	}
}

func decodeParams(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestStructuralErrorsArePublished(t *testing.T) {
	uri := pathToURI(filepath.Join(t.TempDir(), "broken.c"))
	var out syncBuffer
	srv := NewServer(bytes.NewReader(nil), &out, ServerOptions{Debounce: time.Hour, Log: io.Discard})
	err := srv.handleDidOpen(&rpcMessage{Params: decodeParams(t, didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, Version: 1, Text: "int ok;\nint x; /* open\n"},
	})})
	if err != nil {
		t.Fatal(err)
	}
	pubs := publishes(t, readAll(t, out.Bytes()))
	if len(pubs) != 1 || len(pubs[0].Diagnostics) == 0 {
		t.Fatalf("publishes = %+v", pubs)
	}
	d := pubs[0].Diagnostics[0]
	if d.Severity != 1 || d.Source != "cnav" || d.Range.Start.Line != 1 {
		t.Fatalf("diagnostic = %+v", d)
	}
	if pubs[0].Version == nil || *pubs[0].Version != 1 {
		t.Fatalf("publish should carry the document version")
	}
}

func TestDidChangeIsDebounced(t *testing.T) {
	uri := pathToURI(filepath.Join(t.TempDir(), "a.c"))
	var out syncBuffer
	srv := NewServer(bytes.NewReader(nil), &out, ServerOptions{Debounce: 20 * time.Millisecond, Log: io.Discard})
	open := didOpenTextDocumentParams{TextDocument: textDocumentItem{URI: uri, Version: 1, Text: "int a;\n"}}
	if err := srv.handleDidOpen(&rpcMessage{Params: decodeParams(t, open)}); err != nil {
		t.Fatal(err)
	}
	for v := 2; v <= 4; v++ {
		change := didChangeTextDocumentParams{
			TextDocument: versionedTextDocumentIdentifier{URI: uri, Version: v},
			ContentChanges: []textDocumentContentChangeEvent{{
				Range: &lspRange{Start: position{Line: 0, Character: 5}, End: position{Line: 0, Character: 5}},
				Text:  "b",
			}},
		}
		if err := srv.handleDidChange(&rpcMessage{Params: decodeParams(t, change)}); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		pubs := publishes(t, readAll(t, out.Bytes()))
		if len(pubs) == 2 {
			if v := pubs[1].Version; v == nil || *v != 4 {
				t.Fatalf("debounced publish version = %v", v)
			}
			break
		}
		if len(pubs) > 2 {
			t.Fatalf("edits were not coalesced: %d publishes", len(pubs))
		}
		if time.Now().After(deadline) {
			t.Fatalf("debounced reindex never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}
	ix := srv.indexFor(uri)
	if ix == nil || string(ix.File.Content) != "int abbb;\n" {
		t.Fatalf("snapshot not updated")
	}
}

func TestUnopenedFilesLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.c")
	if err := os.WriteFile(path, []byte(pointSrc), 0o644); err != nil {
		t.Fatal(err)
	}
	srv := NewServer(bytes.NewReader(nil), io.Discard, ServerOptions{Log: io.Discard})
	ix := srv.indexFor(pathToURI(path))
	if ix == nil {
		t.Fatalf("file was not indexed on demand")
	}
	if locs := buildDefinition(ix, position{Line: 2, Character: 16}); len(locs) != 1 || locs[0].Range.Start.Line != 1 {
		t.Fatalf("definition = %+v", locs)
	}
}
