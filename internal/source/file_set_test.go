package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("main.c", []byte("int a;"), 0)
	id2 := fs.Add("main.c", []byte("int b;"), 0)
	if id1 == id2 {
		t.Fatalf("expected distinct ids, got %d twice", id1)
	}
	latest, ok := fs.GetLatest("main.c")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d, %v; want %d", latest, ok, id2)
	}
	if got := string(fs.Get(id1).Content); got != "int a;" {
		t.Errorf("old version content = %q", got)
	}
}

func TestLineColRoundTrip(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("x.c", []byte("int a;\nint bb;\n\nchar c;"))
	f := fs.Get(id)

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{4, LineCol{1, 5}},
		{6, LineCol{1, 7}}, // the newline stays on its line
		{7, LineCol{2, 1}},
		{11, LineCol{2, 5}},
		{15, LineCol{3, 1}},
		{21, LineCol{4, 6}},
	}
	for _, tt := range tests {
		got := f.LineCol(tt.off)
		if got != tt.want {
			t.Errorf("LineCol(%d) = %+v, want %+v", tt.off, got, tt.want)
			continue
		}
		back, ok := f.Offset(got)
		if !ok || back != tt.off {
			t.Errorf("Offset(%+v) = %d, %v; want %d", got, back, ok, tt.off)
		}
	}
	if n := f.LineCount(); n != 4 {
		t.Errorf("LineCount = %d, want 4", n)
	}
	if line := f.GetLine(2); line != "int bb;" {
		t.Errorf("GetLine(2) = %q", line)
	}
}

func TestOffsetClampsToLineEnd(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("x.c", []byte("ab\ncd")))
	off, ok := f.Offset(LineCol{Line: 1, Col: 40})
	if !ok || off != 2 {
		t.Fatalf("Offset = %d, %v; want 2, true", off, ok)
	}
	if _, ok := f.Offset(LineCol{Line: 9, Col: 1}); ok {
		t.Fatalf("expected out-of-range line to fail")
	}
}

func TestLoadNormalizesCRLFAndBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.c")
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("int a;\r\nint b;\r\n")...)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "int a;\nint b;\n" {
		t.Fatalf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags = %b", f.Flags)
	}
}

func TestNormalizeUTF16(t *testing.T) {
	// "int x;" as UTF-16LE with BOM
	le := []byte{0xFF, 0xFE}
	for _, r := range "int x;" {
		le = append(le, byte(r), 0)
	}
	out, flags, err := Normalize(le)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if string(out) != "int x;" {
		t.Fatalf("decoded = %q", out)
	}
	if flags&FileDecodedUTF16 == 0 {
		t.Fatalf("missing FileDecodedUTF16 flag")
	}

	be := []byte{0xFE, 0xFF}
	for _, r := range "y" {
		be = append(be, 0, byte(r))
	}
	out, _, err = Normalize(be)
	if err != nil || string(out) != "y" {
		t.Fatalf("big endian decode = %q, %v", out, err)
	}
}

func TestSpanContains(t *testing.T) {
	s := Span{Start: 4, End: 8}
	if !s.Contains(4) || !s.Contains(7) || s.Contains(8) || s.Contains(3) {
		t.Fatalf("Contains is not half-open for %v", s)
	}
	if !s.Encloses(Span{Start: 5, End: 8}) || s.Encloses(Span{Start: 5, End: 9}) {
		t.Fatalf("Encloses mismatch")
	}
}
