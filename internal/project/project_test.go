package project

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func write(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"cc -c a.c", []string{"cc", "-c", "a.c"}},
		{`cc -DNAME="\"x y\"" a.c`, []string{"cc", `-DNAME="x y"`, "a.c"}},
		{`cc '-DMSG=hello world'  b.c`, []string{"cc", "-DMSG=hello world", "b.c"}},
		{`cc -DP=a\ b c.c`, []string{"cc", "-DP=a b", "c.c"}},
		{`cc "" d.c`, []string{"cc", "", "d.c"}},
	}
	for _, tt := range tests {
		got, err := SplitCommand(tt.in)
		if err != nil {
			t.Fatalf("SplitCommand(%q): %v", tt.in, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("SplitCommand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	for _, bad := range []string{`cc "open`, `cc 'open`, `cc trailing\`} {
		if _, err := SplitCommand(bad); err == nil {
			t.Fatalf("SplitCommand(%q) should fail", bad)
		}
	}
}

func TestParseFlags(t *testing.T) {
	got := ParseFlags([]string{"-O2", "-DA", "-D", "B=2", "-I", "inc", "-UC", "-U", "D", "-D"})
	want := Flags{Defines: []string{"A", "B=2"}, Undefines: []string{"C", "D"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseFlags = %+v, want %+v", got, want)
	}
}

func TestLoadCompDB(t *testing.T) {
	dir := t.TempDir()
	db := `[
  {"directory": "` + filepath.ToSlash(dir) + `", "file": "a.c", "arguments": ["cc", "-DONE", "-D", "TWO=2", "-c", "a.c"]},
  {"directory": "` + filepath.ToSlash(dir) + `/sub", "file": "../b.c", "command": "cc -UOLD '-DMSG=a b' -c ../b.c"},
  {"directory": "` + filepath.ToSlash(dir) + `", "file": "a.c", "arguments": ["cc", "-DIGNORED"]}
]`
	path := filepath.Join(dir, "compile_commands.json")
	write(t, path, db)

	cdb, err := LoadCompDB(path)
	if err != nil {
		t.Fatal(err)
	}
	if files := cdb.Files(); len(files) != 2 {
		t.Fatalf("files = %v", files)
	}
	args, ok := cdb.Args(filepath.Join(dir, "a.c"))
	if !ok {
		t.Fatalf("a.c missing")
	}
	if f := ParseFlags(args); !reflect.DeepEqual(f.Defines, []string{"ONE", "TWO=2"}) {
		t.Fatalf("a.c defines = %v", f.Defines)
	}
	args, _ = cdb.Args(filepath.Join(dir, "b.c"))
	f := ParseFlags(args)
	if !reflect.DeepEqual(f.Defines, []string{"MSG=a b"}) || !reflect.DeepEqual(f.Undefines, []string{"OLD"}) {
		t.Fatalf("b.c flags = %+v", f)
	}
}

func TestClangdApply(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ClangdName)
	write(t, path, `CompileFlags:
  Add: [-DFROM_CLANGD, -Wall]
  Remove: -DDEBUG
---
If:
  PathMatch: tests/.*\.c
CompileFlags:
  Add: -DTESTING
  Remove: [-DFAST*]
`)
	cl, err := LoadClangd(path)
	if err != nil {
		t.Fatal(err)
	}
	args := []string{"-DDEBUG=1", "-DFAST_MATH", "-DKEEP"}

	got := ParseFlags(cl.Apply(filepath.Join(dir, "src", "a.c"), args)).Defines
	if want := []string{"FAST_MATH", "KEEP", "FROM_CLANGD"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("src/a.c defines = %v, want %v", got, want)
	}
	got = ParseFlags(cl.Apply(filepath.Join(dir, "tests", "t.c"), args)).Defines
	if want := []string{"KEEP", "FROM_CLANGD", "TESTING"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("tests/t.c defines = %v, want %v", got, want)
	}
}

func TestDiscoverHonoursGitignore(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{
		"main.c", "util.h", "README.md",
		"build/gen.c", "src/deep/x.c", "src/skip_me.c",
		".hidden/h.c", "node_modules/n.c",
	} {
		write(t, filepath.Join(root, name), "int x;\n")
	}
	write(t, filepath.Join(root, ".gitignore"), "build/\nskip_me.c\n")

	got, err := Discover(root, []string{".c", ".h"})
	if err != nil {
		t.Fatal(err)
	}
	var rel []string
	for _, p := range got {
		r, _ := filepath.Rel(root, p)
		rel = append(rel, filepath.ToSlash(r))
	}
	want := []string{"main.c", "src/deep/x.c", "util.h"}
	if !reflect.DeepEqual(rel, want) {
		t.Fatalf("Discover = %v, want %v", rel, want)
	}
}

func TestOpenMergesSources(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, ConfigName), `
[index]
defines = ["FROM_TOML"]
jobs = 2

[query]
base = 1
`)
	write(t, filepath.Join(root, "compile_commands.json"), `[
  {"directory": "`+filepath.ToSlash(root)+`", "file": "a.c", "arguments": ["cc", "-DFROM_DB", "-DDROPPED", "a.c"]}
]`)
	write(t, filepath.Join(root, ClangdName), "CompileFlags:\n  Remove: -DDROPPED\n")
	write(t, filepath.Join(root, "src", "a.c"), "int x;\n")

	p, err := Open(filepath.Join(root, "src"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Root != root || p.Config.Query.Base != 1 || p.Config.Index.Jobs != 2 {
		t.Fatalf("project = %+v", p)
	}
	if !reflect.DeepEqual(p.Config.Index.Extensions, []string{".c", ".h"}) {
		t.Fatalf("defaults lost: %v", p.Config.Index.Extensions)
	}
	f := p.FlagsFor(filepath.Join(root, "a.c"), Flags{Defines: []string{"FROM_CLI"}})
	if want := []string{"FROM_TOML", "FROM_DB", "FROM_CLI"}; !reflect.DeepEqual(f.Defines, want) {
		t.Fatalf("defines = %v, want %v", f.Defines, want)
	}
	srcs, err := p.Sources(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(srcs) != 1 || filepath.Base(srcs[0]) != "a.c" {
		t.Fatalf("sources = %v", srcs)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name, body, want string
	}{
		{"base", "[query]\nbase = 2\n", "base"},
		{"unknown", "[index]\nthreads = 4\n", "unknown keys"},
		{"syntax", "[index\n", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigName)
			write(t, path, tt.body)
			_, err := LoadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestOpenWithoutConfig(t *testing.T) {
	root := t.TempDir()
	p, err := Open(root)
	if err != nil {
		t.Fatal(err)
	}
	if p.ConfigPath != "" || p.CompDB != nil || p.Clangd != nil {
		t.Fatalf("project = %+v", p)
	}
	if p.Config.LSP.DebounceMS != 300 {
		t.Fatalf("default debounce = %d", p.Config.LSP.DebounceMS)
	}
}

func TestOpenConfigExplicitPath(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "conf", "alt.toml")
	write(t, cfg, "[query]\nbase = 1\n[index]\ndefines = [\"ALT\"]\n")

	p, err := OpenConfig(cfg)
	if err != nil {
		t.Fatalf("OpenConfig: %v", err)
	}
	if p.Root != filepath.Join(dir, "conf") || p.Config.Query.Base != 1 {
		t.Fatalf("project = %+v", p)
	}
	if got := p.FlagsFor(filepath.Join(p.Root, "x.c"), Flags{}); !reflect.DeepEqual(got.Defines, []string{"ALT"}) {
		t.Fatalf("defines = %v", got.Defines)
	}
}
