package lsp

import (
	"context"
	"testing"

	"cnav/internal/index"
)

func TestCaretAfterIdentifier(t *testing.T) {
	src := "int count;\nint get(void) { return count; }\n"
	ix, _, err := index.BuildText(context.Background(), "/tmp/caret.c", []byte(src), index.BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		pos  position
		want int // definitions found
	}{
		{"on identifier", position{Line: 1, Character: 23}, 1},
		{"before semicolon", position{Line: 1, Character: 28}, 1},
		{"inside keyword", position{Line: 1, Character: 17}, 0},
		{"after space", position{Line: 1, Character: 22}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locs := buildDefinition(ix, tt.pos)
			if len(locs) != tt.want {
				t.Fatalf("definition at %+v = %v, want %d", tt.pos, locs, tt.want)
			}
			if tt.want == 1 && (locs[0].Range.Start.Line != 0 || locs[0].Range.Start.Character != 4) {
				t.Fatalf("definition range = %+v", locs[0].Range)
			}
		})
	}
}
