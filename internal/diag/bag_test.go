package diag

import (
	"testing"

	"cnav/internal/source"
)

func TestBagLimitKeepsErrors(t *testing.T) {
	b := NewBag(1)
	r := BagReporter{Bag: b}
	ReportWarning(r, SemaConflictingKinds, source.Span{Start: 1, End: 2}, "first").Emit()
	ReportWarning(r, SemaConflictingKinds, source.Span{Start: 3, End: 4}, "second").Emit()
	ReportError(r, SynUnclosedBrace, source.Span{Start: 9, End: 10}, "unclosed").Emit()

	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
	if b.Dropped() != 1 {
		t.Fatalf("Dropped = %d, want 1", b.Dropped())
	}
	if !b.HasErrors() {
		t.Fatalf("expected HasErrors")
	}
}

func TestBagSortAndDedup(t *testing.T) {
	b := NewBag(10)
	b.Add(New(SevWarning, SemaDuplicateMember, source.Span{Start: 20, End: 21}, "dup"))
	b.Add(New(SevError, LexUnterminatedString, source.Span{Start: 5, End: 9}, "str"))
	b.Add(New(SevWarning, SemaDuplicateMember, source.Span{Start: 20, End: 21}, "dup"))
	b.Sort()
	b.Dedup()

	items := b.Items()
	if len(items) != 2 {
		t.Fatalf("after dedup len = %d", len(items))
	}
	if items[0].Code != LexUnterminatedString {
		t.Fatalf("first = %s", items[0].Code)
	}
}

func TestDedupReporter(t *testing.T) {
	b := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: b})
	sp := source.Span{Start: 1, End: 3}
	for range 3 {
		ReportWarning(r, SemaConflictingKinds, sp, "same").WithNote(sp, "note").Emit()
	}
	if b.Len() != 1 {
		t.Fatalf("Len = %d, want 1", b.Len())
	}
	if len(b.Items()[0].Notes) != 1 {
		t.Fatalf("notes lost")
	}
}

func TestCodeID(t *testing.T) {
	tests := map[Code]string{
		LexUnterminatedBlockComment: "LEX1004",
		PPMacroRedefined:            "LEX1111",
		SynUnclosedBrace:            "SYN2006",
		SemaConflictingKinds:        "SEM3001",
		ProjBadCompileDB:            "PRJ5002",
	}
	for code, want := range tests {
		if got := code.ID(); got != want {
			t.Errorf("%d.ID() = %s, want %s", code, got, want)
		}
	}
}

func TestNewBagClampsLimit(t *testing.T) {
	b := NewBag(0)
	if b.Cap() != 1 {
		t.Fatalf("Cap = %d, want 1", b.Cap())
	}
	b.Add(NewError(IOLoadFileError, source.Span{}, "a"))
	b.Add(NewError(IOLoadFileError, source.Span{}, "b"))
	if b.Len() != 2 || b.Dropped() != 0 {
		t.Fatalf("errors must bypass the limit: len=%d dropped=%d", b.Len(), b.Dropped())
	}
}
