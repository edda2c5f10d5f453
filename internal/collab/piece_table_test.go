package collab

import (
	"math/rand"
	"strings"
	"testing"
)

func TestPieceTable_BasicString(t *testing.T) {
	pt := NewPieceTable("Hello world")
	if got := pt.String(); got != "Hello world" {
		t.Fatalf("String() = %q, want %q", got, "Hello world")
	}
	if got := pt.Len(); got != len("Hello world") {
		t.Fatalf("Len() = %d, want %d", got, len("Hello world"))
	}
}

// S1: insert into the middle of a single-piece document.
func TestPieceTable_S1_InsertMiddle(t *testing.T) {
	pt := NewPieceTable("Hello world")
	if err := pt.Insert(" collaborative", 5); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	want := "Hello collaborative world"
	if got := pt.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if got := pt.Len(); got != len(want) {
		t.Fatalf("Len() = %d, want %d", got, len(want))
	}
}

// S2: delete exactly the piece that Insert created, so both ends of the range
// fall on piece boundaries.
func TestPieceTable_S2_DeleteAcrossPieces(t *testing.T) {
	pt := NewPieceTable("Hello world")
	if err := pt.Insert(" collaborative", 5); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	// "Hello collaborative world" -> delete " collaborative" (14 bytes at offset 5)
	if err := pt.Delete(5, 14); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	want := "Hello world"
	if got := pt.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

// S3: multi-line document with a trailing '\n': line count and per-line content.
func TestPieceTable_S3_LineAddressing(t *testing.T) {
	pt := NewPieceTable("one\ntwo\nthree\n")
	if got, want := pt.GetLineCount(), 4; got != want {
		t.Fatalf("GetLineCount() = %d, want %d", got, want)
	}
	cases := []struct {
		line int
		want string
	}{
		{1, "one"},
		{2, "two"},
		{3, "three"},
		{4, ""},
	}
	for _, c := range cases {
		if got := pt.GetLineContent(c.line); got != c.want {
			t.Fatalf("GetLineContent(%d) = %q, want %q", c.line, got, c.want)
		}
	}
}

// S4: insert that splits a piece mid-line, keeping per-piece line accounting consistent.
func TestPieceTable_S4_InsertSplitsLine(t *testing.T) {
	pt := NewPieceTable("first\nsecond\nthird")
	if err := pt.Insert("-second", 6); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	want := "first\n-secondsecond\nthird"
	if got := pt.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if got := pt.GetLineContent(2); got != "-secondsecond" {
		t.Fatalf("GetLineContent(2) = %q, want %q", got, "-secondsecond")
	}
}

// S5: delete that removes a line feed, merging two lines into one.
func TestPieceTable_S5_DeleteMergesLines(t *testing.T) {
	pt := NewPieceTable("abc\ndef")
	if err := pt.Delete(3, 1); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	want := "abcdef"
	if got := pt.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if got := pt.GetLineCount(); got != 1 {
		t.Fatalf("GetLineCount() = %d, want 1", got)
	}
}

// S6: GetOffsetAt / GetPositionAt round-trip across a document assembled
// from several pieces via repeated inserts.
func TestPieceTable_S6_OffsetPositionRoundTrip(t *testing.T) {
	pt := NewPieceTable("alpha\nbeta\ngamma\n")
	if err := pt.Insert("XX", 6); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := pt.Insert("YY", len(pt.String())-1); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	content := pt.String()
	for offset := 0; offset <= len(content); offset++ {
		pos := pt.GetPositionAt(offset)
		back := pt.GetOffsetAt(pos.Line, pos.Col)
		if back != offset {
			t.Fatalf("round trip offset %d -> %+v -> %d, content %q", offset, pos, back, content)
		}
	}
}

func TestPieceTable_InsertEmptyIsNoop(t *testing.T) {
	pt := NewPieceTable("hello")
	if err := pt.Insert("", 2); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if got := pt.String(); got != "hello" {
		t.Fatalf("String() = %q, want %q", got, "hello")
	}
}

func TestPieceTable_InsertOutOfRange(t *testing.T) {
	pt := NewPieceTable("hello")
	if err := pt.Insert("x", 99); err == nil {
		t.Fatalf("Insert() expected error for out-of-range offset")
	}
}

func TestPieceTable_DeleteClampsAtDocumentEnd(t *testing.T) {
	pt := NewPieceTable("hello")
	if err := pt.Delete(3, 100); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got := pt.String(); got != "hel" {
		t.Fatalf("String() = %q, want %q", got, "hel")
	}
}

func TestPieceTable_DeleteFullyOutOfRangeIsNoop(t *testing.T) {
	pt := NewPieceTable("hello")
	if err := pt.Delete(999, 5); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got := pt.String(); got != "hello" {
		t.Fatalf("String() = %q, want %q", got, "hello")
	}
}

func TestPieceTable_GetValueInRange(t *testing.T) {
	pt := NewPieceTable("one\ntwo\nthree\n")
	got := pt.GetValueInRange(Range{StartLine: 2, StartCol: 1, EndLine: 3, EndCol: 1})
	want := "two\n"
	if got != want {
		t.Fatalf("GetValueInRange() = %q, want %q", got, want)
	}
}

func TestPieceTable_EmptyDocument(t *testing.T) {
	pt := NewPieceTable("")
	if got := pt.Len(); got != 0 {
		t.Fatalf("Len() = %d, want 0", got)
	}
	if got := pt.GetLineCount(); got != 1 {
		t.Fatalf("GetLineCount() = %d, want 1", got)
	}
	if err := pt.Insert("hi", 0); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if got := pt.String(); got != "hi" {
		t.Fatalf("String() = %q, want %q", got, "hi")
	}
}

// checkInvariants walks the piece table content against a reference string
// built alongside every random edit, and re-derives line count/content from
// the reference by splitting on '\n' the way the contract defines a line.
func checkInvariants(t *testing.T, pt *PieceTable, ref string) {
	t.Helper()
	if got := pt.Len(); got != len(ref) {
		t.Fatalf("Len() = %d, want %d (ref %q)", got, len(ref), ref)
	}
	if got := pt.String(); got != ref {
		t.Fatalf("String() = %q, want %q", got, ref)
	}

	refLines := strings.Split(ref, "\n")
	if got, want := pt.GetLineCount(), len(refLines); got != want {
		t.Fatalf("GetLineCount() = %d, want %d (ref %q)", got, want, ref)
	}
	for i, want := range refLines {
		line := i + 1
		if got := pt.GetLineContent(line); got != want {
			t.Fatalf("GetLineContent(%d) = %q, want %q (ref %q)", line, got, want, ref)
		}
	}

	for offset := 0; offset <= len(ref); offset++ {
		pos := pt.GetPositionAt(offset)
		back := pt.GetOffsetAt(pos.Line, pos.Col)
		if back != offset {
			t.Fatalf("GetPositionAt/GetOffsetAt round trip broke at offset %d: pos=%+v back=%d (ref %q)", offset, pos, back, ref)
		}
	}
}

// TestPieceTable_RandomizedInvariants runs a seeded, deterministic sequence
// of random inserts and deletes against both a PieceTable and a plain Go
// string, checking the universal invariants after every step.
func TestPieceTable_RandomizedInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	alphabet := "ab\ncd\nef "

	pt := NewPieceTable("")
	ref := ""
	checkInvariants(t, pt, ref)

	for i := 0; i < 500; i++ {
		if len(ref) == 0 || rng.Intn(2) == 0 {
			n := rng.Intn(6) + 1
			var sb strings.Builder
			for j := 0; j < n; j++ {
				sb.WriteByte(alphabet[rng.Intn(len(alphabet))])
			}
			text := sb.String()
			offset := rng.Intn(len(ref) + 1)
			if err := pt.Insert(text, offset); err != nil {
				t.Fatalf("Insert(%q, %d) error = %v", text, offset, err)
			}
			ref = ref[:offset] + text + ref[offset:]
		} else {
			offset := rng.Intn(len(ref))
			count := rng.Intn(len(ref)-offset) + 1
			if err := pt.Delete(offset, count); err != nil {
				t.Fatalf("Delete(%d, %d) error = %v", offset, count, err)
			}
			end := offset + count
			if end > len(ref) {
				end = len(ref)
			}
			ref = ref[:offset] + ref[end:]
		}
		checkInvariants(t, pt, ref)
	}
}
