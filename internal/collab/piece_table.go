package collab

import (
	"fmt"
	"strings"
)

// Position is a 1-based (line, column) pair.
type Position struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// Range is a half-open span between two Positions: start inclusive, end
// exclusive.
type Range struct {
	StartLine int `json:"startLine"`
	StartCol  int `json:"startCol"`
	EndLine   int `json:"endLine"`
	EndCol    int `json:"endCol"`
}

// cursor locates a byte position within the piece sequence.
type cursor struct {
	index        int // which piece
	bufferOffset int // absolute offset into that piece's backing buffer
	remainder    int // bytes into the piece
}

// PieceTable is a mutable in-memory document: two backing buffers (an
// immutable original and an append-only change) and an ordered sequence of pieces whose
// concatenation is the current document content. Insert and Delete never
// copy the original buffer; they only ever append to change and re-slice
// the piece sequence.
//
// A PieceTable is not safe for concurrent use — every public method reads
// or mutates the piece sequence and callers sharing a table across
// goroutines must serialize access themselves (see spec §5).
type PieceTable struct {
	original []byte
	change   []byte
	pieces   []Piece

	// Table-level indices mirroring the per-piece lineStarts index, but
	// over piece lengths and piece line-feed counts respectively. Kept in
	// lockstep with pieces by splice, giving offset addressing O(log P)
	// instead of the O(P) linear walk spec.md accepts as a floor.
	pieceLengths   *PrefixSumComputer
	pieceLineFeeds *PrefixSumComputer
}

// NewPieceTable constructs a table over an initial, immutable original
// buffer.
func NewPieceTable(initial string) *PieceTable {
	pt := &PieceTable{
		original:       []byte(initial),
		change:         []byte{},
		pieceLengths:   NewPrefixSumComputer(nil),
		pieceLineFeeds: NewPrefixSumComputer(nil),
	}
	if len(pt.original) > 0 {
		p := newPiece(true, 0, len(pt.original), pt.original)
		pt.pieces = []Piece{p}
		pt.pieceLengths = NewPrefixSumComputer([]int{p.length})
		pt.pieceLineFeeds = NewPrefixSumComputer([]int{p.lineFeedCount})
	}
	return pt
}

func (pt *PieceTable) bufFor(p Piece) []byte {
	if p.isOriginal {
		return pt.original
	}
	return pt.change
}

// docLength returns the total document length in bytes.
func (pt *PieceTable) docLength() int {
	return pt.pieceLengths.TotalValue()
}

// Len reports the document length in bytes.
func (pt *PieceTable) Len() int {
	return pt.docLength()
}

// String returns the full document content.
func (pt *PieceTable) String() string {
	return pt.GetLinesContent()
}

// splice replaces pieces[start : start+delCount] with newPieces, keeping
// the two table-level prefix sums in lockstep. This is the sole mutator of
// pt.pieces; every edit funnels through it.
func (pt *PieceTable) splice(start, delCount int, newPieces []Piece) {
	merged := make([]Piece, 0, len(pt.pieces)-delCount+len(newPieces))
	merged = append(merged, pt.pieces[:start]...)
	merged = append(merged, newPieces...)
	merged = append(merged, pt.pieces[start+delCount:]...)
	pt.pieces = merged

	lens := make([]int, len(newPieces))
	lfs := make([]int, len(newPieces))
	for i, p := range newPieces {
		lens[i] = p.length
		lfs[i] = p.lineFeedCount
	}
	pt.pieceLengths.RemoveValues(start, delCount)
	pt.pieceLengths.InsertValues(start, lens)
	pt.pieceLineFeeds.RemoveValues(start, delCount)
	pt.pieceLineFeeds.InsertValues(start, lfs)
}

// offsetCursor locates the piece cursor at byte offset. ok is false when
// offset lies strictly beyond the document, or the document is empty.
func (pt *PieceTable) offsetCursor(offset int) (c cursor, ok bool) {
	if len(pt.pieces) == 0 {
		return cursor{}, false
	}
	if offset < 0 {
		return cursor{index: 0, bufferOffset: pt.pieces[0].offset, remainder: 0}, true
	}
	total := pt.docLength()
	if offset > total {
		return cursor{}, false
	}
	if offset == total {
		return pt.endOfDocCursor(), true
	}
	idx, rem := pt.pieceLengths.GetIndexOf(offset)
	p := pt.pieces[idx]
	return cursor{index: idx, bufferOffset: p.offset + rem, remainder: rem}, true
}

// endOfDocCursor returns a cursor positioned just past the last piece.
// Callers use it when a requested range runs past the document end and the
// external contract calls for clamping rather than failing.
func (pt *PieceTable) endOfDocCursor() cursor {
	last := len(pt.pieces) - 1
	p := pt.pieces[last]
	return cursor{index: last, bufferOffset: p.offset + p.length, remainder: p.length}
}

// splitFirst builds the prefix-of-piece replacement used by both Insert and
// Delete: the part of orig strictly before the split point, or nil when
// that prefix is empty. Mirrors spec §4.3.3 step 6's firstPart recipe.
func splitFirst(orig Piece, prefixLen int, splitLine int, splitRem int) *Piece {
	if prefixLen <= 0 {
		return nil
	}
	src := orig.lineStarts.Values()[:splitLine+1]
	values := make([]int, len(src))
	copy(values, src)
	values[splitLine] = splitRem
	return &Piece{
		isOriginal:    orig.isOriginal,
		offset:        orig.offset,
		length:        prefixLen,
		lineFeedCount: splitLine,
		lineStarts:    NewPrefixSumComputer(values),
	}
}

// splitSecond builds the suffix-of-piece replacement used by both Insert
// and Delete: the part of orig at and after the split point, or nil when
// that suffix is empty. Mirrors spec §4.3.3 step 6's secondPart recipe.
func splitSecond(orig Piece, bufferOffset int, splitLine int, splitRem int) *Piece {
	secondLen := orig.offset + orig.length - bufferOffset
	if secondLen <= 0 {
		return nil
	}
	values := orig.lineStarts.Values()
	values[splitLine] -= splitRem
	if splitLine > 0 {
		values = values[splitLine:]
	}
	return &Piece{
		isOriginal:    orig.isOriginal,
		offset:        bufferOffset,
		length:        secondLen,
		lineFeedCount: orig.lineFeedCount - splitLine,
		lineStarts:    NewPrefixSumComputer(values),
	}
}

// Insert splices value into the document at offset. Inserting the empty
// string is a no-op (invariant: idempotent no-ops). Inserting past the end
// of a non-empty document is a precondition violation reported as
// ErrOutOfRange.
func (pt *PieceTable) Insert(value string, offset int) error {
	if value == "" {
		return nil
	}

	startOffset := len(pt.change)
	pt.change = append(pt.change, value...)
	newP := newPiece(false, startOffset, len(value), pt.change)

	if len(pt.pieces) == 0 {
		pt.splice(0, 0, []Piece{newP})
		return nil
	}

	c, ok := pt.offsetCursor(offset)
	if !ok {
		return fmt.Errorf("%w: insert at %d, document length %d", ErrOutOfRange, offset, pt.docLength())
	}

	orig := pt.pieces[c.index]
	prefixLen := c.bufferOffset - orig.offset
	splitLine, splitRem := orig.lineStarts.GetIndexOf(c.remainder)

	replacement := make([]Piece, 0, 3)
	if first := splitFirst(orig, prefixLen, splitLine, splitRem); first != nil {
		replacement = append(replacement, *first)
	}
	replacement = append(replacement, newP)
	if second := splitSecond(orig, c.bufferOffset, splitLine, splitRem); second != nil {
		replacement = append(replacement, *second)
	}

	pt.splice(c.index, 1, replacement)
	return nil
}

// Delete removes count bytes starting at offset. A request fully outside
// the document is a silent no-op; a request that starts inside the
// document but runs past its end is clamped to the document's end.
func (pt *PieceTable) Delete(offset, count int) error {
	if count <= 0 || len(pt.pieces) == 0 {
		return nil
	}

	first, ok := pt.offsetCursor(offset)
	if !ok {
		return nil
	}
	last, ok := pt.offsetCursor(offset + count)
	if !ok {
		last = pt.endOfDocCursor()
	}

	if first.index == last.index {
		piece := pt.pieces[first.index]

		if first.bufferOffset == piece.offset && last.bufferOffset == piece.offset+piece.length {
			pt.splice(first.index, 1, nil)
			return nil
		}

		if first.bufferOffset == piece.offset {
			splitLine, splitRem := piece.lineStarts.GetIndexOf(last.remainder)
			np := splitSecond(piece, last.bufferOffset, splitLine, splitRem)
			pt.splice(first.index, 1, []Piece{*np})
			return nil
		}

		if last.bufferOffset == piece.offset+piece.length {
			splitLine, splitRem := piece.lineStarts.GetIndexOf(first.remainder)
			np := splitFirst(piece, first.bufferOffset-piece.offset, splitLine, splitRem)
			pt.splice(first.index, 1, []Piece{*np})
			return nil
		}
	}

	firstPiece := pt.pieces[first.index]
	lastPiece := pt.pieces[last.index]

	firstSplitLine, firstSplitRem := firstPiece.lineStarts.GetIndexOf(first.remainder)
	lastSplitLine, lastSplitRem := lastPiece.lineStarts.GetIndexOf(last.remainder)

	replacement := make([]Piece, 0, 2)
	if nf := splitFirst(firstPiece, first.bufferOffset-firstPiece.offset, firstSplitLine, firstSplitRem); nf != nil {
		replacement = append(replacement, *nf)
	}
	if nl := splitSecond(lastPiece, last.bufferOffset, lastSplitLine, lastSplitRem); nl != nil {
		replacement = append(replacement, *nl)
	}

	pt.splice(first.index, last.index-first.index+1, replacement)
	return nil
}

// Substr returns the count bytes of document content starting at offset,
// clamped the same way Delete clamps.
func (pt *PieceTable) Substr(offset, count int) string {
	if count <= 0 || len(pt.pieces) == 0 {
		return ""
	}
	first, ok := pt.offsetCursor(offset)
	if !ok {
		return ""
	}
	last, ok := pt.offsetCursor(offset + count)
	if !ok {
		last = pt.endOfDocCursor()
	}

	var sb strings.Builder
	for i := first.index; i <= last.index; i++ {
		p := pt.pieces[i]
		start, end := p.offset, p.offset+p.length
		if i == first.index {
			start = first.bufferOffset
		}
		if i == last.index {
			end = last.bufferOffset
		}
		sb.Write(pt.bufFor(p)[start:end])
	}
	return sb.String()
}

// GetLinesContent returns the entire document.
func (pt *PieceTable) GetLinesContent() string {
	var sb strings.Builder
	for _, p := range pt.pieces {
		sb.Write(p.slice(pt.original, pt.change))
	}
	return sb.String()
}

// GetLineCount returns the document's line count, always >= 1.
func (pt *PieceTable) GetLineCount() int {
	return 1 + pt.pieceLineFeeds.TotalValue()
}

// locateLine walks the piece sequence to find the piece containing the
// start of the 1-based line, per spec §4.3.2 step 1. lineInPiece is the
// 1-based line index within that piece; leftBytes is the sum of the
// lengths of all pieces before it.
func (pt *PieceTable) locateLine(line int) (index, lineInPiece, leftBytes int, ok bool) {
	cumulativeLF := 0
	left := 0
	for k, p := range pt.pieces {
		if cumulativeLF+p.lineFeedCount+1 >= line {
			return k, line - cumulativeLF, left, true
		}
		cumulativeLF += p.lineFeedCount
		left += p.length
	}
	return 0, 0, 0, false
}

// GetLineContent returns line L without its trailing '\n'.
func (pt *PieceTable) GetLineContent(line int) string {
	k, lineInPiece, _, ok := pt.locateLine(line)
	if !ok {
		return ""
	}
	p := pt.pieces[k]
	baseRemainder := p.lineStarts.GetAccumulatedValue(lineInPiece - 2)

	if lineInPiece <= p.lineFeedCount {
		endRemainder := p.lineStarts.GetAccumulatedValue(lineInPiece - 1)
		content := p.slice(pt.original, pt.change)[baseRemainder:endRemainder]
		return strings.TrimSuffix(string(content), "\n")
	}

	// lineInPiece == p.lineFeedCount+1: the line's start is p's trailing
	// segment. If p is the last piece this is simply the final,
	// unterminated line of the document.
	tail := p.slice(pt.original, pt.change)[baseRemainder:]
	if k == len(pt.pieces)-1 {
		return string(tail)
	}

	var sb strings.Builder
	sb.Write(tail)
	j := k + 1
	for j < len(pt.pieces) && pt.pieces[j].lineFeedCount == 0 {
		sb.Write(pt.pieces[j].slice(pt.original, pt.change))
		j++
	}
	if j < len(pt.pieces) {
		next := pt.pieces[j]
		end := next.lineStarts.GetAccumulatedValue(0)
		sb.Write(next.slice(pt.original, pt.change)[:end])
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// GetOffsetAt converts a 1-based (line, col) into a 0-based byte offset.
func (pt *PieceTable) GetOffsetAt(line, col int) int {
	k, lineInPiece, leftBytes, ok := pt.locateLine(line)
	if !ok {
		return pt.docLength()
	}
	p := pt.pieces[k]
	base := p.lineStarts.GetAccumulatedValue(lineInPiece - 2)
	return leftBytes + base + col - 1
}

// GetPositionAt converts a 0-based byte offset into a 1-based (line, col).
func (pt *PieceTable) GetPositionAt(offset int) Position {
	if len(pt.pieces) == 0 {
		return Position{Line: 1, Col: 1}
	}
	if offset < 0 {
		offset = 0
	}
	total := pt.docLength()
	if offset > total {
		offset = total
	}

	leftBytes := 0
	k := 0
	for k < len(pt.pieces)-1 && leftBytes+pt.pieces[k].length <= offset {
		leftBytes += pt.pieces[k].length
		k++
	}
	p := pt.pieces[k]
	remaining := offset - leftBytes
	lineInPiece, col0 := p.lineStarts.GetIndexOf(remaining)

	priorLF := 0
	for i := 0; i < k; i++ {
		priorLF += pt.pieces[i].lineFeedCount
	}
	lineNumber := 1 + priorLF + lineInPiece

	// lineInPiece == 0 means this position sits in p's first segment,
	// which may itself be the tail of a line that started one or more
	// pieces earlier (when those pieces have lineFeedCount == 0 they are
	// entirely a continuation and the search must keep walking back).
	col := col0
	idx := k
	for lineInPiece == 0 && idx > 0 {
		prev := pt.pieces[idx-1]
		prevValues := prev.lineStarts.Values()
		col += prevValues[len(prevValues)-1]
		if prev.lineFeedCount > 0 {
			break
		}
		idx--
	}

	return Position{Line: lineNumber, Col: col + 1}
}

// GetValueInRange returns the document text within r (start inclusive, end
// exclusive).
func (pt *PieceTable) GetValueInRange(r Range) string {
	start := pt.GetOffsetAt(r.StartLine, r.StartCol)
	end := pt.GetOffsetAt(r.EndLine, r.EndCol)
	if end < start {
		return ""
	}
	return pt.Substr(start, end-start)
}
