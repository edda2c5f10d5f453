package collab

// Piece identifies a half-open slice of one of the table's two backing
// buffers, plus a cached line-feed count and a per-piece prefix-sum index
// over the byte lengths of the lines the slice touches.
//
// Pieces are immutable by convention: an edit that needs to change one
// clones it (deepCopy on the embedded lineStarts) rather than mutating a
// piece another part of the table might still reference.
type Piece struct {
	isOriginal    bool
	offset        int
	length        int
	lineFeedCount int
	lineStarts    *PrefixSumComputer
}

// newPiece scans buf[offset:offset+length] for line feeds and builds the
// per-piece line-starts index described in spec §4.2:
//
//   - values[i] = distance from the previous line feed to this one
//     (inclusive of the terminating '\n'), for 0 <= i < lineFeedCount
//   - values[0] covers the bytes up to and including the first '\n'
//   - the final entry is the trailing segment after the last '\n' (or
//     the whole slice, when there are no line feeds at all)
func newPiece(isOriginal bool, offset, length int, buf []byte) Piece {
	slice := buf[offset : offset+length]
	var lfOffsets []int
	for i, b := range slice {
		if b == '\n' {
			lfOffsets = append(lfOffsets, i)
		}
	}
	count := len(lfOffsets)
	values := make([]int, count+1)
	prev := -1
	for i, lf := range lfOffsets {
		values[i] = lf - prev
		prev = lf
	}
	values[count] = length - prev - 1

	return Piece{
		isOriginal:    isOriginal,
		offset:        offset,
		length:        length,
		lineFeedCount: count,
		lineStarts:    NewPrefixSumComputer(values),
	}
}

// slice returns the piece's content, reading from whichever buffer it
// belongs to.
func (p Piece) slice(original, change []byte) []byte {
	if p.isOriginal {
		return original[p.offset : p.offset+p.length]
	}
	return change[p.offset : p.offset+p.length]
}
