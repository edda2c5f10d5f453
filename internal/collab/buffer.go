package collab

import (
	"fmt"

	"collabcore/internal/ot/delta"
)

// Buffer is the document content backing a single collaborative session. It
// is the Service layer's view of the core piece table: apply an operational
// transform delta, read back content, and resolve cursor positions against
// the authoritative server-side text.
type Buffer interface {
	Len() int
	Apply(d delta.Delta) error
	String() string

	GetLineCount() int
	GetLineContent(line int) string
	GetOffsetAt(line, col int) int
	GetPositionAt(offset int) Position
	GetValueInRange(r Range) string
}

// pieceTableBuffer adapts a *PieceTable to the Buffer interface, translating
// each delta op into a sequence of Insert/Delete calls at byte offsets.
//
// Example: applying [{Retain 5}, {Insert " collaborative"}] to "Hello world"
// walks a cursor from 0, retains past "Hello" to offset 5, then inserts
// " collaborative" there, producing "Hello collaborative world".
type pieceTableBuffer struct {
	pt *PieceTable
}

// NewBuffer wraps a fresh PieceTable seeded with initial content.
func NewBuffer(initial string) Buffer {
	return &pieceTableBuffer{pt: NewPieceTable(initial)}
}

func (b *pieceTableBuffer) Len() int      { return b.pt.Len() }
func (b *pieceTableBuffer) String() string { return b.pt.String() }

func (b *pieceTableBuffer) Apply(d delta.Delta) error {
	cursor := 0
	for _, op := range d {
		switch op.Kind {
		case delta.KindRetain:
			cursor += op.Count
		case delta.KindInsert:
			if err := b.pt.Insert(op.Text, cursor); err != nil {
				return fmt.Errorf("apply insert at %d: %w", cursor, err)
			}
			cursor += len(op.Text)
		case delta.KindDelete:
			if err := b.pt.Delete(cursor, op.Count); err != nil {
				return fmt.Errorf("apply delete at %d: %w", cursor, err)
			}
		default:
			return fmt.Errorf("apply: unknown op kind %q", op.Kind)
		}
	}
	return nil
}

func (b *pieceTableBuffer) GetLineCount() int                { return b.pt.GetLineCount() }
func (b *pieceTableBuffer) GetLineContent(line int) string    { return b.pt.GetLineContent(line) }
func (b *pieceTableBuffer) GetOffsetAt(line, col int) int     { return b.pt.GetOffsetAt(line, col) }
func (b *pieceTableBuffer) GetPositionAt(offset int) Position { return b.pt.GetPositionAt(offset) }
func (b *pieceTableBuffer) GetValueInRange(r Range) string    { return b.pt.GetValueInRange(r) }
