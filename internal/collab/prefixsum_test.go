package collab

import (
	"math/rand"
	"testing"
)

func TestPrefixSumComputer_Basic(t *testing.T) {
	p := NewPrefixSumComputer([]int{5, 3, 7})
	if got := p.TotalValue(); got != 15 {
		t.Fatalf("TotalValue() = %d, want 15", got)
	}
	if got := p.GetAccumulatedValue(0); got != 5 {
		t.Fatalf("GetAccumulatedValue(0) = %d, want 5", got)
	}
	if got := p.GetAccumulatedValue(1); got != 8 {
		t.Fatalf("GetAccumulatedValue(1) = %d, want 8", got)
	}
	if got := p.GetAccumulatedValue(-1); got != 0 {
		t.Fatalf("GetAccumulatedValue(-1) = %d, want 0", got)
	}
}

func TestPrefixSumComputer_GetIndexOf_BoundaryTieBreak(t *testing.T) {
	p := NewPrefixSumComputer([]int{5, 3})
	// target == 0 always resolves to the first segment.
	if idx, rem := p.GetIndexOf(0); idx != 0 || rem != 0 {
		t.Fatalf("GetIndexOf(0) = (%d,%d), want (0,0)", idx, rem)
	}
	// target sits exactly on the boundary between segment 0 and 1: contract
	// says the later segment wins, with remainder 0.
	if idx, rem := p.GetIndexOf(5); idx != 1 || rem != 0 {
		t.Fatalf("GetIndexOf(5) = (%d,%d), want (1,0)", idx, rem)
	}
	if idx, rem := p.GetIndexOf(6); idx != 1 || rem != 1 {
		t.Fatalf("GetIndexOf(6) = (%d,%d), want (1,1)", idx, rem)
	}
	if idx, rem := p.GetIndexOf(8); idx != 1 || rem != 3 {
		t.Fatalf("GetIndexOf(8) = (%d,%d), want (1,3)", idx, rem)
	}
}

func TestPrefixSumComputer_GetIndexOf_SkipsZeroLengthSegments(t *testing.T) {
	// a zero-length entry between two segments must never be selected as
	// the landing segment for a target on its boundary.
	p := NewPrefixSumComputer([]int{4, 0, 6})
	if idx, rem := p.GetIndexOf(4); idx != 2 || rem != 0 {
		t.Fatalf("GetIndexOf(4) = (%d,%d), want (2,0)", idx, rem)
	}
}

func TestPrefixSumComputer_InsertRemoveInvalidatesFromStart(t *testing.T) {
	p := NewPrefixSumComputer([]int{1, 2, 3, 4})
	_ = p.TotalValue() // force a full rebuild
	p.InsertValues(1, []int{10, 20})
	if got := p.Values(); len(got) != 6 || got[1] != 10 || got[2] != 20 {
		t.Fatalf("Values() after insert = %v", got)
	}
	if got := p.TotalValue(); got != 1+10+20+2+3+4 {
		t.Fatalf("TotalValue() = %d, want %d", got, 1+10+20+2+3+4)
	}
	p.RemoveValues(0, 2)
	if got := p.Values(); len(got) != 4 || got[0] != 20 {
		t.Fatalf("Values() after remove = %v", got)
	}
}

func TestPrefixSumComputer_ChangeValueClampsNegative(t *testing.T) {
	p := NewPrefixSumComputer([]int{1, 2, 3})
	p.ChangeValue(1, -5)
	if got := p.Values()[1]; got != 0 {
		t.Fatalf("Values()[1] = %d, want 0", got)
	}
}

// TestPrefixSumComputer_MatchesNaiveSum checks TotalValue and
// GetAccumulatedValue against a naive recomputation after a random sequence
// of mutations, using a fixed seed for determinism.
func TestPrefixSumComputer_MatchesNaiveSum(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	values := []int{2, 4, 1, 8, 3}
	p := NewPrefixSumComputer(values)

	naiveTotal := func(vs []int) int {
		total := 0
		for _, v := range vs {
			total += v
		}
		return total
	}
	naiveAccumulated := func(vs []int, i int) int {
		if i < 0 {
			return 0
		}
		total := 0
		for j := 0; j <= i && j < len(vs); j++ {
			total += vs[j]
		}
		return total
	}

	for i := 0; i < 200; i++ {
		switch rng.Intn(3) {
		case 0:
			if len(values) > 0 {
				idx := rng.Intn(len(values))
				v := rng.Intn(10)
				values[idx] = v
				p.ChangeValue(idx, v)
			}
		case 1:
			idx := rng.Intn(len(values) + 1)
			n := rng.Intn(3) + 1
			vs := make([]int, n)
			for j := range vs {
				vs[j] = rng.Intn(10)
			}
			out := make([]int, 0, len(values)+n)
			out = append(out, values[:idx]...)
			out = append(out, vs...)
			out = append(out, values[idx:]...)
			values = out
			p.InsertValues(idx, vs)
		case 2:
			if len(values) > 0 {
				idx := rng.Intn(len(values))
				n := rng.Intn(len(values)-idx) + 1
				values = append(values[:idx], values[idx+n:]...)
				p.RemoveValues(idx, n)
			}
		}

		if got, want := p.TotalValue(), naiveTotal(values); got != want {
			t.Fatalf("iteration %d: TotalValue() = %d, want %d (values=%v)", i, got, want, values)
		}
		for j := range values {
			if got, want := p.GetAccumulatedValue(j), naiveAccumulated(values, j); got != want {
				t.Fatalf("iteration %d: GetAccumulatedValue(%d) = %d, want %d (values=%v)", i, j, got, want, values)
			}
		}
	}
}
