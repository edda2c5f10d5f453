package collab

import "sort"

// PrefixSumComputer holds an ordered sequence of non-negative integers and
// answers cumulative-sum and inverse-lookup queries against it in O(log n).
//
// The prefix array is rebuilt lazily: mutations only lower a "valid" high
// water mark instead of recomputing eagerly, so a run of ChangeValue/
// InsertValues/RemoveValues calls pays for one rebuild at the next read
// instead of one per write.
type PrefixSumComputer struct {
	values     []int
	prefixSum  []int
	validCount int // prefixSum[0:validCount] is trustworthy
}

// NewPrefixSumComputer builds a computer over a copy of vs.
func NewPrefixSumComputer(vs []int) *PrefixSumComputer {
	values := make([]int, len(vs))
	copy(values, vs)
	return &PrefixSumComputer{values: values}
}

// DeepCopy returns an independent computer over the given values, discarding
// any cached prefix sum this instance may hold.
func (p *PrefixSumComputer) DeepCopy(vs []int) *PrefixSumComputer {
	return NewPrefixSumComputer(vs)
}

// Values returns a copy of the underlying value sequence.
func (p *PrefixSumComputer) Values() []int {
	out := make([]int, len(p.values))
	copy(out, p.values)
	return out
}

// Count returns the number of entries.
func (p *PrefixSumComputer) Count() int {
	return len(p.values)
}

func (p *PrefixSumComputer) invalidateFrom(i int) {
	if i < p.validCount {
		p.validCount = i
	}
}

// ensure grows the memoized prefix sum up through index i (inclusive).
func (p *PrefixSumComputer) ensure(i int) {
	if i < 0 {
		return
	}
	if i >= len(p.values) {
		i = len(p.values) - 1
	}
	if cap(p.prefixSum) < len(p.values) {
		fresh := make([]int, len(p.values))
		copy(fresh, p.prefixSum[:p.validCount])
		p.prefixSum = fresh
	} else {
		p.prefixSum = p.prefixSum[:len(p.values)]
	}
	start := p.validCount
	if start == 0 {
		if len(p.values) == 0 {
			return
		}
		p.prefixSum[0] = p.values[0]
		start = 1
	}
	for j := start; j <= i; j++ {
		p.prefixSum[j] = p.prefixSum[j-1] + p.values[j]
	}
	if i+1 > p.validCount {
		p.validCount = i + 1
	}
}

// ChangeValue sets entry i to v, invalidating cached sums from i onward.
func (p *PrefixSumComputer) ChangeValue(i int, v int) {
	if v < 0 {
		v = 0
	}
	if p.values[i] == v {
		return
	}
	p.values[i] = v
	p.invalidateFrom(i)
}

// RemoveValues removes cnt contiguous entries starting at start.
func (p *PrefixSumComputer) RemoveValues(start int, cnt int) {
	if cnt <= 0 {
		return
	}
	end := start + cnt
	if end > len(p.values) {
		end = len(p.values)
	}
	p.values = append(p.values[:start], p.values[end:]...)
	p.invalidateFrom(start)
}

// InsertValues inserts vs before position start.
func (p *PrefixSumComputer) InsertValues(start int, vs []int) {
	if len(vs) == 0 {
		return
	}
	grown := make([]int, 0, len(p.values)+len(vs))
	grown = append(grown, p.values[:start]...)
	grown = append(grown, vs...)
	grown = append(grown, p.values[start:]...)
	p.values = grown
	p.invalidateFrom(start)
}

// TotalValue returns the sum of all entries.
func (p *PrefixSumComputer) TotalValue() int {
	if len(p.values) == 0 {
		return 0
	}
	p.ensure(len(p.values) - 1)
	return p.prefixSum[len(p.values)-1]
}

// GetAccumulatedValue returns sum(v[0..=i]). For i < 0 it returns 0. For
// i >= n-1 it returns the total.
func (p *PrefixSumComputer) GetAccumulatedValue(i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(p.values)-1 {
		return p.TotalValue()
	}
	p.ensure(i)
	return p.prefixSum[i]
}

// GetIndexOf finds, for 0 <= target <= TotalValue(), the segment index and
// remainder such that GetAccumulatedValue(index-1) + remainder == target and
// 0 <= remainder <= values[index]. When target lands exactly on a segment
// boundary the later segment is returned with remainder == 0, except when
// target == 0, which returns (0, 0).
func (p *PrefixSumComputer) GetIndexOf(target int) (index int, remainder int) {
	if len(p.values) == 0 {
		return 0, 0
	}
	if target <= 0 {
		return 0, 0
	}
	p.ensure(len(p.values) - 1)

	// Smallest index i such that prefixSum[i] > target. On an exact
	// boundary this lands one segment past the boundary, which is the
	// "later segment, remainder 0" tie-break the contract calls for;
	// zero-length entries before the last one are skipped over the same
	// way. When target == TotalValue() the last entry is returned, even if
	// it is zero-length (an empty trailing line, say).
	i := sort.Search(len(p.prefixSum), func(i int) bool {
		return p.prefixSum[i] > target
	})
	if i >= len(p.values) {
		i = len(p.values) - 1
	}
	prior := p.GetAccumulatedValue(i - 1)
	return i, target - prior
}
