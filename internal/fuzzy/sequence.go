package fuzzy

import "sort"

// matchBlock is a run of equal runes: a[i:i+size] == b[j:j+size].
type matchBlock struct {
	i, j, size int
}

// sequenceMatcher finds the longest contiguous matching blocks between
// two rune slices, recursing on the unmatched pieces to either side.
// No junk heuristic is applied; inputs are short spoken names.
type sequenceMatcher struct {
	a, b []rune
	b2j  map[rune][]int
}

func newSequenceMatcher(a, b []rune) *sequenceMatcher {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}
	return &sequenceMatcher{a: a, b: b, b2j: b2j}
}

// longestMatch returns the longest block inside a[alo:ahi] and
// b[blo:bhi]. Among equal-length blocks the one starting earliest in
// a wins, then earliest in b.
func (m *sequenceMatcher) longestMatch(alo, ahi, blo, bhi int) matchBlock {
	best := matchBlock{i: alo, j: blo}
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > best.size {
				best = matchBlock{i: i - k + 1, j: j - k + 1, size: k}
			}
		}
		j2len = next
	}
	return best
}

func (m *sequenceMatcher) matchingBlocks() []matchBlock {
	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(m.a), 0, len(m.b)}}
	var blocks []matchBlock
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x := m.longestMatch(s.alo, s.ahi, s.blo, s.bhi)
		if x.size == 0 {
			continue
		}
		blocks = append(blocks, x)
		if s.alo < x.i && s.blo < x.j {
			queue = append(queue, span{s.alo, x.i, s.blo, x.j})
		}
		if x.i+x.size < s.ahi && x.j+x.size < s.bhi {
			queue = append(queue, span{x.i + x.size, s.ahi, x.j + x.size, s.bhi})
		}
	}
	sort.Slice(blocks, func(p, q int) bool {
		if blocks[p].i != blocks[q].i {
			return blocks[p].i < blocks[q].i
		}
		return blocks[p].j < blocks[q].j
	})

	// collapse adjacent blocks
	var out []matchBlock
	cur := matchBlock{}
	for _, blk := range blocks {
		if cur.i+cur.size == blk.i && cur.j+cur.size == blk.j {
			cur.size += blk.size
			continue
		}
		if cur.size > 0 {
			out = append(out, cur)
		}
		cur = blk
	}
	if cur.size > 0 {
		out = append(out, cur)
	}
	return append(out, matchBlock{i: len(m.a), j: len(m.b)})
}

// ratio is 2*M/T where M is the number of matched runes and T the
// combined length. Two empty inputs are identical.
func (m *sequenceMatcher) ratio() float64 {
	total := len(m.a) + len(m.b)
	if total == 0 {
		return 1
	}
	matches := 0
	for _, blk := range m.matchingBlocks() {
		matches += blk.size
	}
	return 2 * float64(matches) / float64(total)
}
