package domain

// Ranking is an ordered permutation of a question's options. Slice position
// and the Rank field stay in lockstep: entry i always carries rank i+1.
type Ranking []RankedOption

// NewRanking builds the initial ranking from a question's options, ranks
// 1..N in original order.
func NewRanking(options []Option) Ranking {
	ranking := make(Ranking, len(options))
	for i, opt := range options {
		ranking[i] = RankedOption{Text: opt.Text, Rank: i + 1}
	}
	return ranking
}

// Reorder returns a new ranking with the element at from moved to to, with
// every rank re-derived from its new position. The receiver is not mutated.
// A move onto itself is a no-op; indices outside the ranking fail with
// ErrRankOutOfRange.
func (r Ranking) Reorder(from, to int) (Ranking, error) {
	if from < 0 || from >= len(r) || to < 0 || to >= len(r) {
		return nil, ErrRankOutOfRange
	}
	if from == to {
		return r.Clone(), nil
	}

	next := make(Ranking, 0, len(r))
	next = append(next, r[:from]...)
	next = append(next, r[from+1:]...)
	next = append(next[:to], append(Ranking{r[from]}, next[to:]...)...)

	// Ranks are always rebuilt wholesale, never patched entry by entry.
	for i := range next {
		next[i].Rank = i + 1
	}
	return next, nil
}

// Clone returns an independent copy of the ranking.
func (r Ranking) Clone() Ranking {
	if r == nil {
		return nil
	}
	out := make(Ranking, len(r))
	copy(out, r)
	return out
}

// IsPermutation reports whether the ranks form exactly the set 1..N.
func (r Ranking) IsPermutation() bool {
	seen := make([]bool, len(r))
	for _, opt := range r {
		if opt.Rank < 1 || opt.Rank > len(r) || seen[opt.Rank-1] {
			return false
		}
		seen[opt.Rank-1] = true
	}
	return true
}
