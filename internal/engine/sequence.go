package engine

// SequenceSet records the policy sequence numbers already handed out in one
// batch run. It is not safe for concurrent use.
type SequenceSet struct {
	used map[int]struct{}
}

func NewSequenceSet() *SequenceSet {
	return &SequenceSet{used: make(map[int]struct{})}
}

// Claim returns the first unused number at or above want and marks it used.
func (s *SequenceSet) Claim(want int) int {
	n := want
	for s.Contains(n) {
		n++
	}
	s.used[n] = struct{}{}
	return n
}

func (s *SequenceSet) Contains(n int) bool {
	_, ok := s.used[n]
	return ok
}

func (s *SequenceSet) Len() int { return len(s.used) }
