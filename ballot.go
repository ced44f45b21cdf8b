package baraza

import "fmt"

// It's convenient to use tuples as ballot numbers.
// To generate one, a proposer combines its numerical ID with a local increasing
// round counter: (round, ID).
// To compare ballot tuples, we compare the first component and use the
// proposer ID only as a tiebreaker. Two distinct proposers can therefore never
// produce equal ballots.
type Ballot struct {
	Round      uint64
	ProposerID uint64
}

// IsZero reports whether b is the zero ballot, ie no promise/accept yet.
func (b Ballot) IsZero() bool {
	return b.Round == 0 && b.ProposerID == 0
}

// Cmp compares two ballots lexicographically by (Round, ProposerID).
// It returns -1 if b < other, 0 if equal and +1 if b > other.
func (b Ballot) Cmp(other Ballot) int {
	switch {
	case b.Round < other.Round:
		return -1
	case b.Round > other.Round:
		return 1
	case b.ProposerID < other.ProposerID:
		return -1
	case b.ProposerID > other.ProposerID:
		return 1
	default:
		return 0
	}
}

func (b Ballot) String() string {
	return fmt.Sprintf("(%d, %d)", b.Round, b.ProposerID)
}
