package tournament

import (
	"math/rand"

	"github.com/slushpile/slush/internal/domain"
)

// makeGroups shuffles candidates and partitions them into consecutive
// chunks of at most size members. Every candidate lands in exactly one
// group; when the population does not divide evenly the final group is
// an undersized remainder (possibly a singleton).
//
// The shuffle is deliberate: it decorrelates generation order from group
// composition, so topically adjacent ideas are not always compared against
// each other. The caller owns the rand source, which keeps grouping
// reproducible under a fixed seed.
func makeGroups(rng *rand.Rand, candidates []*domain.Candidate, size int) [][]*domain.Candidate {
	shuffled := make([]*domain.Candidate, len(candidates))
	copy(shuffled, candidates)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	groups := make([][]*domain.Candidate, 0, (len(shuffled)+size-1)/size)
	for start := 0; start < len(shuffled); start += size {
		end := min(start+size, len(shuffled))
		groups = append(groups, shuffled[start:end])
	}
	return groups
}
