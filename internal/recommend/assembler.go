package recommend

import (
	"errors"
	"fmt"
	"math"

	"github.com/hireloop/asmrec-go/internal/catalog"
	"github.com/hireloop/asmrec-go/internal/index"
)

// Score converts a distance into the bounded relevance score
// round(1/(1+d), 4). It is strictly decreasing in d and lies in (0, 1]
// for d ≥ 0.
func Score(distance float64) float64 {
	return math.Round(10000/(1+distance)) / 10000
}

// Assemble joins search candidates against the catalog store, in the order
// received. Sentinel ids are dropped; any other id the store cannot resolve
// means the index and catalog artifacts are out of sync and yields
// ErrIndexCorrupt. No re-sorting occurs — ordering is inherited entirely
// from the index (score order and distance order always agree because the
// score is strictly decreasing in distance).
func Assemble(cands []index.Candidate, items *catalog.Store) ([]Hit, error) {
	hits := make([]Hit, 0, len(cands))
	for _, c := range cands {
		if c.ID == index.NoMatchID {
			continue
		}
		item, err := items.At(c.ID)
		if err != nil {
			if errors.Is(err, catalog.ErrOrdinalOutOfRange) {
				return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
			}
			return nil, err
		}
		hits = append(hits, Hit{
			Item:     item,
			Distance: c.Distance,
			Score:    Score(c.Distance),
		})
	}
	return hits, nil
}
