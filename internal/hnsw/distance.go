package hnsw

import (
	"github.com/dreamware/ahnlich-go/internal/similarity"
	"github.com/dreamware/ahnlich-go/internal/types"
)

// DistanceFor adapts one of the linear similarity kernels into the
// "smaller is more similar" DistanceFunc the graph is built and searched
// with — cosine and dot-product are negated at this single boundary so the
// rest of the package never has to special-case direction.
func DistanceFor(algo similarity.Algorithm) DistanceFunc {
	return func(a, b types.StoreKey) float64 {
		raw := similarity.Score(algo, a, b)
		if similarity.HigherIsBetter(algo) {
			return -raw
		}
		return raw
	}
}
