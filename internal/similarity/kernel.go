// Package similarity implements the linear similarity kernels of spec §4.4
// and centralizes the "larger is better" vs. "smaller is better" ordering
// inversion so every caller sees a single ranking contract: a list sorted
// from most-similar to least-similar.
package similarity

import (
	"math"

	"github.com/dreamware/ahnlich-go/internal/types"
	"github.com/dreamware/ahnlich-go/internal/vdberr"
)

// Algorithm names a similarity kernel usable for a linear scan.
type Algorithm int

const (
	Cosine Algorithm = iota
	DotProduct
	Euclidean
)

func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "cosine", "Cosine":
		return Cosine, nil
	case "dot_product", "DotProduct":
		return DotProduct, nil
	case "euclidean", "Euclidean":
		return Euclidean, nil
	default:
		return 0, vdberr.InvalidArgument("unknown similarity algorithm: " + s)
	}
}

// Score computes the raw kernel value for a and b. It does NOT apply the
// ordering inversion — callers that need a single "bigger is better"
// ordering should use Rank below.
func Score(algo Algorithm, a, b types.StoreKey) float64 {
	switch algo {
	case DotProduct:
		return dot(a, b)
	case Euclidean:
		return euclidean(a, b)
	default:
		return cosine(a, b)
	}
}

// HigherIsBetter reports whether larger raw Score values rank first.
func HigherIsBetter(algo Algorithm) bool {
	return algo != Euclidean
}

func dot(a, b types.StoreKey) float64 {
	var sum float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(a types.StoreKey) float64 {
	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func cosine(a, b types.StoreKey) float64 {
	na, nb := norm(a), norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot(a, b) / (na * nb)
}

func euclidean(a, b types.StoreKey) float64 {
	var sum float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Scored pairs a candidate with its reported similarity: the raw kernel
// value, so for Euclidean it is the (positive) distance and lower means more
// similar. Rank and RankParallel return Scored slices already ordered
// best-first for the kernel.
type Scored[T any] struct {
	Item       T
	Similarity float64
}

// Rank scores every candidate against query and returns the top n sorted
// best-first. Ties are broken by input order, which is deterministic given
// a fixed candidate slice.
func Rank[T any](algo Algorithm, query types.StoreKey, candidates []T, vectorOf func(T) types.StoreKey, n int) []Scored[T] {
	higher := HigherIsBetter(algo)
	scored := make([]Scored[T], len(candidates))
	for i, c := range candidates {
		raw := Score(algo, query, vectorOf(c))
		if !higher {
			raw = -raw
		}
		scored[i] = Scored[T]{Item: c, Similarity: displaySimilarity(algo, raw)}
	}
	sortDescByRaw(scored, algo)
	if n > 0 && n < len(scored) {
		scored = scored[:n]
	}
	return scored
}

// displaySimilarity returns the value reported to callers: for Euclidean we
// report the original (positive) distance, not the negated value used
// internally for ranking.
func displaySimilarity(algo Algorithm, ranked float64) float64 {
	if algo == Euclidean {
		return -ranked
	}
	return ranked
}

func sortDescByRaw[T any](scored []Scored[T], algo Algorithm) {
	// Insertion sort: stable, so ties keep input order. It is quadratic in
	// the candidate count, and an unfiltered linear search (RankParallel over
	// the whole store) passes every entry of the store through it.
	key := func(s Scored[T]) float64 {
		if algo == Euclidean {
			return -s.Similarity
		}
		return s.Similarity
	}
	for i := 1; i < len(scored); i++ {
		for j := i; j > 0 && key(scored[j]) > key(scored[j-1]); j-- {
			scored[j], scored[j-1] = scored[j-1], scored[j]
		}
	}
}
