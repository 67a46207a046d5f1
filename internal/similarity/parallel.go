package similarity

import (
	"runtime"
	"sync"

	"github.com/dreamware/ahnlich-go/internal/types"
)

// RankParallel behaves like Rank but scores candidates in parallel chunks
// across GOMAXPROCS workers before merging and ranking, per spec §4.5's
// "Implementations should run this step in parallel chunks."
func RankParallel[T any](algo Algorithm, query types.StoreKey, candidates []T, vectorOf func(T) types.StoreKey, n int) []Scored[T] {
	workers := runtime.GOMAXPROCS(0)
	if workers > len(candidates) {
		workers = len(candidates)
	}
	if workers <= 1 {
		return Rank(algo, query, candidates, vectorOf, n)
	}

	chunk := (len(candidates) + workers - 1) / workers
	partials := make([][]Scored[T], workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= len(candidates) {
			break
		}
		end := start + chunk
		if end > len(candidates) {
			end = len(candidates)
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			partials[w] = Rank(algo, query, candidates[start:end], vectorOf, 0)
		}(w, start, end)
	}
	wg.Wait()

	merged := make([]Scored[T], 0, len(candidates))
	for _, p := range partials {
		merged = append(merged, p...)
	}
	sortDescByRaw(merged, algo)
	if n > 0 && n < len(merged) {
		merged = merged[:n]
	}
	return merged
}
