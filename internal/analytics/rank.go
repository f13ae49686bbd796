package analytics

import (
	"math"
	"sort"
)

// Top-N sizes used by dashboards.
const (
	ChartTopN = 5
	TableTopN = 10
)

// Ranked is one entry of a top-N listing.
type Ranked struct {
	Key        string  `json:"key"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TopN ranks the entries of a rollup by count descending and keeps the
// first n. Equal counts are ordered by key ascending. Percentages are
// relative to the sum of all entries of the rollup, not only the kept ones,
// and rounded to one decimal. A non-positive n keeps every entry.
func TopN(counts map[string]int, n int) []Ranked {
	total := 0
	out := make([]Ranked, 0, len(counts))

	for key, count := range counts {
		total += count
		out = append(out, Ranked{Key: key, Count: count})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}

		return out[i].Key < out[j].Key
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}

	for i := range out {
		out[i].Percentage = percentage(out[i].Count, total)
	}

	return out
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}

	return math.Round(float64(count)/float64(total)*1000) / 10
}
