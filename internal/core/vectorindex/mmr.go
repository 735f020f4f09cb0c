package vectorindex

import (
	"math"
)

// Default diversity parameters used for curated law corpora.
const (
	DefaultFetchK = 30
	DefaultLambda = 0.7
)

// maximalMarginalRelevance picks k candidates that balance relevance to the
// query against redundancy with what was already picked. lambda = 1 ranks
// purely by relevance, lambda = 0 purely by diversity. Candidates without a
// vector count as having no redundancy.
func maximalMarginalRelevance(query []float32, cands []Hit, k int, lambda float32) []Hit {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	if k > len(cands) {
		k = len(cands)
	}

	relevance := make([]float32, len(cands))
	for i, c := range cands {
		if len(c.Vector) > 0 {
			relevance[i] = cosine(query, c.Vector)
		} else {
			relevance[i] = c.Score
		}
	}

	picked := make([]int, 0, k)
	used := make([]bool, len(cands))
	for len(picked) < k {
		best, bestScore := -1, float32(math.Inf(-1))
		for i := range cands {
			if used[i] {
				continue
			}
			var redundancy float32
			for _, j := range picked {
				if s := cosine(cands[i].Vector, cands[j].Vector); s > redundancy {
					redundancy = s
				}
			}
			score := lambda*relevance[i] - (1-lambda)*redundancy
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		used[best] = true
		picked = append(picked, best)
	}

	out := make([]Hit, 0, k)
	for _, i := range picked {
		out = append(out, cands[i])
	}
	return out
}

// cosine returns the cosine similarity of a and b, or 0 when either is empty,
// zero, or the lengths differ.
func cosine(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
