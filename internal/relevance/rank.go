package relevance

import (
	"sort"

	"github.com/shaileshms05/learnXAI/internal/opportunity"
)

// Floors applied after gating.
const (
	LenientFloor  = 0.15
	StrongFloor   = 0.2
	DefaultFloor  = 0.25
	smallPoolSize = 5
	strongScore   = 0.4
)

// AdaptiveFloor picks the minimum score for a pool of gated candidates.
func AdaptiveFloor(gated []opportunity.ScoredListing) float64 {
	if len(gated) <= smallPoolSize {
		return LenientFloor
	}
	best := gated[0].Score
	for _, c := range gated[1:] {
		if c.Score > best {
			best = c.Score
		}
	}
	if best > strongScore {
		return StrongFloor
	}
	return DefaultFloor
}

// FilterRank gates scored, applies the adaptive floor and returns at most limit
// listings sorted by score. Ties keep their input order. When the floor
// removes everything, the best limit of the gated listings are returned;
// listings rejected by the gate are never returned.
func FilterRank(scored []opportunity.ScoredListing, q Query, limit int) []opportunity.ScoredListing {
	if len(scored) == 0 || limit < 1 {
		return nil
	}
	gated := make([]opportunity.ScoredListing, 0, len(scored))
	for _, c := range scored {
		if IsRelevant(c.RawListing, c.Score, q) {
			gated = append(gated, c)
		}
	}

	if len(gated) == 0 {
		return nil
	}

	var kept []opportunity.ScoredListing
	floor := AdaptiveFloor(gated)
	for _, c := range gated {
		if c.Score >= floor {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		kept = gated
	}

	SortByScore(kept)
	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

// SortByScore sorts descending by score, keeping the order of equal scores.
func SortByScore(listings []opportunity.ScoredListing) {
	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].Score > listings[j].Score
	})
}
