package destinations

import (
	"sort"
	"strings"

	"github.com/greentravel/greentravel_core/internal/models"
)

// tagWeight is how many carbon points one matching tag is worth
const tagWeight = 5

// Query narrows and ranks destinations. Zero values disable a criterion.
type Query struct {
	MaxCarbon *int
	Transport string
	Tags      []string
}

type ranked struct {
	dest     models.Destination
	rank     int
	tagScore int
}

// Filter drops destinations above MaxCarbon or without the requested
// transport, then orders the rest by carbon score discounted by matching
// tags (lower first), breaking ties on more matching tags. The input slice is
// not modified.
func Filter(dests []models.Destination, q Query) []models.Destination {
	transport := strings.ToLower(strings.TrimSpace(q.Transport))
	wanted := normalizeList(q.Tags)

	results := make([]ranked, 0, len(dests))
	for _, d := range dests {
		if q.MaxCarbon != nil && d.CarbonScore > *q.MaxCarbon {
			continue
		}
		if transport != "" && !contains(normalizeList(d.Transports), transport) {
			continue
		}

		tagScore := 0
		if len(wanted) > 0 {
			have := normalizeList(d.Tags)
			for _, tag := range wanted {
				if contains(have, tag) {
					tagScore++
				}
			}
		}

		results = append(results, ranked{
			dest:     d,
			rank:     d.CarbonScore - tagScore*tagWeight,
			tagScore: tagScore,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].rank != results[j].rank {
			return results[i].rank < results[j].rank
		}
		return results[i].tagScore > results[j].tagScore
	})

	out := make([]models.Destination, len(results))
	for i, r := range results {
		out[i] = r.dest
	}
	return out
}

// SplitList parses a comma-separated list, dropping blanks
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.ToLower(strings.TrimSpace(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}
