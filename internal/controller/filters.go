package controller

import (
	"math"
	"strconv"
	"strings"
)

// SearchFilters narrows a search. Nil fields are not sent.
type SearchFilters struct {
	Category *string
	MinPrice *float64
	MaxPrice *float64
}

// ParseSearchInput splits raw search box input into the free-text query and
// inline filters. Recognised tokens are category:<name>, min:<price> and
// max:<price>; a token whose value does not parse is kept as query text.
func ParseSearchInput(raw string) (string, SearchFilters) {
	var (
		filters SearchFilters
		words   []string
	)
	for _, tok := range strings.Fields(raw) {
		key, value, ok := strings.Cut(tok, ":")
		if !ok || value == "" {
			words = append(words, tok)
			continue
		}
		switch strings.ToLower(key) {
		case "category", "cat":
			v := value
			filters.Category = &v
		case "min":
			f, ok := parsePrice(value)
			if !ok {
				words = append(words, tok)
				continue
			}
			filters.MinPrice = &f
		case "max":
			f, ok := parsePrice(value)
			if !ok {
				words = append(words, tok)
				continue
			}
			filters.MaxPrice = &f
		default:
			words = append(words, tok)
		}
	}
	return strings.Join(words, " "), filters
}

// parsePrice accepts finite, non-negative prices only.
func parsePrice(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}
