package domain

// Product is a catalogue entry as returned by the shopping API.
// Values are never mutated after decoding.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	Tags        []string `json:"tags"`
	ImageURL    *string  `json:"image_url,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	InStock     bool     `json:"in_stock"`
	Brand       *string  `json:"brand,omitempty"`
}

// ChatSource is a knowledge-base document the assistant drew on for an answer.
type ChatSource struct {
	Title     string  `json:"title"`
	Type      string  `json:"type"`
	Category  string  `json:"category"`
	Relevance float64 `json:"relevance"`
}

// ChatTurn is one question/answer exchange of the transcript.
type ChatTurn struct {
	Question        string       `json:"question"`
	Answer          string       `json:"answer"`
	Sources         []ChatSource `json:"sources"`
	RelatedProducts []Product    `json:"related_products"`
}

// RecommendationSet is a ranked list of products similar to a seed.
// When SimilarityScores is non-nil it is index-aligned with Recommendations.
type RecommendationSet struct {
	BasedOn          string    `json:"based_on"`
	Recommendations  []Product `json:"recommendations"`
	SimilarityScores []float64 `json:"similarity_scores,omitempty"`
}

// HasScores reports whether the set carries similarity scores.
func (r RecommendationSet) HasScores() bool { return r.SimilarityScores != nil }

// SearchResponse is the payload of a search call.
type SearchResponse struct {
	Query           string    `json:"query"`
	Results         []Product `json:"results"`
	Total           int       `json:"total"`
	SemanticMatches bool      `json:"semantic_matches"`
}

// HealthStatus is the loosely typed payload of the health endpoint.
type HealthStatus struct {
	Status  string
	Version string
	Extra   map[string]any
}

// OK reports whether the remote API considers itself healthy.
func (h HealthStatus) OK() bool {
	return h.Status == "healthy" || h.Status == "ok"
}
