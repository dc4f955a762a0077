package domain

import "context"

// SearchRequest is the body of a search call. Optional filters are nil when unset.
type SearchRequest struct {
	Query    string   `json:"query"`
	Limit    int      `json:"limit"`
	Category *string  `json:"category,omitempty"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
}

// ChatRequest is the body of a chat call.
type ChatRequest struct {
	Question        string `json:"question"`
	ContextLimit    int    `json:"context_limit"`
	IncludeProducts bool   `json:"include_products"`
}

// RecommendRequest is the body of a recommendation call.
// At least one of ProductID, ProductName or Query is expected by the API,
// but an empty request is forwarded unchanged.
type RecommendRequest struct {
	ProductID   *string `json:"product_id,omitempty"`
	ProductName *string `json:"product_name,omitempty"`
	Query       *string `json:"query,omitempty"`
	Limit       int     `json:"limit"`
}

// ShopAPI is the remote shopping API consumed by the controller.
type ShopAPI interface {
	Search(ctx context.Context, req SearchRequest) (SearchResponse, error)
	Chat(ctx context.Context, req ChatRequest) (ChatTurn, error)
	Recommend(ctx context.Context, req RecommendRequest) (RecommendationSet, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	Health(ctx context.Context) (HealthStatus, error)
}
