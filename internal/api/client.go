// Package api is a typed client for the shopping assistant HTTP API.
//
// Every call returns either a decoded value, a *NetworkError when no response
// arrived, or an *APIError when the server answered with a non-2xx status.
// Calls are never retried.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"shopassist/internal/domain"
	"shopassist/internal/logging"
)

var _ domain.ShopAPI = (*Client)(nil)

// Config configures the API client.
type Config struct {
	BaseURL    string
	PathPrefix string
	// Timeout bounds each HTTP exchange. Zero means no timeout.
	Timeout time.Duration
	// RequestsPerSecond enables a client-side rate limit when positive.
	RequestsPerSecond float64
	Burst             int
}

// Client talks to the remote shopping API.
type Client struct {
	baseURL string
	prefix  string
	client  *http.Client
	limiter *rate.Limiter
	log     *log.Logger
}

// NewClient creates a client for the API at cfg.BaseURL.
func NewClient(cfg Config) *Client {
	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		if cfg.Burst > 0 {
			burst = cfg.Burst
		}
	}
	prefix := strings.TrimRight(cfg.PathPrefix, "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		prefix:  prefix,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		log:     logging.WithPrefix("api"),
	}
}

// Search runs a semantic product search.
func (c *Client) Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResponse, error) {
	var out domain.SearchResponse
	if err := c.do(ctx, "search", http.MethodPost, "/search", req, &out); err != nil {
		return domain.SearchResponse{}, err
	}
	return out, nil
}

// Chat asks the assistant a question.
func (c *Client) Chat(ctx context.Context, req domain.ChatRequest) (domain.ChatTurn, error) {
	var out domain.ChatTurn
	if err := c.do(ctx, "chat", http.MethodPost, "/chat", req, &out); err != nil {
		return domain.ChatTurn{}, err
	}
	return out, nil
}

// Recommend fetches products similar to a seed product, name or query.
func (c *Client) Recommend(ctx context.Context, req domain.RecommendRequest) (domain.RecommendationSet, error) {
	var out domain.RecommendationSet
	if err := c.do(ctx, "recommend", http.MethodPost, "/recommend", req, &out); err != nil {
		return domain.RecommendationSet{}, err
	}
	if out.HasScores() && len(out.SimilarityScores) != len(out.Recommendations) {
		return domain.RecommendationSet{}, &APIError{
			Status: http.StatusOK,
			Message: fmt.Sprintf("similarity_scores has %d entries for %d recommendations",
				len(out.SimilarityScores), len(out.Recommendations)),
		}
	}
	return out, nil
}

// GetProduct fetches a single product by id.
func (c *Client) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var out domain.Product
	if err := c.do(ctx, "get product", http.MethodGet, "/products/"+url.PathEscape(id), nil, &out); err != nil {
		return domain.Product{}, err
	}
	return out, nil
}

// ListProducts fetches the whole catalogue.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	if err := c.do(ctx, "list products", http.MethodGet, "/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health queries the API health endpoint.
func (c *Client) Health(ctx context.Context) (domain.HealthStatus, error) {
	var raw map[string]any
	if err := c.do(ctx, "health", http.MethodGet, "/health", nil, &raw); err != nil {
		return domain.HealthStatus{}, err
	}
	hs := domain.HealthStatus{Extra: make(map[string]any, len(raw))}
	for k, v := range raw {
		switch k {
		case "status":
			hs.Status, _ = v.(string)
		case "version":
			hs.Version, _ = v.(string)
		default:
			hs.Extra[k] = v
		}
	}
	return hs, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		rdr = bytes.NewReader(data)
	}

	endpoint := c.baseURL + c.prefix + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rdr)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.debug("request failed", "op", op, "request_id", reqID, "err", err)
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	c.debug("request done", "op", op, "method", method, "path", c.prefix+path,
		"request_id", reqID, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(payload)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &APIError{Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	return nil
}

func (c *Client) debug(msg string, keyvals ...interface{}) {
	if c.log != nil {
		c.log.Debug(msg, keyvals...)
	}
}

const maxErrorRunes = 200

// errorMessage extracts a human readable message from an error body.
// FastAPI style {"detail": ...} is tried first.
func errorMessage(payload []byte) string {
	var body map[string]any
	if err := json.Unmarshal(payload, &body); err == nil {
		for _, k := range []string{"detail", "message", "error"} {
			switch v := body[k].(type) {
			case string:
				if v != "" {
					return v
				}
			case nil:
			default:
				if b, err := json.Marshal(v); err == nil {
					return string(b)
				}
			}
		}
	}
	msg := strings.TrimSpace(string(payload))
	if r := []rune(msg); len(r) > maxErrorRunes {
		msg = string(r[:maxErrorRunes]) + "..."
	}
	return msg
}
