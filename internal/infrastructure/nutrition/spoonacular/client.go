// Package spoonacular looks up per-100g nutrition facts through the
// Spoonacular ingredient search and information endpoints
package spoonacular

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/nutriplan/dietplan/internal/domain/nutrition"
	"github.com/nutriplan/dietplan/internal/infrastructure/config"
	"github.com/nutriplan/dietplan/internal/ports/outbound"
	apperrors "github.com/nutriplan/dietplan/pkg/errors"
)

const (
	serviceName      = "spoonacular"
	maxResponseBytes = 2 << 20
)

// Nutrient names as reported by the information endpoint
const (
	NutrientCalories = "Calories"
	NutrientProtein  = "Protein"
	NutrientCarbs    = "Carbohydrates"
	NutrientFat      = "Fat"
)

var _ outbound.NutritionProvider = (*Client)(nil)

// Client implements outbound.NutritionProvider. It is safe for concurrent use.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default instrumented HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a new Spoonacular client
func NewClient(cfg config.NutritionConfig, logger *zap.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.Named("spoonacular"),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		c.logger.Warn("Spoonacular API key not configured, nutrition lookups will fail until it is set")
	}

	return c
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type searchResponse struct {
	Results []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"results"`
}

type informationResponse struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Nutrition struct {
		Nutrients []struct {
			Name   string  `json:"name"`
			Amount float64 `json:"amount"`
			Unit   string  `json:"unit"`
		} `json:"nutrients"`
	} `json:"nutrition"`
}

// Lookup resolves the food to its best matching ingredient and fetches the
// facts for 100 g of it. The information call is only made when the search
// found a match.
func (c *Client) Lookup(ctx context.Context, food string) (*nutrition.Info, error) {
	if c.apiKey == "" {
		return nil, apperrors.NewConfigError("SPOONACULAR_API_KEY")
	}

	id, err := c.search(ctx, food)
	if err != nil {
		return nil, err
	}

	return c.information(ctx, food, id)
}

func (c *Client) search(ctx context.Context, food string) (int, error) {
	q := url.Values{}
	q.Set("query", food)
	q.Set("number", "1")
	q.Set("apiKey", c.apiKey)

	status, body, err := c.get(ctx, "/food/ingredients/search", q)
	if err != nil {
		return 0, err
	}

	if status != http.StatusOK {
		c.logger.Debug("Ingredient search failed", zap.String("food", food), zap.Int("status", status))
		return 0, apperrors.NewNotFoundError(fmt.Sprintf("nutrition data for %q", food)).
			WithMetadata("upstream_status", status)
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return 0, apperrors.NewMalformedResponseError(serviceName, "search response is not valid JSON").WithCause(err)
	}

	if len(sr.Results) == 0 {
		c.logger.Debug("No ingredient matched", zap.String("food", food))
		return 0, apperrors.NewNotFoundError(fmt.Sprintf("nutrition data for %q", food))
	}

	return sr.Results[0].ID, nil
}

func (c *Client) information(ctx context.Context, food string, id int) (*nutrition.Info, error) {
	q := url.Values{}
	q.Set("amount", "100")
	q.Set("unit", "g")
	q.Set("apiKey", c.apiKey)

	status, body, err := c.get(ctx, fmt.Sprintf("/food/ingredients/%d/information", id), q)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		c.logger.Warn("Ingredient information failed",
			zap.String("food", food),
			zap.Int("id", id),
			zap.Int("status", status),
		)
		return nil, apperrors.NewLookupFailedError(food, status)
	}

	var ir informationResponse
	if err := json.Unmarshal(body, &ir); err != nil {
		return nil, apperrors.NewMalformedResponseError(serviceName, "information response is not valid JSON").WithCause(err)
	}

	info := &nutrition.Info{Name: ir.Name}
	if info.Name == "" {
		info.Name = food
	}

	for _, n := range ir.Nutrition.Nutrients {
		amount := nutrition.Amount(n.Amount, n.Unit)
		switch n.Name {
		case NutrientCalories:
			info.Calories = amount
		case NutrientProtein:
			info.Protein = amount
		case NutrientCarbs:
			info.Carbs = amount
		case NutrientFat:
			info.Fat = amount
		}
	}

	c.logger.Debug("Nutrition lookup successful", zap.String("food", food), zap.Int("id", id))

	return info, nil
}

// get performs a GET and returns the status and body. Only transport
// failures are returned as errors.
func (c *Client) get(ctx context.Context, path string, query url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return 0, nil, apperrors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// The URL carries the API key, so only the cause is kept.
		return 0, nil, apperrors.NewTransportError(serviceName, unwrapURLError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, apperrors.NewTransportError(serviceName, fmt.Errorf("failed to read response: %w", err))
	}

	return resp.StatusCode, body, nil
}

func unwrapURLError(err error) error {
	if uerr, ok := err.(*url.Error); ok {
		return fmt.Errorf("%s %s: %w", uerr.Op, redact(uerr.URL), uerr.Err)
	}
	return err
}

func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	if q.Has("apiKey") {
		q.Set("apiKey", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
