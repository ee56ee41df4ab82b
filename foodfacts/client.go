// Package foodfacts looks up packaged foods by barcode in the Open Food
// Facts database and reports their macros per 100g.
package foodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	syncErrors "github.com/i4ali/macrosnap/errors"
	"github.com/i4ali/macrosnap/logging"
)

// DefaultBaseURL is the public Open Food Facts API endpoint.
const DefaultBaseURL = "https://world.openfoodfacts.org"

// Product is a barcode lookup result with macros per 100g.
type Product struct {
	Barcode  string
	Name     string
	Protein  float64
	Carbs    float64
	Fat      float64
	Calories float64
}

// Client queries the Open Food Facts product API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(cl *http.Client) Option {
	return func(c *Client) { c.http = cl }
}

// NewClient creates a lookup client with a 10 second default timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logging.WithComponent(logging.Component("foodfacts")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type productResponse struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Product struct {
		Name       string `json:"product_name"`
		Nutriments struct {
			Protein  float64 `json:"proteins_100g"`
			Carbs    float64 `json:"carbohydrates_100g"`
			Fat      float64 `json:"fat_100g"`
			Calories float64 `json:"energy-kcal_100g"`
		} `json:"nutriments"`
	} `json:"product"`
}

// Lookup fetches one product by barcode. A barcode unknown to the database
// yields a not-found error.
func (c *Client) Lookup(ctx context.Context, barcode string) (Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return Product{}, syncErrors.NewValidationError(syncErrors.OpLoad, fmt.Errorf("barcode is required"))
	}

	u := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, url.PathEscape(barcode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Product{}, syncErrors.NewWithComponent(syncErrors.OpLoad, "foodfacts", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Product{}, syncErrors.NewRetryable(syncErrors.OpLoad, fmt.Errorf("network error: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Product{}, c.notFound(barcode)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return Product{}, syncErrors.NewRetryable(syncErrors.OpLoad,
			fmt.Errorf("server error (status %d)", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return Product{}, syncErrors.NewWithComponent(syncErrors.OpLoad, "foodfacts",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body productResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return Product{}, syncErrors.NewDataError(syncErrors.OpLoad, fmt.Errorf("failed to decode response: %w", err))
	}
	if body.Status != 1 {
		return Product{}, c.notFound(barcode)
	}

	return Product{
		Barcode:  barcode,
		Name:     body.Product.Name,
		Protein:  body.Product.Nutriments.Protein,
		Carbs:    body.Product.Nutriments.Carbs,
		Fat:      body.Product.Nutriments.Fat,
		Calories: body.Product.Nutriments.Calories,
	}, nil
}

func (c *Client) notFound(barcode string) error {
	return &syncErrors.SyncError{
		Op:        syncErrors.OpLoad,
		Component: "foodfacts",
		Kind:      syncErrors.KindNotFound,
		Err:       fmt.Errorf("no product for barcode %s", barcode),
	}
}
