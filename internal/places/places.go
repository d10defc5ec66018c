// Package places resolves free-text locations against an external place
// directory.
//
// The provider is treated as an opaque collaborator: callers receive either a
// structured preview or an error, and mutation handlers are expected to
// degrade gracefully when the lookup is unavailable.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/palekaiko/tripboard/internal/platform/timeouts"
)

// ErrNotFound indicates the provider has no place matching the query.
var ErrNotFound = errors.New("place not found")

// PlaceDetails is a point-in-time preview of a place. Field names mirror the
// wire shape cached alongside activities and rendered by clients.
type PlaceDetails struct {
	PlaceID          string        `json:"place_id"`
	Name             string        `json:"name"`
	FormattedAddress string        `json:"formatted_address"`
	Rating           float64       `json:"rating,omitempty"`
	UserRatingsTotal int           `json:"user_ratings_total,omitempty"`
	Photos           []string      `json:"photos,omitempty"`
	Website          string        `json:"website,omitempty"`
	OpeningHours     *OpeningHours `json:"opening_hours,omitempty"`
}

// OpeningHours reports the open-now flag when the provider knows it.
type OpeningHours struct {
	OpenNow bool `json:"open_now"`
}

// Suggestion is one ordered autocomplete candidate for a search query.
type Suggestion struct {
	PlaceID   string `json:"place_id"`
	Name      string `json:"name"`
	Formatted string `json:"formatted"`
	Secondary string `json:"secondary"`
}

// Lookup is the capability consumed by mutation handlers and the HTTP API.
type Lookup interface {
	Details(ctx context.Context, query string) (*PlaceDetails, error)
	Search(ctx context.Context, query string) ([]Suggestion, error)
}

// Config holds the settings for the HTTP lookup client.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Client calls the external place directory over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New builds a lookup client. The base URL and API key are required; an
// unconfigured deployment should pass a nil Lookup to the server instead.
func New(config Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("places base url is required")
	}
	apiKey := strings.TrimSpace(config.APIKey)
	if apiKey == "" {
		return nil, errors.New("places api key is required")
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeouts.PlaceLookup}
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}, nil
}

type detailsResponse struct {
	Result *PlaceDetails `json:"result"`
}

type searchResponse struct {
	Results []Suggestion `json:"results"`
}

// Details resolves one free-text location or place id to a preview.
func (c *Client) Details(ctx context.Context, query string) (*PlaceDetails, error) {
	body, err := c.get(ctx, "/details", query)
	if err != nil {
		return nil, err
	}

	var payload detailsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode place details: %w", err)
	}
	if payload.Result == nil || strings.TrimSpace(payload.Result.Name) == "" {
		return nil, ErrNotFound
	}
	return payload.Result, nil
}

// Search returns ordered suggestions for a partial query.
func (c *Client) Search(ctx context.Context, query string) ([]Suggestion, error) {
	body, err := c.get(ctx, "/search", query)
	if err != nil {
		return nil, err
	}

	var payload searchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode place search: %w", err)
	}
	return payload.Results, nil
}

func (c *Client) get(ctx context.Context, path string, query string) ([]byte, error) {
	if c == nil || c.httpClient == nil {
		return nil, errors.New("places client is not configured")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query is required")
	}

	lookupCtx, cancel := context.WithTimeout(ctx, timeouts.PlaceLookup)
	defer cancel()

	endpoint := c.baseURL + path + "?" + url.Values{
		"query": {query},
		"key":   {c.apiKey},
	}.Encode()

	req, err := http.NewRequestWithContext(lookupCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build place request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call place provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("place provider status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read place response: %w", err)
	}
	return body, nil
}

var _ Lookup = (*Client)(nil)
