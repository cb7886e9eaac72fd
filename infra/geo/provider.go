// Package geo provides geocoding providers and the cached resolver used by
// the routing engine.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/conexio/leadrouter/core/model"
)

// Provider looks up coordinate candidates for a postal code. Zero candidates
// is not an error; it simply means the code is unknown to the provider.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, zip string) ([]model.Coordinate, error)
}

// HTTPProvider queries a JSON geocoding endpoint of the form
// GET <base>/<zip> returning {"results": [{"lat": .., "lng": ..}]}.
type HTTPProvider struct {
	name    string
	baseURL string
	client  *http.Client
}

// NewHTTPProvider creates a provider for the given endpoint. A zero timeout
// defaults to five seconds.
func NewHTTPProvider(name, baseURL string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProvider{
		name:    name,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name identifies the provider in logs.
func (p *HTTPProvider) Name() string { return p.name }

type lookupResponse struct {
	Results []struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"results"`
}

// Lookup fetches coordinate candidates for the postal code.
func (p *HTTPProvider) Lookup(ctx context.Context, zip string) ([]model.Coordinate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/"+zip, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo provider %s: %w", p.name, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo provider %s: status %d", p.name, resp.StatusCode)
	}
	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("geo provider %s: decode: %w", p.name, err)
	}
	coords := make([]model.Coordinate, 0, len(body.Results))
	for _, r := range body.Results {
		coords = append(coords, model.Coordinate{Lat: r.Lat, Lon: r.Lng})
	}
	return coords, nil
}
