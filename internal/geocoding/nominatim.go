package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Nominatim instance. Self-hosted deployments
// override it through NOMINATIM_BASE_URL.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// userAgent identifies us to Nominatim; the public instance rejects
// anonymous clients.
const userAgent = "JanSetu-Backend/1.0 (support@jansetu.org)"

// Result holds structured data from a Nominatim response.
type Result struct {
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Village     string  `json:"village,omitempty"`
	District    string  `json:"district,omitempty"`
	State       string  `json:"state,omitempty"`
	Postcode    string  `json:"postcode,omitempty"`
}

// Client wraps the Nominatim search and reverse APIs. The public instance
// allows at most one request per second, so every call waits on a shared
// limiter.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

type nominatimPlace struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Address     struct {
		Village       string `json:"village"`
		Town          string `json:"town"`
		City          string `json:"city"`
		StateDistrict string `json:"state_district"`
		State         string `json:"state"`
		Postcode      string `json:"postcode"`
	} `json:"address"`
}

func (p nominatimPlace) toResult() (*Result, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing longitude %q: %w", p.Lon, err)
	}

	village := p.Address.Village
	if village == "" {
		village = p.Address.Town
	}
	if village == "" {
		village = p.Address.City
	}

	return &Result{
		DisplayName: p.DisplayName,
		Lat:         lat,
		Lon:         lon,
		Village:     village,
		District:    p.Address.StateDistrict,
		State:       p.Address.State,
		Postcode:    p.Address.Postcode,
	}, nil
}

func (c *Client) get(ctx context.Context, u string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geocoding API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Search converts a free-form address into coordinates. A query with no
// match returns an error, not a nil result.
func (c *Client) Search(ctx context.Context, query string) (*Result, error) {
	u := fmt.Sprintf("%s/search?q=%s&format=json&addressdetails=1&limit=1",
		c.baseURL, url.QueryEscape(query))

	var places []nominatimPlace
	if err := c.get(ctx, u, &places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, fmt.Errorf("no results for %q", query)
	}
	return places[0].toResult()
}

// Reverse resolves coordinates into the nearest named place.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*Result, error) {
	u := fmt.Sprintf("%s/reverse?lat=%v&lon=%v&format=json&addressdetails=1",
		c.baseURL, lat, lon)

	var place nominatimPlace
	if err := c.get(ctx, u, &place); err != nil {
		return nil, err
	}
	if place.DisplayName == "" {
		return nil, fmt.Errorf("no place at %v, %v", lat, lon)
	}
	return place.toResult()
}
