package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const defaultBaseURL = "https://api.mapbox.com"

// ErrNoToken is returned when the client has no Mapbox access token.
var ErrNoToken = errors.New("mapbox token not configured")

// Geocoder resolves street addresses to coordinates.
type Geocoder interface {
	Lookup(ctx context.Context, address, city, zip string) (Point, bool)
}

// MapboxClient calls the Mapbox v6 forward geocoding API. Results, including
// misses, are cached per query for the client's lifetime.
type MapboxClient struct {
	client  *http.Client
	baseURL string
	token   string

	mu     sync.Mutex
	cache  map[string]*Point
	hits   int
	misses int
}

// NewMapboxClient builds a client; a nil http client gets a 10s timeout.
func NewMapboxClient(client *http.Client, baseURL, token string) *MapboxClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &MapboxClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   strings.TrimSpace(token),
		cache:   make(map[string]*Point),
	}
}

// Lookup geocodes "<address>, <city>, CT <zip>". Failures are logged and reported as a miss.
func (c *MapboxClient) Lookup(ctx context.Context, address, city, zip string) (Point, bool) {
	query := strings.TrimSpace(fmt.Sprintf("%s, %s, CT %s", strings.TrimSpace(address), city, strings.TrimSpace(zip)))
	point, err := c.Forward(ctx, query)
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			log.Printf("component=geocode query=%q error=%v", query, err)
		}
		return Point{}, false
	}
	if point == nil {
		return Point{}, false
	}
	return *point, true
}

// Forward returns the best match for query, or nil when Mapbox has none.
func (c *MapboxClient) Forward(ctx context.Context, query string) (*Point, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}

	c.mu.Lock()
	cached, ok := c.cache[query]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	point, err := c.forward(ctx, query)
	if err != nil {
		c.store(query, nil)
		return nil, err
	}
	c.store(query, point)
	return point, nil
}

// Stats reports how many lookups resolved and how many did not.
func (c *MapboxClient) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *MapboxClient) store(query string, point *Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[query] = point
	if point != nil {
		c.hits++
	} else {
		c.misses++
	}
}

type forwardResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
	Message string `json:"message"`
}

func (c *MapboxClient) forward(ctx context.Context, query string) (*Point, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("country", "us")
	params.Set("proximity", strconv.FormatFloat(Danbury.Lng, 'f', 4, 64)+","+strconv.FormatFloat(Danbury.Lat, 'f', 4, 64))
	params.Set("limit", "1")
	params.Set("access_token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/geocode/v6/forward?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocode request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	var payload forwardResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil && err != io.EOF {
		return nil, fmt.Errorf("could not decode geocode response: %w", err)
	}
	if resp.StatusCode >= 400 {
		if payload.Message != "" {
			return nil, fmt.Errorf("geocode HTTP %d: %s", resp.StatusCode, payload.Message)
		}
		return nil, fmt.Errorf("geocode HTTP %d", resp.StatusCode)
	}
	if len(payload.Features) == 0 || len(payload.Features[0].Geometry.Coordinates) < 2 {
		return nil, nil
	}
	coords := payload.Features[0].Geometry.Coordinates
	return &Point{Lat: coords[1], Lng: coords[0]}, nil
}

var _ Geocoder = (*MapboxClient)(nil)
