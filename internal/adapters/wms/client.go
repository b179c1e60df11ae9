package wms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/samirrijal/terraview/internal/core/domain"
	"github.com/samirrijal/terraview/internal/pkg/geospatial"
)

// Query window around the sampled point. The centre pixel (X=50, Y=50) is read.
const (
	windowMeters = 5.0
	windowPixels = 101
	centerPixel  = 50
	maxBodyBytes = 64 << 10
)

var (
	// ErrNoValue is returned when the response body holds no number.
	ErrNoValue = errors.New("wms: no numeric value in response")

	valueAfterEquals = regexp.MustCompile(`=\s*['"]?(-?\d+(?:\.\d+)?(?:[eE][-+]?\d+)?)`)
	anyNumber        = regexp.MustCompile(`-?\d+(?:\.\d+)?(?:[eE][-+]?\d+)?`)
)

// HTTPDoer is the subset of *http.Client used by Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config describes the WMS endpoint and layers.
type Config struct {
	URL                string
	GroundLayer        string
	ObstructionLayer   string
	Timeout            time.Duration
	ObstructionTimeout time.Duration
}

// Client implements ports.ElevationProvider over WMS GetFeatureInfo.
type Client struct {
	cfg  Config
	http HTTPDoer
}

// NewClient creates a WMS elevation client using a default http.Client.
func NewClient(cfg Config) *Client {
	return NewClientWithHTTPDoer(cfg, &http.Client{})
}

// NewClientWithHTTPDoer creates a client with a custom transport, mainly for tests.
func NewClientWithHTTPDoer(cfg Config, doer HTTPDoer) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.ObstructionTimeout <= 0 {
		cfg.ObstructionTimeout = 15 * time.Second
	}
	return &Client{cfg: cfg, http: doer}
}

// LookupElevation returns the ground elevation at p.
func (c *Client) LookupElevation(ctx context.Context, p domain.GeoPoint) (float64, error) {
	return c.featureInfo(ctx, c.cfg.GroundLayer, c.cfg.Timeout, p)
}

// LookupObstruction returns the height of buildings or vegetation at p.
func (c *Client) LookupObstruction(ctx context.Context, p domain.GeoPoint) (float64, error) {
	if c.cfg.ObstructionLayer == "" {
		return 0, nil
	}
	return c.featureInfo(ctx, c.cfg.ObstructionLayer, c.cfg.ObstructionTimeout, p)
}

func (c *Client) featureInfo(ctx context.Context, layer string, timeout time.Duration, p domain.GeoPoint) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(layer, p), nil)
	if err != nil {
		return 0, fmt.Errorf("wms request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("wms %s: %w", layer, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("wms status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, fmt.Errorf("wms read: %w", err)
	}
	return ParseValue(string(body))
}

func (c *Client) requestURL(layer string, p domain.GeoPoint) string {
	box := geospatial.BoundingBox(p.Lat, p.Lng, windowMeters)

	q := url.Values{}
	q.Set("SERVICE", "WMS")
	q.Set("VERSION", "1.1.1")
	q.Set("REQUEST", "GetFeatureInfo")
	q.Set("LAYERS", layer)
	q.Set("QUERY_LAYERS", layer)
	q.Set("SRS", "EPSG:4326")
	q.Set("BBOX", fmt.Sprintf("%.8f,%.8f,%.8f,%.8f", box.MinLng, box.MinLat, box.MaxLng, box.MaxLat))
	q.Set("WIDTH", strconv.Itoa(windowPixels))
	q.Set("HEIGHT", strconv.Itoa(windowPixels))
	q.Set("X", strconv.Itoa(centerPixel))
	q.Set("Y", strconv.Itoa(centerPixel))
	q.Set("INFO_FORMAT", "text/plain")
	q.Set("FEATURE_COUNT", "1")

	return c.cfg.URL + "?" + q.Encode()
}

// ParseValue extracts the value from a text/plain GetFeatureInfo body.
// A number following '=' wins; otherwise the first number anywhere is used.
func ParseValue(body string) (float64, error) {
	var token string
	if m := valueAfterEquals.FindStringSubmatch(body); m != nil {
		token = m[1]
	} else if m := anyNumber.FindString(body); m != "" {
		token = m
	} else {
		return 0, ErrNoValue
	}

	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, fmt.Errorf("wms parse %q: %w", token, err)
	}
	return v, nil
}
