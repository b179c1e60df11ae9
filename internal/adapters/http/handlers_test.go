package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/terraview/internal/adapters/http"
	"github.com/samirrijal/terraview/internal/core/domain"
	"github.com/samirrijal/terraview/internal/core/usecases"
)

// ---- Mocks ----

type mockProvider struct {
	elevationFn func(p domain.GeoPoint) (float64, error)
}

func (m *mockProvider) LookupElevation(ctx context.Context, p domain.GeoPoint) (float64, error) {
	return m.elevationFn(p)
}

func (m *mockProvider) LookupObstruction(ctx context.Context, p domain.GeoPoint) (float64, error) {
	return 0, nil
}

type mockStarter struct {
	got *domain.SurveyRequest
	err error
}

func (m *mockStarter) StartSurvey(ctx context.Context, req domain.SurveyRequest) (string, error) {
	m.got = &req
	if m.err != nil {
		return "", m.err
	}
	return "survey-test-1", nil
}

type pinger struct{ err error }

func (p pinger) Ping(ctx context.Context) error { return p.err }

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

// makeDeps wires the services with no provider, so every reading is synthetic.
func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	elev := usecases.NewElevationService(nil, nil, nil, usecases.DefaultElevationOptions())
	d := &handler.Dependencies{
		Profiles: usecases.NewProfileService(elev, nil),
		Radial:   usecases.NewRadialService(elev, nil),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// withProvider swaps the elevation source for every service.
func withProvider(p *mockProvider) func(*handler.Dependencies) {
	return func(d *handler.Dependencies) {
		elev := usecases.NewElevationService(p, nil, nil, usecases.DefaultElevationOptions())
		d.Profiles = usecases.NewProfileService(elev, nil)
		d.Radial = usecases.NewRadialService(elev, nil)
	}
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func postJSON(path string, v interface{}) *http.Request {
	data, _ := json.Marshal(v)
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func assertErrorCode(t *testing.T, body io.Reader, want string) {
	t.Helper()
	var apiErr handler.APIError
	if err := json.NewDecoder(body).Decode(&apiErr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if apiErr.Code != want {
		t.Errorf("expected code %s, got %s (%s)", want, apiErr.Code, apiErr.Message)
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

// ---- Health ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps())

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-API-Version"); got != handler.APIVersion {
		t.Errorf("expected X-API-Version %s, got %q", handler.APIVersion, got)
	}
}

func TestReady_NothingConfigured(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if out.Checks["database"] != "not configured" {
		t.Errorf("expected database not configured, got %q", out.Checks["database"])
	}
}

func TestReady_FailingDependency(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.DB = pinger{}
		d.Cache = pinger{err: errors.New("connection refused")}
	})
	app := setupApp(deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}

	var out struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if out.Status != "not ready" {
		t.Errorf("expected not ready, got %q", out.Status)
	}
	if out.Checks["database"] != "ok" {
		t.Errorf("expected database ok, got %q", out.Checks["database"])
	}
	if !strings.HasPrefix(out.Checks["cache"], "error:") {
		t.Errorf("expected cache error, got %q", out.Checks["cache"])
	}
}

// ---- Profile ----

func TestProfile_Points(t *testing.T) {
	app := setupApp(makeDeps())

	req := postJSON("/v1/elevation/profile", map[string]interface{}{
		"points": []domain.GeoPoint{{Lat: 59, Lng: 24}, {Lat: 59.01, Lng: 24.01}},
		"samples": 10,
	})
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var out domain.ElevationProfile
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Profile) != 10 {
		t.Fatalf("expected 10 samples, got %d", len(out.Profile))
	}
	if out.Profile[0].Distance != 0 {
		t.Errorf("first sample distance should be 0, got %f", out.Profile[0].Distance)
	}
	if out.FallbackSamples != 10 {
		t.Errorf("expected all samples to be fallback, got %d", out.FallbackSamples)
	}
	if out.MinElevation == nil || out.MaxElevation == nil {
		t.Fatal("expected min and max elevation")
	}
}

func TestProfile_Polyline(t *testing.T) {
	app := setupApp(makeDeps())

	q := url.Values{}
	q.Set("path", "_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	q.Set("samples", "5")
	req := httptest.NewRequest("GET", "/v1/elevation/profile?"+q.Encode(), nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var out domain.ElevationProfile
	json.NewDecoder(resp.Body).Decode(&out)
	if len(out.Profile) != 5 {
		t.Errorf("expected 5 samples, got %d", len(out.Profile))
	}
	if !strings.HasPrefix(resp.Header.Get("Cache-Control"), "public") {
		t.Errorf("expected public Cache-Control, got %q", resp.Header.Get("Cache-Control"))
	}
}

func TestProfile_MissingPath(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/elevation/profile", nil), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	assertErrorCode(t, resp.Body, "bad_request")
}

func TestProfile_SinglePoint(t *testing.T) {
	app := setupApp(makeDeps())

	req := postJSON("/v1/elevation/profile", map[string]interface{}{
		"points": []domain.GeoPoint{{Lat: 59, Lng: 24}},
	})
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	assertErrorCode(t, resp.Body, "bad_request")
}

func TestProfile_TooManySamples(t *testing.T) {
	app := setupApp(makeDeps())

	req := postJSON("/v1/elevation/profile", map[string]interface{}{
		"points":  []domain.GeoPoint{{Lat: 59, Lng: 24}, {Lat: 59.01, Lng: 24.01}},
		"samples": 5000,
	})
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestProfile_InvalidBody(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/v1/elevation/profile", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Line of sight ----

func TestLineOfSight_SyntheticTerrain(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET",
		"/v1/elevation/line-of-sight?observer_lat=59&observer_lng=24&target_lat=59.01&target_lng=24.01&samples=10", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var out domain.SightLineResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !out.Visible {
		t.Errorf("expected visible, got obstruction %+v", out.Obstruction)
	}
	// synthetic ground at the observer plus the default 2 m eye height
	if !near(out.ObserverElevation, 12.813953264) {
		t.Errorf("observer elevation: got %.9f", out.ObserverElevation)
	}
	if !near(out.TargetElevation, 11.022575098) {
		t.Errorf("target elevation: got %.9f", out.TargetElevation)
	}
	if len(out.Profile) != 10 {
		t.Errorf("expected 10 samples, got %d", len(out.Profile))
	}
}

func TestLineOfSight_Blocked(t *testing.T) {
	// 300 m ridge around the midpoint, flat 10 m elsewhere
	ridge := &mockProvider{elevationFn: func(p domain.GeoPoint) (float64, error) {
		if p.Lat > 59.004 && p.Lat < 59.006 {
			return 300, nil
		}
		return 10, nil
	}}
	app := setupApp(makeDeps(withProvider(ridge)))

	req := postJSON("/v1/elevation/line-of-sight", domain.SightLineRequest{
		Observer: domain.GeoPoint{Lat: 59, Lng: 24},
		Target:   domain.GeoPoint{Lat: 59.01, Lng: 24},
		Samples:  11,
	})
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var out domain.SightLineResult
	json.NewDecoder(resp.Body).Decode(&out)
	if out.Visible {
		t.Fatal("expected the ridge to block the line")
	}
	if out.Obstruction == nil || out.Obstruction.Elevation != 300 {
		t.Errorf("expected obstruction at 300 m, got %+v", out.Obstruction)
	}
}

func TestLineOfSight_BadNumber(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET",
		"/v1/elevation/line-of-sight?observer_lat=abc&observer_lng=24&target_lat=59.01&target_lng=24.01", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	assertErrorCode(t, resp.Body, "bad_request")
}

func TestLineOfSight_MissingTarget(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/elevation/line-of-sight?observer_lat=59&observer_lng=24", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestLineOfSight_OutOfRangeCoordinate(t *testing.T) {
	app := setupApp(makeDeps())

	req := postJSON("/v1/elevation/line-of-sight", domain.SightLineRequest{
		Observer: domain.GeoPoint{Lat: 91, Lng: 24},
		Target:   domain.GeoPoint{Lat: 59.01, Lng: 24},
	})
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Radial scan ----

func TestRadial_Query(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/elevation/radial?lat=59.437&lng=24.7536&radius=2000", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var out domain.VisibilityMap
	json.NewDecoder(resp.Body).Decode(&out)
	if len(out.Rays) != usecases.RayCount {
		t.Fatalf("expected %d rays, got %d", usecases.RayCount, len(out.Rays))
	}
	for _, ray := range out.Rays {
		if len(ray.Points) != usecases.SamplesPerRay {
			t.Fatalf("ray %.1f: expected %d points, got %d", ray.Bearing, usecases.SamplesPerRay, len(ray.Points))
		}
	}
	if out.Radius != 2000 {
		t.Errorf("expected radius 2000, got %f", out.Radius)
	}
	if out.VisibleFraction < 0 || out.VisibleFraction > 1 {
		t.Errorf("visible fraction out of range: %f", out.VisibleFraction)
	}
}

func TestRadial_FlatTerrainAllBlocked(t *testing.T) {
	// observer eye height 2 m never clears the 15 m buffer on flat ground
	flat := &mockProvider{elevationFn: func(p domain.GeoPoint) (float64, error) { return 100, nil }}
	app := setupApp(makeDeps(withProvider(flat)))

	req := postJSON("/v1/elevation/radial", domain.RadialScanRequest{
		Observer: domain.GeoPoint{Lat: 59, Lng: 24},
	})
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out domain.VisibilityMap
	json.NewDecoder(resp.Body).Decode(&out)
	if out.Radius != usecases.DefaultRadius {
		t.Errorf("expected default radius, got %f", out.Radius)
	}
	if out.VisibleFraction != 0 {
		t.Errorf("expected nothing visible, got %f", out.VisibleFraction)
	}
}

func TestRadial_BadRadius(t *testing.T) {
	app := setupApp(makeDeps())

	for _, q := range []string{"radius=-5", "radius=60000", "radius=far"} {
		resp, _ := app.Test(httptest.NewRequest("GET", "/v1/elevation/radial?lat=59&lng=24&"+q, nil), -1)
		if resp.StatusCode != 400 {
			t.Errorf("%s: expected 400, got %d", q, resp.StatusCode)
		}
	}
}

// ---- Surveys ----

func TestStartSurvey_Disabled(t *testing.T) {
	app := setupApp(makeDeps())

	req := postJSON("/v1/surveys", domain.SurveyRequest{
		Posts: []domain.SurveyPost{{Name: "north", Location: domain.GeoPoint{Lat: 59, Lng: 24}}},
	})
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	assertErrorCode(t, resp.Body, "service_unavailable")
}

func TestStartSurvey_Accepted(t *testing.T) {
	starter := &mockStarter{}
	app := setupApp(makeDeps(func(d *handler.Dependencies) { d.Surveys = starter }))

	req := postJSON("/v1/surveys", domain.SurveyRequest{
		Posts: []domain.SurveyPost{
			{Name: "north", Location: domain.GeoPoint{Lat: 59, Lng: 24}},
			{Name: "south", Location: domain.GeoPoint{Lat: 58.9, Lng: 24}},
		},
		Radius: 3000,
	})
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 202 {
		t.Fatalf("expected 202, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var out struct {
		SurveyID string `json:"survey_id"`
		Posts    int    `json:"posts"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if out.SurveyID != "survey-test-1" {
		t.Errorf("unexpected survey id %q", out.SurveyID)
	}
	if starter.got == nil || len(starter.got.Posts) != 2 || starter.got.Radius != 3000 {
		t.Errorf("starter received %+v", starter.got)
	}
}

func TestStartSurvey_NoPosts(t *testing.T) {
	starter := &mockStarter{}
	app := setupApp(makeDeps(func(d *handler.Dependencies) { d.Surveys = starter }))

	resp, _ := app.Test(postJSON("/v1/surveys", domain.SurveyRequest{}), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if starter.got != nil {
		t.Error("starter should not be called for an invalid request")
	}
}

func TestStartSurvey_InvalidScanParameters(t *testing.T) {
	starter := &mockStarter{}
	app := setupApp(makeDeps(func(d *handler.Dependencies) { d.Surveys = starter }))

	posts := []domain.SurveyPost{{Name: "north", Location: domain.GeoPoint{Lat: 59, Lng: 24}}}
	bodies := []map[string]interface{}{
		{"posts": posts, "radius": -10},
		{"posts": posts, "radius": 1e9},
		{"posts": posts, "observer_height": -5},
		{"posts": posts, "observer_height": 5000},
	}
	for _, body := range bodies {
		resp, _ := app.Test(postJSON("/v1/surveys", body), -1)
		if resp.StatusCode != 400 {
			t.Errorf("%v: expected 400, got %d", body, resp.StatusCode)
		}
	}
	if starter.got != nil {
		t.Error("starter should not be called for an invalid request")
	}
}

func TestStartSurvey_StarterFails(t *testing.T) {
	starter := &mockStarter{err: errors.New("temporal unavailable")}
	app := setupApp(makeDeps(func(d *handler.Dependencies) { d.Surveys = starter }))

	req := postJSON("/v1/surveys", domain.SurveyRequest{
		Posts: []domain.SurveyPost{{Name: "north", Location: domain.GeoPoint{Lat: 59, Lng: 24}}},
	})
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	assertErrorCode(t, resp.Body, "internal_error")
}

// ---- Legacy routes ----

func TestLegacyRoute_DeprecationHeaders(t *testing.T) {
	app := setupApp(makeDeps())

	sight := domain.SightLineRequest{
		Observer: domain.GeoPoint{Lat: 59, Lng: 24},
		Target:   domain.GeoPoint{Lat: 59.01, Lng: 24.01},
	}
	profile := map[string]interface{}{
		"points": []domain.GeoPoint{{Lat: 59, Lng: 24}, {Lat: 59.01, Lng: 24.01}},
	}
	tests := []struct {
		path      string
		body      interface{}
		successor string
	}{
		{"/api/elevation/line-of-sight", sight, "/v1/elevation/line-of-sight"},
		{"/api/elevation/line-of-sight/", sight, "/v1/elevation/line-of-sight"},
		{"/api/elevation/profile", profile, "/v1/elevation/profile"},
		{"/api/elevation/profile/", profile, "/v1/elevation/profile"},
	}
	for _, tt := range tests {
		resp, _ := app.Test(postJSON(tt.path, tt.body), -1)
		if resp.StatusCode != 200 {
			t.Fatalf("%s: expected 200, got %d", tt.path, resp.StatusCode)
		}
		if resp.Header.Get("Deprecation") != "true" {
			t.Errorf("%s: expected Deprecation header", tt.path)
		}
		if resp.Header.Get("Sunset") == "" {
			t.Errorf("%s: expected Sunset header", tt.path)
		}
		if !strings.Contains(resp.Header.Get("Link"), tt.successor) {
			t.Errorf("%s: expected successor link, got %q", tt.path, resp.Header.Get("Link"))
		}
	}
}

func TestLegacyRoute_UnprefixedNotServed(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(postJSON("/elevation/profile", map[string]interface{}{
		"points": []domain.GeoPoint{{Lat: 59, Lng: 24}, {Lat: 59.01, Lng: 24.01}},
	}), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestVersionedRoute_NoDeprecation(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/elevation/radial?lat=59&lng=24", nil), -1)
	if resp.Header.Get("Deprecation") != "" {
		t.Error("versioned route should not be deprecated")
	}
}

// ---- CORS ----

func TestCORS_AllowedOrigin(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) { d.AllowOrigins = "https://maps.example.org" }))

	req := httptest.NewRequest("OPTIONS", "/v1/elevation/radial", nil)
	req.Header.Set("Origin", "https://maps.example.org")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, _ := app.Test(req, -1)
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://maps.example.org" {
		t.Fatalf("expected allowed origin, got %q", got)
	}

	req = httptest.NewRequest("OPTIONS", "/v1/elevation/radial", nil)
	req.Header.Set("Origin", "https://elsewhere.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, _ = app.Test(req, -1)
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow origin %q", got)
	}
}

// ---- ETag ----

func TestETag_NotModified(t *testing.T) {
	app := setupApp(makeDeps())
	path := "/v1/elevation/radial?lat=59&lng=24&radius=500"

	resp, _ := app.Test(httptest.NewRequest("GET", path, nil), -1)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

// ---- GraphQL ----

func TestGraphQL_LineOfSight(t *testing.T) {
	app := setupApp(makeDeps())

	req := postJSON("/graphql", map[string]interface{}{
		"query": `{ lineOfSight(observer: {lat: 59, lng: 24}, target: {lat: 59.01, lng: 24.01}, samples: 10) { visible observer_elevation profile { elevation } } }`,
	})
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		Data struct {
			LineOfSight struct {
				Visible           bool    `json:"visible"`
				ObserverElevation float64 `json:"observer_elevation"`
				Profile           []struct {
					Elevation float64 `json:"elevation"`
				} `json:"profile"`
			} `json:"lineOfSight"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Errors) > 0 {
		t.Fatalf("graphql errors: %v", out.Errors)
	}
	if !out.Data.LineOfSight.Visible {
		t.Error("expected visible")
	}
	if len(out.Data.LineOfSight.Profile) != 10 {
		t.Errorf("expected 10 samples, got %d", len(out.Data.LineOfSight.Profile))
	}
}

func TestGraphQL_RadialScan(t *testing.T) {
	app := setupApp(makeDeps())

	req := postJSON("/graphql", map[string]interface{}{
		"query":     `query Scan($o: PointInput!) { radialScan(observer: $o, radius: 500) { radius rays { bearing } } }`,
		"variables": map[string]interface{}{"o": map[string]float64{"lat": 59, "lng": 24}},
	})
	resp, _ := app.Test(req, -1)

	var out struct {
		Data struct {
			RadialScan struct {
				Radius float64 `json:"radius"`
				Rays   []struct {
					Bearing float64 `json:"bearing"`
				} `json:"rays"`
			} `json:"radialScan"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if len(out.Errors) > 0 {
		t.Fatalf("graphql errors: %v", out.Errors)
	}
	if len(out.Data.RadialScan.Rays) != usecases.RayCount {
		t.Fatalf("expected %d rays, got %d", usecases.RayCount, len(out.Data.RadialScan.Rays))
	}
	if out.Data.RadialScan.Rays[1].Bearing != usecases.RayStep {
		t.Errorf("expected second ray at %.1f, got %.1f", usecases.RayStep, out.Data.RadialScan.Rays[1].Bearing)
	}
}

func TestGraphQL_InvalidInput(t *testing.T) {
	app := setupApp(makeDeps())

	req := postJSON("/graphql", map[string]interface{}{
		"query": `{ elevationProfile(points: [{lat: 59, lng: 24}]) { total_distance } }`,
	})
	resp, _ := app.Test(req, -1)

	var out struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if len(out.Errors) == 0 {
		t.Fatal("expected a graphql error for a single-point path")
	}
}

// ---- Docs ----

func TestDocs_ServesSwaggerUI(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/docs", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(readBody(t, resp.Body)), "TerraView API") {
		t.Error("expected page title")
	}
}
