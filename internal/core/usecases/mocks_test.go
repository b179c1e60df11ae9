package usecases_test

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/samirrijal/terraview/internal/core/domain"
)

// --- Mock ElevationProvider ---

type mockProvider struct {
	elevationFn   func(ctx context.Context, p domain.GeoPoint) (float64, error)
	obstructionFn func(ctx context.Context, p domain.GeoPoint) (float64, error)

	mu    sync.Mutex
	calls int
}

func (m *mockProvider) LookupElevation(ctx context.Context, p domain.GeoPoint) (float64, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.elevationFn != nil {
		return m.elevationFn(ctx, p)
	}
	return 0, errors.New("no elevation")
}

func (m *mockProvider) LookupObstruction(ctx context.Context, p domain.GeoPoint) (float64, error) {
	if m.obstructionFn != nil {
		return m.obstructionFn(ctx, p)
	}
	return 0, nil
}

func (m *mockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func flatProvider(ground float64) *mockProvider {
	return &mockProvider{
		elevationFn: func(ctx context.Context, p domain.GeoPoint) (float64, error) { return ground, nil },
	}
}

// --- Mock CacheService ---

type mockCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	setErr error
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("miss")
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mockCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// --- Mock ElevationStore ---

type mockStore struct {
	getFn func(ctx context.Context, p domain.GeoPoint) (*domain.ElevationReading, error)

	mu      sync.Mutex
	put     []domain.GeoPoint
	batches int
}

func (m *mockStore) Get(ctx context.Context, p domain.GeoPoint) (*domain.ElevationReading, error) {
	if m.getFn != nil {
		return m.getFn(ctx, p)
	}
	return nil, nil
}

func (m *mockStore) Put(ctx context.Context, p domain.GeoPoint, r domain.ElevationReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put = append(m.put, p)
	return nil
}

func (m *mockStore) PutBatch(ctx context.Context, points []domain.GeoPoint, readings []domain.ElevationReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put = append(m.put, points...)
	m.batches++
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.AnalysisEvent
	err    error
}

func (m *mockPublisher) PublishAnalysis(ctx context.Context, ev *domain.AnalysisEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *ev)
	return m.err
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func samePoint(a, b domain.GeoPoint) bool { return near(a.Lat, b.Lat) && near(a.Lng, b.Lng) }
