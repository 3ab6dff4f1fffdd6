package health

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/medreconcile/medreconcile-api/clinical/dosage"
	"github.com/medreconcile/medreconcile-api/clinical/entities"
	"github.com/medreconcile/medreconcile-api/clinical/evidence"
	"github.com/medreconcile/medreconcile-api/clinical/rules"
	"github.com/medreconcile/medreconcile-api/interfaces"
)

// fakeProvider lets tests control the refresh timestamps directly.
type fakeProvider struct {
	lastRefreshed time.Time
	refreshing    bool
	startTime     time.Time
}

func (f *fakeProvider) RulesEngine() *rules.Engine                  { return rules.NewEngine() }
func (f *fakeProvider) DosageAnalyzer() *dosage.Analyzer            { return dosage.NewAnalyzer() }
func (f *fakeProvider) EvidenceAggregator() *evidence.Aggregator    { return evidence.NewAggregator() }
func (f *fakeProvider) LastRefreshed() time.Time                    { return f.lastRefreshed }
func (f *fakeProvider) IsRefreshing() bool                          { return f.refreshing }
func (f *fakeProvider) ServerStartTime() time.Time                  { return f.startTime }
func (f *fakeProvider) BeginRefresh() bool                          { return true }
func (f *fakeProvider) EndRefresh()                                 {}
func (f *fakeProvider) Swap(*rules.Engine, *dosage.Analyzer, *evidence.Aggregator) {
}

type fakeStore struct {
	pingErr error
}

func (f *fakeStore) Create(context.Context, *entities.MedicationRecord) error { return nil }
func (f *fakeStore) Get(context.Context, string, string) (*entities.MedicationRecord, error) {
	return nil, errors.New("not found")
}
func (f *fakeStore) List(context.Context, string) ([]entities.MedicationRecord, error) {
	return nil, nil
}
func (f *fakeStore) Update(context.Context, *entities.MedicationRecord) error { return nil }
func (f *fakeStore) Delete(context.Context, string, string) error             { return nil }
func (f *fakeStore) Ping(context.Context) error                               { return f.pingErr }

var _ interfaces.EngineProvider = (*fakeProvider)(nil)
var _ interfaces.MedicationStore = (*fakeStore)(nil)

func TestHealthCheckHealthy(t *testing.T) {
	provider := &fakeProvider{
		lastRefreshed: time.Now().Add(-time.Hour),
		startTime:     time.Now().Add(-2 * time.Hour),
	}
	c := NewChecker(provider, &fakeStore{}, 24*time.Hour)

	status, details, httpStatus := c.HealthCheck()
	if status != "healthy" {
		t.Errorf("status = %q, want healthy", status)
	}
	if httpStatus != http.StatusOK {
		t.Errorf("httpStatus = %d, want 200", httpStatus)
	}
	if details["store"] != "ok" {
		t.Errorf("store detail = %v, want ok", details["store"])
	}
	if _, ok := details["uptime_hours"]; !ok {
		t.Error("uptime_hours missing from details")
	}
}

func TestHealthCheckDegradedStaleData(t *testing.T) {
	provider := &fakeProvider{lastRefreshed: time.Now().Add(-26 * time.Hour)}
	c := NewChecker(provider, &fakeStore{}, 24*time.Hour)

	status, _, httpStatus := c.HealthCheck()
	if status != "degraded" {
		t.Errorf("status = %q, want degraded", status)
	}
	if httpStatus != http.StatusServiceUnavailable {
		t.Errorf("httpStatus = %d, want 503", httpStatus)
	}
}

func TestHealthCheckDegradedStoreDown(t *testing.T) {
	provider := &fakeProvider{lastRefreshed: time.Now().Add(-time.Hour)}
	c := NewChecker(provider, &fakeStore{pingErr: errors.New("connection refused")}, 24*time.Hour)

	status, details, _ := c.HealthCheck()
	if status != "degraded" {
		t.Errorf("status = %q, want degraded", status)
	}
	if details["store"] == "ok" {
		t.Error("store detail reports ok while ping fails")
	}
}

func TestHealthCheckUnhealthy(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
	}{
		{"never refreshed", &fakeProvider{}},
		{"two missed cycles", &fakeProvider{lastRefreshed: time.Now().Add(-49 * time.Hour)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker(tt.provider, &fakeStore{}, 24*time.Hour)
			status, _, httpStatus := c.HealthCheck()
			if status != "unhealthy" {
				t.Errorf("status = %q, want unhealthy", status)
			}
			if httpStatus != http.StatusServiceUnavailable {
				t.Errorf("httpStatus = %d, want 503", httpStatus)
			}
		})
	}
}

func TestCalculateNextRefresh(t *testing.T) {
	last := time.Now().Add(-time.Hour)
	c := NewChecker(&fakeProvider{lastRefreshed: last}, &fakeStore{}, 24*time.Hour)

	next := c.CalculateNextRefresh()
	want := last.Add(24 * time.Hour)
	if !next.Equal(want) {
		t.Errorf("next refresh = %s, want %s", next, want)
	}
}
