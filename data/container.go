// Package data provides thread-safe access to the clinical engines built
// from the reference tables. Refreshes swap the whole engine set atomically
// so requests never observe a half-updated state.
package data

import (
	"sync/atomic"
	"time"

	"github.com/medreconcile/medreconcile-api/clinical/dosage"
	"github.com/medreconcile/medreconcile-api/clinical/evidence"
	"github.com/medreconcile/medreconcile-api/clinical/rules"
	"github.com/medreconcile/medreconcile-api/interfaces"
	"github.com/medreconcile/medreconcile-api/logging"
	"github.com/medreconcile/medreconcile-api/metrics"
)

var _ interfaces.EngineProvider = (*Container)(nil)

// engineSet groups the engines that must be replaced together.
type engineSet struct {
	rules      *rules.Engine
	dosage     *dosage.Analyzer
	aggregator *evidence.Aggregator
}

// Container holds the current engine set behind an atomic pointer.
type Container struct {
	engines         atomic.Pointer[engineSet]
	lastRefreshed   atomic.Value // time.Time
	refreshing      atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewContainer creates a container preloaded with engines built from the
// default reference tables, so the service can answer requests before the
// first scheduled refresh.
func NewContainer(sources ...evidence.Source) *Container {
	c := &Container{}
	c.engines.Store(&engineSet{
		rules:      rules.NewEngine(),
		dosage:     dosage.NewAnalyzer(),
		aggregator: evidence.NewAggregator(sources...),
	})
	c.lastRefreshed.Store(time.Now())
	c.serverStartTime.Store(time.Time{})
	return c
}

func (c *Container) RulesEngine() *rules.Engine {
	return c.engines.Load().rules
}

func (c *Container) DosageAnalyzer() *dosage.Analyzer {
	return c.engines.Load().dosage
}

func (c *Container) EvidenceAggregator() *evidence.Aggregator {
	return c.engines.Load().aggregator
}

// LastRefreshed returns when the engine set was last swapped.
func (c *Container) LastRefreshed() time.Time {
	if v, ok := c.lastRefreshed.Load().(time.Time); ok {
		return v
	}
	logging.Warn("Could not read the last refresh time")
	return time.Time{}
}

// IsRefreshing reports whether a refresh is currently in progress.
func (c *Container) IsRefreshing() bool {
	return c.refreshing.Load()
}

// SetServerStartTime records when the server came up.
func (c *Container) SetServerStartTime(start time.Time) {
	c.serverStartTime.Store(start)
}

func (c *Container) ServerStartTime() time.Time {
	if v, ok := c.serverStartTime.Load().(time.Time); ok {
		return v
	}
	return time.Time{}
}

// Swap atomically replaces the engine set. In-flight requests keep using
// the set they already loaded.
func (c *Container) Swap(rulesEngine *rules.Engine, analyzer *dosage.Analyzer, aggregator *evidence.Aggregator) {
	c.engines.Store(&engineSet{
		rules:      rulesEngine,
		dosage:     analyzer,
		aggregator: aggregator,
	})
	c.lastRefreshed.Store(time.Now())
	metrics.ReferenceDataAge.Set(0)
}

// BeginRefresh marks the start of a refresh. It returns false when another
// refresh is already running.
func (c *Container) BeginRefresh() bool {
	return c.refreshing.CompareAndSwap(false, true)
}

// EndRefresh marks the end of a refresh.
func (c *Container) EndRefresh() {
	c.refreshing.Store(false)
}
