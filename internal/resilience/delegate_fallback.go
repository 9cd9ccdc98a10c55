package resilience

import (
	"context"

	"github.com/voxmenu/voxmenu/pkg/provider/llm"
)

// DelegateFallback implements [llm.Provider] with automatic failover across
// multiple LLM backends. Each backend has its own circuit breaker; when the
// primary fails or its breaker is open, the next healthy fallback is tried.
// A caller never waits on a backend whose breaker is already open.
type DelegateFallback struct {
	group *FallbackGroup[llm.Provider]
}

// Compile-time interface assertion.
var _ llm.Provider = (*DelegateFallback)(nil)

// NewDelegateFallback creates a [DelegateFallback] with primary as the
// preferred backend.
func NewDelegateFallback(primary llm.Provider, primaryName string, cfg FallbackConfig) *DelegateFallback {
	return &DelegateFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional LLM provider as a fallback.
func (f *DelegateFallback) AddFallback(name string, provider llm.Provider) {
	f.group.AddFallback(name, provider)
}

// Generate sends the request to the first healthy provider and returns its
// reply. If the primary fails, subsequent fallbacks are tried in order.
func (f *DelegateFallback) Generate(ctx context.Context, req llm.Request) (string, error) {
	return ExecuteWithResult(f.group, func(p llm.Provider) (string, error) {
		return p.Generate(ctx, req)
	})
}

// Name returns the name of the first entry (the primary). Names are static
// metadata and do not participate in failover.
func (f *DelegateFallback) Name() string {
	if len(f.group.entries) > 0 {
		return f.group.entries[0].value.Name()
	}
	return ""
}
