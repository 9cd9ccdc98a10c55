// Package mock provides a test double for [llm.Provider].
package mock

import (
	"context"
	"sync"

	"github.com/voxmenu/voxmenu/pkg/provider/llm"
)

// Compile-time interface check.
var _ llm.Provider = (*Provider)(nil)

// Provider is a configurable in-memory [llm.Provider]. The zero value
// replies with a fixed fallback sentence; set Reply or GenerateFunc to
// control behaviour. Safe for concurrent use.
type Provider struct {
	mu sync.Mutex

	// Reply is returned by Generate when GenerateFunc is nil.
	Reply string

	// Err, when non-nil, is returned by Generate.
	Err error

	// GenerateFunc, when set, handles Generate entirely.
	GenerateFunc func(ctx context.Context, req llm.Request) (string, error)

	// Requests records every request received, in order.
	Requests []llm.Request
}

// Generate implements [llm.Provider].
func (p *Provider) Generate(ctx context.Context, req llm.Request) (string, error) {
	p.mu.Lock()
	p.Requests = append(p.Requests, req)
	fn := p.GenerateFunc
	reply, err := p.Reply, p.Err
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err != nil {
		return "", err
	}
	if reply == "" {
		reply = "I'm happy to help with our menu. What would you like to know?"
	}
	return reply, nil
}

// Name implements [llm.Provider].
func (p *Provider) Name() string { return "mock" }

// CallCount returns how many Generate calls were received.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Requests)
}
