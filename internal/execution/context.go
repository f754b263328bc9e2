// Package execution holds the per-scenario ExecutionContext and the
// critical-failure state scoped to it.
//
// One ExecutionContext exists per running scenario. It travels inside the
// context.Context that godog threads through hooks and step definitions, so
// two scenarios running in parallel never see each other's state, and a
// worker that picks up the next scenario starts from a fresh value.
package execution

import (
	"context"
	"sync"

	"hotelbooker/internal/browser"
	"hotelbooker/internal/report"
)

// Context is the mutable state of one running scenario.
type Context struct {
	mu       sync.Mutex
	id       string
	feature  string
	scenario string
	node     *report.Node
	page     browser.Page
	stepText string
	hasStep  bool
	critical bool
	closed   bool
}

type contextKey struct{}

// New attaches a fresh execution context for the scenario identified by id
// to ctx and returns both.
func New(ctx context.Context, id, feature, scenario string) (context.Context, *Context) {
	ec := &Context{id: id, feature: feature, scenario: scenario}
	return context.WithValue(ctx, contextKey{}, ec), ec
}

// From returns the execution context carried by ctx, or nil.
func From(ctx context.Context) *Context {
	if ctx == nil {
		return nil
	}
	ec, _ := ctx.Value(contextKey{}).(*Context)
	return ec
}

// ID returns the scenario identifier the context was created for.
func (c *Context) ID() string { return c.id }

// Feature returns the resolved feature title.
func (c *Context) Feature() string { return c.feature }

// Scenario returns the scenario display name.
func (c *Context) Scenario() string { return c.scenario }

// SetNode stores the report node steps of this scenario are written to.
func (c *Context) SetNode(node *report.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.node = node
}

// Node returns the current report node, or nil after Cleanup.
func (c *Context) Node() *report.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.node
}

// SetPage stores the browser page owned by this scenario.
func (c *Context) SetPage(page browser.Page) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = page
}

// Page returns the scenario's browser page, or nil.
func (c *Context) Page() browser.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// SetStepText records the rendered text of the step about to run. It
// replaces any text left over from a step that never reached its finish
// event.
func (c *Context) SetStepText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stepText = text
	c.hasStep = true
}

// TakeStepText returns the recorded step text and clears it, so each text
// is consumed by exactly one step entry. ok is false when nothing was
// recorded since the last call.
func (c *Context) TakeStepText() (text string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	text, ok = c.stepText, c.hasStep
	c.stepText, c.hasStep = "", false
	return text, ok
}

// Closed reports whether Cleanup has run.
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
