// Package mock provides test doubles for the browser layer and time.
//
// Key components:
//
// MockClock: a virtual clock whose Sleep advances time instantly, so wait
// timeouts can be exercised without real delays.
//
// Page: a scriptable browser.Page. Evaluate answers come from ordered
// EvalRules; the first rule whose Match is a substring of the expression
// wins. Actions are recorded for assertions.
//
// Launcher: hands out Pages and counts how many were opened and closed.
//
// Usage:
//
//	clock := mock.NewMockClock(time.Time{})
//	page := mock.NewPage()
//	page.On("#login", true)
//	coord := waits.New(page, waits.WithClock(clock))
package mock
