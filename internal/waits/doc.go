// Package waits blocks a scenario until the page under test is in a state
// that is safe to act on.
//
// Every wait is a predicate polled against the page until it holds or its
// timeout elapses. Most predicates are small JavaScript expressions run
// through browser.Page.Evaluate, so they behave the same on every driver.
// Network idleness is the one predicate delegated to the driver.
//
// A wait that runs out of time returns a *TimeoutError naming the predicate
// and the time spent. Callers return it unchanged, which fails the step.
package waits
