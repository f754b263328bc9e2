// Package bdd runs the feature files with godog and forwards its lifecycle
// hooks to a recorder.Recorder.
//
// godog pickles carry neither step keywords nor example row numbers, so
// both are recovered from the feature's Gherkin document. Pickle AST ids
// are matched against a fresh parse of the same source; the two parses
// number nodes in the same order, so ids differ by a constant offset per
// file.
//
// Step definitions are registered through a Registrar, which wraps every
// step function with the critical-failure guard.
package bdd
