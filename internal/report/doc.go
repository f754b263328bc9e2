// Package report owns the shared HTML test report of one run.
//
// A Sink holds the feature → scenario → step tree. Feature nodes are created
// with an idempotent get-or-create keyed by title, so parallel scenarios of
// the same feature always land under one node. Step entries keep insertion
// order. Aggregate counters are updated and read under a single lock so the
// per-status counts always add up to the total.
//
// Flush renders the tree to reports/<DATE>/<TIME>/ExtentReport.html.
// Cleaner is the stand-alone post-processor that rewrites the dashboard
// summary cards of a finished report.
package report
