// Package recorder turns BDD lifecycle events into the hierarchical HTML
// report.
//
// A Recorder receives scenario start, step start, step finish, scenario end
// and run end events from the runner adapter. Each scenario gets its own
// execution.Context carried in the context.Context the runner threads
// through its hooks. Feature nodes are shared between scenarios and are
// created once per feature title; scenario nodes, step text and the
// critical-failure flag belong to one scenario only.
//
// Page objects use Page, Waits and the LogInfo/LogWarning/LogFail helpers
// to reach the browser page and the report node of the scenario they run
// in.
package recorder
