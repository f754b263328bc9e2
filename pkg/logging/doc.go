// Package logging provides the structured, subsystem-tagged logger used by
// every part of hotelbooker, plus the per-run log files written next to the
// HTML report.
//
// The logger is built on Go's slog package. Each entry carries a subsystem
// identifier and, when logged through the *Ctx helpers, the feature and
// scenario it was written from.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Runner", "Starting run %s", runID)
//	logging.Warn("Waits", "Spinner %s still visible", selector)
//	logging.Error("Report", err, "Failed to flush report")
//
//	ctx = logging.WithScenario(ctx, "Login", "Valid login")
//	logging.InfoCtx(ctx, logging.PageActionSubsystem, "Clicking %s", sel)
//
// # Run log files
//
// OpenRunLogs creates three append-only files in a directory:
//
//   - test-execution.log: every entry at or above the file level
//   - page-actions.log: entries from the PageAction subsystem
//   - errors.log: warnings and errors
//
// Each file starts with a "LOG STARTED" header and ends with a "LOG ENDED"
// footer. Writes to one file are serialized. A failing file is reported once
// on stderr and then ignored; logging never returns an error to the caller.
package logging
