package execution

import (
	"context"
	"errors"
)

// ErrAborted is returned in place of running a step once a critical failure
// has been recorded for the scenario.
var ErrAborted = errors.New("SKIPPED: Previous critical failure occurred - remaining steps aborted")

// CriticalError marks a step failure severe enough that the remaining steps
// of the scenario must not run.
type CriticalError struct {
	Err error
}

func (e *CriticalError) Error() string {
	return "critical failure: " + e.Err.Error()
}

func (e *CriticalError) Unwrap() error {
	return e.Err
}

// Critical wraps err as a critical failure. A nil err stays nil.
func Critical(err error) error {
	if err == nil {
		return nil
	}
	var ce *CriticalError
	if errors.As(err, &ce) {
		return err
	}
	return &CriticalError{Err: err}
}

// IsCritical reports whether err, or anything it wraps, is a CriticalError.
func IsCritical(err error) bool {
	var ce *CriticalError
	return errors.As(err, &ce)
}

// MarkCriticalFailure flags the scenario carried by ctx. It is a no-op
// outside a scenario.
func MarkCriticalFailure(ctx context.Context) {
	if ec := From(ctx); ec != nil {
		ec.mu.Lock()
		ec.critical = true
		ec.mu.Unlock()
	}
}

// HasCriticalFailureOccurred reports whether the scenario carried by ctx
// has been flagged.
func HasCriticalFailureOccurred(ctx context.Context) bool {
	ec := From(ctx)
	if ec == nil {
		return false
	}
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.critical
}

// Reset clears the critical flag and any pending step text. It runs at
// scenario start.
func Reset(ctx context.Context) {
	if ec := From(ctx); ec != nil {
		ec.mu.Lock()
		ec.critical = false
		ec.stepText, ec.hasStep = "", false
		ec.mu.Unlock()
	}
}

// Cleanup drops all per-scenario state. It runs at scenario end; the
// context must not be used for another scenario afterwards.
func Cleanup(ctx context.Context) {
	if ec := From(ctx); ec != nil {
		ec.mu.Lock()
		ec.critical = false
		ec.stepText, ec.hasStep = "", false
		ec.node = nil
		ec.page = nil
		ec.closed = true
		ec.mu.Unlock()
	}
}
