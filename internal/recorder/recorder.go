package recorder

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"sync"

	"hotelbooker/internal/browser"
	"hotelbooker/internal/execution"
	"hotelbooker/internal/report"
	"hotelbooker/internal/waits"
	"hotelbooker/pkg/logging"
)

const subsystem = "Recorder"

// State is where a scenario is in its lifecycle.
type State int

const (
	NotStarted State = iota
	Running
	Completed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return "not started"
	}
}

// ScenarioInfo describes a scenario as the runner sees it.
type ScenarioInfo struct {
	// ID may carry an example row after a ';'.
	ID   string
	Name string
	URI  string
	Tags []string
}

// StepInfo describes one step.
type StepInfo struct {
	Keyword string
	Text    string
}

// Line is the step as written in the feature file.
func (s StepInfo) Line() string {
	return s.Keyword + s.Text
}

// ErrNoScenario is returned by helpers called outside a running scenario.
var ErrNoScenario = errors.New("no running scenario in context")

type scenarioRun struct {
	mu     sync.Mutex
	state  State
	info   ScenarioInfo
	failed bool
}

type runKey struct{}

func runFrom(ctx context.Context) *scenarioRun {
	r, _ := ctx.Value(runKey{}).(*scenarioRun)
	return r
}

// Options configure a Recorder.
type Options struct {
	Sink *report.Sink
	// Launcher opens one page per scenario. Without one, scenarios run
	// without a browser.
	Launcher browser.Launcher
	// Features resolves feature titles. Defaults to an index over FS.
	Features *FeatureIndex
	FS       fs.FS
	// Logs is closed at run end.
	Logs io.Closer
	// WaitOptions configure every Coordinator handed out by Waits.
	WaitOptions []waits.Option
}

// Recorder maps lifecycle events onto a report.Sink.
type Recorder struct {
	sink     *report.Sink
	launcher browser.Launcher
	features *FeatureIndex
	logs     io.Closer
	waitOpts []waits.Option

	endOnce sync.Once
	endErr  error
}

// New creates a Recorder writing into opts.Sink.
func New(opts Options) *Recorder {
	features := opts.Features
	if features == nil {
		features = NewFeatureIndex(opts.FS)
	}
	return &Recorder{
		sink:     opts.Sink,
		launcher: opts.Launcher,
		features: features,
		logs:     opts.Logs,
		waitOpts: opts.WaitOptions,
	}
}

// Sink returns the report the recorder writes to.
func (r *Recorder) Sink() *report.Sink { return r.sink }

// Features returns the feature index.
func (r *Recorder) Features() *FeatureIndex { return r.features }

// State returns the lifecycle state of the scenario carried by ctx.
func (r *Recorder) State(ctx context.Context) State {
	run := runFrom(ctx)
	if run == nil {
		return NotStarted
	}
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.state
}

// OnScenarioStart creates the scenario's report node under its feature,
// attaches a fresh execution context and opens the scenario's browser page.
// The returned context must be used for every later event of the scenario.
func (r *Recorder) OnScenarioStart(ctx context.Context, info ScenarioInfo) (context.Context, error) {
	title := r.features.Title(info.URI)
	name := DisplayName(info.Name, info.ID)

	feature := r.sink.CreateTopLevelNode(title)
	node := r.sink.CreateChildNode(feature, name)
	r.sink.AssignCategory(node, Categories(info.Tags)...)
	r.sink.Counters().RecordFeature(title)
	r.sink.Counters().RecordScenario(name)

	ctx, ec := execution.New(ctx, info.ID, title, name)
	ctx = logging.WithScenario(ctx, title, name)
	ctx = context.WithValue(ctx, runKey{}, &scenarioRun{state: Running, info: info})
	execution.Reset(ctx)
	ec.SetNode(node)

	logging.InfoCtx(ctx, subsystem, "Starting test scenario: %s", name)

	if r.launcher == nil {
		return ctx, nil
	}
	page, err := r.launcher.NewPage(ctx)
	if err != nil {
		err = execution.Critical(fmt.Errorf("failed to open browser page: %w", err))
		logging.ErrorCtx(ctx, subsystem, err, "Browser setup failed")
		r.sink.SetStatus(node, report.Failed, html.EscapeString(err.Error()))
		execution.MarkCriticalFailure(ctx)
		runFrom(ctx).markFailed()
		return ctx, err
	}
	ec.SetPage(page)
	return ctx, nil
}

func (run *scenarioRun) markFailed() {
	run.mu.Lock()
	run.failed = true
	run.mu.Unlock()
}

// BeforeStep returns execution.ErrAborted once a critical failure has been
// recorded for the scenario.
func (r *Recorder) BeforeStep(ctx context.Context) error {
	if execution.HasCriticalFailureOccurred(ctx) {
		logging.WarnCtx(ctx, subsystem, "CRITICAL FAILURE DETECTED - Aborting step execution")
		return execution.ErrAborted
	}
	return nil
}

// OnStepStart remembers the step line for the matching OnStepFinish.
func (r *Recorder) OnStepStart(ctx context.Context, step StepInfo) {
	ec := execution.From(ctx)
	if ec == nil {
		logging.Warn(subsystem, "Step started outside a scenario: %s", step.Line())
		return
	}
	ec.SetStepText(step.Line())
	logging.DebugCtx(ctx, subsystem, "Set step text: %s", step.Line())
}

// OnStepFinish writes one step entry with the recorded text and status.
// A critical err flags the scenario so its remaining steps are aborted.
func (r *Recorder) OnStepFinish(ctx context.Context, status StepStatus, err error) {
	ec := execution.From(ctx)
	run := runFrom(ctx)
	if ec == nil || run == nil || r.State(ctx) != Running {
		logging.Warn(subsystem, "Dropping step result outside a running scenario")
		return
	}

	text, ok := ec.TakeStepText()
	if !ok || text == "" {
		logging.WarnCtx(ctx, subsystem, "Step text was not captured; using placeholder")
		text = StepPlaceholder
	}

	st := status.ReportStatus()
	if errors.Is(err, execution.ErrAborted) {
		st = report.Skipped
	}
	details := EmphasizeKeyword(text)
	if st == report.Skipped && execution.HasCriticalFailureOccurred(ctx) {
		details += "<br><i>" + html.EscapeString(execution.ErrAborted.Error()) + "</i>"
	}

	node := ec.Node()
	r.sink.SetStatus(node, st, details)
	r.sink.Counters().RecordStep(st)

	if st == report.Failed {
		run.markFailed()
		if err != nil {
			r.sink.AttachInfo(node, "<pre class='step-error'>"+html.EscapeString(err.Error())+"</pre>")
		}
		logging.ErrorCtx(ctx, subsystem, err, "Step failed: %s", text)
	} else {
		logging.DebugCtx(ctx, subsystem, "Step %s: %s", st, text)
	}

	if execution.IsCritical(err) {
		execution.MarkCriticalFailure(ctx)
		logging.ErrorCtx(ctx, subsystem, err, "Critical failure recorded; remaining steps will be aborted")
	}
}

// OnScenarioEnd attaches a failure screenshot when the scenario failed,
// closes its browser page and drops its per-scenario state.
func (r *Recorder) OnScenarioEnd(ctx context.Context, err error) {
	run := runFrom(ctx)
	ec := execution.From(ctx)
	if run == nil || ec == nil {
		logging.Warn(subsystem, "Scenario ended without a matching start")
		return
	}
	run.mu.Lock()
	if run.state != Running {
		run.mu.Unlock()
		logging.WarnCtx(ctx, subsystem, "Scenario ended twice")
		return
	}
	failed := run.failed || (err != nil && !errors.Is(err, execution.ErrAborted))
	run.mu.Unlock()

	logging.InfoCtx(ctx, subsystem, "Completing test scenario")
	if failed {
		if serr := r.CaptureScreenshotWithInfo(ctx, "Test case Failed"); serr != nil {
			logging.ErrorCtx(ctx, subsystem, serr, "Failed to capture failure screenshot")
		}
	}

	if page := ec.Page(); page != nil {
		if cerr := page.Close(); cerr != nil {
			logging.WarnCtx(ctx, subsystem, "Failed to close browser page: %v", cerr)
		}
	}
	execution.Cleanup(ctx)

	run.mu.Lock()
	run.state = Completed
	run.mu.Unlock()
}

// OnRunEnd flushes the report and closes the run logs. Only the first call
// has any effect; later calls return the first call's result.
func (r *Recorder) OnRunEnd() error {
	r.endOnce.Do(func() {
		var errs []error
		if err := r.sink.Flush(); err != nil {
			logging.Error(subsystem, err, "Failed to flush report")
			errs = append(errs, err)
		}
		logging.Info(subsystem, "Test execution completed - all log files closed")
		if r.logs != nil {
			if err := r.logs.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close run logs: %w", err))
			}
		}
		r.endErr = errors.Join(errs...)
	})
	return r.endErr
}

// Page returns the browser page of the scenario carried by ctx.
func (r *Recorder) Page(ctx context.Context) (browser.Page, error) {
	ec := execution.From(ctx)
	if ec == nil {
		return nil, ErrNoScenario
	}
	page := ec.Page()
	if page == nil {
		return nil, fmt.Errorf("scenario %q has no browser page", ec.Scenario())
	}
	return page, nil
}

// Waits returns a wait coordinator bound to the scenario's page.
func (r *Recorder) Waits(ctx context.Context) (*waits.Coordinator, error) {
	page, err := r.Page(ctx)
	if err != nil {
		return nil, err
	}
	return waits.New(page, r.waitOpts...), nil
}

// LogInfo annotates the current scenario node.
func (r *Recorder) LogInfo(ctx context.Context, msg string) {
	r.annotate(ctx, report.Other, msg)
	logging.InfoCtx(ctx, logging.PageActionSubsystem, "%s", msg)
}

// LogWarning adds a warning line to the current scenario node.
func (r *Recorder) LogWarning(ctx context.Context, msg string) {
	r.annotate(ctx, report.Pending, msg)
	logging.WarnCtx(ctx, logging.PageActionSubsystem, "%s", msg)
}

// LogFail adds a failure line to the current scenario node. It does not
// fail the step; return an error for that.
func (r *Recorder) LogFail(ctx context.Context, msg string) {
	r.annotate(ctx, report.Failed, msg)
	logging.ErrorCtx(ctx, logging.PageActionSubsystem, nil, "%s", msg)
}

func (r *Recorder) annotate(ctx context.Context, st report.Status, msg string) {
	ec := execution.From(ctx)
	if ec == nil || ec.Node() == nil {
		logging.Warn(subsystem, "No scenario node for %s annotation: %s", st, msg)
		return
	}
	r.sink.Annotate(ec.Node(), st, html.EscapeString(msg))
}

// CaptureScreenshotWithInfo saves a full-page screenshot of the scenario's
// page and attaches info with a link to it.
func (r *Recorder) CaptureScreenshotWithInfo(ctx context.Context, info string) error {
	ec := execution.From(ctx)
	if ec == nil || ec.Node() == nil {
		return ErrNoScenario
	}
	page := ec.Page()
	if page == nil {
		return fmt.Errorf("scenario %q has no browser page", ec.Scenario())
	}
	png, err := page.Screenshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to take screenshot: %w", err)
	}
	rel, err := r.sink.SaveScreenshot(ec.Scenario(), png)
	if err != nil {
		return err
	}
	r.sink.AttachInfo(ec.Node(), fmt.Sprintf("%s <a href='%s' target='_blank'>Screenshot</a>", html.EscapeString(info), rel))
	return nil
}
