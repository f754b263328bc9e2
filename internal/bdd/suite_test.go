package bdd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelbooker/internal/execution"
	"hotelbooker/internal/recorder"
	"hotelbooker/internal/report"
	"hotelbooker/internal/testing/mock"
	"hotelbooker/internal/waits"
)

const loginFeature = `Feature: Login
  Scenario: Valid login
    Given I open the login page
    When I log in as "agent"
    Then the client selection dialog is shown
`

type harness struct {
	rec      *recorder.Recorder
	sink     *report.Sink
	launcher *mock.Launcher
}

func newHarness(t *testing.T, setup func(*mock.Page)) *harness {
	t.Helper()
	sink, err := report.NewSink(report.Options{Root: filepath.Join(t.TempDir(), "reports")})
	require.NoError(t, err)
	launcher := mock.NewLauncher(setup)
	rec := recorder.New(recorder.Options{
		Sink:        sink,
		Launcher:    launcher,
		WaitOptions: []waits.Option{waits.WithClock(mock.NewMockClock(time.Time{}))},
	})
	return &harness{rec: rec, sink: sink, launcher: launcher}
}

func (h *harness) run(steps StepRegistry, concurrency int, features ...godog.Feature) int {
	return Run(Config{
		Recorder:        h.rec,
		Steps:           steps,
		FeatureContents: features,
		Concurrency:     concurrency,
		Output:          io.Discard,
		NoColors:        true,
	})
}

func noop(context.Context) error { return nil }

func loginSteps(r *Registrar) {
	r.Step(`^I open the login page$`, noop)
	r.Step(`^I log in as "([^"]*)"$`, func(ctx context.Context, user string) error { return nil })
	r.Step(`^the client selection dialog is shown$`, noop)
}

func statuses(n *report.Node) []report.Status {
	var out []report.Status
	for _, l := range n.Logs() {
		out = append(out, l.Status)
	}
	return out
}

func TestSuite_ValidLoginEndToEnd(t *testing.T) {
	h := newHarness(t, nil)
	code := h.run(loginSteps, 1, godog.Feature{Name: "features/login.feature", Contents: []byte(loginFeature)})
	require.Equal(t, 0, code)

	features := h.sink.Features()
	require.Len(t, features, 1)
	assert.Equal(t, "Login", features[0].Title)
	scenarios := features[0].Children()
	require.Len(t, scenarios, 1)
	assert.Equal(t, "Valid login", scenarios[0].Title)

	logs := scenarios[0].Logs()
	require.Len(t, logs, 3)
	for i, kw := range []string{"Given", "When", "Then"} {
		assert.Equal(t, report.Passed, logs[i].Status)
		assert.Contains(t, string(logs[i].Details), kw+"</span>")
	}

	snap := h.sink.Counters().Snapshot()
	assert.Equal(t, report.Snapshot{Steps: 3, Passed: 3, Features: 1, Scenarios: 1}, snap)

	// AfterSuite flushed the report and every page was closed.
	assert.FileExists(t, h.sink.ReportPath())
	for _, p := range h.launcher.Pages() {
		assert.True(t, p.Closed())
	}
}

func TestSuite_ConcurrentScenariosShareOneFeatureNode(t *testing.T) {
	var b strings.Builder
	b.WriteString("Feature: Hotel Search\n")
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&b, "  Scenario: Search %d\n    Given I search for hotel %d\n    And I wait a moment\n", i, i)
	}
	h := newHarness(t, nil)
	steps := func(r *Registrar) {
		r.Step(`^I search for hotel (\d+)$`, func(ctx context.Context, n int) error { return nil })
		r.Step(`^I wait a moment$`, noop)
	}
	require.Equal(t, 0, h.run(steps, 4, godog.Feature{Name: "search.feature", Contents: []byte(b.String())}))

	features := h.sink.Features()
	require.Len(t, features, 1)
	scenarios := features[0].Children()
	require.Len(t, scenarios, 6)
	for _, sc := range scenarios {
		logs := sc.Logs()
		require.Len(t, logs, 2)
		n := strings.TrimPrefix(sc.Title, "Search ")
		assert.Contains(t, string(logs[0].Details), "Given</span> I search for hotel "+n)
		assert.Contains(t, string(logs[1].Details), "And</span> I wait a moment")
	}
	assert.Len(t, h.launcher.Pages(), 6)
}

const bookingFeature = `Feature: Booking
  Scenario: Book after login
    Given I open the login page
    When I log in with a locked account
    And I select a client
    Then the hotel search page is shown
`

func TestSuite_CriticalFailureSkipsRemainingSteps(t *testing.T) {
	h := newHarness(t, nil)
	var ran []string
	steps := func(r *Registrar) {
		r.Step(`^I open the login page$`, noop)
		r.Step(`^I log in with a locked account$`, func(ctx context.Context) error {
			return execution.Critical(errors.New("account locked"))
		})
		r.Step(`^I select a client$`, func(ctx context.Context) error { ran = append(ran, "select"); return nil })
		r.Step(`^the hotel search page is shown$`, func(ctx context.Context) error { ran = append(ran, "search"); return nil })
	}
	require.Equal(t, 1, h.run(steps, 1, godog.Feature{Name: "booking.feature", Contents: []byte(bookingFeature)}))
	assert.Empty(t, ran)

	node := h.sink.Features()[0].Children()[0]
	assert.Equal(t, []report.Status{
		report.Passed, report.Failed, report.Other, report.Skipped, report.Skipped, report.Other,
	}, statuses(node))
	logs := node.Logs()
	assert.Contains(t, string(logs[3].Details), "remaining steps aborted")
	assert.Contains(t, string(logs[5].Details), "Test case Failed <a href='Screenshot/")

	snap := h.sink.Counters().Snapshot()
	assert.Equal(t, 4, snap.Steps)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, 2, snap.Skipped)
}

func TestSuite_FlaggedCriticalFailureTripsGuard(t *testing.T) {
	h := newHarness(t, nil)
	var ran []string
	steps := func(r *Registrar) {
		r.Step(`^I open the login page$`, noop)
		r.Step(`^I log in with a locked account$`, func(ctx context.Context) error {
			execution.MarkCriticalFailure(ctx)
			return nil
		})
		r.Step(`^I select a client$`, func(ctx context.Context) error { ran = append(ran, "select"); return nil })
		r.Step(`^the hotel search page is shown$`, func(ctx context.Context) error { ran = append(ran, "search"); return nil })
	}
	h.run(steps, 1, godog.Feature{Name: "booking.feature", Contents: []byte(bookingFeature)})
	assert.Empty(t, ran)

	node := h.sink.Features()[0].Children()[0]
	assert.Equal(t, []report.Status{report.Passed, report.Passed, report.Skipped, report.Skipped}, statuses(node))
	for _, l := range node.Logs()[2:] {
		assert.Contains(t, string(l.Details), "remaining steps aborted")
	}
}

const outlineFeature = `Feature: Hotel Availability
  Background:
    Given I am logged in

  Scenario Outline: Rates for <provider>
    When I check availability for "<provider>"
    Then rates are listed

    Examples:
      | provider |
      | Sabre    |
      | Expedia  |
`

func TestSuite_OutlineRowsGetDistinctNames(t *testing.T) {
	h := newHarness(t, nil)
	steps := func(r *Registrar) {
		loginSteps(r)
		r.Step(`^I am logged in$`, noop)
		r.Step(`^I check availability for "([^"]*)"$`, func(ctx context.Context, p string) error { return nil })
		r.Step(`^rates are listed$`, noop)
	}
	// The login feature is parsed first so AST ids of the outline do not
	// start at zero.
	code := h.run(steps, 1,
		godog.Feature{Name: "login.feature", Contents: []byte(loginFeature)},
		godog.Feature{Name: "availability.feature", Contents: []byte(outlineFeature)},
	)
	require.Equal(t, 0, code)

	var availability *report.Node
	for _, f := range h.sink.Features() {
		if f.Title == "Hotel Availability" {
			availability = f
		}
	}
	require.NotNil(t, availability)
	var names []string
	for _, sc := range availability.Children() {
		names = append(names, sc.Title)
		logs := sc.Logs()
		require.Len(t, logs, 3)
		assert.Contains(t, string(logs[0].Details), "Given</span> I am logged in")
		assert.Contains(t, string(logs[1].Details), "When</span> I check availability")
	}
	assert.ElementsMatch(t, []string{"Rates for Sabre [Example: 1]", "Rates for Expedia [Example: 2]"}, names)
}

func TestSuite_ClickableTimeoutIsOrdinaryFailure(t *testing.T) {
	h := newHarness(t, func(p *mock.Page) { p.On("#loginButton", false) })
	var stepErr error
	steps := func(r *Registrar) {
		r.Step(`^I open the login page$`, noop)
		r.Step(`^I log in as "([^"]*)"$`, func(ctx context.Context, user string) error {
			w, err := r.Recorder().Waits(ctx)
			if err != nil {
				return err
			}
			stepErr = w.WaitForElementClickable(ctx, "#loginButton")
			return stepErr
		})
		r.Step(`^the client selection dialog is shown$`, noop)
	}
	require.Equal(t, 1, h.run(steps, 1, godog.Feature{Name: "login.feature", Contents: []byte(loginFeature)}))
	assert.ErrorIs(t, stepErr, waits.ErrTimeout)
	assert.False(t, execution.IsCritical(stepErr))

	node := h.sink.Features()[0].Children()[0]
	assert.Equal(t, []report.Status{
		report.Passed, report.Failed, report.Other, report.Skipped, report.Other,
	}, statuses(node))
	logs := node.Logs()
	assert.Contains(t, string(logs[2].Details), "timed out after 30s")
	assert.NotContains(t, string(logs[3].Details), "remaining steps aborted")
	assert.Contains(t, string(logs[4].Details), "Test case Failed")

	pages := h.launcher.Pages()
	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].Screenshots)
	assert.True(t, pages[0].Closed())
}
