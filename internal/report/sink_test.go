package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() func() time.Time {
	t := time.Date(2026, time.March, 9, 14, 5, 30, 0, time.UTC)
	return func() time.Time { return t }
}

func newTestSink(t *testing.T, env string) *Sink {
	t.Helper()
	s, err := NewSink(Options{
		Root: filepath.Join(t.TempDir(), "reports"),
		Run: RunInfo{
			Env:               env,
			Browser:           "chromium",
			ConfiguredBrowser: "chromium",
			URL:               "https://hotelbooker.example.test",
			Tags:              "@smoke",
		},
		Now: fixedNow(),
	})
	require.NoError(t, err)
	return s
}

func TestRunDir(t *testing.T) {
	started := time.Date(2026, time.October, 17, 9, 8, 7, 0, time.UTC)
	assert.Equal(t, filepath.Join("reports", "17OCT26", "090807"), RunDir("reports", started))
}

func TestNewSink_CreatesRunAndScreenshotDirs(t *testing.T) {
	s := newTestSink(t, "cert")

	assert.True(t, strings.HasSuffix(s.Dir(), filepath.Join("09MAR26", "140530")))
	info, err := os.Stat(filepath.Join(s.Dir(), ScreenshotDirName))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.NotEmpty(t, s.RunID())

	meta := s.Meta()
	assert.Equal(t, "CERT", meta.Env)
	assert.Equal(t, "#fd7e14", meta.EnvColor)
	assert.Equal(t, "Hotel Booker Automation Report - CERT Environment", meta.Title)
	assert.Equal(t, "Test Execution Results - CERT Environment - Tag Filtering Enabled", meta.ReportName)
}

func TestEnvColor(t *testing.T) {
	tests := map[string]string{
		"PROD":    "#dc3545",
		"cert":    "#fd7e14",
		"INT":     "#ffc107",
		"DEV":     "#28a745",
		"staging": "#28a745",
	}
	for env, want := range tests {
		assert.Equal(t, want, EnvColor(env), env)
	}
	assert.Equal(t, "DEV", NormalizeEnv("  "))
}

func TestCreateTopLevelNode_ConcurrentSameTitle(t *testing.T) {
	s := newTestSink(t, "DEV")

	const workers = 32
	nodes := make([]*Node, workers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			nodes[i] = s.CreateTopLevelNode("Login")
		}(i)
	}
	close(start)
	wg.Wait()

	for _, n := range nodes {
		assert.Same(t, nodes[0], n)
	}
	assert.Len(t, s.Features(), 1)
}

func TestCreateChildNode_ConcurrentScenariosOfOneFeature(t *testing.T) {
	s := newTestSink(t, "DEV")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f := s.CreateTopLevelNode("Hotel Search")
			s.CreateChildNode(f, fmt.Sprintf("Search %d", i))
		}(i)
	}
	wg.Wait()

	features := s.Features()
	require.Len(t, features, 1)
	assert.Len(t, features[0].Children(), 10)
	for _, c := range features[0].Children() {
		assert.Same(t, features[0], c.Parent())
	}
}

func TestSetStatus_KeepsInsertionOrder(t *testing.T) {
	s := newTestSink(t, "DEV")
	sc := s.CreateChildNode(s.CreateTopLevelNode("Login"), "Valid login")

	s.SetStatus(sc, Passed, "A")
	s.SetStatus(sc, Passed, "B")
	s.SetStatus(sc, Failed, "C")

	logs := sc.Logs()
	require.Len(t, logs, 3)
	assert.Equal(t, "A", string(logs[0].Details))
	assert.Equal(t, "B", string(logs[1].Details))
	assert.Equal(t, "C", string(logs[2].Details))
	assert.Equal(t, Failed, sc.Status())
}

func TestNodeStatus_RollUp(t *testing.T) {
	s := newTestSink(t, "DEV")
	f := s.CreateTopLevelNode("F")
	a := s.CreateChildNode(f, "a")
	b := s.CreateChildNode(f, "b")

	assert.Equal(t, Passed, f.Status(), "empty feature counts as passed")

	s.AttachInfo(a, "note")
	assert.Equal(t, Passed, a.Status(), "info alone does not change status")

	s.SetStatus(a, Passed, "step")
	s.SetStatus(b, Skipped, "step")
	assert.Equal(t, Skipped, f.Status())

	s.SetStatus(b, Pending, "step")
	assert.Equal(t, Pending, f.Status())

	s.SetStatus(a, Failed, "step")
	assert.Equal(t, Failed, f.Status())
}

func TestNodeStatus_AnnotationsDoNotCount(t *testing.T) {
	s := newTestSink(t, "DEV")
	f := s.CreateTopLevelNode("Login")
	sc := s.CreateChildNode(f, "Valid login")

	s.SetStatus(sc, Passed, "Given user opens the login page")
	s.Annotate(sc, Pending, "Slow page")
	s.Annotate(sc, Failed, "Header mismatch")
	s.SetStatus(sc, Passed, "Then user is logged in")

	assert.Len(t, sc.Logs(), 4)
	steps := sc.Steps()
	require.Len(t, steps, 2)
	for _, l := range steps {
		assert.True(t, l.Step)
		assert.Equal(t, Passed, l.Status)
	}
	assert.False(t, sc.Logs()[2].Step)
	assert.Equal(t, Passed, sc.Status())
	assert.Equal(t, Passed, f.Status())

	require.NoError(t, writeSummary(filepath.Join(s.Dir(), SummaryFileName), s))
	raw, err := os.ReadFile(filepath.Join(s.Dir(), SummaryFileName))
	require.NoError(t, err)
	var got summaryFile
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got.Scenarios, 1)
	assert.Equal(t, "Passed", got.Scenarios[0].Status)
}

func TestAssignCategory_Dedupes(t *testing.T) {
	s := newTestSink(t, "DEV")
	sc := s.CreateChildNode(s.CreateTopLevelNode("F"), "S")

	s.AssignCategory(sc, "smoke", "login", "smoke", "")
	assert.Equal(t, []string{"smoke", "login"}, sc.Categories())
	assert.Equal(t, []string{"smoke", "login"}, s.Categories())
}

func TestSetStatus_NilNodeIsDropped(t *testing.T) {
	s := newTestSink(t, "DEV")
	assert.NotPanics(t, func() { s.SetStatus(nil, Failed, "orphan") })
}

func TestCounters_SumInvariantUnderConcurrency(t *testing.T) {
	c := NewCounters()
	statuses := []Status{Passed, Failed, Skipped, Pending, Other}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	violations := make(chan Snapshot, 1)

	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			snap := c.Snapshot()
			if snap.Passed+snap.Failed+snap.Skipped+snap.Other != snap.Steps {
				select {
				case violations <- snap:
				default:
				}
			}
		}
	}()

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for i := 0; i < 500; i++ {
				c.RecordStep(statuses[r.Intn(len(statuses))])
			}
		}(int64(w))
	}
	wg.Wait()
	close(stop)

	snap := c.Snapshot()
	assert.Equal(t, 4000, snap.Steps)
	assert.Equal(t, snap.Steps, snap.Passed+snap.Failed+snap.Skipped+snap.Other)
	select {
	case v := <-violations:
		t.Fatalf("inconsistent snapshot observed: %+v", v)
	default:
	}
}

func TestCounters_UniqueFeaturesAndScenarios(t *testing.T) {
	c := NewCounters()
	assert.True(t, c.RecordFeature("Login"))
	assert.False(t, c.RecordFeature("Login"))
	assert.True(t, c.RecordFeature("Search"))
	assert.True(t, c.RecordScenario("Valid login"))
	assert.False(t, c.RecordScenario("Valid login"))

	snap := c.Snapshot()
	assert.Equal(t, 2, snap.Features)
	assert.Equal(t, 1, snap.Scenarios)
}

func TestFlush_WritesReportAndSummary(t *testing.T) {
	s := newTestSink(t, "PROD")
	f := s.CreateTopLevelNode("Login")
	sc := s.CreateChildNode(f, "Valid login")
	s.AssignCategory(sc, "smoke")
	s.SetStatus(sc, Passed, "<span>Given</span> user opens the login page")
	s.SetStatus(sc, Failed, "When user clicks login")
	s.AttachInfo(sc, "Test case Failed <a href='Screenshot/x.png' target='_blank'>Screenshot</a>")
	s.Counters().RecordStep(Passed)
	s.Counters().RecordStep(Failed)

	require.NoError(t, s.Flush())
	require.NoError(t, s.Flush())

	data, err := os.ReadFile(s.ReportPath())
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "<title>Hotel Booker Automation Report - PROD Environment</title>")
	assert.Contains(t, html, "#dc3545")
	assert.Contains(t, html, `data-feature="Login"`)
	assert.Equal(t, 1, strings.Count(html, markerTestCase))
	assert.Equal(t, 1, strings.Count(html, markerStepPassed))
	assert.Equal(t, 1, strings.Count(html, markerStepFailed))
	assert.Equal(t, 1, strings.Count(html, markerStepOther))
	assert.Contains(t, html, "<span>Given</span> user opens the login page")
	assert.Contains(t, html, "href='Screenshot/x.png'")
	assert.Contains(t, html, `data-tag="smoke"`)
	assert.Contains(t, html, "Executed Tags")
	assert.True(t, dashboardPattern.MatchString(html), "dashboard row must be rewritable")

	raw, err := os.ReadFile(filepath.Join(s.Dir(), SummaryFileName))
	require.NoError(t, err)
	var sum summaryFile
	require.NoError(t, json.Unmarshal(raw, &sum))
	assert.Equal(t, s.RunID(), sum.RunID)
	assert.Equal(t, 2, sum.Counters.Steps)
	require.Len(t, sum.Scenarios, 1)
	assert.Equal(t, "Failed", sum.Scenarios[0].Status)
}

func TestSaveScreenshot(t *testing.T) {
	s := newTestSink(t, "DEV")
	rel, err := s.SaveScreenshot("Valid login / row 1", []byte("png"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rel, ScreenshotDirName+"/Valid_login___row_1_"))
	data, err := os.ReadFile(filepath.Join(s.Dir(), filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestWriteSummary_Table(t *testing.T) {
	s := newTestSink(t, "DEV")
	sc := s.CreateChildNode(s.CreateTopLevelNode("Login"), "Valid login")
	s.SetStatus(sc, Passed, "step")
	s.Counters().RecordFeature("Login")
	s.Counters().RecordScenario("Valid login")
	s.Counters().RecordStep(Passed)

	var buf bytes.Buffer
	s.WriteSummary(&buf)

	out := buf.String()
	assert.Contains(t, out, "Valid login")
	assert.Contains(t, out, "1 features")
	assert.Contains(t, out, "1 passed")
}

func TestWriteSummary_CountsStepsOnly(t *testing.T) {
	s := newTestSink(t, "DEV")
	sc := s.CreateChildNode(s.CreateTopLevelNode("Login"), "Valid login")
	s.SetStatus(sc, Passed, "step one")
	s.Annotate(sc, Pending, "Slow page")
	s.Annotate(sc, Failed, "Header mismatch")
	s.AttachInfo(sc, "note")
	s.SetStatus(sc, Passed, "step two")

	var buf bytes.Buffer
	s.WriteSummary(&buf)

	var row string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "Valid login") {
			row = line
		}
	}
	require.NotEmpty(t, row)
	assert.Regexp(t, `│\s+2\s+│`, row)
	assert.Contains(t, row, "Passed")
	assert.NotContains(t, row, "Failed")
}

func TestWriteSummary_LongScenarioTitle(t *testing.T) {
	s := newTestSink(t, "DEV")
	title := strings.Repeat("Search hotels near the airport ", 4)
	s.CreateChildNode(s.CreateTopLevelNode("Search"), title)

	var buf bytes.Buffer
	s.WriteSummary(&buf)

	out := buf.String()
	assert.NotContains(t, out, title)
	assert.Contains(t, out, title[:scenarioTitleWidth-3]+"...")
}
