package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"time"

	"golang.org/x/sync/errgroup"

	"hotelbooker/pkg/logging"
)

// ErrNoReport is returned when the reports directory holds no report.
var ErrNoReport = errors.New("no ExtentReport.html found in reports directory")

const (
	markerTestCase   = `li class="test-item`
	markerStepPassed = `badge log pass-bg`
	markerStepFailed = `badge log fail-bg`
	markerStepOther  = `badge log info-bg`
)

var (
	dashboardPattern = regexp.MustCompile(`(<div class="row">\s*` +
		`<div class="col-md-3">[\s\S]*?</div>\s*` +
		`<div class="col-md-3">[\s\S]*?</div>\s*` +
		`<div class="col-md-3">[\s\S]*?</div>\s*` +
		`<div class="col-md-3">[\s\S]*?</div>\s*</div>)`)

	featureMarkerPattern = regexp.MustCompile(`data-feature="([^"]*)"`)

	dashboardTemplate = template.Must(template.New("dashboard").Parse(
		`<div class="row">
    <div class="col-md-4">
        <div class="card">
            <div class="card-header">
                <h6 class="card-title">Features</h6>
            </div>
            <div class="card-body">
                <div class="">
                    <canvas id='parent-analysis' width='115' height='90'></canvas>
                </div>
            </div>
            <div class="card-footer">
                <div><small data-tooltip='100%'><b>{{ .Features }}</b> Feature passed</small></div>
                <div>
                    <small data-tooltip='0%'><b>0</b> Feature failed,<br><b>0</b> skipped, <b data-tooltip='0%'>0</b> others</small>
                </div>
            </div>
        </div>
    </div>
    <div class="col-md-4">
        <div class="card">
            <div class="card-header">
                <h6 class="card-title">TestCases</h6>
            </div>
            <div class="card-body">
                <div class="">
                    <canvas id='child-analysis' width='115' height='90'></canvas>
                </div>
            </div>
            <div class="card-footer">
                <div><small data-tooltip='100%'><b>{{ .TestCases }}</b> TestCases passed</small></div>
                <div>
                    <small data-tooltip='0%'><b>0</b> TestCases failed,<br><b>0</b> skipped, <b data-tooltip='%'>0</b> others</small>
                </div>
            </div>
        </div>
    </div>
    <div class="col-md-4">
        <div class="card">
            <div class="card-header">
                <h6 class="card-title">Step events</h6>
            </div>
            <div class="card-body">
                <div class="">
                    <canvas id='events-analysis' width='115' height='90'></canvas>
                </div>
            </div>
            <div class="card-footer">
                <div><small data-tooltip='{{ .PassedPercent }}%'><b>{{ .StepsPassed }}</b> Step passed</small></div>
                <div>
                    <small data-tooltip='{{ .FailedPercent }}%'><b>{{ .StepsFailed }}</b> Step failed,<br><b data-tooltip='%'>{{ .StepsOther }}</b> others</small>
                </div>
            </div>
        </div>
    </div>
</div>`))
)

// Dashboard holds the counts shown on the rewritten summary cards.
type Dashboard struct {
	Features    int
	TestCases   int
	StepsPassed int
	StepsFailed int
	StepsOther  int
}

// PassedPercent is the share of passed step badges, rounded down.
func (d Dashboard) PassedPercent() int {
	return percent(d.StepsPassed, d.StepsPassed+d.StepsFailed+d.StepsOther)
}

// FailedPercent is the share of failed step badges, rounded down.
func (d Dashboard) FailedPercent() int {
	return percent(d.StepsFailed, d.StepsPassed+d.StepsFailed+d.StepsOther)
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return n * 100 / total
}

// CountDashboard computes the dashboard counts of a report by literal
// marker counting. A report without feature markers counts as one feature.
func CountDashboard(html string) Dashboard {
	d := Dashboard{
		TestCases:   strings.Count(html, markerTestCase),
		StepsPassed: strings.Count(html, markerStepPassed),
		StepsFailed: strings.Count(html, markerStepFailed),
		StepsOther:  strings.Count(html, markerStepOther),
	}
	seen := make(map[string]struct{})
	for _, m := range featureMarkerPattern.FindAllStringSubmatch(html, -1) {
		seen[m[1]] = struct{}{}
	}
	d.Features = len(seen)
	if d.Features == 0 {
		d.Features = 1
	}
	return d
}

// RewriteDashboard replaces the first four-card dashboard row of html with
// the three summary cards. ok is false when no such row exists, in which
// case html is returned unchanged.
func RewriteDashboard(html string) (out string, d Dashboard, ok bool, err error) {
	d = CountDashboard(html)
	loc := dashboardPattern.FindStringIndex(html)
	if loc == nil {
		return html, d, false, nil
	}
	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, d); err != nil {
		return html, d, false, fmt.Errorf("failed to render dashboard: %w", err)
	}
	return html[:loc[0]] + buf.String() + html[loc[1]:], d, true, nil
}

// FindReports returns every <root>/<date>/<time>/ExtentReport.html.
func FindReports(root string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(root, "*", "*", ReportFileName))
	if err != nil {
		return nil, err
	}
	var reports []string
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() {
			reports = append(reports, m)
		}
	}
	return reports, nil
}

// FindLatestReport returns the most recently modified report below root.
func FindLatestReport(root string) (string, error) {
	reports, err := FindReports(root)
	if err != nil {
		return "", err
	}
	var (
		latest    string
		latestMod time.Time
	)
	for _, r := range reports {
		info, err := os.Stat(r)
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest, latestMod = r, info.ModTime()
		}
	}
	if latest == "" {
		return "", ErrNoReport
	}
	return latest, nil
}

// Cleaner rewrites the dashboard of finished reports.
type Cleaner struct {
	Root   string
	Stdout io.Writer
	Stderr io.Writer

	mu sync.Mutex
}

func (c *Cleaner) printf(w io.Writer, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(w, format, args...)
}

// NewCleaner returns a Cleaner for the reports below root writing its
// messages to stdout and stderr.
func NewCleaner(root string, stdout, stderr io.Writer) *Cleaner {
	if root == "" {
		root = "reports"
	}
	return &Cleaner{Root: root, Stdout: stdout, Stderr: stderr}
}

// CleanFile rewrites one report in place.
func (c *Cleaner) CleanFile(path string) (Dashboard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dashboard{}, fmt.Errorf("failed to read report: %w", err)
	}
	out, d, ok, err := RewriteDashboard(string(data))
	if err != nil {
		return d, err
	}
	if !ok {
		logging.Warn("Cleaner", "No dashboard row found in %s, leaving it unchanged", path)
		return d, nil
	}
	if err := atomicWriteFile(path, []byte(out)); err != nil {
		return d, err
	}
	c.printf(c.Stdout, "Extent report cleaned and dashboard updated: %s\n", path)
	return d, nil
}

// CleanLatest rewrites the newest report. A missing report is reported on
// Stderr and is not an error.
func (c *Cleaner) CleanLatest() error {
	path, err := FindLatestReport(c.Root)
	if errors.Is(err, ErrNoReport) {
		c.printf(c.Stderr, "No ExtentReport.html found in reports directory.\n")
		return nil
	}
	if err != nil {
		return err
	}
	_, err = c.CleanFile(path)
	return err
}

// CleanAll rewrites every report below Root concurrently.
func (c *Cleaner) CleanAll(ctx context.Context) error {
	reports, err := FindReports(c.Root)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		c.printf(c.Stderr, "No ExtentReport.html found in reports directory.\n")
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, r := range reports {
		r := r
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := c.CleanFile(r)
			return err
		})
	}
	return g.Wait()
}
