package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"hotelbooker/pkg/logging"
)

const (
	// ReportFileName is the name of the rendered report inside a run directory.
	ReportFileName = "ExtentReport.html"
	// SummaryFileName holds the machine-readable counters of a run.
	SummaryFileName = "summary.json"
	// ScreenshotDirName is the run subdirectory failure screenshots go to.
	ScreenshotDirName = "Screenshot"
	// LogDirName is the run subdirectory the run log files go to.
	LogDirName = "logs"

	dateDirFormat = "02Jan06"
	timeDirFormat = "150405"
)

// Options configure a Sink.
type Options struct {
	// Root is the reports directory; run directories are created below it.
	Root string
	Run  RunInfo
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Sink is the single shared report document of a run.
type Sink struct {
	runID   string
	dir     string
	started time.Time
	meta    Meta
	now     func() time.Time

	mu       sync.RWMutex
	features map[string]*Node
	order    []*Node

	counters *Counters
	flushMu  sync.Mutex
}

// RunDir returns reports/<DATE>/<TIME> below root for the given start time.
func RunDir(root string, started time.Time) string {
	return filepath.Join(root, strings.ToUpper(started.Format(dateDirFormat)), started.Format(timeDirFormat))
}

// NewSink creates the run directory and an empty report.
func NewSink(opts Options) (*Sink, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	root := opts.Root
	if root == "" {
		root = "reports"
	}
	started := now()
	dir := RunDir(root, started)
	if err := os.MkdirAll(filepath.Join(dir, ScreenshotDirName), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	return &Sink{
		runID:    uuid.NewString(),
		dir:      dir,
		started:  started,
		meta:     buildMeta(opts.Run, started),
		now:      now,
		features: make(map[string]*Node),
		counters: NewCounters(),
	}, nil
}

// RunID identifies this run.
func (s *Sink) RunID() string { return s.runID }

// Dir is the run directory.
func (s *Sink) Dir() string { return s.dir }

// ReportPath is where Flush writes the HTML report.
func (s *Sink) ReportPath() string { return filepath.Join(s.dir, ReportFileName) }

// LogDir is where the run log files belong.
func (s *Sink) LogDir() string { return filepath.Join(s.dir, LogDirName) }

// Meta returns the header metadata.
func (s *Sink) Meta() Meta { return s.meta }

// Counters returns the run-wide aggregates.
func (s *Sink) Counters() *Counters { return s.counters }

// CreateTopLevelNode returns the feature node for title, creating it on
// first use. Concurrent callers with the same title all get the same node.
func (s *Sink) CreateTopLevelNode(title string) *Node {
	s.mu.RLock()
	n, ok := s.features[title]
	s.mu.RUnlock()
	if ok {
		return n
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.features[title]; ok {
		return n
	}
	n = newNode(title, nil, s.now())
	s.features[title] = n
	s.order = append(s.order, n)
	logging.Debug("Report", "Created feature node %q", title)
	return n
}

// CreateChildNode appends a new scenario node under parent.
func (s *Sink) CreateChildNode(parent *Node, title string) *Node {
	c := newNode(title, parent, s.now())
	parent.addChild(c)
	return c
}

// SetStatus appends a step entry with the given status to node. text is
// trusted HTML.
func (s *Sink) SetStatus(node *Node, status Status, text string) {
	s.addLog(node, Log{Status: status, Details: template.HTML(text), Step: true})
}

// Annotate appends an annotation line to node. It is rendered like a step
// entry but leaves the node's status alone.
func (s *Sink) Annotate(node *Node, status Status, text string) {
	s.addLog(node, Log{Status: status, Details: template.HTML(text)})
}

// AttachInfo appends an informational HTML fragment to node.
func (s *Sink) AttachInfo(node *Node, html string) {
	s.Annotate(node, Other, html)
}

func (s *Sink) addLog(node *Node, l Log) {
	if node == nil {
		logging.Warn("Report", "Dropping %s entry with no node: %s", l.Status, l.Details)
		return
	}
	l.Time = s.now()
	node.addLog(l)
}

// AssignCategory tags node with categories.
func (s *Sink) AssignCategory(node *Node, categories ...string) {
	if node != nil {
		node.addCategories(categories...)
	}
}

// Features returns the feature nodes in creation order.
func (s *Sink) Features() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Node(nil), s.order...)
}

// Categories returns every category used by any scenario, in first-use order.
func (s *Sink) Categories() []string {
	var cats []string
	for _, f := range s.Features() {
		for _, sc := range f.Children() {
			for _, c := range sc.Categories() {
				if !contains(cats, c) {
					cats = append(cats, c)
				}
			}
		}
	}
	return cats
}

// SaveScreenshot writes png into the screenshot directory and returns its
// path relative to the report file.
func (s *Sink) SaveScreenshot(name string, png []byte) (string, error) {
	file := sanitizeFileName(name) + "_" + s.now().Format("150405.000") + ".png"
	rel := ScreenshotDirName + "/" + file
	if err := atomicWriteFile(filepath.Join(s.dir, ScreenshotDirName, file), png); err != nil {
		return "", fmt.Errorf("failed to save screenshot: %w", err)
	}
	return rel, nil
}

// Flush renders the report and the summary file. It may be called more than
// once; each call rewrites both files with the current state.
func (s *Sink) Flush() error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	var buf bytes.Buffer
	if err := render(&buf, s.view()); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if err := atomicWriteFile(s.ReportPath(), buf.Bytes()); err != nil {
		return err
	}
	if err := writeSummary(filepath.Join(s.dir, SummaryFileName), s); err != nil {
		return err
	}
	logging.Info("Report", "Report written to %s", s.ReportPath())
	return nil
}

func sanitizeFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" {
		return "screenshot"
	}
	return name
}

// atomicWriteFile writes data to a temp file next to path and renames it
// into place.
func atomicWriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
