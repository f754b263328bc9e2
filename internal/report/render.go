package report

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("report.html.tmpl").
		Funcs(sprig.HtmlFuncMap()).
		ParseFS(templateFS, "templates/report.html.tmpl"),
)

type reportView struct {
	Meta       Meta
	RunID      string
	Started    time.Time
	Generated  time.Time
	Counters   Snapshot
	Categories []string
	Features   []featureView
}

type featureView struct {
	Title     string
	Status    Status
	Scenarios []scenarioView
}

type scenarioView struct {
	ID         string
	Title      string
	Status     Status
	Categories []string
	Logs       []Log
	Started    time.Time
}

func (s *Sink) view() reportView {
	v := reportView{
		Meta:       s.meta,
		RunID:      s.runID,
		Started:    s.started,
		Generated:  s.now(),
		Counters:   s.counters.Snapshot(),
		Categories: s.Categories(),
	}
	for _, f := range s.Features() {
		fv := featureView{Title: f.Title, Status: f.Status()}
		for _, sc := range f.Children() {
			fv.Scenarios = append(fv.Scenarios, scenarioView{
				ID:         sc.ID,
				Title:      sc.Title,
				Status:     sc.Status(),
				Categories: sc.Categories(),
				Logs:       sc.Logs(),
				Started:    sc.Created,
			})
		}
		v.Features = append(v.Features, fv)
	}
	return v
}

func render(w io.Writer, v reportView) error {
	return reportTemplate.Execute(w, v)
}

type summaryFile struct {
	RunID     string            `json:"runId"`
	Env       string            `json:"env"`
	Started   time.Time         `json:"started"`
	Counters  Snapshot          `json:"counters"`
	Scenarios []summaryScenario `json:"scenarios"`
}

type summaryScenario struct {
	Feature  string `json:"feature"`
	Scenario string `json:"scenario"`
	Status   string `json:"status"`
}

func writeSummary(path string, s *Sink) error {
	out := summaryFile{
		RunID:    s.runID,
		Env:      s.meta.Env,
		Started:  s.started,
		Counters: s.counters.Snapshot(),
	}
	for _, f := range s.Features() {
		for _, sc := range f.Children() {
			out.Scenarios = append(out.Scenarios, summaryScenario{
				Feature:  f.Title,
				Scenario: sc.Title,
				Status:   sc.Status().String(),
			})
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	return atomicWriteFile(path, append(data, '\n'))
}
