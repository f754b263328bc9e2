package bdd

import (
	"context"
	"io"
	"io/fs"
	"testing"

	"github.com/cucumber/godog"

	"hotelbooker/internal/recorder"
)

// Registrar registers guarded step definitions on one scenario context.
type Registrar struct {
	sc  *godog.ScenarioContext
	rec *recorder.Recorder
}

// NewRegistrar returns a Registrar for sc whose guard consults rec.
func NewRegistrar(sc *godog.ScenarioContext, rec *recorder.Recorder) *Registrar {
	return &Registrar{sc: sc, rec: rec}
}

// Recorder returns the recorder steps report through.
func (r *Registrar) Recorder() *recorder.Recorder { return r.rec }

// Step registers fn for expr with any keyword.
func (r *Registrar) Step(expr string, fn any) {
	r.sc.Step(expr, Guard(r.rec.BeforeStep, fn))
}

// Given registers a Given step.
func (r *Registrar) Given(expr string, fn any) {
	r.sc.Given(expr, Guard(r.rec.BeforeStep, fn))
}

// When registers a When step.
func (r *Registrar) When(expr string, fn any) {
	r.sc.When(expr, Guard(r.rec.BeforeStep, fn))
}

// Then registers a Then step.
func (r *Registrar) Then(expr string, fn any) {
	r.sc.Then(expr, Guard(r.rec.BeforeStep, fn))
}

// StepRegistry adds step definitions to a Registrar.
type StepRegistry func(*Registrar)

// Config describes one godog run.
type Config struct {
	Name     string
	Recorder *recorder.Recorder
	Steps    StepRegistry

	// Paths are feature files or directories, read from FS when it is set.
	Paths           []string
	FS              fs.FS
	FeatureContents []godog.Feature

	Tags        string
	Concurrency int
	Format      string
	Output      io.Writer
	Strict      bool
	NoColors    bool
	Randomize   int64
	TestingT    *testing.T
	Context     context.Context
}

// Suite builds the godog test suite. Run end is delivered to the recorder
// from godog's AfterSuite hook.
func (c Config) Suite() godog.TestSuite {
	for _, f := range c.FeatureContents {
		c.Recorder.Features().Register(f.Name, f.Contents)
	}

	format := c.Format
	if format == "" {
		format = "progress"
	}
	concurrency := c.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	name := c.Name
	if name == "" {
		name = "hotelbooker"
	}

	return godog.TestSuite{
		Name: name,
		TestSuiteInitializer: func(ts *godog.TestSuiteContext) {
			ts.AfterSuite(func() {
				_ = c.Recorder.OnRunEnd()
			})
		},
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			Attach(sc, c.Recorder)
			if c.Steps != nil {
				c.Steps(NewRegistrar(sc, c.Recorder))
			}
		},
		Options: &godog.Options{
			Format:          format,
			Paths:           c.Paths,
			FS:              c.FS,
			FeatureContents: c.FeatureContents,
			Tags:            c.Tags,
			Concurrency:     concurrency,
			Output:          c.Output,
			Strict:          c.Strict,
			NoColors:        c.NoColors,
			Randomize:       c.Randomize,
			TestingT:        c.TestingT,
			DefaultContext:  c.Context,
		},
	}
}

// Run executes the suite and returns godog's exit status: 0 when every
// scenario passed, 1 on failures, 2 on invalid options.
func Run(c Config) int {
	return c.Suite().Run()
}
