package bdd

import (
	"context"
	"sync"

	"github.com/cucumber/godog"

	"hotelbooker/internal/recorder"
	"hotelbooker/pkg/logging"
)

type stateKey struct{}

// scenarioState is the adapter's view of one running pickle.
type scenarioState struct {
	mu         sync.Mutex
	keywords   map[string]string
	lastStepID string
	lastDone   bool
	endPending bool
	endErr     error
	ended      bool
}

func stateFrom(ctx context.Context) *scenarioState {
	st, _ := ctx.Value(stateKey{}).(*scenarioState)
	return st
}

func statusOf(s godog.StepResultStatus) recorder.StepStatus {
	switch s {
	case godog.StepPassed:
		return recorder.StepPassed
	case godog.StepFailed:
		return recorder.StepFailed
	case godog.StepSkipped:
		return recorder.StepSkipped
	case godog.StepPending:
		return recorder.StepPending
	case godog.StepAmbiguous:
		return recorder.StepAmbiguous
	default:
		return recorder.StepUndefined
	}
}

// Attach forwards sc's lifecycle hooks to rec.
//
// godog runs the After scenario hook right after the first failing step,
// before the after-step hooks of the steps it then skips. The scenario end
// is therefore held back until the pickle's last step has been recorded.
func Attach(sc *godog.ScenarioContext, rec *recorder.Recorder) {
	sc.Before(func(ctx context.Context, p *godog.Scenario) (context.Context, error) {
		doc := rec.Features().Document(p.Uri)
		st := &scenarioState{keywords: stepKeywords(doc, p)}
		if n := len(p.Steps); n > 0 {
			st.lastStepID = p.Steps[n-1].Id
		}
		ctx = context.WithValue(ctx, stateKey{}, st)
		return rec.OnScenarioStart(ctx, recorder.ScenarioInfo{
			ID:   scenarioID(doc, p),
			Name: p.Name,
			URI:  p.Uri,
			Tags: tagNames(p.Tags),
		})
	})

	sc.StepContext().Before(func(ctx context.Context, step *godog.Step) (context.Context, error) {
		kw := "* "
		if st := stateFrom(ctx); st != nil {
			if k, ok := st.keywords[step.Id]; ok {
				kw = k
			}
		}
		rec.OnStepStart(ctx, recorder.StepInfo{Keyword: kw, Text: step.Text})
		return ctx, nil
	})

	sc.StepContext().After(func(ctx context.Context, step *godog.Step, status godog.StepResultStatus, err error) (context.Context, error) {
		rec.OnStepFinish(ctx, statusOf(status), err)

		st := stateFrom(ctx)
		if st == nil || step.Id != st.lastStepID {
			return ctx, nil
		}
		st.mu.Lock()
		st.lastDone = true
		end := st.endPending && !st.ended
		if end {
			st.ended = true
		}
		endErr := st.endErr
		st.mu.Unlock()
		if end {
			rec.OnScenarioEnd(ctx, endErr)
		}
		return ctx, nil
	})

	sc.After(func(ctx context.Context, p *godog.Scenario, err error) (context.Context, error) {
		st := stateFrom(ctx)
		if st == nil {
			rec.OnScenarioEnd(ctx, err)
			return ctx, nil
		}
		st.mu.Lock()
		if st.ended {
			st.mu.Unlock()
			return ctx, nil
		}
		if !st.lastDone {
			st.endPending, st.endErr = true, err
			st.mu.Unlock()
			logging.DebugCtx(ctx, "BDD", "Deferring end of %q until its remaining steps are recorded", p.Name)
			return ctx, nil
		}
		st.ended = true
		st.mu.Unlock()
		rec.OnScenarioEnd(ctx, err)
		return ctx, nil
	})
}
