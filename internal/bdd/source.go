package bdd

import (
	"strconv"

	"github.com/cucumber/godog"
	messages "github.com/cucumber/messages/go/v21"
)

// pickleSource ties a pickle to the scenario it was compiled from.
type pickleSource struct {
	scenario *messages.Scenario
	offset   int
	keywords map[int]string
}

// locate finds the scenario p was compiled from in doc.
func locate(doc *messages.GherkinDocument, p *godog.Scenario) (*pickleSource, bool) {
	if doc == nil || doc.Feature == nil || len(p.AstNodeIds) == 0 {
		return nil, false
	}
	pickleScenarioID, err := strconv.Atoi(p.AstNodeIds[0])
	if err != nil {
		return nil, false
	}

	keywords := make(map[int]string)
	var scenarios []*messages.Scenario
	addSteps := func(steps []*messages.Step) {
		for _, s := range steps {
			if id, err := strconv.Atoi(s.Id); err == nil {
				keywords[id] = s.Keyword
			}
		}
	}
	for _, child := range doc.Feature.Children {
		switch {
		case child.Background != nil:
			addSteps(child.Background.Steps)
		case child.Scenario != nil:
			addSteps(child.Scenario.Steps)
			scenarios = append(scenarios, child.Scenario)
		case child.Rule != nil:
			for _, rc := range child.Rule.Children {
				if rc.Background != nil {
					addSteps(rc.Background.Steps)
				}
				if rc.Scenario != nil {
					addSteps(rc.Scenario.Steps)
					scenarios = append(scenarios, rc.Scenario)
				}
			}
		}
	}

	for _, sc := range scenarios {
		id, err := strconv.Atoi(sc.Id)
		if err != nil {
			continue
		}
		offset := pickleScenarioID - id
		if stepsMatch(sc, p, offset) {
			return &pickleSource{scenario: sc, offset: offset, keywords: keywords}, true
		}
	}
	return nil, false
}

// stepsMatch checks that the pickle's trailing steps are sc's steps
// shifted by offset. Leading pickle steps come from backgrounds.
func stepsMatch(sc *messages.Scenario, p *godog.Scenario, offset int) bool {
	if len(p.Steps) < len(sc.Steps) {
		return false
	}
	tail := p.Steps[len(p.Steps)-len(sc.Steps):]
	for i, s := range sc.Steps {
		if len(tail[i].AstNodeIds) == 0 {
			return false
		}
		want, err1 := strconv.Atoi(s.Id)
		got, err2 := strconv.Atoi(tail[i].AstNodeIds[0])
		if err1 != nil || err2 != nil || got != want+offset {
			return false
		}
	}
	return true
}

// keyword returns the keyword the step was written with.
func (ps *pickleSource) keyword(st *godog.Step) (string, bool) {
	if len(st.AstNodeIds) == 0 {
		return "", false
	}
	id, err := strconv.Atoi(st.AstNodeIds[0])
	if err != nil {
		return "", false
	}
	kw, ok := ps.keywords[id-ps.offset]
	return kw, ok
}

// exampleRow returns the 1-based position of the outline row p was
// generated from, counted across all Examples blocks.
func (ps *pickleSource) exampleRow(p *godog.Scenario) (string, bool) {
	if len(p.AstNodeIds) < 2 {
		return "", false
	}
	rowID, err := strconv.Atoi(p.AstNodeIds[1])
	if err != nil {
		return "", false
	}
	pos := 0
	for _, ex := range ps.scenario.Examples {
		for _, row := range ex.TableBody {
			pos++
			if id, err := strconv.Atoi(row.Id); err == nil && id+ps.offset == rowID {
				return strconv.Itoa(pos), true
			}
		}
	}
	return "", false
}

// scenarioID is the pickle id, with ";<row>" appended for outline rows.
func scenarioID(doc *messages.GherkinDocument, p *godog.Scenario) string {
	if len(p.AstNodeIds) < 2 {
		return p.Id
	}
	if ps, ok := locate(doc, p); ok {
		if row, ok := ps.exampleRow(p); ok {
			return p.Id + ";" + row
		}
	}
	// Unknown layout: the row's own AST id is still unique per row.
	return p.Id + ";" + p.AstNodeIds[1]
}

// typeKeyword derives a keyword from the step type when the source is
// not available.
func typeKeyword(t messages.PickleStepType) string {
	switch t {
	case messages.PickleStepType_CONTEXT:
		return "Given "
	case messages.PickleStepType_ACTION:
		return "When "
	case messages.PickleStepType_OUTCOME:
		return "Then "
	default:
		return "* "
	}
}

// stepKeywords maps every step id of p to the keyword it is shown with.
func stepKeywords(doc *messages.GherkinDocument, p *godog.Scenario) map[string]string {
	ps, located := locate(doc, p)
	out := make(map[string]string, len(p.Steps))
	var prev messages.PickleStepType
	for i, st := range p.Steps {
		if located {
			if kw, ok := ps.keyword(st); ok {
				out[st.Id] = kw
				prev = st.Type
				continue
			}
		}
		if i > 0 && st.Type == prev && st.Type != messages.PickleStepType_UNKNOWN {
			out[st.Id] = "And "
		} else {
			out[st.Id] = typeKeyword(st.Type)
		}
		prev = st.Type
	}
	return out
}

func tagNames(tags []*messages.PickleTag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}
