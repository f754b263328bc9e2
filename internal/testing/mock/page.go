package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"hotelbooker/internal/browser"
)

// EvalFunc answers one Evaluate call. calls counts previous matches of the
// same rule.
type EvalFunc func(expr string, calls int) (any, error)

// EvalRule maps expressions containing Match to an answer.
type EvalRule struct {
	Match string
	Fn    EvalFunc
	calls int
}

// PNG is the screenshot payload returned by default.
var PNG = []byte("\x89PNG\r\n\x1a\nmock")

// Page is a scriptable browser.Page.
type Page struct {
	mu sync.Mutex

	rules []*EvalRule
	// DefaultEval answers expressions no rule matches. nil leaves out
	// untouched.
	DefaultEval any

	url       string
	visible   map[string]bool
	texts     map[string][]string
	failOn    map[string]error
	evaluated []string
	actions   []string

	// OnAction runs after every recorded action, outside the page lock, so
	// tests can react to clicks by changing the URL or visibility.
	OnAction func(p *Page, action string)

	NetworkIdleErr error
	ScreenshotErr  error
	Screenshots    int
	closed         bool
}

var _ browser.Page = (*Page)(nil)

// NewPage returns an empty page at about:blank.
func NewPage() *Page {
	return &Page{
		url:     "about:blank",
		visible: map[string]bool{},
		texts:   map[string][]string{},
		failOn:  map[string]error{},
	}
}

// On answers expressions containing match with a fixed result. Later rules
// take precedence.
func (p *Page) On(match string, result any) *Page {
	return p.OnFunc(match, func(string, int) (any, error) { return result, nil })
}

// OnFunc answers expressions containing match with fn.
func (p *Page) OnFunc(match string, fn EvalFunc) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules = append(p.rules, &EvalRule{Match: match, Fn: fn})
	return p
}

// SetVisible controls IsVisible for selector.
func (p *Page) SetVisible(selector string, v bool) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible[selector] = v
	return p
}

// SetTexts controls Texts for selector.
func (p *Page) SetTexts(selector string, texts ...string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.texts[selector] = texts
	return p
}

// FailOn makes every action on selector return err.
func (p *Page) FailOn(selector string, err error) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failOn[selector] = err
	return p
}

// Actions returns the recorded actions such as "click #login".
func (p *Page) Actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.actions...)
}

// Evaluated returns every evaluated expression in order.
func (p *Page) Evaluated() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.evaluated...)
}

// EvalCount counts evaluated expressions containing match.
func (p *Page) EvalCount(match string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.evaluated {
		if strings.Contains(e, match) {
			n++
		}
	}
	return n
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) act(selector, action string) error {
	p.mu.Lock()
	if err, ok := p.failOn[selector]; ok {
		p.mu.Unlock()
		return err
	}
	p.actions = append(p.actions, action)
	hook := p.OnAction
	p.mu.Unlock()
	if hook != nil {
		hook(p, action)
	}
	return nil
}

// SetURL moves the page to url without recording a navigation.
func (p *Page) SetURL(url string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	return p
}

func (p *Page) Navigate(_ context.Context, url string) error {
	if err := p.act(url, "navigate "+url); err != nil {
		return err
	}
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
	return nil
}

func (p *Page) URL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *Page) Evaluate(ctx context.Context, expression string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.evaluated = append(p.evaluated, expression)
	var rule *EvalRule
	for i := len(p.rules) - 1; i >= 0; i-- {
		if strings.Contains(expression, p.rules[i].Match) {
			rule = p.rules[i]
			break
		}
	}
	var calls int
	if rule != nil {
		calls = rule.calls
		rule.calls++
	}
	def := p.DefaultEval
	p.mu.Unlock()

	var (
		result any
		err    error
	)
	if rule != nil {
		result, err = rule.Fn(expression, calls)
	} else {
		result = def
	}
	if err != nil || result == nil || out == nil {
		return err
	}
	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("mock evaluate: %w", err)
	}
	return json.Unmarshal(b, out)
}

func (p *Page) WaitForNetworkIdle(ctx context.Context, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, "network idle")
	return p.NetworkIdleErr
}

func (p *Page) Click(_ context.Context, selector string) error {
	return p.act(selector, "click "+selector)
}

func (p *Page) ClickNth(_ context.Context, selector string, index int) error {
	return p.act(selector, fmt.Sprintf("click %s[%d]", selector, index))
}

func (p *Page) Fill(_ context.Context, selector, value string) error {
	return p.act(selector, fmt.Sprintf("fill %s=%s", selector, value))
}

func (p *Page) Clear(_ context.Context, selector string) error {
	return p.act(selector, "clear "+selector)
}

func (p *Page) SelectOption(_ context.Context, selector, label string) error {
	return p.act(selector, fmt.Sprintf("select %s=%s", selector, label))
}

func (p *Page) Texts(_ context.Context, selector string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.failOn[selector]; ok {
		return nil, err
	}
	return append([]string(nil), p.texts[selector]...), nil
}

func (p *Page) IsVisible(_ context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.failOn[selector]; ok {
		return false, err
	}
	return p.visible[selector], nil
}

func (p *Page) Screenshot(context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Screenshots++
	if p.ScreenshotErr != nil {
		return nil, p.ScreenshotErr
	}
	return append([]byte(nil), PNG...), nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
