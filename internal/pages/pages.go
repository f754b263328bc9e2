package pages

import (
	"context"
	"fmt"

	"hotelbooker/internal/browser"
	"hotelbooker/internal/waits"
	"hotelbooker/pkg/logging"
	hbstrings "hotelbooker/pkg/strings"
)

// Annotator adds free-form lines to the current scenario's report node.
type Annotator interface {
	LogInfo(ctx context.Context, msg string)
	LogWarning(ctx context.Context, msg string)
	LogFail(ctx context.Context, msg string)
}

type nopAnnotator struct{}

func (nopAnnotator) LogInfo(context.Context, string)    {}
func (nopAnnotator) LogWarning(context.Context, string) {}
func (nopAnnotator) LogFail(context.Context, string)    {}

// base is embedded by every page object.
type base struct {
	page  browser.Page
	waits *waits.Coordinator
	log   Annotator
}

func newBase(page browser.Page, w *waits.Coordinator, log Annotator) base {
	if w == nil {
		w = waits.New(page)
	}
	if log == nil {
		log = nopAnnotator{}
	}
	return base{page: page, waits: w, log: log}
}

func (b base) action(ctx context.Context, format string, args ...interface{}) {
	logging.InfoCtx(ctx, logging.PageActionSubsystem, format, args...)
}

// clickWhenReady waits for selector to be clickable, then clicks it.
func (b base) clickWhenReady(ctx context.Context, selector string) error {
	if err := b.waits.WaitForElementClickable(ctx, selector); err != nil {
		return err
	}
	b.action(ctx, "Clicking %s", selector)
	return b.page.Click(ctx, selector)
}

// fillWhenVisible waits for selector to be visible, then fills it.
func (b base) fillWhenVisible(ctx context.Context, selector, value string) error {
	if err := b.waits.WaitForElementVisible(ctx, selector); err != nil {
		return err
	}
	b.action(ctx, "Filling %s", selector)
	return b.page.Fill(ctx, selector, value)
}

// selectWhenLoaded waits for the dropdown to have options, then picks label.
func (b base) selectWhenLoaded(ctx context.Context, selector, label string) error {
	if err := b.waits.WaitForDropdownOptionsToLoad(ctx, selector); err != nil {
		return err
	}
	b.action(ctx, "Selecting %q in %s", label, selector)
	return b.page.SelectOption(ctx, selector, label)
}

// clickByText clicks the first element matching selector whose text loosely
// equals text.
func (b base) clickByText(ctx context.Context, selector, text string) error {
	i, err := b.indexOfText(ctx, selector, text)
	if err != nil {
		return err
	}
	b.action(ctx, "Clicking %s with text %q", selector, text)
	return b.page.ClickNth(ctx, selector, i)
}

func (b base) indexOfText(ctx context.Context, selector, text string) (int, error) {
	texts, err := b.page.Texts(ctx, selector)
	if err != nil {
		return -1, err
	}
	for i, t := range texts {
		if LooseEqual(t, text) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s with text %q", browser.ErrElementNotFound, selector, text)
}

// pageContainsText reports whether the page body contains text.
func (b base) pageContainsText(ctx context.Context, text string) (bool, error) {
	var found bool
	if err := b.page.Evaluate(ctx, bodyContainsExpr(text), &found); err != nil {
		return false, err
	}
	return found, nil
}

func bodyContainsExpr(text string) string {
	return fmt.Sprintf(`(document.body && document.body.innerText || '').includes(%s)`, browser.JSString(text))
}

// LooseEqual compares two labels the way the site renders them: case and
// spacing vary between the rate grid and the provider filter.
func LooseEqual(a, b string) bool {
	return hbstrings.LooseEqual(a, b)
}
