package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"hotelbooker/pkg/logging"
)

type playwrightLauncher struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    Options

	closeOnce sync.Once
	closeErr  error
}

func launchPlaywright(opts Options) (*playwrightLauncher, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	var bt playwright.BrowserType
	switch opts.Browser {
	case "firefox":
		bt = pw.Firefox
	case "webkit":
		bt = pw.WebKit
	default:
		bt = pw.Chromium
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.ExecPath != "" {
		launchOpts.ExecutablePath = playwright.String(opts.ExecPath)
	}
	b, err := bt.Launch(launchOpts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch %s: %w", opts.Browser, err)
	}
	logging.Info("Browser", "Launched %s %s via playwright (headless=%t)", opts.Browser, b.Version(), opts.Headless)
	return &playwrightLauncher{pw: pw, browser: b, opts: opts}, nil
}

func (l *playwrightLauncher) Name() string {
	return l.opts.Browser + " " + l.browser.Version()
}

func (l *playwrightLauncher) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := l.browser.NewPage(playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{Width: l.opts.WindowWidth, Height: l.opts.WindowHeight},
	})
	if err != nil {
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	p.SetDefaultTimeout(float64(l.opts.ActionTimeout.Milliseconds()))
	return &playwrightPage{page: p}, nil
}

func (l *playwrightLauncher) Close() error {
	l.closeOnce.Do(func() {
		if err := l.browser.Close(); err != nil {
			l.closeErr = fmt.Errorf("could not close browser: %w", err)
		}
		if err := l.pw.Stop(); err != nil && l.closeErr == nil {
			l.closeErr = fmt.Errorf("could not stop playwright: %w", err)
		}
	})
	return l.closeErr
}

type playwrightPage struct {
	page playwright.Page
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

// remaining caps timeout by the deadline of ctx, if any.
func remaining(ctx context.Context, timeout time.Duration) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			return left
		}
	}
	return timeout
}

func (p *playwrightPage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.page.Goto(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (p *playwrightPage) URL(ctx context.Context) (string, error) {
	return p.page.URL(), ctx.Err()
}

func (p *playwrightPage) Evaluate(ctx context.Context, expression string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := p.page.Evaluate(expression)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode evaluate result: %w", err)
	}
	return json.Unmarshal(raw, out)
}

func (p *playwrightPage) WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: millis(remaining(ctx, timeout)),
	})
}

func (p *playwrightPage) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Locator(selector).First().Click(); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

func (p *playwrightPage) ClickNth(ctx context.Context, selector string, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	loc := p.page.Locator(selector)
	n, err := loc.Count()
	if err != nil {
		return fmt.Errorf("count %s: %w", selector, err)
	}
	if index < 0 || index >= n {
		return fmt.Errorf("%w: %s[%d] of %d", ErrElementNotFound, selector, index, n)
	}
	if err := loc.Nth(index).Click(); err != nil {
		return fmt.Errorf("click %s[%d]: %w", selector, index, err)
	}
	return nil
}

func (p *playwrightPage) Fill(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Locator(selector).First().Fill(value); err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	return nil
}

func (p *playwrightPage) Clear(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Locator(selector).First().Clear(); err != nil {
		return fmt.Errorf("clear %s: %w", selector, err)
	}
	return nil
}

func (p *playwrightPage) SelectOption(ctx context.Context, selector, label string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Locator(selector).First().SelectOption(playwright.SelectOptionValues{
		Labels: playwright.StringSlice(label),
	})
	if err != nil {
		return fmt.Errorf("select %q in %s: %w", label, selector, err)
	}
	return nil
}

func (p *playwrightPage) Texts(ctx context.Context, selector string) ([]string, error) {
	var texts []string
	if err := p.Evaluate(ctx, TextsExpr(selector), &texts); err != nil {
		return nil, err
	}
	return texts, nil
}

func (p *playwrightPage) IsVisible(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return p.page.Locator(selector).First().IsVisible()
}

func (p *playwrightPage) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}

// Install downloads the playwright driver and the named browser engines.
// No names installs every engine.
func Install(browsers []string, verbose bool) error {
	engines := make([]string, 0, len(browsers))
	for _, b := range browsers {
		engine, err := NormalizeBrowser(b)
		if err != nil {
			return err
		}
		engines = append(engines, engine)
	}
	if err := playwright.Install(&playwright.RunOptions{Browsers: engines, Verbose: verbose}); err != nil {
		return fmt.Errorf("could not install playwright browsers: %w", err)
	}
	return nil
}
