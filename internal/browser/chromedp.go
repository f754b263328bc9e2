package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"hotelbooker/pkg/logging"
)

type chromedpLauncher struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	opts          Options

	closeOnce sync.Once
}

func launchChromedp(ctx context.Context, opts Options) (*chromedpLauncher, error) {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	}
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Headless)
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	// The browser outlives the launching call, so it hangs off a
	// background context rather than ctx.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	l := &chromedpLauncher{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		opts:          opts,
	}

	startCtx, cancel := context.WithCancel(browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var userAgent string
	if err := chromedp.Run(startCtx, chromedp.Evaluate(`navigator.userAgent`, &userAgent)); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("could not start chrome: %w", err)
	}
	logging.Info("Browser", "Launched chromium via chromedp (headless=%t): %s", opts.Headless, userAgent)
	return l, nil
}

func (l *chromedpLauncher) Name() string {
	return "chromium (chromedp)"
}

func (l *chromedpLauncher) NewPage(ctx context.Context) (Page, error) {
	tabCtx, tabCancel := chromedp.NewContext(l.browserCtx)
	p := &chromedpPage{
		tabCtx:        tabCtx,
		cancel:        tabCancel,
		actionTimeout: l.opts.ActionTimeout,
		tracker:       newNetworkTracker(time.Now),
	}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			p.tracker.started(string(e.RequestID))
		case *network.EventLoadingFinished:
			p.tracker.finished(string(e.RequestID))
		case *network.EventLoadingFailed:
			p.tracker.finished(string(e.RequestID))
		case *runtime.EventExceptionThrown:
			if e.ExceptionDetails != nil {
				logging.Debug("Browser", "Page exception: %s", e.ExceptionDetails.Text)
			}
		}
	})

	if err := p.run(ctx, network.Enable(), chromedp.EmulateViewport(int64(l.opts.WindowWidth), int64(l.opts.WindowHeight))); err != nil {
		tabCancel()
		return nil, fmt.Errorf("could not open tab: %w", err)
	}
	return p, nil
}

func (l *chromedpLauncher) Close() error {
	l.closeOnce.Do(func() {
		_ = chromedp.Cancel(l.browserCtx)
		l.browserCancel()
		l.allocCancel()
	})
	return nil
}

type chromedpPage struct {
	tabCtx        context.Context
	cancel        context.CancelFunc
	actionTimeout time.Duration
	tracker       *networkTracker
}

// run executes actions on the tab, bounded by ctx and the action timeout.
func (p *chromedpPage) run(ctx context.Context, actions ...chromedp.Action) error {
	return p.runFor(ctx, p.actionTimeout, actions...)
}

func (p *chromedpPage) runFor(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.tabCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (p *chromedpPage) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (p *chromedpPage) URL(ctx context.Context) (string, error) {
	var u string
	err := p.run(ctx, chromedp.Location(&u))
	return u, err
}

func (p *chromedpPage) Evaluate(ctx context.Context, expression string, out any) error {
	if err := p.run(ctx, chromedp.Evaluate(expression, out)); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	return nil
}

func (p *chromedpPage) WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.tracker.waitIdle(waitCtx, 50*time.Millisecond)
}

func (p *chromedpPage) Click(ctx context.Context, selector string) error {
	if err := p.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

func (p *chromedpPage) ClickNth(ctx context.Context, selector string, index int) error {
	var nodes []*cdp.Node
	if err := p.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return fmt.Errorf("query %s: %w", selector, err)
	}
	if index < 0 || index >= len(nodes) {
		return fmt.Errorf("%w: %s[%d] of %d", ErrElementNotFound, selector, index, len(nodes))
	}
	if err := p.run(ctx, chromedp.MouseClickNode(nodes[index])); err != nil {
		return fmt.Errorf("click %s[%d]: %w", selector, index, err)
	}
	return nil
}

func (p *chromedpPage) Fill(ctx context.Context, selector, value string) error {
	err := p.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	return nil
}

func (p *chromedpPage) Clear(ctx context.Context, selector string) error {
	if err := p.run(ctx, chromedp.Clear(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("clear %s: %w", selector, err)
	}
	return nil
}

func (p *chromedpPage) SelectOption(ctx context.Context, selector, label string) error {
	var found bool
	if err := p.Evaluate(ctx, SelectByLabelExpr(selector, label), &found); err != nil {
		return fmt.Errorf("select %q in %s: %w", label, selector, err)
	}
	if !found {
		return fmt.Errorf("%w: option %q in %s", ErrElementNotFound, label, selector)
	}
	return nil
}

func (p *chromedpPage) Texts(ctx context.Context, selector string) ([]string, error) {
	var texts []string
	if err := p.Evaluate(ctx, TextsExpr(selector), &texts); err != nil {
		return nil, err
	}
	return texts, nil
}

func (p *chromedpPage) IsVisible(ctx context.Context, selector string) (bool, error) {
	var visible bool
	err := p.Evaluate(ctx, VisibleExpr(selector), &visible)
	return visible, err
}

func (p *chromedpPage) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := p.run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

func (p *chromedpPage) Close() error {
	p.cancel()
	return nil
}
