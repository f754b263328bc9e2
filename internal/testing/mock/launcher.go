package mock

import (
	"context"
	"sync"

	"hotelbooker/internal/browser"
)

// Launcher hands out mock Pages.
type Launcher struct {
	mu sync.Mutex

	// Setup, when set, scripts every new page before it is returned.
	Setup func(*Page)
	// Err fails every NewPage call.
	Err error

	pages  []*Page
	closed bool
}

var _ browser.Launcher = (*Launcher)(nil)

// NewLauncher returns a launcher whose pages are prepared by setup.
func NewLauncher(setup func(*Page)) *Launcher {
	return &Launcher{Setup: setup}
}

func (l *Launcher) NewPage(ctx context.Context) (browser.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	p := NewPage()
	if l.Setup != nil {
		l.Setup(p)
	}
	l.pages = append(l.pages, p)
	return p, nil
}

func (l *Launcher) Name() string {
	return "mock"
}

func (l *Launcher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

// Pages returns every page opened so far.
func (l *Launcher) Pages() []*Page {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Page(nil), l.pages...)
}

// Closed reports whether Close was called.
func (l *Launcher) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
