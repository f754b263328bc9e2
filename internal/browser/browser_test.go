package browser

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBrowser(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "chromium", false},
		{"Chrome", "chromium", false},
		{"chromium", "chromium", false},
		{"FIREFOX", "firefox", false},
		{"safari", "webkit", false},
		{"webkit", "webkit", false},
		{"ie11", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeBrowser(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, DriverPlaywright, o.Driver)
	assert.Equal(t, "chromium", o.Browser)
	assert.Equal(t, 1920, o.WindowWidth)
	assert.Equal(t, 1080, o.WindowHeight)
	assert.Equal(t, 30*time.Second, o.ActionTimeout)
}

func TestLaunch_RejectsBadCombinations(t *testing.T) {
	_, err := Launch(context.Background(), Options{Driver: DriverChromedp, Browser: "firefox"})
	assert.ErrorContains(t, err, "only supports chromium")

	_, err = Launch(context.Background(), Options{Driver: "selenium"})
	assert.ErrorContains(t, err, "unknown driver")

	_, err = Launch(context.Background(), Options{Browser: "lynx"})
	assert.ErrorContains(t, err, "unsupported browser")
}

func TestJSString(t *testing.T) {
	assert.Equal(t, `"#ctl00_btnSearch"`, JSString("#ctl00_btnSearch"))
	assert.Equal(t, `"input[placeholder*='Place']"`, JSString("input[placeholder*='Place']"))
	assert.Equal(t, `"a\"b"`, JSString(`a"b`))
}

func TestScriptBuilders(t *testing.T) {
	assert.Contains(t, VisibleExpr("#login"), `document.querySelector("#login")`)
	assert.Contains(t, AnyVisibleExpr(".spinner"), `document.querySelectorAll(".spinner")`)
	assert.Contains(t, TextsExpr("h2"), `.map(e => (e.textContent || '').trim())`)

	sel := SelectByLabelExpr("#ctl00_lstRooms", "2 Rooms")
	assert.Contains(t, sel, `document.querySelector("#ctl00_lstRooms")`)
	assert.Contains(t, sel, `const want = "2 Rooms"`)
	assert.Contains(t, sel, "dispatchEvent(new Event('change'")
}

type fakeNow struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeNow) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeNow) advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func TestNetworkTracker_Idle(t *testing.T) {
	clock := &fakeNow{t: time.Unix(1000, 0)}
	tr := newNetworkTracker(clock.now)

	assert.False(t, tr.idle(), "quiet window has not passed yet")
	clock.advance(networkQuietWindow)
	assert.True(t, tr.idle())

	tr.started("1")
	tr.started("2")
	clock.advance(time.Second)
	assert.False(t, tr.idle(), "requests in flight")

	tr.finished("1")
	tr.finished("unknown")
	clock.advance(time.Second)
	assert.False(t, tr.idle(), "one request still in flight")

	tr.finished("2")
	assert.False(t, tr.idle(), "just became quiet")
	clock.advance(networkQuietWindow)
	assert.True(t, tr.idle())
}

func TestNetworkTracker_WaitIdleHonorsContext(t *testing.T) {
	clock := &fakeNow{t: time.Unix(1000, 0)}
	tr := newNetworkTracker(clock.now)
	tr.started("pending")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := tr.waitIdle(ctx, 5*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	tr.finished("pending")
	clock.advance(networkQuietWindow)
	require.NoError(t, tr.waitIdle(context.Background(), 5*time.Millisecond))
}
