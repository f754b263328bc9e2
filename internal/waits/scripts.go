package waits

import (
	"fmt"

	"hotelbooker/internal/browser"
)

const (
	documentCompleteExpr = `document.readyState === 'complete'`
	jQueryIdleExpr       = `typeof window.jQuery === 'undefined' || window.jQuery.active === 0`
	fetchIdleExpr        = `(window.activeFetchCount || 0) === 0`

	// installFetchCounterExpr wraps window.fetch once per page so in-flight
	// calls are counted in window.activeFetchCount. The marker property
	// keeps a second install from stacking another wrapper.
	installFetchCounterExpr = `(() => {
	if (window.__hotelbookerFetchCounter) return false;
	window.__hotelbookerFetchCounter = true;
	window.activeFetchCount = 0;
	if (typeof window.fetch !== 'function') return true;
	const originalFetch = window.fetch;
	window.fetch = function (...args) {
		window.activeFetchCount++;
		return originalFetch.apply(this, args).finally(() => { window.activeFetchCount--; });
	};
	return true;
})()`
)

func clickableExpr(selector string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	return !!el && (%s) && !el.disabled;
})()`, browser.JSString(selector), browser.VisibleExpr(selector))
}

func hiddenExpr(selector string) string {
	return "!(" + browser.VisibleExpr(selector) + ")"
}

func textInElementExpr(selector, text string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	return !!el && (el.textContent || '').includes(%s);
})()`, browser.JSString(selector), browser.JSString(text))
}

func dropdownLoadedExpr(selector string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	return !!el && !!el.options && el.options.length > 1;
})()`, browser.JSString(selector))
}

func displayedExpr(selector string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	return !!el && window.getComputedStyle(el).display !== 'none';
})()`, browser.JSString(selector))
}

func hasChildrenExpr(selector string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	return !!el && el.children.length > 0;
})()`, browser.JSString(selector))
}

func elementCountExpr(selector string, n int) string {
	return fmt.Sprintf(`document.querySelectorAll(%s).length === %d`, browser.JSString(selector), n)
}
