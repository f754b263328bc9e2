package browser

import (
	"encoding/json"
	"fmt"
)

// JSString quotes s as a JavaScript string literal.
func JSString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// visibleFn is a JS function expression deciding whether an element is
// rendered and takes up space.
const visibleFn = `(el) => {
	if (!el) return false;
	const style = window.getComputedStyle(el);
	if (style.visibility === 'hidden' || style.display === 'none') return false;
	const rect = el.getBoundingClientRect();
	return rect.width > 0 || rect.height > 0;
}`

// VisibleExpr evaluates to true when the first element matching selector
// is visible.
func VisibleExpr(selector string) string {
	return fmt.Sprintf(`(%s)(document.querySelector(%s))`, visibleFn, JSString(selector))
}

// AnyVisibleExpr evaluates to true when any element matching selector is
// visible.
func AnyVisibleExpr(selector string) string {
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).some(%s)`, JSString(selector), visibleFn)
}

// TextsExpr evaluates to the trimmed text content of every match.
func TextsExpr(selector string) string {
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(e => (e.textContent || '').trim())`, JSString(selector))
}

// SelectByLabelExpr selects the option whose trimmed label equals label,
// fires change, and evaluates to whether an option was found.
func SelectByLabelExpr(selector, label string) string {
	return fmt.Sprintf(`(() => {
	const sel = document.querySelector(%s);
	if (!sel) return false;
	const want = %s;
	const opt = Array.from(sel.options).find(o => o.label.trim() === want || o.text.trim() === want);
	if (!opt) return false;
	sel.value = opt.value;
	sel.dispatchEvent(new Event('input', { bubbles: true }));
	sel.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
})()`, JSString(selector), JSString(label))
}
