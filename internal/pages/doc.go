// Package pages holds the page objects for the HotelBooker web application.
//
// Each page object wraps one scenario's browser.Page and a wait coordinator
// bound to it. Selectors are plain CSS; where the application only offers a
// visible label (buttons, links, client headings) the match is done in Go on
// the element texts and the element is then clicked by position. This keeps
// every page object driver-neutral.
//
// Page objects never swallow a wait timeout: it is returned to the step,
// which fails. Only the login page marks its failures as critical, since
// nothing after a failed login can succeed.
package pages
