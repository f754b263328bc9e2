package pages

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"hotelbooker/internal/browser"
	"hotelbooker/internal/waits"
)

const (
	resultsHeader     = "h1"
	pagerLabel        = "strong"
	pageLinks         = "a[href*='page=']"
	hotelNameLinks    = "a[id*='hotelNameLink']"
	anchors           = "a"
	ratesLoadingImage = "img[alt='Rates loading']"
	ratesContainer    = "div[id*='rates']"

	propertiesFound   = "properties found"
	checkAvailability = "Check Availability"
	selectRate        = "Select Rate"

	// maxHotelsToCheck bounds the per-hotel availability sweep when
	// looking for a rate.
	maxHotelsToCheck = 10
)

// KnownProviders are the content providers HotelBooker aggregates.
var KnownProviders = []string{"Sabre", "Booking.com", "Expedia", "Hotels.com"}

var (
	foundCountPattern = regexp.MustCompile(`(\d+)\s+properties found`)
	providerPattern   = regexp.MustCompile(`\(([^()]+)\)`)
	pricePattern      = regexp.MustCompile(`USD\s*([\d,]+(?:\.\d+)?)`)
)

// Rate is one bookable rate shown after checking a hotel's availability.
type Rate struct {
	// Index is the position of the rate's "Select Rate" link among all
	// anchors on the page.
	Index         int    `json:"index"`
	Text          string `json:"text"`
	Provider      string `json:"-"`
	NonRefundable bool   `json:"-"`
	Price         string `json:"-"`
}

// Policy is the cancellation policy label of the rate.
func (r Rate) Policy() string {
	if r.NonRefundable {
		return "Non-Refundable"
	}
	return "Refundable"
}

// ParseRate fills the derived fields from the rate's text.
func ParseRate(r Rate) Rate {
	if m := providerPattern.FindStringSubmatch(r.Text); m != nil {
		r.Provider = strings.TrimSpace(m[1])
	}
	lower := strings.ToLower(r.Text)
	r.NonRefundable = strings.Contains(lower, "non-refundable") ||
		strings.Contains(lower, "non refundable") ||
		strings.Contains(lower, "nonref")
	if m := pricePattern.FindStringSubmatch(r.Text); m != nil {
		r.Price = "USD " + m[1]
	}
	return r
}

// ParseRefundable reads the refundability column of a scenario table.
func ParseRefundable(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "refundable":
		return true, nil
	case "no", "n", "false", "non-refundable", "nonrefundable", "non refundable":
		return false, nil
	default:
		return false, fmt.Errorf("unrecognised refundable value %q", s)
	}
}

// SelectedHotel describes the rate picked by SelectHotelRatesForProvider.
type SelectedHotel struct {
	HotelName          string
	Provider           string
	CancellationPolicy string
	Price              string
}

// AvailabilityPage is the hotel list shown after a search.
type AvailabilityPage struct {
	base
}

func NewAvailabilityPage(page browser.Page, w *waits.Coordinator, log Annotator) *AvailabilityPage {
	return &AvailabilityPage{base: newBase(page, w, log)}
}

// WaitForResults blocks until the results header and page load complete.
func (p *AvailabilityPage) WaitForResults(ctx context.Context) error {
	if err := p.waits.WaitForTextInElement(ctx, resultsHeader, propertiesFound, p.waits.Timeouts().Long); err != nil {
		return err
	}
	return p.waits.WaitForPageLoad(ctx)
}

// ResultsHeader returns the header text such as "Dallas: 100 properties
// found".
func (p *AvailabilityPage) ResultsHeader(ctx context.Context) (string, error) {
	texts, err := p.page.Texts(ctx, resultsHeader)
	if err != nil {
		return "", err
	}
	for _, t := range texts {
		if strings.Contains(t, propertiesFound) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: results header", browser.ErrElementNotFound)
}

// HotelsFoundCount is the number in the results header.
func (p *AvailabilityPage) HotelsFoundCount(ctx context.Context) (int, error) {
	header, err := p.ResultsHeader(ctx)
	if err != nil {
		return 0, err
	}
	m := foundCountPattern.FindStringSubmatch(header)
	if m == nil {
		return 0, fmt.Errorf("no hotel count in header %q", header)
	}
	return strconv.Atoi(m[1])
}

func (p *AvailabilityPage) HotelNames(ctx context.Context) ([]string, error) {
	return p.page.Texts(ctx, hotelNameLinks)
}

// PageNumbers returns the numeric pager links in document order.
func (p *AvailabilityPage) PageNumbers(ctx context.Context) ([]int, error) {
	labels, err := p.page.Texts(ctx, pageLinks)
	if err != nil {
		return nil, err
	}
	return ParsePageNumbers(labels), nil
}

// CurrentPageNumber reads the page query parameter, defaulting to 1.
func (p *AvailabilityPage) CurrentPageNumber(ctx context.Context) (int, error) {
	raw, err := p.page.URL(ctx)
	if err != nil {
		return 0, err
	}
	return pageFromURL(raw), nil
}

func pageFromURL(raw string) int {
	u, err := url.Parse(raw)
	if err != nil {
		return 1
	}
	n, err := strconv.Atoi(u.Query().Get("page"))
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

// IsPaginationDisplayed looks for the "Pages:" label.
func (p *AvailabilityPage) IsPaginationDisplayed(ctx context.Context) (bool, error) {
	labels, err := p.page.Texts(ctx, pagerLabel)
	if err != nil {
		return false, err
	}
	for _, l := range labels {
		if strings.HasPrefix(strings.TrimSpace(l), "Pages:") {
			return true, nil
		}
	}
	return false, nil
}

// GoToPage clicks the pager link labelled n and waits for the page load.
func (p *AvailabilityPage) GoToPage(ctx context.Context, n int) error {
	if err := p.waits.WaitForElementClickable(ctx, pageLinks); err != nil {
		return err
	}
	if err := p.clickByText(ctx, pageLinks, strconv.Itoa(n)); err != nil {
		return err
	}
	return p.waits.WaitForPageLoad(ctx)
}

// ValidatePagination inspects the pager, visits every other linked page to
// check it lands on the right page, then returns to where it started.
func (p *AvailabilityPage) ValidatePagination(ctx context.Context) (PaginationReport, error) {
	displayed, err := p.IsPaginationDisplayed(ctx)
	if err != nil {
		return PaginationReport{}, err
	}
	links, err := p.PageNumbers(ctx)
	if err != nil {
		return PaginationReport{}, err
	}
	original, err := p.CurrentPageNumber(ctx)
	if err != nil {
		return PaginationReport{}, err
	}
	r := AnalyzePagination(links, original)
	r.Displayed = displayed || r.Displayed
	if !r.Displayed {
		p.log.LogWarning(ctx, r.Summary())
		return r, nil
	}

	visited := original
	for _, n := range r.Pages {
		if n == original {
			continue
		}
		if err := p.GoToPage(ctx, n); err != nil {
			if ctx.Err() != nil {
				return r, err
			}
			r.Broken = append(r.Broken, n)
			continue
		}
		visited = n
		landed, err := p.CurrentPageNumber(ctx)
		if err != nil {
			return r, err
		}
		if landed == n {
			r.Working = append(r.Working, n)
		} else {
			r.Broken = append(r.Broken, n)
		}
	}
	if visited != original {
		if err := p.GoToPage(ctx, original); err != nil {
			return r, fmt.Errorf("failed to return to page %d: %w", original, err)
		}
	}

	for _, w := range r.Warnings() {
		p.log.LogWarning(ctx, "Pagination: "+w)
	}
	if r.Passed() {
		p.log.LogInfo(ctx, r.Summary())
	} else {
		p.log.LogFail(ctx, r.Summary())
	}
	return r, nil
}

// CheckAvailability expands the rates of the hotel at index on the current
// page and waits for them to load.
func (p *AvailabilityPage) CheckAvailability(ctx context.Context, index int) error {
	texts, err := p.page.Texts(ctx, anchors)
	if err != nil {
		return err
	}
	seen := 0
	for i, t := range texts {
		if !LooseEqual(t, checkAvailability) {
			continue
		}
		if seen == index {
			p.action(ctx, "Checking availability of hotel %d", index)
			if err := p.page.ClickNth(ctx, anchors, i); err != nil {
				return err
			}
			return p.WaitForRates(ctx)
		}
		seen++
	}
	return fmt.Errorf("%w: %q link for hotel %d", browser.ErrElementNotFound, checkAvailability, index)
}

// WaitForRates waits for the loading indicator to go and the rates to show.
func (p *AvailabilityPage) WaitForRates(ctx context.Context) error {
	if err := p.waits.WaitForElementToDisappear(ctx, ratesLoadingImage); err != nil {
		return err
	}
	return p.waits.WaitForElementVisible(ctx, ratesContainer)
}

// Rates lists the selectable rates currently expanded on the page.
func (p *AvailabilityPage) Rates(ctx context.Context) ([]Rate, error) {
	var raw []Rate
	if err := p.page.Evaluate(ctx, ratesExpr, &raw); err != nil {
		return nil, fmt.Errorf("failed to read rates: %w", err)
	}
	out := make([]Rate, len(raw))
	for i, r := range raw {
		out[i] = ParseRate(r)
	}
	return out, nil
}

// ratesExpr finds every "Select Rate" anchor and the text of the rate block
// around it.
var ratesExpr = fmt.Sprintf(`Array.from(document.querySelectorAll('a'))
	.map((a, index) => ({ a, index }))
	.filter(x => (x.a.textContent || '').trim() === %s)
	.map(x => {
		const box = x.a.closest(%s) || x.a.parentElement;
		return { index: x.index, text: ((box && box.innerText) || '').trim() };
	})`, browser.JSString(selectRate), browser.JSString(ratesContainer+" > div"))

// ContentProviders lists the known providers named on the page.
func (p *AvailabilityPage) ContentProviders(ctx context.Context) ([]string, error) {
	var out []string
	for _, name := range KnownProviders {
		ok, err := p.pageContainsText(ctx, name)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, name)
		}
	}
	return out, nil
}

// SelectHotelRatesForProvider walks the hotels on the current page,
// checking availability of each until one offers a rate from provider with
// the wanted refundability, and selects that rate.
func (p *AvailabilityPage) SelectHotelRatesForProvider(ctx context.Context, provider, refundable string) (SelectedHotel, error) {
	wantRefundable, err := ParseRefundable(refundable)
	if err != nil {
		return SelectedHotel{}, err
	}
	names, err := p.HotelNames(ctx)
	if err != nil {
		return SelectedHotel{}, err
	}

	limit := min(len(names), maxHotelsToCheck)
	for i := 0; i < limit; i++ {
		if err := p.CheckAvailability(ctx, i); err != nil {
			return SelectedHotel{}, fmt.Errorf("hotel %q: %w", names[i], err)
		}
		rates, err := p.Rates(ctx)
		if err != nil {
			return SelectedHotel{}, err
		}
		for _, r := range rates {
			if !LooseEqual(r.Provider, provider) || r.NonRefundable == wantRefundable {
				continue
			}
			p.action(ctx, "Selecting %s rate from %s at %s", r.Policy(), r.Provider, names[i])
			if err := p.page.ClickNth(ctx, anchors, r.Index); err != nil {
				return SelectedHotel{}, err
			}
			sel := SelectedHotel{
				HotelName:          names[i],
				Provider:           r.Provider,
				CancellationPolicy: r.Policy(),
				Price:              r.Price,
			}
			p.log.LogInfo(ctx, "HotelName "+sel.HotelName)
			p.log.LogInfo(ctx, "CancellationPolicy "+sel.CancellationPolicy)
			return sel, nil
		}
		p.log.LogWarning(ctx, fmt.Sprintf("No matching %s rate at %s", provider, names[i]))
	}
	policy := "refundable"
	if !wantRefundable {
		policy = "non-refundable"
	}
	return SelectedHotel{}, fmt.Errorf("no %s rate from %s among the first %d hotels", policy, provider, limit)
}
