// Package steps binds the HotelBooker feature files to the page objects.
//
// Register returns a bdd.StepRegistry. godog builds a fresh scenario
// context per scenario, so the state kept on scenarioSteps (the selected
// hotel, the last search outcome) never leaks between scenarios.
package steps

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cucumber/godog"

	"hotelbooker/internal/bdd"
	"hotelbooker/internal/browser"
	"hotelbooker/internal/pages"
	"hotelbooker/internal/recorder"
	"hotelbooker/internal/waits"
)

// Options carry what the steps need beyond the scenario's page.
type Options struct {
	Credentials pages.Credentials
	// Clock counts arrival dates. nil uses the system clock.
	Clock waits.Clock
}

// Register returns the registry for every HotelBooker step.
func Register(opts Options) bdd.StepRegistry {
	return func(r *bdd.Registrar) {
		s := &scenarioSteps{rec: r.Recorder(), opts: opts}
		for _, d := range s.definitions() {
			r.Step(d.expr, d.fn)
		}
	}
}

type definition struct {
	expr string
	fn   any
}

func (s *scenarioSteps) definitions() []definition {
	return []definition{
		{`^Open Browser and Navigate to HotelBooker$`, s.openLoginPage},
		{`^user enters username and password$`, s.enterCredentials},
		{`^user clicks login button$`, s.clickLogin},
		{`^user is logged in to HotelBooker$`, s.login},

		{`^selects client "([^"]*)"$`, s.selectClient},
		{`^Validate selected client should display on header$`, s.clientOnHeader},

		{`^user searches for hotels in "([^"]*)" near "([^"]*)"$`, s.quickSearch},
		{`^user searches for hotels with$`, s.searchWithTable},
		{`^search results or the no hotels message should be displayed$`, s.searchOutcome},

		{`^hotel availability page should be displayed$`, s.availabilityDisplayed},
		{`^pagination links should be displayed and working$`, s.paginationWorks},
		{`^content provider "([^"]*)" should be available$`, s.providerAvailable},
		{`^Select the Rate Plan from "([^"]*)" with refundable "([^"]*)"$`, s.selectRatePlan},
		{`^the selected rate should be "([^"]*)"$`, s.selectedPolicy},
	}
}

type scenarioSteps struct {
	rec  *recorder.Recorder
	opts Options

	outcome  *pages.SearchOutcome
	selected *pages.SelectedHotel
}

// session returns the scenario's page and a wait coordinator bound to it.
func (s *scenarioSteps) session(ctx context.Context) (browser.Page, *waits.Coordinator, error) {
	page, err := s.rec.Page(ctx)
	if err != nil {
		return nil, nil, err
	}
	w, err := s.rec.Waits(ctx)
	if err != nil {
		return nil, nil, err
	}
	return page, w, nil
}

func (s *scenarioSteps) loginPage(ctx context.Context) (*pages.LoginPage, error) {
	page, w, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	return pages.NewLoginPage(page, w, s.rec, s.opts.Credentials), nil
}

func (s *scenarioSteps) clientPage(ctx context.Context) (*pages.ClientSelectionPage, error) {
	page, w, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	return pages.NewClientSelectionPage(page, w, s.rec), nil
}

func (s *scenarioSteps) searchPage(ctx context.Context) (*pages.HotelSearchPage, error) {
	page, w, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	p := pages.NewHotelSearchPage(page, w, s.rec)
	if s.opts.Clock != nil {
		p.WithClock(s.opts.Clock)
	}
	return p, nil
}

func (s *scenarioSteps) availabilityPage(ctx context.Context) (*pages.AvailabilityPage, error) {
	page, w, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	return pages.NewAvailabilityPage(page, w, s.rec), nil
}

func (s *scenarioSteps) openLoginPage(ctx context.Context) error {
	p, err := s.loginPage(ctx)
	if err != nil {
		return err
	}
	return p.Navigate(ctx)
}

func (s *scenarioSteps) enterCredentials(ctx context.Context) error {
	p, err := s.loginPage(ctx)
	if err != nil {
		return err
	}
	if err := p.EnterUserName(ctx); err != nil {
		return err
	}
	return p.EnterPassword(ctx)
}

func (s *scenarioSteps) clickLogin(ctx context.Context) error {
	p, err := s.loginPage(ctx)
	if err != nil {
		return err
	}
	return p.ClickLogin(ctx)
}

func (s *scenarioSteps) login(ctx context.Context) error {
	p, err := s.loginPage(ctx)
	if err != nil {
		return err
	}
	return p.Login(ctx)
}

func (s *scenarioSteps) selectClient(ctx context.Context, name string) error {
	p, err := s.clientPage(ctx)
	if err != nil {
		return err
	}
	if err := s.rec.CaptureScreenshotWithInfo(ctx, "Selecting client: "+name); err != nil {
		s.rec.LogWarning(ctx, "Could not capture screenshot: "+err.Error())
	}
	return p.SelectClient(ctx, name)
}

func (s *scenarioSteps) clientOnHeader(ctx context.Context) error {
	p, err := s.clientPage(ctx)
	if err != nil {
		return err
	}
	shown, err := p.IsClientDisplayedOnHeader(ctx)
	if err != nil {
		return err
	}
	if !shown {
		return errors.New("selected client is not displayed on the header")
	}
	return nil
}

func (s *scenarioSteps) quickSearch(ctx context.Context, country, location string) error {
	return s.search(ctx, pages.SearchCriteria{Country: country, Location: location})
}

// searchWithTable reads a two-column field/value table.
func (s *scenarioSteps) searchWithTable(ctx context.Context, table *godog.Table) error {
	c, err := criteriaFromTable(table)
	if err != nil {
		return err
	}
	return s.search(ctx, c)
}

func (s *scenarioSteps) search(ctx context.Context, c pages.SearchCriteria) error {
	p, err := s.searchPage(ctx)
	if err != nil {
		return err
	}
	if err := p.Search(ctx, c); err != nil {
		return err
	}
	out, err := p.WaitForOutcome(ctx)
	if err != nil {
		return err
	}
	s.outcome = &out
	return nil
}

func criteriaFromTable(table *godog.Table) (pages.SearchCriteria, error) {
	var c pages.SearchCriteria
	if table == nil {
		return c, errors.New("search criteria table is missing")
	}
	for _, row := range table.Rows {
		if len(row.Cells) != 2 {
			return c, fmt.Errorf("search criteria rows need a field and a value, got %d cells", len(row.Cells))
		}
		field, value := strings.ToLower(strings.TrimSpace(row.Cells[0].Value)), strings.TrimSpace(row.Cells[1].Value)
		switch field {
		case "field":
			// header row
		case "country":
			c.Country = value
		case "location":
			c.Location = value
		case "hotel name", "hotel":
			c.HotelName = value
		case "distance":
			c.Distance = value
		case "arrival in days", "arrival":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return c, fmt.Errorf("arrival in days must be a non-negative number, got %q", value)
			}
			c.ArrivalInDays = n
		case "nights":
			c.Nights = value
		case "rooms":
			c.Rooms = value
		case "guests":
			c.Guests = value
		default:
			return c, fmt.Errorf("unknown search field %q", row.Cells[0].Value)
		}
	}
	return c, nil
}

func (s *scenarioSteps) searchOutcome(ctx context.Context) error {
	if s.outcome != nil {
		return nil
	}
	p, err := s.searchPage(ctx)
	if err != nil {
		return err
	}
	out, err := p.WaitForOutcome(ctx)
	if err != nil {
		return err
	}
	s.outcome = &out
	return nil
}

func (s *scenarioSteps) availabilityDisplayed(ctx context.Context) error {
	p, err := s.availabilityPage(ctx)
	if err != nil {
		return err
	}
	if err := p.WaitForResults(ctx); err != nil {
		return err
	}
	n, err := p.HotelsFoundCount(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("hotel availability page lists no properties")
	}
	s.rec.LogInfo(ctx, fmt.Sprintf("%d properties found", n))
	return nil
}

func (s *scenarioSteps) paginationWorks(ctx context.Context) error {
	p, err := s.availabilityPage(ctx)
	if err != nil {
		return err
	}
	r, err := p.ValidatePagination(ctx)
	if err != nil {
		return err
	}
	if !r.Displayed {
		return errors.New("pagination links are not displayed")
	}
	if !r.Passed() {
		return errors.New(r.Summary())
	}
	return nil
}

func (s *scenarioSteps) providerAvailable(ctx context.Context, provider string) error {
	p, err := s.availabilityPage(ctx)
	if err != nil {
		return err
	}
	providers, err := p.ContentProviders(ctx)
	if err != nil {
		return err
	}
	for _, got := range providers {
		if pages.LooseEqual(got, provider) {
			return nil
		}
	}
	return fmt.Errorf("content provider %q not shown, found %v", provider, providers)
}

func (s *scenarioSteps) selectRatePlan(ctx context.Context, provider, refundable string) error {
	p, err := s.availabilityPage(ctx)
	if err != nil {
		return err
	}
	sel, err := p.SelectHotelRatesForProvider(ctx, provider, refundable)
	if err != nil {
		return err
	}
	s.selected = &sel
	return nil
}

func (s *scenarioSteps) selectedPolicy(ctx context.Context, policy string) error {
	if s.selected == nil {
		return errors.New("no rate has been selected in this scenario")
	}
	if !pages.LooseEqual(s.selected.CancellationPolicy, policy) {
		return fmt.Errorf("selected rate at %s is %s, want %s", s.selected.HotelName, s.selected.CancellationPolicy, policy)
	}
	return nil
}
