package pages

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"hotelbooker/internal/browser"
	"hotelbooker/internal/waits"
)

const (
	countryDropdown  = "#ctl00_lstCountry"
	locationField    = "input[placeholder*='Place']"
	hotelNameField   = "#ctl00_txtHotelName"
	distanceDropdown = "#ctl00_lstDistance"
	arrivalDateField = "#ctl00_txtArrivalDate"
	nightsField      = "#ctl00_txtNights"
	roomsDropdown    = "#ctl00_lstRooms"
	guestsDropdown   = "#ctl00_lstOccupancy"
	searchButton     = "#ctl00_btnSearch"
	searchResults    = "#ctl00_cphMainContent_pnlHotels"

	datepickerSwitch = ".datepicker-days .datepicker-switch"
	datepickerNext   = ".datepicker-days th.next"
	datepickerPrev   = ".datepicker-days th.prev"
	datepickerDays   = ".datepicker-days td.day:not(.old):not(.new)"

	// NoHotelsMessage is shown instead of results when nothing matches.
	NoHotelsMessage = "Sorry, we weren't able to find any hotels for the criteria you specified."

	calendarMonthLayout = "January 2006"
	maxCalendarMoves    = 36
)

// SearchCriteria fills the dashboard search form. Empty fields are left
// untouched; ArrivalInDays of zero keeps the default arrival date.
type SearchCriteria struct {
	Country       string
	Location      string
	HotelName     string
	Distance      string
	ArrivalInDays int
	Nights        string
	Rooms         string
	Guests        string
}

// SearchOutcome tells which of the two result states the search ended in.
type SearchOutcome struct {
	HasResults bool
	NoHotels   bool
}

// HotelSearchPage is the "Make a booking" search form on the dashboard.
type HotelSearchPage struct {
	base
	clock waits.Clock
}

func NewHotelSearchPage(page browser.Page, w *waits.Coordinator, log Annotator) *HotelSearchPage {
	return &HotelSearchPage{base: newBase(page, w, log), clock: waits.RealClock{}}
}

// WithClock sets the clock arrival dates are counted from.
func (p *HotelSearchPage) WithClock(c waits.Clock) *HotelSearchPage {
	p.clock = c
	return p
}

// WaitForForm blocks until the search form is usable.
func (p *HotelSearchPage) WaitForForm(ctx context.Context) error {
	if err := p.waits.WaitForPageStability(ctx); err != nil {
		return err
	}
	if err := p.waits.WaitForElementVisible(ctx, searchButton); err != nil {
		return err
	}
	return p.waits.WaitForElementVisible(ctx, countryDropdown)
}

func (p *HotelSearchPage) SelectCountry(ctx context.Context, country string) error {
	return p.selectWhenLoaded(ctx, countryDropdown, country)
}

func (p *HotelSearchPage) EnterLocation(ctx context.Context, location string) error {
	return p.fillWhenVisible(ctx, locationField, location)
}

func (p *HotelSearchPage) EnterHotelName(ctx context.Context, name string) error {
	return p.fillWhenVisible(ctx, hotelNameField, name)
}

func (p *HotelSearchPage) SelectDistance(ctx context.Context, distance string) error {
	return p.selectWhenLoaded(ctx, distanceDropdown, distance)
}

func (p *HotelSearchPage) SetNights(ctx context.Context, nights string) error {
	return p.fillWhenVisible(ctx, nightsField, nights)
}

func (p *HotelSearchPage) SelectRooms(ctx context.Context, rooms string) error {
	return p.selectWhenLoaded(ctx, roomsDropdown, rooms)
}

func (p *HotelSearchPage) SelectGuests(ctx context.Context, guests string) error {
	return p.selectWhenLoaded(ctx, guestsDropdown, guests)
}

// SetArrivalDateDaysFromToday clears the arrival field and picks the date
// days ahead of today in the calendar.
func (p *HotelSearchPage) SetArrivalDateDaysFromToday(ctx context.Context, days int) error {
	if err := p.waits.WaitForElementVisible(ctx, arrivalDateField); err != nil {
		return err
	}
	if err := p.page.Clear(ctx, arrivalDateField); err != nil {
		return err
	}
	return p.SelectArrivalDate(ctx, p.clock.Now().AddDate(0, 0, days))
}

// SelectArrivalDate opens the datepicker, pages to the target month, and
// clicks the target day.
func (p *HotelSearchPage) SelectArrivalDate(ctx context.Context, target time.Time) error {
	if err := p.page.Click(ctx, arrivalDateField); err != nil {
		return err
	}
	if err := p.waits.WaitForDatepickerToLoad(ctx); err != nil {
		return err
	}

	want := time.Date(target.Year(), target.Month(), 1, 0, 0, 0, 0, time.UTC)
	for moves := 0; ; moves++ {
		shown, err := p.shownMonth(ctx)
		if err != nil {
			return err
		}
		if shown.Equal(want) {
			break
		}
		if moves >= maxCalendarMoves {
			return fmt.Errorf("datepicker never reached %s, stuck at %s", want.Format(calendarMonthLayout), shown.Format(calendarMonthLayout))
		}
		step := datepickerNext
		if shown.After(want) {
			step = datepickerPrev
		}
		if err := p.page.Click(ctx, step); err != nil {
			return err
		}
	}

	day := strconv.Itoa(target.Day())
	if err := p.clickByText(ctx, datepickerDays, day); err != nil {
		return err
	}
	p.log.LogInfo(ctx, "Arrival date set to "+target.Format("02 Jan 2006"))
	return nil
}

func (p *HotelSearchPage) shownMonth(ctx context.Context) (time.Time, error) {
	texts, err := p.page.Texts(ctx, datepickerSwitch)
	if err != nil {
		return time.Time{}, err
	}
	if len(texts) == 0 {
		return time.Time{}, fmt.Errorf("%w: %s", browser.ErrElementNotFound, datepickerSwitch)
	}
	shown, err := time.Parse(calendarMonthLayout, texts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("unexpected datepicker month %q: %w", texts[0], err)
	}
	return shown, nil
}

func (p *HotelSearchPage) ClickSearch(ctx context.Context) error {
	return p.clickWhenReady(ctx, searchButton)
}

// Search fills every non-empty criterion and submits the form.
func (p *HotelSearchPage) Search(ctx context.Context, c SearchCriteria) error {
	if err := p.WaitForForm(ctx); err != nil {
		return err
	}
	if c.ArrivalInDays > 0 {
		if err := p.SetArrivalDateDaysFromToday(ctx, c.ArrivalInDays); err != nil {
			return err
		}
	}
	fields := []struct {
		value string
		set   func(context.Context, string) error
	}{
		{c.Country, p.SelectCountry},
		{c.Location, p.EnterLocation},
		{c.HotelName, p.EnterHotelName},
		{c.Distance, p.SelectDistance},
		{c.Nights, p.SetNights},
		{c.Rooms, p.SelectRooms},
		{c.Guests, p.SelectGuests},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := f.set(ctx, f.value); err != nil {
			return err
		}
	}
	return p.ClickSearch(ctx)
}

// WaitForOutcome blocks until either the results panel or the no-hotels
// message is on the page.
func (p *HotelSearchPage) WaitForOutcome(ctx context.Context) (SearchOutcome, error) {
	expr := fmt.Sprintf("(%s) || (%s)", browser.VisibleExpr(searchResults), bodyContainsExpr(NoHotelsMessage))
	if err := p.waits.WaitForCondition(ctx, expr, p.waits.Timeouts().Long); err != nil {
		return SearchOutcome{}, err
	}
	results, err := p.page.IsVisible(ctx, searchResults)
	if err != nil {
		return SearchOutcome{}, err
	}
	if results {
		return SearchOutcome{HasResults: true}, nil
	}
	p.log.LogWarning(ctx, NoHotelsMessage)
	return SearchOutcome{NoHotels: true}, nil
}
