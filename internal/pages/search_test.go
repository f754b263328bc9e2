package pages

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelbooker/internal/testing/mock"
)

// calendar makes the datepicker month follow next/prev clicks.
func calendar(f *fixture, shown time.Time) {
	days := make([]string, 31)
	for i := range days {
		days[i] = strconv.Itoa(i + 1)
	}
	f.page.SetTexts(datepickerDays, days...)
	f.page.SetTexts(datepickerSwitch, shown.Format(calendarMonthLayout))
	f.page.OnAction = func(p *mock.Page, action string) {
		switch action {
		case "click " + datepickerNext:
			shown = shown.AddDate(0, 1, 0)
		case "click " + datepickerPrev:
			shown = shown.AddDate(0, -1, 0)
		default:
			return
		}
		p.SetTexts(datepickerSwitch, shown.Format(calendarMonthLayout))
	}
}

func TestHotelSearch_Search(t *testing.T) {
	f := newFixture()
	calendar(f, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	p := NewHotelSearchPage(f.page, f.waits, f.notes).WithClock(f.clock)

	err := p.Search(context.Background(), SearchCriteria{
		Country:       "United States",
		Location:      "Dallas",
		ArrivalInDays: 20,
		Nights:        "2",
		Rooms:         "1",
		Guests:        "2",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"network idle",
		"network idle",
		"clear #ctl00_txtArrivalDate",
		"click #ctl00_txtArrivalDate",
		"click .datepicker-days th.next",
		"click .datepicker-days td.day:not(.old):not(.new)[8]",
		"select #ctl00_lstCountry=United States",
		"fill input[placeholder*='Place']=Dallas",
		"fill #ctl00_txtNights=2",
		"select #ctl00_lstRooms=1",
		"select #ctl00_lstOccupancy=2",
		"click #ctl00_btnSearch",
	}, f.page.Actions())
	assert.Contains(t, f.notes.messages("info"), "Arrival date set to 09 Feb 2026")
}

func TestHotelSearch_ArrivalDateGoesBackwards(t *testing.T) {
	f := newFixture()
	calendar(f, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	p := NewHotelSearchPage(f.page, f.waits, f.notes)

	require.NoError(t, p.SelectArrivalDate(context.Background(), time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, []string{
		"click #ctl00_txtArrivalDate",
		"click .datepicker-days th.prev",
		"click .datepicker-days th.prev",
		"click .datepicker-days td.day:not(.old):not(.new)[13]",
	}, f.page.Actions())
}

func TestHotelSearch_ArrivalDateStuckCalendar(t *testing.T) {
	f := newFixture()
	f.page.SetTexts(datepickerSwitch, "January 2026")
	p := NewHotelSearchPage(f.page, f.waits, f.notes)

	err := p.SelectArrivalDate(context.Background(), time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "datepicker never reached June 2026")
}

func TestHotelSearch_ArrivalDateBadMonthLabel(t *testing.T) {
	f := newFixture()
	f.page.SetTexts(datepickerSwitch, "Jan '26")
	p := NewHotelSearchPage(f.page, f.waits, f.notes)

	err := p.SelectArrivalDate(context.Background(), time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected datepicker month")
}

func TestHotelSearch_WaitForOutcome(t *testing.T) {
	ctx := context.Background()

	t.Run("results", func(t *testing.T) {
		f := newFixture()
		f.page.SetVisible(searchResults, true)
		p := NewHotelSearchPage(f.page, f.waits, f.notes)

		out, err := p.WaitForOutcome(ctx)
		require.NoError(t, err)
		assert.Equal(t, SearchOutcome{HasResults: true}, out)
		assert.Empty(t, f.notes.messages("warning"))
	})

	t.Run("no hotels", func(t *testing.T) {
		f := newFixture()
		p := NewHotelSearchPage(f.page, f.waits, f.notes)

		out, err := p.WaitForOutcome(ctx)
		require.NoError(t, err)
		assert.Equal(t, SearchOutcome{NoHotels: true}, out)
		assert.Equal(t, []string{NoHotelsMessage}, f.notes.messages("warning"))
	})

	t.Run("neither", func(t *testing.T) {
		f := newFixture()
		f.page.On(searchResults, false)
		p := NewHotelSearchPage(f.page, f.waits, f.notes)

		_, err := p.WaitForOutcome(ctx)
		require.Error(t, err)
		assert.Equal(t, f.waits.Timeouts().Long, f.clock.Slept())
	})
}
