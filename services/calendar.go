package services

import (
	"time"

	"github.com/scauction/foreclosure-backend/models"
	"github.com/sirupsen/logrus"
)

// CalendarService computes the county's sale-date rules: sales happen on the
// first Monday of the month, pushed to the next business day when that Monday
// is a recognized federal holiday.
type CalendarService struct{}

func NewCalendarService() *CalendarService {
	return &CalendarService{}
}

// FirstMondayOfMonth returns the first Monday the county scheduling rule
// lands on. When the 1st itself is a Monday the rule advances a full week,
// so the result is always strictly after the 1st.
func (s *CalendarService) FirstMondayOfMonth(year int, month time.Month) time.Time {
	firstDay := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	daysAhead := int(time.Monday - firstDay.Weekday())
	if daysAhead <= 0 {
		daysAhead += 7
	}
	return firstDay.AddDate(0, 0, daysAhead)
}

// IsFederalHoliday reports whether date is one of the holidays that move the
// sale: New Year's Day, Independence Day, or Labor Day.
func (s *CalendarService) IsFederalHoliday(date time.Time) bool {
	if date.Month() == time.January && date.Day() == 1 {
		return true
	}
	if date.Month() == time.July && date.Day() == 4 {
		return true
	}
	if date.Month() == time.September {
		laborDay := s.FirstMondayOfMonth(date.Year(), time.September)
		if date.Year() == laborDay.Year() && date.YearDay() == laborDay.YearDay() {
			return true
		}
	}
	return false
}

// NextBusinessDay returns the first Monday-to-Friday day strictly after date.
func (s *CalendarService) NextBusinessDay(date time.Time) time.Time {
	next := date.AddDate(0, 0, 1)
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// AuctionDateFor computes the sale schedule for a month. The holiday shift is
// applied at most once; the three modeled holidays cannot produce a shifted
// day that is itself a holiday.
func (s *CalendarService) AuctionDateFor(year int, month time.Month) models.AuctionSchedule {
	firstMonday := s.FirstMondayOfMonth(year, month)

	schedule := models.AuctionSchedule{
		Year:        year,
		Month:       month,
		FirstMonday: firstMonday,
		AuctionDate: firstMonday,
	}

	if s.IsFederalHoliday(firstMonday) {
		schedule.IsHolidayShifted = true
		schedule.AuctionDate = s.NextBusinessDay(firstMonday)
		logrus.WithFields(logrus.Fields{
			"first_monday": firstMonday.Format("2006-01-02"),
			"auction_date": schedule.AuctionDate.Format("2006-01-02"),
		}).Info("First Monday is a federal holiday, moving to next business day")
	} else {
		logrus.WithField("auction_date", schedule.AuctionDate.Format("2006-01-02")).Info("Auction date set to first Monday")
	}

	return schedule
}
