package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"nvt.dev/transit/model"
)

type CalendarDateCSV struct {
	ServiceID     string `csv:"service_id"`
	Date          string `csv:"date"`
	ExceptionType int8   `csv:"exception_type"`
}

// ParseCalendarDates returns service exceptions keyed by service ID.
func ParseCalendarDates(data io.Reader) (map[string][]model.CalendarDate, error) {
	calendarDateCsv := []*CalendarDateCSV{}
	if err := gocsv.Unmarshal(data, &calendarDateCsv); err != nil {
		return nil, fmt.Errorf("unmarshaling calendar_dates csv: %w", err)
	}

	dates := map[string][]model.CalendarDate{}
	for _, cd := range calendarDateCsv {
		if cd.ServiceID == "" {
			continue
		}
		if cd.ExceptionType < 1 || cd.ExceptionType > 2 {
			return nil, fmt.Errorf("illegal exception_type: '%d'", cd.ExceptionType)
		}

		dates[cd.ServiceID] = append(dates[cd.ServiceID], model.CalendarDate{
			ServiceID:     cd.ServiceID,
			Date:          cd.Date,
			ExceptionType: cd.ExceptionType,
		})
	}

	return dates, nil
}
