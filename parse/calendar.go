package parse

import (
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"nvt.dev/transit/model"
)

type CalendarCSV struct {
	ServiceID string `csv:"service_id"`
	StartDate string `csv:"start_date"`
	EndDate   string `csv:"end_date"`
	Monday    int8   `csv:"monday"`
	Tuesday   int8   `csv:"tuesday"`
	Wednesday int8   `csv:"wednesday"`
	Thursday  int8   `csv:"thursday"`
	Friday    int8   `csv:"friday"`
	Saturday  int8   `csv:"saturday"`
	Sunday    int8   `csv:"sunday"`
}

// ParseCalendar returns the weekly service patterns keyed by service
// ID. Weekday flags are indexed by time.Weekday (Sunday first).
func ParseCalendar(data io.Reader) (map[string]model.Calendar, error) {
	calendarCsv := []*CalendarCSV{}
	if err := gocsv.Unmarshal(data, &calendarCsv); err != nil {
		return nil, fmt.Errorf("unmarshaling calendar csv: %w", err)
	}

	calendars := map[string]model.Calendar{}
	for _, c := range calendarCsv {
		if c.ServiceID == "" {
			return nil, fmt.Errorf("empty service_id")
		}
		if calendars[c.ServiceID].ServiceID != "" {
			return nil, fmt.Errorf("repeated service_id '%s'", c.ServiceID)
		}

		var weekdays [7]bool
		weekdays[time.Sunday] = c.Sunday == 1
		weekdays[time.Monday] = c.Monday == 1
		weekdays[time.Tuesday] = c.Tuesday == 1
		weekdays[time.Wednesday] = c.Wednesday == 1
		weekdays[time.Thursday] = c.Thursday == 1
		weekdays[time.Friday] = c.Friday == 1
		weekdays[time.Saturday] = c.Saturday == 1

		calendars[c.ServiceID] = model.Calendar{
			ServiceID: c.ServiceID,
			StartDate: c.StartDate,
			EndDate:   c.EndDate,
			Weekdays:  weekdays,
		}
	}

	return calendars, nil
}
