package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"nvt.dev/transit/model"
)

type AgencyCSV struct {
	ID       string `csv:"agency_id"`
	Name     string `csv:"agency_name"`
	URL      string `csv:"agency_url"`
	Timezone string `csv:"agency_timezone"`
	// Lang  string `csv:"agency_lang"`
	// Phone string `csv:"agency_phone"`
}

// ParseAgency returns the agency table keyed by agency ID. A single
// unnamed agency is keyed by "" per the GTFS spec.
func ParseAgency(data io.Reader) (map[string]model.Agency, error) {
	agencyCsv := []*AgencyCSV{}
	if err := gocsv.Unmarshal(data, &agencyCsv); err != nil {
		return nil, fmt.Errorf("unmarshaling agency csv: %w", err)
	}

	agencies := map[string]model.Agency{}
	for _, a := range agencyCsv {
		if a.Name == "" {
			continue
		}
		if _, dup := agencies[a.ID]; dup {
			return nil, fmt.Errorf("duplicated agency_id: '%s'", a.ID)
		}
		agencies[a.ID] = model.Agency{
			ID:       a.ID,
			Name:     a.Name,
			URL:      a.URL,
			Timezone: a.Timezone,
		}
	}

	return agencies, nil
}
