package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"nvt.dev/transit/model"
)

type TransferCSV struct {
	FromStopID      string `csv:"from_stop_id"`
	ToStopID        string `csv:"to_stop_id"`
	TransferType    int8   `csv:"transfer_type"`
	MinTransferTime int    `csv:"min_transfer_time"`
}

// ParseTransfers returns the transfer list verbatim.
func ParseTransfers(data io.Reader) ([]model.Transfer, error) {
	transferCsv := []*TransferCSV{}
	if err := gocsv.Unmarshal(data, &transferCsv); err != nil {
		return nil, fmt.Errorf("unmarshaling transfers csv: %w", err)
	}

	transfers := []model.Transfer{}
	for _, t := range transferCsv {
		if t.FromStopID == "" || t.ToStopID == "" {
			continue
		}
		transfers = append(transfers, model.Transfer{
			FromStopID:      t.FromStopID,
			ToStopID:        t.ToStopID,
			TransferType:    t.TransferType,
			MinTransferTime: t.MinTransferTime,
		})
	}

	return transfers, nil
}
