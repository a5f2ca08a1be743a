// Package forecast imports donor forecast spreadsheets: CSV parsing,
// donor name resolution, duplicate detection and the push of finalized
// records to the spreadsheet sync endpoint.
package forecast

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lcc-aid/fsystem-backend/internal/models"
	"github.com/lcc-aid/fsystem-backend/internal/types"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Column positions in the forecast CSV export.
const (
	Donor = iota
	State
	Month
	Amount
)

// RecordPreview is a parsed forecast row before it is saved, together
// with the resolution results the user reviews.
type RecordPreview struct {
	Record models.ForecastRecord `json:"record"`

	// DonorMatched is false when no donor rule matched the raw name.
	DonorMatched bool `json:"donorMatched"`

	// DuplicateIDs are existing forecast records with the same import
	// hash. A non-empty list means this row was imported before.
	DuplicateIDs []string `json:"duplicateIds"`
}

// Parse reads a forecast CSV export. Excel saves these as
// windows-1252, so input is decoded from that charset; plain ASCII and
// the UTF-8 subset shared with it pass through unchanged.
func Parse(f io.Reader) ([]RecordPreview, error) {
	reader := csv.NewReader(transform.NewReader(f, charmap.Windows1252.NewDecoder()))
	reader.ReuseRecord = true

	var records []RecordPreview

	// Skip the header line
	_, err := reader.Read()
	if err == io.EOF {
		return []RecordPreview{}, nil
	}
	if err != nil {
		return csvReadError(reader, fmt.Errorf("could not read the CSV header: %w", err))
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return csvReadError(reader, fmt.Errorf("could not read line in CSV: %w", err))
		}

		// The reader only enforces the field count of the first line,
		// so a short header lets short rows through
		if len(record) <= Amount {
			return csvReadError(reader, errors.New("the forecast row does not have all of donor, state, month and amount"))
		}

		donorName := strings.TrimSpace(record[Donor])
		if donorName == "" {
			return csvReadError(reader, errors.New("no donor is set for the forecast row"))
		}

		stateName := strings.TrimSpace(record[State])
		if stateName == "" {
			return csvReadError(reader, errors.New("no state is set for the forecast row"))
		}

		month, err := types.ParseMonthCode(strings.TrimSpace(record[Month]))
		if err != nil {
			return csvReadError(reader, fmt.Errorf("could not parse month: %w", err))
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(record[Amount]))
		if err != nil {
			return csvReadError(reader, errors.New("amount could not be parsed to a decimal"))
		}

		if !amount.IsPositive() {
			return csvReadError(reader, errors.New("the amount for a forecast row must be positive"))
		}

		records = append(records, RecordPreview{
			Record: models.ForecastRecord{
				DonorName:  donorName,
				StateName:  stateName,
				Month:      month,
				Amount:     amount,
				ImportHash: models.ForecastImportHash(donorName, stateName, month, amount),
			},
		})
	}

	return records, nil
}

// csvReadError returns an error including the line of the input the
// error occurred in.
func csvReadError(r *csv.Reader, err error) ([]RecordPreview, error) {
	// always use the first field, we are only interested in the line
	line, _ := r.FieldPos(1)

	return []RecordPreview{}, fmt.Errorf("error in line %d of the CSV: %w", line, err)
}
