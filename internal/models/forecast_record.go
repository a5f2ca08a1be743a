package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/lcc-aid/fsystem-backend/internal/types"
	"github.com/shopspring/decimal"
)

// ForecastRecord is one row of a donor forecast import: an amount a
// donor expects to make available for a state and month.
//
// The import hash identifies a row across repeated imports of the same
// spreadsheet so that duplicates are detected instead of double-counted.
type ForecastRecord struct {
	DefaultModel
	DonorID    *uuid.UUID
	Donor      *Donor `json:"-"`
	DonorName  string // The raw name from the spreadsheet
	StateName  string
	Month      types.MonthCode
	Amount     decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	ImportHash string          `gorm:"index"`
}

// ForecastImportHash builds the duplicate detection hash for a forecast
// row from the combination of values that identifies it.
func ForecastImportHash(donorName, stateName string, month types.MonthCode, amount decimal.Decimal) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%s|%s", donorName, stateName, month, amount))
	return hex.EncodeToString(sum[:])
}
