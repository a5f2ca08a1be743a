package models

import (
	"strings"

	"gorm.io/gorm"
)

// FundingCycle is the alternative root of a funding hierarchy used for
// cycle based grants without a single donor call. Its short code takes
// the place of the donor short code in serial codes.
type FundingCycle struct {
	DefaultModel
	Name      string `gorm:"uniqueIndex"`
	ShortCode string
	Year      int
}

func (f *FundingCycle) BeforeSave(_ *gorm.DB) error {
	f.Name = strings.TrimSpace(f.Name)
	f.ShortCode = strings.ToUpper(strings.TrimSpace(f.ShortCode))

	return nil
}
