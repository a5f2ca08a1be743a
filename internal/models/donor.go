package models

import (
	"strings"

	"gorm.io/gorm"
)

// Donor is a funding organization. The short code appears in grant
// serial codes, e.g. "DKH" in "LCC-DKH-KH-0825-0001".
type Donor struct {
	DefaultModel
	Name      string `gorm:"uniqueIndex"`
	ShortCode string
	Note      string
}

func (d *Donor) BeforeSave(_ *gorm.DB) error {
	d.Name = strings.TrimSpace(d.Name)
	d.ShortCode = strings.ToUpper(strings.TrimSpace(d.ShortCode))
	d.Note = strings.TrimSpace(d.Note)

	return nil
}
