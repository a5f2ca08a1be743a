package models

import (
	"strings"

	"gorm.io/gorm"
)

// State is a federal state the organization operates in. The short code
// appears in grant serial codes, e.g. "KH" in "LCC-DKH-KH-0825-0001".
type State struct {
	DefaultModel
	Name      string `gorm:"uniqueIndex"`
	ShortCode string
}

func (s *State) BeforeSave(_ *gorm.DB) error {
	s.Name = strings.TrimSpace(s.Name)
	s.ShortCode = strings.ToUpper(strings.TrimSpace(s.ShortCode))

	return nil
}
