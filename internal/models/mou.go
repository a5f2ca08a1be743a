package models

import (
	"strings"

	"gorm.io/gorm"
)

// Mou groups committed workplans under one partner memorandum of
// understanding (F3).
type Mou struct {
	DefaultModel
	Code        string `gorm:"uniqueIndex"`
	PartnerName string
	Note        string
}

func (m *Mou) BeforeSave(_ *gorm.DB) error {
	m.Code = strings.TrimSpace(m.Code)
	m.PartnerName = strings.TrimSpace(m.PartnerName)
	m.Note = strings.TrimSpace(m.Note)

	return nil
}

// Workplans returns all workplans grouped under the MOU.
func (m Mou) Workplans(db *gorm.DB) ([]Workplan, error) {
	var workplans []Workplan
	err := db.Where("mou_id = ?", m.ID).Find(&workplans).Error
	return workplans, err
}
