package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DonorRule maps free-text donor names from forecast spreadsheets to a
// donor record. Match is a glob pattern, rules are applied in priority
// order and the first match wins.
type DonorRule struct {
	DefaultModel
	Priority uint
	Match    string
	DonorID  uuid.UUID
	Donor    Donor `json:"-"`
}

// DonorRulesByPriority returns all donor rules in evaluation order.
func DonorRulesByPriority(db *gorm.DB) ([]DonorRule, error) {
	var rules []DonorRule
	err := db.Order("priority ASC, match ASC").Find(&rules).Error
	return rules, err
}
