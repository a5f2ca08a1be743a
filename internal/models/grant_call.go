package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GrantCallStatus is the lifecycle status of a grant call.
type GrantCallStatus string

const (
	GrantCallOpen   GrantCallStatus = "open"
	GrantCallClosed GrantCallStatus = "closed"
)

// GrantCall is a donor funded program with a total budget. It is the
// root of a funding hierarchy and is subdivided into state allocations.
type GrantCall struct {
	DefaultModel
	Name        string
	Shortname   string
	DonorID     uuid.UUID
	Donor       Donor           `json:"-"`
	TotalAmount decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	Status      GrantCallStatus `gorm:"default:open"`
}

func (g *GrantCall) BeforeSave(_ *gorm.DB) error {
	g.Name = strings.TrimSpace(g.Name)
	g.Shortname = strings.TrimSpace(g.Shortname)

	if g.Status == "" {
		g.Status = GrantCallOpen
	}

	return nil
}

// BeforeUpdate keeps grant calls immutable once allocations exist.
// Only the status can still change.
func (g *GrantCall) BeforeUpdate(tx *gorm.DB) error {
	if !tx.Statement.Changed("Name", "Shortname", "DonorID", "TotalAmount") {
		return nil
	}

	var count int64
	err := tx.Session(&gorm.Session{NewDB: true}).Model(&StateAllocation{}).Where("grant_call_id = ?", g.ID).Count(&count).Error
	if err != nil {
		return err
	}

	if count > 0 {
		return ErrGrantCallImmutable
	}

	return nil
}
