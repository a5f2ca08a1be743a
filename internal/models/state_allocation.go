package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StateAllocation is a decision-numbered carve-out of a grant call's
// (or funding cycle's) budget for one state.
//
// Allocations are append-only: a new decision supersedes the previous
// one for the same state, it never edits it. Everywhere allocations are
// summed, only the row with the highest decision number per state
// counts.
type StateAllocation struct {
	DefaultModel
	GrantCallID    *uuid.UUID      `gorm:"uniqueIndex:allocation_decision;check:allocation_root,(grant_call_id IS NULL) != (funding_cycle_id IS NULL)"`
	GrantCall      *GrantCall      `json:"-"`
	FundingCycleID *uuid.UUID      `gorm:"uniqueIndex:allocation_decision"`
	FundingCycle   *FundingCycle   `json:"-"`
	StateName      string          `gorm:"uniqueIndex:allocation_decision"`
	Amount         decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	DecisionNo     uint            `gorm:"uniqueIndex:allocation_decision"`
}

// BeforeUpdate rejects edits to superseded decision rows. Append a new
// decision instead.
func (a *StateAllocation) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("Amount", "DecisionNo", "StateName", "GrantCallID", "FundingCycleID") {
		return ErrAllocationImmutable
	}

	return nil
}

// activeAllocationCondition filters state_allocations to the rows that
// hold the highest decision number for their root and state. This is
// the single definition of "active allocation", used identically by
// validation, the ledger and all aggregation so that superseded
// decisions are never double-counted.
const activeAllocationCondition = `state_allocations.decision_no = (
	SELECT MAX(s.decision_no) FROM state_allocations s
	WHERE s.state_name = state_allocations.state_name
	AND (s.grant_call_id = state_allocations.grant_call_id OR (s.grant_call_id IS NULL AND state_allocations.grant_call_id IS NULL))
	AND (s.funding_cycle_id = state_allocations.funding_cycle_id OR (s.funding_cycle_id IS NULL AND state_allocations.funding_cycle_id IS NULL))
	AND s.deleted_at IS NULL
)`

// ActiveOnly narrows a state allocation query to active rows. For use
// with gorm's Scopes.
func ActiveOnly(db *gorm.DB) *gorm.DB {
	return db.Where(activeAllocationCondition)
}

// ActiveAllocations returns all currently active state allocations,
// i.e. the latest decision per root and state.
func ActiveAllocations(db *gorm.DB) ([]StateAllocation, error) {
	var allocations []StateAllocation
	err := db.Where(activeAllocationCondition).Order("state_name ASC, decision_no DESC").Find(&allocations).Error
	return allocations, err
}

// ActiveAllocationsForGrantCall returns the active allocations of one
// grant call.
func ActiveAllocationsForGrantCall(db *gorm.DB, grantCallID uuid.UUID) ([]StateAllocation, error) {
	var allocations []StateAllocation
	err := db.
		Where("grant_call_id = ?", grantCallID).
		Where(activeAllocationCondition).
		Order("state_name ASC").
		Find(&allocations).Error
	return allocations, err
}

// IsActive reports whether this allocation is the latest decision for
// its root and state.
func (a StateAllocation) IsActive(db *gorm.DB) (bool, error) {
	var max uint
	q := db.Model(&StateAllocation{}).Where("state_name = ?", a.StateName)

	if a.GrantCallID != nil {
		q = q.Where("grant_call_id = ?", a.GrantCallID)
	} else {
		q = q.Where("funding_cycle_id = ?", a.FundingCycleID)
	}

	err := q.Select("MAX(decision_no)").Row().Scan(&max)
	if err != nil {
		return false, err
	}

	return a.DecisionNo == max, nil
}
