package models

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerEntry is one signed amount delta in the commitment ledger,
// tied to a workplan and the funding scope it was committed against.
//
// The ledger is append-only. The committed total for any scope is the
// sum of the deltas of the rows in that scope, and this sum is the only
// authoritative "committed" figure. It is never re-derived from
// workplan statuses alone.
type LedgerEntry struct {
	DefaultModel
	WorkplanID        uuid.UUID `gorm:"index"`
	Workplan          Workplan  `json:"-"`
	GrantCallID       *uuid.UUID
	FundingCycleID    *uuid.UUID
	StateAllocationID uuid.UUID `gorm:"index"`
	StateAllocation   StateAllocation `json:"-"`
	GrantSerialID     uuid.UUID       `gorm:"index"`
	GrantSerial       GrantSerial     `json:"-"`
	Delta             decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	Reason            string
	CreatedBy         string
}

// LedgerScope is the funding scope a ledger entry points at.
type LedgerScope struct {
	GrantCallID       *uuid.UUID
	FundingCycleID    *uuid.UUID
	StateAllocationID uuid.UUID
	GrantSerialID     uuid.UUID
}

// ScopeOf returns the current funding scope of a workplan.
func ScopeOf(w Workplan) LedgerScope {
	scope := LedgerScope{
		GrantCallID:    w.GrantCallID,
		FundingCycleID: w.FundingCycleID,
	}

	if w.StateAllocationID != nil {
		scope.StateAllocationID = *w.StateAllocationID
	}

	if w.GrantSerialID != nil {
		scope.GrantSerialID = *w.GrantSerialID
	}

	return scope
}

// LedgerFilter narrows CommittedTotal to a scope. Zero fields are
// ignored.
type LedgerFilter struct {
	WorkplanID        uuid.UUID
	GrantCallID       uuid.UUID
	FundingCycleID    uuid.UUID
	StateAllocationID uuid.UUID
	GrantSerialID     uuid.UUID
}

func (f LedgerFilter) apply(q *gorm.DB) *gorm.DB {
	if f.WorkplanID != uuid.Nil {
		q = q.Where("workplan_id = ?", f.WorkplanID)
	}

	if f.GrantCallID != uuid.Nil {
		q = q.Where("grant_call_id = ?", f.GrantCallID)
	}

	if f.FundingCycleID != uuid.Nil {
		q = q.Where("funding_cycle_id = ?", f.FundingCycleID)
	}

	if f.StateAllocationID != uuid.Nil {
		q = q.Where("state_allocation_id = ?", f.StateAllocationID)
	}

	if f.GrantSerialID != uuid.Nil {
		q = q.Where("grant_serial_id = ?", f.GrantSerialID)
	}

	return q
}

// ensureWritable refuses ledger writes against flagged workplans.
func ensureWritable(tx *gorm.DB, workplanID uuid.UUID) error {
	var workplan Workplan
	err := tx.First(&workplan, "id = ?", workplanID).Error
	if err != nil {
		return err
	}

	if workplan.Flagged {
		return fmt.Errorf("%w: workplan %s", ErrWorkplanFlagged, workplanID)
	}

	return nil
}

func appendEntry(tx *gorm.DB, workplanID uuid.UUID, scope LedgerScope, delta decimal.Decimal, reason, actor string) error {
	entry := LedgerEntry{
		WorkplanID:        workplanID,
		GrantCallID:       scope.GrantCallID,
		FundingCycleID:    scope.FundingCycleID,
		StateAllocationID: scope.StateAllocationID,
		GrantSerialID:     scope.GrantSerialID,
		Delta:             delta,
		Reason:            reason,
		CreatedBy:         actor,
	}

	return tx.Create(&entry).Error
}

// RecordCommit appends one ledger row with a positive delta for a
// workplan being committed.
func RecordCommit(tx *gorm.DB, workplanID uuid.UUID, scope LedgerScope, amount decimal.Decimal, reason, actor string) error {
	if !amount.IsPositive() {
		return ErrLedgerAmountNotPositive
	}

	err := ensureWritable(tx, workplanID)
	if err != nil {
		return err
	}

	return appendEntry(tx, workplanID, scope, amount, reason, actor)
}

// RecordAdjustment appends one ledger row with an arbitrary signed
// delta, correcting an amount without changing scope.
func RecordAdjustment(tx *gorm.DB, workplanID uuid.UUID, scope LedgerScope, delta decimal.Decimal, reason, actor string) error {
	if delta.IsZero() {
		return ErrLedgerDeltaZero
	}

	err := ensureWritable(tx, workplanID)
	if err != nil {
		return err
	}

	return appendEntry(tx, workplanID, scope, delta, reason, actor)
}

// RecordReassignment appends the paired rows that move a commitment
// from one scope to another: the full amount out of the old scope and
// into the new one. Both rows reference the same workplan, so its
// ledger sum is unchanged.
//
// Callers must pass a transaction, the pair must never be half-visible.
func RecordReassignment(tx *gorm.DB, workplanID uuid.UUID, oldScope, newScope LedgerScope, amount decimal.Decimal, reason, actor string) error {
	if !amount.IsPositive() {
		return ErrLedgerAmountNotPositive
	}

	err := ensureWritable(tx, workplanID)
	if err != nil {
		return err
	}

	err = appendEntry(tx, workplanID, oldScope, amount.Neg(), reason, actor)
	if err != nil {
		return err
	}

	return appendEntry(tx, workplanID, newScope, amount, reason, actor)
}

// CommittedTotal returns the sum of all ledger deltas matching the
// filter.
func CommittedTotal(db *gorm.DB, filter LedgerFilter) (decimal.Decimal, error) {
	var sum decimal.NullDecimal

	err := filter.apply(db.Model(&LedgerEntry{})).
		Select("SUM(delta)").
		Row().
		Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing ledger entries failed: %w", err)
	}

	return sum.Decimal, nil
}

// WorkplanLedgerSum returns the net ledger amount of one workplan
// across all scopes.
func WorkplanLedgerSum(db *gorm.DB, workplanID uuid.UUID) (decimal.Decimal, error) {
	return CommittedTotal(db, LedgerFilter{WorkplanID: workplanID})
}

// ReconcileWorkplan verifies that the ledger rows of a workplan sum to
// its expected live amount: the requested amount while committed, zero
// otherwise.
//
// On a mismatch the workplan is flagged, which halts all further ledger
// writes against it, and a ConsistencyError is returned. Nothing is
// auto-corrected.
func ReconcileWorkplan(db *gorm.DB, workplanID uuid.UUID) error {
	var workplan Workplan
	err := db.First(&workplan, "id = ?", workplanID).Error
	if err != nil {
		return err
	}

	sum, err := WorkplanLedgerSum(db, workplanID)
	if err != nil {
		return err
	}

	expected := decimal.Zero
	if workplan.FundingStatus == FundingCommitted {
		expected = workplan.RequestedAmount()
	}

	if sum.Equal(expected) {
		return nil
	}

	err = db.Model(&workplan).Update("flagged", true).Error
	if err != nil {
		return err
	}

	return &ConsistencyError{
		WorkplanID: workplanID,
		LedgerSum:  sum.String(),
		Expected:   expected.String(),
	}
}
