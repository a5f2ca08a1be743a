package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lcc-aid/fsystem-backend/internal/types"
	"gorm.io/gorm"
)

// serialPrefix is the fixed first segment of every grant serial code.
const serialPrefix = "LCC"

// GrantSerial is the per-state-per-month identifier bucket under which
// sequential workplans are numbered. Multiple workplans share one
// serial and differ by workplan number.
//
// The unique code index is the concurrency guard for serial creation:
// two racing requests derive the same code and the loser receives
// ErrSerialConflict from the create callback.
type GrantSerial struct {
	DefaultModel
	Code           string        `gorm:"uniqueIndex"`
	GrantCallID    *uuid.UUID    `gorm:"uniqueIndex:serial_scope"`
	GrantCall      *GrantCall    `json:"-"`
	FundingCycleID *uuid.UUID    `gorm:"uniqueIndex:serial_scope"`
	FundingCycle   *FundingCycle `json:"-"`
	StateName      string        `gorm:"uniqueIndex:serial_scope"`
	Month          types.MonthCode `gorm:"uniqueIndex:serial_scope"`
	SerialSeq      uint
}

// SerialScope is the logical key of a grant serial: exactly one funding
// root, a state and a month code.
type SerialScope struct {
	GrantCallID    *uuid.UUID
	FundingCycleID *uuid.UUID
	StateName      string
	Month          types.MonthCode
}

func (s SerialScope) valid() bool {
	if (s.GrantCallID == nil) == (s.FundingCycleID == nil) {
		return false
	}

	return s.StateName != "" && s.Month.Valid()
}

// apply adds the scope conditions to a query, treating the unset root
// as an explicit NULL match.
func (s SerialScope) apply(q *gorm.DB) *gorm.DB {
	q = q.Where("state_name = ?", s.StateName).Where("month = ?", s.Month)

	if s.GrantCallID != nil {
		q = q.Where("grant_call_id = ?", *s.GrantCallID)
	} else {
		q = q.Where("grant_call_id IS NULL")
	}

	if s.FundingCycleID != nil {
		q = q.Where("funding_cycle_id = ?", *s.FundingCycleID)
	} else {
		q = q.Where("funding_cycle_id IS NULL")
	}

	return q
}

// shortCodes resolves the two reference short codes that make up the
// serial code: the donor's (or funding cycle's) and the state's.
func (s SerialScope) shortCodes(tx *gorm.DB) (root string, state string, err error) {
	if s.GrantCallID != nil {
		var grantCall GrantCall
		err = tx.Preload("Donor").First(&grantCall, "id = ?", *s.GrantCallID).Error
		if err != nil {
			return "", "", err
		}

		root = grantCall.Donor.ShortCode
	} else {
		var cycle FundingCycle
		err = tx.First(&cycle, "id = ?", *s.FundingCycleID).Error
		if err != nil {
			return "", "", err
		}

		root = cycle.ShortCode
	}

	if root == "" {
		return "", "", ErrDonorShortCodeMissing
	}

	var stateRef State
	err = tx.First(&stateRef, "name = ?", s.StateName).Error
	if err != nil {
		return "", "", err
	}

	if stateRef.ShortCode == "" {
		return "", "", ErrStateShortCodeMissing
	}

	return root, stateRef.ShortCode, nil
}

// SerialCode assembles the human readable serial code.
func SerialCode(rootShort, stateShort string, month types.MonthCode, seq uint) string {
	return fmt.Sprintf("%s-%s-%s-%s-%04d", serialPrefix, rootShort, stateShort, month, seq)
}

// CreateOrGetGrantSerial returns the grant serial for the scope,
// creating it if it does not exist yet. The lookup makes the operation
// idempotent: a second call with the same scope returns the same
// serial.
//
// Creation derives the sequence number from the count of existing
// serials in the scope. When a concurrent request wins the race for the
// same code, the create fails with ErrSerialConflict and the caller
// retries with a fresh read.
func CreateOrGetGrantSerial(tx *gorm.DB, scope SerialScope) (GrantSerial, error) {
	if !scope.valid() {
		return GrantSerial{}, ErrSerialScopeInvalid
	}

	var serial GrantSerial
	err := scope.apply(tx.Model(&GrantSerial{})).First(&serial).Error
	if err == nil {
		return serial, nil
	}

	if !errors.Is(err, ErrResourceNotFound) {
		return GrantSerial{}, err
	}

	rootShort, stateShort, err := scope.shortCodes(tx)
	if err != nil {
		return GrantSerial{}, err
	}

	var count int64
	err = scope.apply(tx.Model(&GrantSerial{})).Count(&count).Error
	if err != nil {
		return GrantSerial{}, err
	}

	serial = GrantSerial{
		Code:           SerialCode(rootShort, stateShort, scope.Month, uint(count)+1),
		GrantCallID:    scope.GrantCallID,
		FundingCycleID: scope.FundingCycleID,
		StateName:      scope.StateName,
		Month:          scope.Month,
		SerialSeq:      uint(count) + 1,
	}

	err = tx.Create(&serial).Error
	if err != nil {
		return GrantSerial{}, err
	}

	return serial, nil
}

// WorkplanIdentifier returns the full identifier of a workplan on this
// serial, e.g. "LCC-DKH-KH-0825-0001-003".
func (s GrantSerial) WorkplanIdentifier(number uint) string {
	return fmt.Sprintf("%s-%03d", s.Code, number)
}
