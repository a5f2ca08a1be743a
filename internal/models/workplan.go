package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WorkplanStatus is the review status of a workplan (F1).
type WorkplanStatus string

const (
	WorkplanNew      WorkplanStatus = "new"
	WorkplanFeedback WorkplanStatus = "feedback"
	WorkplanDeclined WorkplanStatus = "declined"
	WorkplanDraft    WorkplanStatus = "draft"
	WorkplanPending  WorkplanStatus = "pending"
	WorkplanApproved WorkplanStatus = "approved"
)

// FundingStatus tracks a workplan's progress through the allocation
// hierarchy.
type FundingStatus string

const (
	FundingUnassigned FundingStatus = "unassigned"
	FundingAllocated  FundingStatus = "allocated"
	FundingCommitted  FundingStatus = "committed"
	FundingReassigned FundingStatus = "reassigned"
)

// ExpenseLine is one budget line of a workplan. The requested amount of
// a workplan is the sum of its expense line costs.
type ExpenseLine struct {
	Activity  string          `json:"activity"`
	TotalCost decimal.Decimal `json:"totalCost"`
	Tags      []string        `json:"tags,omitempty"`
}

// Workplan is a single funding request submission (F1) tied to one
// emergency-response room and locality.
type Workplan struct {
	DefaultModel
	StateName string
	Locality  string
	Status        WorkplanStatus `gorm:"default:new"`
	FundingStatus FundingStatus  `gorm:"default:unassigned"`

	GrantCallID       *uuid.UUID
	GrantCall         *GrantCall `json:"-"`
	FundingCycleID    *uuid.UUID
	FundingCycle      *FundingCycle `json:"-"`
	StateAllocationID *uuid.UUID
	StateAllocation   *StateAllocation `json:"-"`
	GrantSerialID     *uuid.UUID       `gorm:"uniqueIndex:workplan_serial_number"`
	GrantSerial       *GrantSerial     `json:"-"`
	WorkplanNumber    uint             `gorm:"uniqueIndex:workplan_serial_number"` // 0 = no number assigned
	MouID             *uuid.UUID
	Mou               *Mou `json:"-"`

	ApprovalFileKey string     // Presence gates commit eligibility
	CommittedAt     *time.Time
	ImportHash      string `gorm:"index"` // Duplicate detection for imported workplans
	Flagged         bool   // Set when reconciliation finds a ledger mismatch, halts ledger writes

	Expenses datatypes.JSONSlice[ExpenseLine]
}

// RequestedAmount is the sum of all expense line costs.
func (w Workplan) RequestedAmount() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range w.Expenses {
		sum = sum.Add(line.TotalCost)
	}

	return sum
}

// Identifier returns the full human readable identifier once a serial
// and number are assigned, e.g. "LCC-DKH-KH-0825-0001-003".
func (w Workplan) Identifier() string {
	if w.GrantSerial == nil || w.WorkplanNumber == 0 {
		return ""
	}

	return w.GrantSerial.WorkplanIdentifier(w.WorkplanNumber)
}

func (w *Workplan) BeforeSave(_ *gorm.DB) error {
	w.StateName = strings.TrimSpace(w.StateName)
	w.Locality = strings.TrimSpace(w.Locality)

	if w.Status == "" {
		w.Status = WorkplanNew
	}

	if w.FundingStatus == "" {
		w.FundingStatus = FundingUnassigned
	}

	// Expense lines are validated at the boundary: malformed records
	// are rejected, not silently defaulted.
	for _, line := range w.Expenses {
		if strings.TrimSpace(line.Activity) == "" || !line.TotalCost.IsPositive() {
			return ErrExpensesInvalid
		}
	}

	return nil
}

// CommitDate returns the commit timestamp or the zero time.
func (w Workplan) CommitDate() time.Time {
	if w.CommittedAt == nil {
		return time.Time{}
	}

	return *w.CommittedAt
}
