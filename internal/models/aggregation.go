package models

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// The aggregation engine is the single place the dashboard figures are
// derived. Every figure resolves active allocations and ledger sums the
// same way, no caller re-derives these rules.
//
// Remaining is allocated minus committed. Pending is reported
// separately and not subtracted, so dashboards can show both "remaining
// after commitments" and "at risk if pending also commits".

// Figures are the four dashboard numbers for one scope.
type Figures struct {
	Allocated decimal.Decimal `json:"allocated"`
	Committed decimal.Decimal `json:"committed"`
	Pending   decimal.Decimal `json:"pending"`
	Remaining decimal.Decimal `json:"remaining"`
}

func (f *Figures) finish() {
	f.Remaining = f.Allocated.Sub(f.Committed)
}

// StateFigures are the dashboard figures for one state.
type StateFigures struct {
	StateName string `json:"stateName"`
	Figures
}

// DonorFigures are the dashboard figures for one (donor, grant call)
// pair.
type DonorFigures struct {
	DonorName     string    `json:"donorName"`
	GrantCallID   uuid.UUID `json:"grantCallId"`
	GrantCallName string    `json:"grantCallName"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Figures
}

// PoolSummary is the global funding pool overview.
type PoolSummary struct {
	TotalBudget decimal.Decimal `json:"totalBudget"` // Sum of all grant call budgets
	Figures
}

type amountRow struct {
	Key    string
	ID     uuid.UUID
	Amount decimal.NullDecimal
}

// allocatedByState sums the active allocation per state.
func allocatedByState(db *gorm.DB) (map[string]decimal.Decimal, error) {
	var rows []amountRow
	err := db.Model(&StateAllocation{}).
		Select("state_allocations.state_name AS key, SUM(state_allocations.amount) AS amount").
		Where(activeAllocationCondition).
		Group("state_allocations.state_name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		result[row.Key] = row.Amount.Decimal
	}

	return result, nil
}

// committedByState sums ledger deltas per state. The state comes from
// the allocation the ledger row points at, not from the workplan's
// current state, so reassigned-away amounts count against their old
// state correctly (as zero net).
func committedByState(db *gorm.DB) (map[string]decimal.Decimal, error) {
	var rows []amountRow
	err := db.Model(&LedgerEntry{}).
		Select("state_allocations.state_name AS key, SUM(ledger_entries.delta) AS amount").
		Joins("JOIN state_allocations ON state_allocations.id = ledger_entries.state_allocation_id").
		Joins("JOIN workplans ON workplans.id = ledger_entries.workplan_id AND workplans.funding_status = ? AND workplans.deleted_at IS NULL", FundingCommitted).
		Group("state_allocations.state_name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		result[row.Key] = row.Amount.Decimal
	}

	return result, nil
}

// pendingWorkplans returns all workplans that are not yet committed but
// will draw on allocations. Requested amounts live in the expense JSON,
// so they are summed in Go.
func pendingWorkplans(db *gorm.DB) ([]Workplan, error) {
	var workplans []Workplan
	err := db.
		Where("funding_status IN ?", []FundingStatus{FundingUnassigned, FundingAllocated, FundingReassigned}).
		Find(&workplans).Error
	return workplans, err
}

// ByState computes the dashboard figures per state.
func ByState(db *gorm.DB) ([]StateFigures, error) {
	allocated, err := allocatedByState(db)
	if err != nil {
		return nil, err
	}

	committed, err := committedByState(db)
	if err != nil {
		return nil, err
	}

	pending, err := pendingWorkplans(db)
	if err != nil {
		return nil, err
	}

	pendingByState := make(map[string]decimal.Decimal)
	for _, w := range pending {
		pendingByState[w.StateName] = pendingByState[w.StateName].Add(w.RequestedAmount())
	}

	states := make(map[string]bool)
	for s := range allocated {
		states[s] = true
	}
	for s := range committed {
		states[s] = true
	}
	for s := range pendingByState {
		states[s] = true
	}

	result := make([]StateFigures, 0, len(states))
	for state := range states {
		figures := StateFigures{
			StateName: state,
			Figures: Figures{
				Allocated: allocated[state],
				Committed: committed[state],
				Pending:   pendingByState[state],
			},
		}
		figures.finish()
		result = append(result, figures)
	}

	sortStateFigures(result)
	return result, nil
}

// ByDonor computes the dashboard figures per (donor, grant call) pair.
func ByDonor(db *gorm.DB) ([]DonorFigures, error) {
	var grantCalls []GrantCall
	err := db.Preload("Donor").Order("name ASC").Find(&grantCalls).Error
	if err != nil {
		return nil, err
	}

	var allocatedRows []amountRow
	err = db.Model(&StateAllocation{}).
		Select("state_allocations.grant_call_id AS id, SUM(state_allocations.amount) AS amount").
		Where("state_allocations.grant_call_id IS NOT NULL").
		Where(activeAllocationCondition).
		Group("state_allocations.grant_call_id").
		Scan(&allocatedRows).Error
	if err != nil {
		return nil, err
	}

	allocated := make(map[uuid.UUID]decimal.Decimal, len(allocatedRows))
	for _, row := range allocatedRows {
		allocated[row.ID] = row.Amount.Decimal
	}

	var committedRows []amountRow
	err = db.Model(&LedgerEntry{}).
		Select("ledger_entries.grant_call_id AS id, SUM(ledger_entries.delta) AS amount").
		Joins("JOIN workplans ON workplans.id = ledger_entries.workplan_id AND workplans.funding_status = ? AND workplans.deleted_at IS NULL", FundingCommitted).
		Where("ledger_entries.grant_call_id IS NOT NULL").
		Group("ledger_entries.grant_call_id").
		Scan(&committedRows).Error
	if err != nil {
		return nil, err
	}

	committed := make(map[uuid.UUID]decimal.Decimal, len(committedRows))
	for _, row := range committedRows {
		committed[row.ID] = row.Amount.Decimal
	}

	pending, err := pendingWorkplans(db)
	if err != nil {
		return nil, err
	}

	pendingByCall := make(map[uuid.UUID]decimal.Decimal)
	for _, w := range pending {
		if w.GrantCallID != nil {
			pendingByCall[*w.GrantCallID] = pendingByCall[*w.GrantCallID].Add(w.RequestedAmount())
		}
	}

	result := make([]DonorFigures, 0, len(grantCalls))
	for _, call := range grantCalls {
		figures := DonorFigures{
			DonorName:     call.Donor.Name,
			GrantCallID:   call.ID,
			GrantCallName: call.Name,
			TotalAmount:   call.TotalAmount,
			Figures: Figures{
				Allocated: allocated[call.ID],
				Committed: committed[call.ID],
				Pending:   pendingByCall[call.ID],
			},
		}
		figures.finish()
		result = append(result, figures)
	}

	return result, nil
}

// GetPoolSummary computes the global funding pool overview.
func GetPoolSummary(db *gorm.DB) (PoolSummary, error) {
	var summary PoolSummary

	var budget decimal.NullDecimal
	err := db.Model(&GrantCall{}).Select("SUM(total_amount)").Row().Scan(&budget)
	if err != nil {
		return summary, err
	}
	summary.TotalBudget = budget.Decimal

	allocated, err := allocatedByState(db)
	if err != nil {
		return summary, err
	}
	for _, amount := range allocated {
		summary.Allocated = summary.Allocated.Add(amount)
	}

	committed, err := committedByState(db)
	if err != nil {
		return summary, err
	}
	for _, amount := range committed {
		summary.Committed = summary.Committed.Add(amount)
	}

	pending, err := pendingWorkplans(db)
	if err != nil {
		return summary, err
	}
	for _, w := range pending {
		summary.Pending = summary.Pending.Add(w.RequestedAmount())
	}

	summary.finish()
	return summary, nil
}

// PreviewFigures is the result of a commitment preview: the remaining
// amount on an allocation before and after a proposed commitment.
type PreviewFigures struct {
	Allocated       decimal.Decimal `json:"allocated"`
	Committed       decimal.Decimal `json:"committed"`
	Remaining       decimal.Decimal `json:"remaining"`
	ProposedAmount  decimal.Decimal `json:"proposedAmount"`
	RemainingAfter  decimal.Decimal `json:"remainingAfter"`
	AllocationIsActive bool         `json:"allocationIsActive"`
}

// PreviewCommitment is a pure query answering "what would committing
// this amount against this allocation do". It replaces the original
// system's fire-and-forget preview events with a synchronous call.
func PreviewCommitment(db *gorm.DB, allocationID uuid.UUID, amount decimal.Decimal) (PreviewFigures, error) {
	var preview PreviewFigures

	var allocation StateAllocation
	err := db.First(&allocation, "id = ?", allocationID).Error
	if err != nil {
		return preview, err
	}

	active, err := allocation.IsActive(db)
	if err != nil {
		return preview, err
	}

	committed, err := CommittedTotal(db, LedgerFilter{StateAllocationID: allocationID})
	if err != nil {
		return preview, err
	}

	preview.Allocated = allocation.Amount
	preview.Committed = committed
	preview.Remaining = allocation.Amount.Sub(committed)
	preview.ProposedAmount = amount
	preview.RemainingAfter = preview.Remaining.Sub(amount)
	preview.AllocationIsActive = active

	return preview, nil
}

// GlobalLedgerTotal returns the sum of every ledger delta in the
// system. By the conservation law it must always equal the sum of the
// requested amounts of all currently committed workplans.
func GlobalLedgerTotal(db *gorm.DB) (decimal.Decimal, error) {
	return CommittedTotal(db, LedgerFilter{})
}

func sortStateFigures(figures []StateFigures) {
	sort.Slice(figures, func(i, j int) bool {
		return figures[i].StateName < figures[j].StateName
	})
}
