package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lcc-aid/fsystem-backend/internal/types"
	"gorm.io/gorm"
)

// The funding state machine per workplan is
// unassigned -> allocated -> committed. Committed goes back to
// allocated only through RemoveFromMou or deletion, and allocated never
// goes back to unassigned: once a serial and number are assigned they
// are only ever reassigned, not cleared.

// AssignAllocation moves a workplan from unassigned to allocated: it
// resolves (or creates) the grant serial for the allocation's scope and
// month, takes the next workplan number and links everything to the
// workplan.
func AssignAllocation(db *gorm.DB, workplanID, allocationID uuid.UUID, month types.MonthCode, _ string) (Workplan, error) {
	var workplan Workplan

	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.First(&workplan, "id = ?", workplanID).Error
		if err != nil {
			return err
		}

		if workplan.GrantSerialID != nil {
			return ErrWorkplanAlreadyAssigned
		}

		var allocation StateAllocation
		err = tx.First(&allocation, "id = ?", allocationID).Error
		if err != nil {
			return err
		}

		serial, err := CreateOrGetGrantSerial(tx, SerialScope{
			GrantCallID:    allocation.GrantCallID,
			FundingCycleID: allocation.FundingCycleID,
			StateName:      allocation.StateName,
			Month:          month,
		})
		if err != nil {
			return err
		}

		number, err := NextWorkplanNumber(tx, serial.ID)
		if err != nil {
			return err
		}

		workplan.GrantCallID = allocation.GrantCallID
		workplan.FundingCycleID = allocation.FundingCycleID
		workplan.StateAllocationID = &allocation.ID
		workplan.GrantSerialID = &serial.ID
		workplan.WorkplanNumber = number
		workplan.GrantSerial = &serial

		if workplan.FundingStatus == FundingUnassigned {
			workplan.FundingStatus = FundingAllocated
		}

		return tx.Save(&workplan).Error
	})

	return workplan, err
}

// CommitWorkplans flips a batch of workplans from allocated to
// committed with all-or-nothing semantics.
//
// Preconditions per workplan: the community approval file must be
// uploaded and a state allocation must be assigned. If any member
// fails, the whole batch is rejected with a PreconditionError naming
// every offending workplan and nothing is committed.
func CommitWorkplans(db *gorm.DB, workplanIDs []uuid.UUID, actor string) (int, error) {
	committed := 0

	err := db.Transaction(func(tx *gorm.DB) error {
		var workplans []Workplan
		err := tx.Where("id IN ?", workplanIDs).Find(&workplans).Error
		if err != nil {
			return err
		}

		if len(workplans) != len(workplanIDs) {
			found := make(map[uuid.UUID]bool, len(workplans))
			for _, w := range workplans {
				found[w.ID] = true
			}

			for _, id := range workplanIDs {
				if !found[id] {
					return fmt.Errorf("%w workplan matching your query: %s", ErrResourceNotFound, id)
				}
			}
		}

		precondition := &PreconditionError{}
		for _, w := range workplans {
			if w.ApprovalFileKey == "" {
				precondition.MissingApprovalFile = append(precondition.MissingApprovalFile, w.ID)
			}

			if w.StateAllocationID == nil {
				precondition.MissingAllocation = append(precondition.MissingAllocation, w.ID)
			}

			if w.FundingStatus == FundingCommitted {
				precondition.AlreadyCommitted = append(precondition.AlreadyCommitted, w.ID)
			}
		}

		if len(precondition.MissingApprovalFile) > 0 || len(precondition.MissingAllocation) > 0 || len(precondition.AlreadyCommitted) > 0 {
			return precondition
		}

		now := time.Now().In(time.UTC)
		for i := range workplans {
			workplan := &workplans[i]

			err = RecordCommit(tx, workplan.ID, ScopeOf(*workplan), workplan.RequestedAmount(), "commit", actor)
			if err != nil {
				return err
			}

			workplan.FundingStatus = FundingCommitted
			workplan.CommittedAt = &now

			err = tx.Save(workplan).Error
			if err != nil {
				return err
			}
		}

		committed = len(workplans)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return committed, nil
}

// ReassignWorkplans moves a batch of committed or allocated workplans
// to a new state allocation. Per workplan this regenerates the serial
// assignment on the new scope, releases the number on the old serial if
// it was the maximum, and, for committed workplans, appends the paired
// ledger rows so that committed totals move with the workplan. The
// moved amount is the workplan's net ledger sum, so adjustments made
// after the commit move along with it.
//
// Committed workplans stay committed through the move. Uncommitted
// workplans that held a serial assignment before are marked reassigned,
// they keep counting towards the pending figures.
//
// The whole batch runs in one transaction.
func ReassignWorkplans(db *gorm.DB, workplanIDs []uuid.UUID, newAllocationID uuid.UUID, month types.MonthCode, reason, actor string) ([]Workplan, error) {
	var updated []Workplan

	err := db.Transaction(func(tx *gorm.DB) error {
		var allocation StateAllocation
		err := tx.First(&allocation, "id = ?", newAllocationID).Error
		if err != nil {
			return err
		}

		for _, id := range workplanIDs {
			var workplan Workplan
			err := tx.First(&workplan, "id = ?", id).Error
			if err != nil {
				return err
			}

			oldScope := ScopeOf(workplan)
			oldSerialID := workplan.GrantSerialID
			oldNumber := workplan.WorkplanNumber

			serial, err := CreateOrGetGrantSerial(tx, SerialScope{
				GrantCallID:    allocation.GrantCallID,
				FundingCycleID: allocation.FundingCycleID,
				StateName:      allocation.StateName,
				Month:          month,
			})
			if err != nil {
				return err
			}

			number, err := NextWorkplanNumber(tx, serial.ID)
			if err != nil {
				return err
			}

			if oldSerialID != nil {
				err = ReleaseWorkplanNumber(tx, *oldSerialID, oldNumber)
				if err != nil {
					return err
				}
			}

			workplan.GrantCallID = allocation.GrantCallID
			workplan.FundingCycleID = allocation.FundingCycleID
			workplan.StateAllocationID = &allocation.ID
			workplan.StateName = allocation.StateName
			workplan.GrantSerialID = &serial.ID
			workplan.WorkplanNumber = number
			workplan.GrantSerial = &serial

			switch {
			case workplan.FundingStatus == FundingCommitted:
				sum, err := WorkplanLedgerSum(tx, workplan.ID)
				if err != nil {
					return err
				}

				err = RecordReassignment(tx, workplan.ID, oldScope, ScopeOf(workplan), sum, reason, actor)
				if err != nil {
					return err
				}
			case oldSerialID != nil:
				workplan.FundingStatus = FundingReassigned
			default:
				workplan.FundingStatus = FundingAllocated
			}

			err = tx.Save(&workplan).Error
			if err != nil {
				return err
			}

			updated = append(updated, workplan)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// RemoveFromMou takes a committed workplan out of its MOU grouping and
// back to allocated: its ledger contribution is reversed and the MOU
// link cleared. The serial assignment stays in place.
func RemoveFromMou(db *gorm.DB, workplanID uuid.UUID, actor string) (Workplan, error) {
	var workplan Workplan

	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.First(&workplan, "id = ?", workplanID).Error
		if err != nil {
			return err
		}

		if workplan.FundingStatus != FundingCommitted {
			return ErrWorkplanNotCommitted
		}

		if workplan.MouID == nil {
			return ErrWorkplanNotInMou
		}

		sum, err := WorkplanLedgerSum(tx, workplan.ID)
		if err != nil {
			return err
		}

		if !sum.IsZero() {
			err = RecordAdjustment(tx, workplan.ID, ScopeOf(workplan), sum.Neg(), "remove from MOU", actor)
			if err != nil {
				return err
			}
		}

		workplan.MouID = nil
		workplan.Mou = nil
		workplan.FundingStatus = FundingAllocated
		workplan.CommittedAt = nil

		return tx.Model(&workplan).Updates(map[string]interface{}{
			"mou_id":         nil,
			"funding_status": FundingAllocated,
			"committed_at":   nil,
		}).Error
	})

	return workplan, err
}

// DeleteWorkplan removes a workplan. A committed workplan first gets an
// equal and opposite ledger row so that committed totals stay
// conserved, and if it held the highest number on its serial the
// counter is decremented so the number is reused. Numbers from the
// middle of a serial stay as permanent gaps.
func DeleteWorkplan(db *gorm.DB, workplanID uuid.UUID, actor string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var workplan Workplan
		err := tx.First(&workplan, "id = ?", workplanID).Error
		if err != nil {
			return err
		}

		sum, err := WorkplanLedgerSum(tx, workplan.ID)
		if err != nil {
			return err
		}

		if !sum.IsZero() {
			err = RecordAdjustment(tx, workplan.ID, ScopeOf(workplan), sum.Neg(), "delete workplan", actor)
			if err != nil {
				return err
			}
		}

		if workplan.GrantSerialID != nil {
			err = ReleaseWorkplanNumber(tx, *workplan.GrantSerialID, workplan.WorkplanNumber)
			if err != nil {
				return err
			}

			// Free the (serial, number) slot: the soft-deleted row must
			// not keep the number occupied in the unique index when the
			// counter hands it out again.
			err = tx.Model(&workplan).Updates(map[string]interface{}{
				"grant_serial_id": nil,
				"workplan_number": 0,
				"mou_id":          nil,
			}).Error
			if err != nil {
				return err
			}
		}

		return tx.Delete(&workplan).Error
	})
}
