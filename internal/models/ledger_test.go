package models_test

import (
	"github.com/google/uuid"
	"github.com/lcc-aid/fsystem-backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// committedWorkplan creates, assigns and commits one workplan with a
// single expense line over the given amount.
func (suite *TestSuiteStandard) committedWorkplan(h hierarchy, amount decimal.Decimal) models.Workplan {
	workplan := suite.createTestWorkplan(models.Workplan{
		StateName: h.Allocation.StateName,
		Locality:  "Jabra",
		Status:    models.WorkplanApproved,
		Expenses: datatypes.NewJSONSlice([]models.ExpenseLine{
			{Activity: "water trucking", TotalCost: amount},
		}),
		ApprovalFileKey: "approvals/test.pdf",
	})

	workplan, err := models.AssignAllocation(models.DB, workplan.ID, h.Allocation.ID, "0825", "tester")
	suite.Assert().NoError(err)

	_, err = models.CommitWorkplans(models.DB, []uuid.UUID{workplan.ID}, "tester")
	suite.Assert().NoError(err)

	err = models.DB.First(&workplan, "id = ?", workplan.ID).Error
	suite.Assert().NoError(err)

	return workplan
}

func (suite *TestSuiteStandard) TestCommitRecordsLedgerRow() {
	h := suite.createTestHierarchy("Khartoum", "KH", "DKH", decimal.NewFromInt(100000))
	workplan := suite.committedWorkplan(h, decimal.NewFromInt(5000))

	sum, err := models.WorkplanLedgerSum(models.DB, workplan.ID)
	suite.Assert().NoError(err)
	suite.Assert().True(sum.Equal(decimal.NewFromInt(5000)), "ledger sum is %s", sum)

	total, err := models.CommittedTotal(models.DB, models.LedgerFilter{StateAllocationID: h.Allocation.ID})
	suite.Assert().NoError(err)
	suite.Assert().True(total.Equal(decimal.NewFromInt(5000)))
}

func (suite *TestSuiteStandard) TestRecordCommitRejectsNonPositive() {
	h := suite.createTestHierarchy("Khartoum", "KH", "DKH", decimal.NewFromInt(100000))
	workplan := suite.committedWorkplan(h, decimal.NewFromInt(5000))

	err := models.RecordCommit(models.DB, workplan.ID, models.ScopeOf(workplan), decimal.NewFromInt(-10), "commit", "tester")
	suite.Assert().ErrorIs(err, models.ErrLedgerAmountNotPositive)

	err = models.RecordCommit(models.DB, workplan.ID, models.ScopeOf(workplan), decimal.Zero, "commit", "tester")
	suite.Assert().ErrorIs(err, models.ErrLedgerAmountNotPositive)
}

func (suite *TestSuiteStandard) TestRecordAdjustmentRejectsZero() {
	h := suite.createTestHierarchy("Khartoum", "KH", "DKH", decimal.NewFromInt(100000))
	workplan := suite.committedWorkplan(h, decimal.NewFromInt(5000))

	err := models.RecordAdjustment(models.DB, workplan.ID, models.ScopeOf(workplan), decimal.Zero, "typo", "tester")
	suite.Assert().ErrorIs(err, models.ErrLedgerDeltaZero)
}

func (suite *TestSuiteStandard) TestFlaggedWorkplanRefusesLedgerWrites() {
	h := suite.createTestHierarchy("Khartoum", "KH", "DKH", decimal.NewFromInt(100000))
	workplan := suite.committedWorkplan(h, decimal.NewFromInt(5000))

	suite.Assert().NoError(models.DB.Model(&workplan).Update("flagged", true).Error)

	err := models.RecordAdjustment(models.DB, workplan.ID, models.ScopeOf(workplan), decimal.NewFromInt(1), "late fix", "tester")
	suite.Assert().ErrorIs(err, models.ErrWorkplanFlagged)
}

// TestGlobalConservation verifies that assignment, commitment,
// reassignment and removal never change the global ledger total except
// by the exact amount committed or reversed.
func (suite *TestSuiteStandard) TestGlobalConservation() {
	khartoum := suite.createTestHierarchy("Khartoum", "KH", "DKH", decimal.NewFromInt(100000))
	suite.createTestState(models.State{Name: "Kordofan", ShortCode: "KO"})
	kordofan := suite.createTestStateAllocation(models.StateAllocation{
		GrantCallID: khartoum.Allocation.GrantCallID,
		StateName:   "Kordofan",
		Amount:      decimal.NewFromInt(50000),
		DecisionNo:  1,
	})

	workplan := suite.committedWorkplan(khartoum, decimal.NewFromInt(5000))

	total, err := models.GlobalLedgerTotal(models.DB)
	suite.Assert().NoError(err)
	suite.Assert().True(total.Equal(decimal.NewFromInt(5000)))

	// Reassignment moves the amount between scopes without changing
	// the global total.
	_, err = models.ReassignWorkplans(models.DB, []uuid.UUID{workplan.ID}, kordofan.ID, "0825", "capacity", "tester")
	suite.Assert().NoError(err)

	total, err = models.GlobalLedgerTotal(models.DB)
	suite.Assert().NoError(err)
	suite.Assert().True(total.Equal(decimal.NewFromInt(5000)), "global total after reassignment is %s", total)

	sum, err := models.WorkplanLedgerSum(models.DB, workplan.ID)
	suite.Assert().NoError(err)
	suite.Assert().True(sum.Equal(decimal.NewFromInt(5000)))

	// Deleting the workplan reverses its contribution exactly.
	suite.Assert().NoError(models.DeleteWorkplan(models.DB, workplan.ID, "tester"))

	total, err = models.GlobalLedgerTotal(models.DB)
	suite.Assert().NoError(err)
	suite.Assert().True(total.IsZero(), "global total after delete is %s", total)
}

func (suite *TestSuiteStandard) TestReconcileWorkplan() {
	h := suite.createTestHierarchy("Khartoum", "KH", "DKH", decimal.NewFromInt(100000))
	workplan := suite.committedWorkplan(h, decimal.NewFromInt(5000))

	// A consistent workplan passes and stays unflagged.
	suite.Assert().NoError(models.ReconcileWorkplan(models.DB, workplan.ID))

	// Tamper with the ledger behind the workflow's back.
	err := models.RecordAdjustment(models.DB, workplan.ID, models.ScopeOf(workplan), decimal.NewFromInt(-1), "tamper", "tester")
	suite.Assert().NoError(err)

	err = models.ReconcileWorkplan(models.DB, workplan.ID)
	suite.Assert().ErrorIs(err, models.ErrLedgerInconsistent)

	var consistency *models.ConsistencyError
	suite.Assert().ErrorAs(err, &consistency)
	suite.Assert().Equal("4999", consistency.LedgerSum)
	suite.Assert().Equal("5000", consistency.Expected)

	// The mismatch flags the workplan and halts further writes.
	suite.Assert().NoError(models.DB.First(&workplan, "id = ?", workplan.ID).Error)
	suite.Assert().True(workplan.Flagged)

	err = models.RecordAdjustment(models.DB, workplan.ID, models.ScopeOf(workplan), decimal.NewFromInt(1), "fix", "tester")
	suite.Assert().ErrorIs(err, models.ErrWorkplanFlagged)
}
