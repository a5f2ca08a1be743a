package v1_test

import (
	"fmt"
	"net/http"
	"testing"

	v1 "github.com/lcc-aid/fsystem-backend/internal/controllers/v1"
	"github.com/lcc-aid/fsystem-backend/internal/models"
	"github.com/lcc-aid/fsystem-backend/internal/types"
	"github.com/lcc-aid/fsystem-backend/test"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// workflowFixture is the funding hierarchy the workflow tests run
// against: one donor, one grant call and an allocation per state.
type workflowFixture struct {
	grantCall   v1.GrantCallResponse
	allocations map[string]v1.AllocationResponse
}

// createWorkflowFixture sets up a grant call with allocations for the
// states that are passed. States get two-letter short codes derived
// from their name.
func createWorkflowFixture(t *testing.T, states ...string) workflowFixture {
	grantCall := createTestGrantCall(t, v1.GrantCallEditable{
		Name:        "Workflow grant call",
		TotalAmount: decimal.NewFromInt(1000000),
	})

	grantCallID := grantCall.Data.ID
	fixture := workflowFixture{
		grantCall:   grantCall,
		allocations: make(map[string]v1.AllocationResponse, len(states)),
	}

	for _, state := range states {
		_ = createTestState(t, v1.StateEditable{Name: state, ShortCode: state[:2]})

		fixture.allocations[state] = createTestAllocation(t, v1.AllocationEditable{
			GrantCallID: &grantCallID,
			StateName:   state,
			Amount:      decimal.NewFromInt(100000),
			DecisionNo:  1,
		})
	}

	return fixture
}

// assignTestWorkplan assigns a workplan to an allocation for August 2025.
func assignTestWorkplan(t *testing.T, workplanID uuid.UUID, allocationID uuid.UUID) v1.WorkplanResponse {
	r := test.Request(t, http.MethodPost, fmt.Sprintf("http://example.com/v1/workplans/%s/assign", workplanID), v1.WorkplanAssignRequest{
		AllocationID: allocationID,
		Month:        types.MonthCode("0825"),
	})
	test.AssertHTTPStatus(t, &r, http.StatusOK)

	var response v1.WorkplanResponse
	test.DecodeResponse(t, &r, &response)

	return response
}

// uploadTestApprovalFile uploads a PDF approval document for a workplan.
func uploadTestApprovalFile(t *testing.T, workplanID uuid.UUID) v1.WorkplanResponse {
	body, headers := test.FileUpload(t, "approval.pdf", []byte("%PDF-1.4 approval"))

	r := test.Request(t, http.MethodPost, fmt.Sprintf("http://example.com/v1/workplans/%s/approval-file", workplanID), body, headers)
	test.AssertHTTPStatus(t, &r, http.StatusOK)

	var response v1.WorkplanResponse
	test.DecodeResponse(t, &r, &response)

	return response
}

func (suite *TestSuiteStandard) TestWorkplanAssign() {
	fixture := createWorkflowFixture(suite.T(), "Khartoum")

	first := createTestWorkplan(suite.T(), v1.WorkplanEditable{
		StateName: "Khartoum",
		Locality:  "Jabra",
		Expenses:  []models.ExpenseLine{{Activity: "Water trucking", TotalCost: decimal.NewFromInt(3000)}},
	})
	second := createTestWorkplan(suite.T(), v1.WorkplanEditable{StateName: "Khartoum", Locality: "Bahri"})

	assigned := assignTestWorkplan(suite.T(), first.Data.ID, fixture.allocations["Khartoum"].Data.ID)

	assert.Equal(suite.T(), models.FundingAllocated, assigned.Data.FundingStatus)
	assert.Equal(suite.T(), uint(1), assigned.Data.WorkplanNumber)
	assert.Equal(suite.T(), "LCC-DKH-KH-0825-0001-001", assigned.Data.Identifier)
	assert.NotNil(suite.T(), assigned.Data.GrantSerialID)
	assert.NotEmpty(suite.T(), assigned.Data.Links.GrantSerial)

	// The second workplan on the same serial takes the next number
	assigned = assignTestWorkplan(suite.T(), second.Data.ID, fixture.allocations["Khartoum"].Data.ID)
	assert.Equal(suite.T(), uint(2), assigned.Data.WorkplanNumber)
	assert.Equal(suite.T(), "LCC-DKH-KH-0825-0001-002", assigned.Data.Identifier)

	// Assigning an already assigned workplan fails
	r := test.Request(suite.T(), http.MethodPost, fmt.Sprintf("http://example.com/v1/workplans/%s/assign", first.Data.ID), v1.WorkplanAssignRequest{
		AllocationID: fixture.allocations["Khartoum"].Data.ID,
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestWorkplanAssignFails() {
	fixture := createWorkflowFixture(suite.T(), "Khartoum")

	workplan := createTestWorkplan(suite.T(), v1.WorkplanEditable{StateName: "Khartoum"})

	tests := []struct {
		name   string
		id     string
		body   any
		status int
	}{
		{"No allocation with this ID", workplan.Data.ID.String(), v1.WorkplanAssignRequest{AllocationID: uuid.New()}, http.StatusNotFound},
		{"No workplan with this ID", uuid.New().String(), v1.WorkplanAssignRequest{AllocationID: fixture.allocations["Khartoum"].Data.ID}, http.StatusNotFound},
		{"Missing allocation ID", workplan.Data.ID.String(), map[string]any{}, http.StatusBadRequest},
		{"Invalid month", workplan.Data.ID.String(), map[string]any{"allocationId": fixture.allocations["Khartoum"].Data.ID, "month": "1325"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPost, fmt.Sprintf("http://example.com/v1/workplans/%s/assign", tt.id), tt.body)
			test.AssertHTTPStatus(t, &r, tt.status)
		})
	}
}

func (suite *TestSuiteStandard) TestWorkplanApprovalFileUpload() {
	workplan := createTestWorkplan(suite.T(), v1.WorkplanEditable{StateName: "Khartoum"})

	uploaded := uploadTestApprovalFile(suite.T(), workplan.Data.ID)
	assert.True(suite.T(), uploaded.Data.HasApprovalFile)

	// Only PDF files are accepted
	body, headers := test.FileUpload(suite.T(), "approval.docx", []byte("not a pdf"))
	r := test.Request(suite.T(), http.MethodPost, fmt.Sprintf("http://example.com/v1/workplans/%s/approval-file", workplan.Data.ID), body, headers)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	// A file is required
	r = test.Request(suite.T(), http.MethodPost, fmt.Sprintf("http://example.com/v1/workplans/%s/approval-file", workplan.Data.ID), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestWorkplanCommit() {
	fixture := createWorkflowFixture(suite.T(), "Khartoum")

	workplan := createTestWorkplan(suite.T(), v1.WorkplanEditable{
		StateName: "Khartoum",
		Expenses:  []models.ExpenseLine{{Activity: "Water trucking", TotalCost: decimal.NewFromInt(3000)}},
	})
	_ = assignTestWorkplan(suite.T(), workplan.Data.ID, fixture.allocations["Khartoum"].Data.ID)

	// Committing without the approval file is rejected
	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/workplans/commit", v1.WorkplanCommitRequest{IDs: []uuid.UUID{workplan.Data.ID}})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	var rejected v1.WorkplanCommitResponse
	test.DecodeResponse(suite.T(), &r, &rejected)
	assert.Contains(suite.T(), rejected.MissingApprovalIDs, workplan.Data.ID)
	assert.Equal(suite.T(), 0, rejected.CommittedCount)

	_ = uploadTestApprovalFile(suite.T(), workplan.Data.ID)

	r = test.Request(suite.T(), http.MethodPost, "http://example.com/v1/workplans/commit", v1.WorkplanCommitRequest{IDs: []uuid.UUID{workplan.Data.ID}})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var committed v1.WorkplanCommitResponse
	test.DecodeResponse(suite.T(), &r, &committed)
	assert.Equal(suite.T(), 1, committed.CommittedCount)

	r = test.Request(suite.T(), http.MethodGet, workplan.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var current v1.WorkplanResponse
	test.DecodeResponse(suite.T(), &r, &current)
	assert.Equal(suite.T(), models.FundingCommitted, current.Data.FundingStatus)

	// Committing again is rejected
	r = test.Request(suite.T(), http.MethodPost, "http://example.com/v1/workplans/commit", v1.WorkplanCommitRequest{IDs: []uuid.UUID{workplan.Data.ID}})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	test.DecodeResponse(suite.T(), &r, &rejected)
	assert.Contains(suite.T(), rejected.AlreadyCommittedIDs, workplan.Data.ID)
}

// TestWorkplanCommitAllOrNothing verifies that one failing member
// rejects the whole batch and nothing is committed.
func (suite *TestSuiteStandard) TestWorkplanCommitAllOrNothing() {
	fixture := createWorkflowFixture(suite.T(), "Khartoum")

	ready := createTestWorkplan(suite.T(), v1.WorkplanEditable{
		StateName: "Khartoum",
		Expenses:  []models.ExpenseLine{{Activity: "Water trucking", TotalCost: decimal.NewFromInt(3000)}},
	})
	_ = assignTestWorkplan(suite.T(), ready.Data.ID, fixture.allocations["Khartoum"].Data.ID)
	_ = uploadTestApprovalFile(suite.T(), ready.Data.ID)

	// No allocation, no approval file
	notReady := createTestWorkplan(suite.T(), v1.WorkplanEditable{StateName: "Khartoum"})

	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/workplans/commit", v1.WorkplanCommitRequest{IDs: []uuid.UUID{ready.Data.ID, notReady.Data.ID}})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	var rejected v1.WorkplanCommitResponse
	test.DecodeResponse(suite.T(), &r, &rejected)
	assert.Contains(suite.T(), rejected.MissingApprovalIDs, notReady.Data.ID)
	assert.Contains(suite.T(), rejected.MissingAllocationIDs, notReady.Data.ID)

	// The ready workplan must not have been committed
	r = test.Request(suite.T(), http.MethodGet, ready.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var current v1.WorkplanResponse
	test.DecodeResponse(suite.T(), &r, &current)
	assert.Equal(suite.T(), models.FundingAllocated, current.Data.FundingStatus)
}

func (suite *TestSuiteStandard) TestWorkplanCommitFails() {
	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"Empty ID list", v1.WorkplanCommitRequest{}, http.StatusBadRequest},
		{"Unknown workplan", v1.WorkplanCommitRequest{IDs: []uuid.UUID{uuid.New()}}, http.StatusNotFound},
		{"Broken JSON", `{ "ids": `, http.StatusBadRequest},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPost, "http://example.com/v1/workplans/commit", tt.body)
			test.AssertHTTPStatus(t, &r, tt.status)
		})
	}
}

func (suite *TestSuiteStandard) TestWorkplanAdjust() {
	fixture := createWorkflowFixture(suite.T(), "Khartoum")

	workplan := createTestWorkplan(suite.T(), v1.WorkplanEditable{
		StateName: "Khartoum",
		Expenses:  []models.ExpenseLine{{Activity: "Water trucking", TotalCost: decimal.NewFromInt(3000)}},
	})

	// Adjusting an uncommitted workplan fails
	r := test.Request(suite.T(), http.MethodPost, fmt.Sprintf("http://example.com/v1/workplans/%s/adjust", workplan.Data.ID), v1.WorkplanAdjustRequest{
		Delta: decimal.NewFromInt(-500), Reason: "price revision",
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	_ = assignTestWorkplan(suite.T(), workplan.Data.ID, fixture.allocations["Khartoum"].Data.ID)
	_ = uploadTestApprovalFile(suite.T(), workplan.Data.ID)
	r = test.Request(suite.T(), http.MethodPost, "http://example.com/v1/workplans/commit", v1.WorkplanCommitRequest{IDs: []uuid.UUID{workplan.Data.ID}})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	// A zero delta is rejected
	r = test.Request(suite.T(), http.MethodPost, fmt.Sprintf("http://example.com/v1/workplans/%s/adjust", workplan.Data.ID), v1.WorkplanAdjustRequest{Reason: "noop"})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	r = test.Request(suite.T(), http.MethodPost, fmt.Sprintf("http://example.com/v1/workplans/%s/adjust", workplan.Data.ID), v1.WorkplanAdjustRequest{
		Delta: decimal.NewFromInt(-500), Reason: "price revision",
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	// The committed total moves with the adjustment
	r = test.Request(suite.T(), http.MethodGet, "http://example.com/v1/dashboard/by-state", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var figures v1.StateFiguresResponse
	test.DecodeResponse(suite.T(), &r, &figures)

	if assert.Len(suite.T(), figures.Data, 1) {
		assert.True(suite.T(), figures.Data[0].Committed.Equal(decimal.NewFromInt(2500)), "Committed is %s, expected 2500", figures.Data[0].Committed)
	}
}

func (suite *TestSuiteStandard) TestWorkplanRemoveFromMou() {
	fixture := createWorkflowFixture(suite.T(), "Khartoum")
	mou := createTestMou(suite.T(), v1.MouEditable{Code: "MOU-2025-014", PartnerName: "Jabra ERR"})

	mouID := mou.Data.ID
	workplan := createTestWorkplan(suite.T(), v1.WorkplanEditable{
		StateName: "Khartoum",
		MouID:     &mouID,
		Expenses:  []models.ExpenseLine{{Activity: "Water trucking", TotalCost: decimal.NewFromInt(3000)}},
	})

	// Removal requires a committed workplan
	r := test.Request(suite.T(), http.MethodPost, fmt.Sprintf("http://example.com/v1/workplans/%s/remove-from-mou", workplan.Data.ID), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	_ = assignTestWorkplan(suite.T(), workplan.Data.ID, fixture.allocations["Khartoum"].Data.ID)
	_ = uploadTestApprovalFile(suite.T(), workplan.Data.ID)
	r = test.Request(suite.T(), http.MethodPost, "http://example.com/v1/workplans/commit", v1.WorkplanCommitRequest{IDs: []uuid.UUID{workplan.Data.ID}})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodPost, fmt.Sprintf("http://example.com/v1/workplans/%s/remove-from-mou", workplan.Data.ID), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var removed v1.WorkplanResponse
	test.DecodeResponse(suite.T(), &r, &removed)

	assert.Nil(suite.T(), removed.Data.MouID)
	assert.Equal(suite.T(), models.FundingAllocated, removed.Data.FundingStatus)
	assert.Equal(suite.T(), "LCC-DKH-KH-0825-0001-001", removed.Data.Identifier, "The serial assignment must stay in place")

	// The ledger contribution is reversed
	r = test.Request(suite.T(), http.MethodGet, "http://example.com/v1/dashboard/by-state", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var figures v1.StateFiguresResponse
	test.DecodeResponse(suite.T(), &r, &figures)

	if assert.Len(suite.T(), figures.Data, 1) {
		assert.True(suite.T(), figures.Data[0].Committed.IsZero(), "Committed is %s, expected 0", figures.Data[0].Committed)
	}
}

func (suite *TestSuiteStandard) TestWorkplanReassign() {
	fixture := createWorkflowFixture(suite.T(), "Khartoum", "Gezira")

	workplan := createTestWorkplan(suite.T(), v1.WorkplanEditable{
		StateName: "Khartoum",
		Expenses:  []models.ExpenseLine{{Activity: "Water trucking", TotalCost: decimal.NewFromInt(3000)}},
	})
	_ = assignTestWorkplan(suite.T(), workplan.Data.ID, fixture.allocations["Khartoum"].Data.ID)
	_ = uploadTestApprovalFile(suite.T(), workplan.Data.ID)

	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/workplans/commit", v1.WorkplanCommitRequest{IDs: []uuid.UUID{workplan.Data.ID}})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodPost, "http://example.com/v1/workplans/reassign", v1.WorkplanReassignRequest{
		IDs:             []uuid.UUID{workplan.Data.ID},
		NewAllocationID: fixture.allocations["Gezira"].Data.ID,
		Month:           types.MonthCode("0825"),
		Reason:          "Khartoum access suspended",
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.WorkplanListResponse
	test.DecodeResponse(suite.T(), &r, &response)

	if !assert.Len(suite.T(), response.Data, 1) {
		return
	}

	moved := response.Data[0]
	assert.Equal(suite.T(), "Gezira", moved.StateName)
	assert.Equal(suite.T(), models.FundingCommitted, moved.FundingStatus, "Committed workplans stay committed through a reassignment")
	assert.Equal(suite.T(), "LCC-DKH-GE-0825-0001-001", moved.Identifier)

	// The committed total follows the workplan to the new state
	r = test.Request(suite.T(), http.MethodGet, "http://example.com/v1/dashboard/by-state", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var figures v1.StateFiguresResponse
	test.DecodeResponse(suite.T(), &r, &figures)

	for _, state := range figures.Data {
		switch state.StateName {
		case "Gezira":
			assert.True(suite.T(), state.Committed.Equal(decimal.NewFromInt(3000)), "Committed for Gezira is %s, expected 3000", state.Committed)
		case "Khartoum":
			assert.True(suite.T(), state.Committed.IsZero(), "Committed for Khartoum is %s, expected 0", state.Committed)
		}
	}
}

// TestWorkplanReassignUncommitted verifies that moving an allocated
// workplan marks it reassigned and keeps it out of the committed
// figures.
func (suite *TestSuiteStandard) TestWorkplanReassignUncommitted() {
	fixture := createWorkflowFixture(suite.T(), "Khartoum", "Gezira")

	workplan := createTestWorkplan(suite.T(), v1.WorkplanEditable{
		StateName: "Khartoum",
		Expenses:  []models.ExpenseLine{{Activity: "Water trucking", TotalCost: decimal.NewFromInt(3000)}},
	})
	_ = assignTestWorkplan(suite.T(), workplan.Data.ID, fixture.allocations["Khartoum"].Data.ID)

	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/workplans/reassign", v1.WorkplanReassignRequest{
		IDs:             []uuid.UUID{workplan.Data.ID},
		NewAllocationID: fixture.allocations["Gezira"].Data.ID,
		Month:           types.MonthCode("0825"),
		Reason:          "Khartoum access suspended",
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.WorkplanListResponse
	test.DecodeResponse(suite.T(), &r, &response)

	if !assert.Len(suite.T(), response.Data, 1) {
		return
	}

	assert.Equal(suite.T(), models.FundingReassigned, response.Data[0].FundingStatus)
	assert.Equal(suite.T(), "LCC-DKH-GE-0825-0001-001", response.Data[0].Identifier)

	// It still counts as uncommitted
	r = test.Request(suite.T(), http.MethodGet, "http://example.com/v1/workplans?fundingStatus=uncommitted", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	test.DecodeResponse(suite.T(), &r, &response)
	assert.Len(suite.T(), response.Data, 1)
}

func (suite *TestSuiteStandard) TestWorkplanReassignFails() {
	fixture := createWorkflowFixture(suite.T(), "Khartoum")

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"Empty ID list", v1.WorkplanReassignRequest{NewAllocationID: fixture.allocations["Khartoum"].Data.ID}, http.StatusBadRequest},
		{"Missing allocation", map[string]any{"ids": []string{uuid.New().String()}}, http.StatusBadRequest},
		{"Unknown workplan", v1.WorkplanReassignRequest{IDs: []uuid.UUID{uuid.New()}, NewAllocationID: fixture.allocations["Khartoum"].Data.ID}, http.StatusNotFound},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPost, "http://example.com/v1/workplans/reassign", tt.body)
			test.AssertHTTPStatus(t, &r, tt.status)
		})
	}
}

// TestWorkplanDeleteReleasesNumber verifies that deleting the workplan
// with the highest number on a serial frees the number for reuse.
func (suite *TestSuiteStandard) TestWorkplanDeleteReleasesNumber() {
	fixture := createWorkflowFixture(suite.T(), "Khartoum")

	first := createTestWorkplan(suite.T(), v1.WorkplanEditable{StateName: "Khartoum", Locality: "Jabra"})
	second := createTestWorkplan(suite.T(), v1.WorkplanEditable{StateName: "Khartoum", Locality: "Bahri"})

	_ = assignTestWorkplan(suite.T(), first.Data.ID, fixture.allocations["Khartoum"].Data.ID)
	assigned := assignTestWorkplan(suite.T(), second.Data.ID, fixture.allocations["Khartoum"].Data.ID)
	assert.Equal(suite.T(), uint(2), assigned.Data.WorkplanNumber)

	r := test.Request(suite.T(), http.MethodDelete, second.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)

	// The next assignment reuses the freed number
	third := createTestWorkplan(suite.T(), v1.WorkplanEditable{StateName: "Khartoum", Locality: "Omdurman"})
	assigned = assignTestWorkplan(suite.T(), third.Data.ID, fixture.allocations["Khartoum"].Data.ID)
	assert.Equal(suite.T(), uint(2), assigned.Data.WorkplanNumber)
}

func (suite *TestSuiteStandard) TestWorkplanReconcile() {
	fixture := createWorkflowFixture(suite.T(), "Khartoum")

	workplan := createTestWorkplan(suite.T(), v1.WorkplanEditable{
		StateName: "Khartoum",
		Expenses:  []models.ExpenseLine{{Activity: "Water trucking", TotalCost: decimal.NewFromInt(3000)}},
	})
	_ = assignTestWorkplan(suite.T(), workplan.Data.ID, fixture.allocations["Khartoum"].Data.ID)
	_ = uploadTestApprovalFile(suite.T(), workplan.Data.ID)

	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/workplans/commit", v1.WorkplanCommitRequest{IDs: []uuid.UUID{workplan.Data.ID}})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	// A consistent workplan passes
	r = test.Request(suite.T(), http.MethodPost, fmt.Sprintf("http://example.com/v1/workplans/%s/reconcile", workplan.Data.ID), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)

	r = test.Request(suite.T(), http.MethodGet, workplan.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var current v1.WorkplanResponse
	test.DecodeResponse(suite.T(), &r, &current)
	assert.False(suite.T(), current.Data.Flagged)
}
