package v1_test

import (
	"fmt"
	"net/http"
	"testing"

	v1 "github.com/lcc-aid/fsystem-backend/internal/controllers/v1"
	"github.com/lcc-aid/fsystem-backend/internal/models"
	"github.com/lcc-aid/fsystem-backend/test"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func createTestWorkplan(t *testing.T, c v1.WorkplanEditable, expectedStatus ...int) v1.WorkplanResponse {
	if len(expectedStatus) == 0 {
		expectedStatus = append(expectedStatus, http.StatusCreated)
	}

	body := []v1.WorkplanEditable{c}

	r := test.Request(t, http.MethodPost, "http://example.com/v1/workplans", body)
	test.AssertHTTPStatus(t, &r, expectedStatus...)

	var response v1.WorkplanCreateResponse
	test.DecodeResponse(t, &r, &response)

	if r.Code == http.StatusCreated {
		return response.Data[0]
	}

	return v1.WorkplanResponse{}
}

func (suite *TestSuiteStandard) TestWorkplansCreate() {
	w := createTestWorkplan(suite.T(), v1.WorkplanEditable{
		StateName: "Khartoum",
		Locality:  "Jabra (Jabra ERR)",
		Expenses: []models.ExpenseLine{
			{Activity: "Water trucking", TotalCost: decimal.NewFromInt(3000)},
			{Activity: "Soup kitchen", TotalCost: decimal.NewFromFloat(1999.50)},
		},
	})

	assert.Equal(suite.T(), models.WorkplanNew, w.Data.Status, "Review status must default to new")
	assert.Equal(suite.T(), models.FundingUnassigned, w.Data.FundingStatus)
	assert.True(suite.T(), w.Data.RequestedAmount.Equal(decimal.NewFromFloat(4999.50)), "Requested amount must be the expense line sum")
	assert.Empty(suite.T(), w.Data.Identifier, "Workplans have no identifier before a serial is assigned")
}

func (suite *TestSuiteStandard) TestWorkplansCreateInvalidExpenses() {
	tests := []struct {
		name     string
		expenses []models.ExpenseLine
	}{
		{"No activity", []models.ExpenseLine{{TotalCost: decimal.NewFromInt(100)}}},
		{"Zero cost", []models.ExpenseLine{{Activity: "Water trucking"}}},
		{"Negative cost", []models.ExpenseLine{{Activity: "Water trucking", TotalCost: decimal.NewFromInt(-5)}}},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			createTestWorkplan(t, v1.WorkplanEditable{StateName: "Khartoum", Expenses: tt.expenses}, http.StatusBadRequest)
		})
	}
}

func (suite *TestSuiteStandard) TestWorkplansGetFiltered() {
	_ = createTestWorkplan(suite.T(), v1.WorkplanEditable{StateName: "Khartoum", Locality: "Jabra", Status: models.WorkplanApproved})
	_ = createTestWorkplan(suite.T(), v1.WorkplanEditable{StateName: "Khartoum", Locality: "Bahri"})
	_ = createTestWorkplan(suite.T(), v1.WorkplanEditable{StateName: "Gezira", Locality: "Wad Madani"})

	tests := []struct {
		name  string
		query string
		count int
	}{
		{"By state", "state=Khartoum", 2},
		{"By locality", "locality=Jabra", 1},
		{"By status", "status=approved", 1},
		{"Uncommitted", "fundingStatus=uncommitted", 3},
		{"Committed", "fundingStatus=committed", 0},
		{"Flagged", "flagged=true", 0},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodGet, fmt.Sprintf("http://example.com/v1/workplans?%s", tt.query), "")
			test.AssertHTTPStatus(t, &r, http.StatusOK)

			var response v1.WorkplanListResponse
			test.DecodeResponse(t, &r, &response)
			assert.Len(t, response.Data, tt.count)
		})
	}
}

func (suite *TestSuiteStandard) TestWorkplansUpdate() {
	w := createTestWorkplan(suite.T(), v1.WorkplanEditable{StateName: "Khartoum", Locality: "Jabra"})

	r := test.Request(suite.T(), http.MethodPatch, w.Data.Links.Self, map[string]any{
		"status": "approved",
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var updated v1.WorkplanResponse
	test.DecodeResponse(suite.T(), &r, &updated)

	assert.Equal(suite.T(), models.WorkplanApproved, updated.Data.Status)
	assert.Equal(suite.T(), "Jabra", updated.Data.Locality, "Fields not in the PATCH body must not change")
}

func (suite *TestSuiteStandard) TestWorkplansDelete() {
	w := createTestWorkplan(suite.T(), v1.WorkplanEditable{StateName: "Khartoum"})

	r := test.Request(suite.T(), http.MethodDelete, w.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)

	r = test.Request(suite.T(), http.MethodGet, w.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
}

func (suite *TestSuiteStandard) TestWorkplansDeleteFails() {
	tests := []struct {
		name   string
		id     string
		status int
	}{
		{"No workplan with this ID", uuid.New().String(), http.StatusNotFound},
		{"Invalid ID", "not-a-uuid", http.StatusBadRequest},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodDelete, fmt.Sprintf("http://example.com/v1/workplans/%s", tt.id), "")
			test.AssertHTTPStatus(t, &r, tt.status)
		})
	}
}
