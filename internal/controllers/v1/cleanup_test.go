package v1_test

import (
	"net/http"
	"testing"

	v1 "github.com/lcc-aid/fsystem-backend/internal/controllers/v1"
	"github.com/lcc-aid/fsystem-backend/internal/models"
	"github.com/lcc-aid/fsystem-backend/test"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestCleanup() {
	fixture := createWorkflowFixture(suite.T(), "Khartoum")
	_ = createTestFundingCycle(suite.T(), v1.FundingCycleEditable{Name: "Cycle 5", ShortCode: "C5", Year: 2025})
	_ = createTestMou(suite.T(), v1.MouEditable{Code: "MOU-2025-014", PartnerName: "Jabra ERR"})
	grantCallID := fixture.grantCall.Data.ID
	_ = createTestGrantSerial(suite.T(), v1.GrantSerialEditable{GrantCallID: &grantCallID, StateName: "Khartoum", Month: "0925"})

	workplan := createTestWorkplan(suite.T(), v1.WorkplanEditable{
		StateName: "Khartoum",
		Expenses:  []models.ExpenseLine{{Activity: "Water trucking", TotalCost: decimal.NewFromInt(3000)}},
	})
	commitTestWorkplan(suite.T(), workplan, fixture.allocations["Khartoum"].Data.ID)

	// The cleanup does not get in the way of itself
	r := test.Request(suite.T(), http.MethodDelete, "http://example.com/v1?confirm=yes-please-delete-everything", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)

	// Verify that all resources are deleted
	for _, url := range []string{
		"http://example.com/v1/donors",
		"http://example.com/v1/states",
		"http://example.com/v1/grant-calls",
		"http://example.com/v1/funding-cycles",
		"http://example.com/v1/allocations",
		"http://example.com/v1/mous",
		"http://example.com/v1/grant-serials",
		"http://example.com/v1/workplans",
		"http://example.com/v1/donor-rules",
	} {
		suite.T().Run(url, func(t *testing.T) {
			r := test.Request(t, http.MethodGet, url, "")
			test.AssertHTTPStatus(t, &r, http.StatusOK)

			var response struct {
				Data []any `json:"data"`
			}
			test.DecodeResponse(t, &r, &response)
			assert.Len(t, response.Data, 0, "There are resources left for type %s", url)
		})
	}
}

func (suite *TestSuiteStandard) TestCleanupFails() {
	tests := []struct {
		name    string
		confirm string
	}{
		{"No confirmation", ""},
		{"Wrong confirmation", "yes-please-delete-expenses"},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodDelete, "http://example.com/v1?confirm="+tt.confirm, "")
			test.AssertHTTPStatus(t, &r, http.StatusBadRequest)
		})
	}
}

func (suite *TestSuiteStandard) TestCleanupDBError() {
	suite.CloseDB()

	r := test.Request(suite.T(), http.MethodDelete, "http://example.com/v1?confirm=yes-please-delete-everything", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusInternalServerError)
}
