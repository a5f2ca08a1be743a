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

func createTestGrantCall(t *testing.T, c v1.GrantCallEditable, expectedStatus ...int) v1.GrantCallResponse {
	if len(expectedStatus) == 0 {
		expectedStatus = append(expectedStatus, http.StatusCreated)
	}

	// Grant calls need a donor
	if c.DonorID == uuid.Nil {
		c.DonorID = createTestDonor(t, v1.DonorEditable{Name: "Donor for " + t.Name(), ShortCode: "DKH"}).Data.ID
	}

	body := []v1.GrantCallEditable{c}

	r := test.Request(t, http.MethodPost, "http://example.com/v1/grant-calls", body)
	test.AssertHTTPStatus(t, &r, expectedStatus...)

	var response v1.GrantCallCreateResponse
	test.DecodeResponse(t, &r, &response)

	if r.Code == http.StatusCreated {
		return response.Data[0]
	}

	return v1.GrantCallResponse{}
}

func (suite *TestSuiteStandard) TestGrantCallsCreate() {
	g := createTestGrantCall(suite.T(), v1.GrantCallEditable{
		Name:        "Emergency Response Rooms 2025",
		Shortname:   "ERR-2025",
		TotalAmount: decimal.NewFromInt(1000000),
	})

	assert.Equal(suite.T(), models.GrantCallOpen, g.Data.Status, "Grant calls must default to open")
	assert.True(suite.T(), g.Data.TotalAmount.Equal(decimal.NewFromInt(1000000)))
}

func (suite *TestSuiteStandard) TestGrantCallsGetFiltered() {
	donor := createTestDonor(suite.T(), v1.DonorEditable{Name: "Filter donor", ShortCode: "FD"})

	_ = createTestGrantCall(suite.T(), v1.GrantCallEditable{Name: "First call", DonorID: donor.Data.ID})
	_ = createTestGrantCall(suite.T(), v1.GrantCallEditable{Name: "Second call", DonorID: donor.Data.ID, Status: models.GrantCallClosed})
	_ = createTestGrantCall(suite.T(), v1.GrantCallEditable{Name: "Unrelated"})

	tests := []struct {
		name  string
		query string
		count int
	}{
		{"By donor", fmt.Sprintf("donor=%s", donor.Data.ID), 2},
		{"By status", "status=closed", 1},
		{"By name", "name=call", 2},
		{"No match", "name=nothing-here", 0},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodGet, fmt.Sprintf("http://example.com/v1/grant-calls?%s", tt.query), "")
			test.AssertHTTPStatus(t, &r, http.StatusOK)

			var response v1.GrantCallListResponse
			test.DecodeResponse(t, &r, &response)
			assert.Len(t, response.Data, tt.count)
		})
	}
}

func (suite *TestSuiteStandard) TestGrantCallsInvalidDonorFilter() {
	r := test.Request(suite.T(), http.MethodGet, "http://example.com/v1/grant-calls?donor=not-a-uuid", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestGrantCallsUpdateStatus() {
	g := createTestGrantCall(suite.T(), v1.GrantCallEditable{Name: "Status update"})

	r := test.Request(suite.T(), http.MethodPatch, g.Data.Links.Self, map[string]any{"status": "closed"})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var updated v1.GrantCallResponse
	test.DecodeResponse(suite.T(), &r, &updated)
	assert.Equal(suite.T(), models.GrantCallClosed, updated.Data.Status)
}

func (suite *TestSuiteStandard) TestGrantCallsDelete() {
	g := createTestGrantCall(suite.T(), v1.GrantCallEditable{Name: "Delete me"})

	r := test.Request(suite.T(), http.MethodDelete, g.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)

	r = test.Request(suite.T(), http.MethodGet, g.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
}
