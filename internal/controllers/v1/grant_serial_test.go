package v1_test

import (
	"net/http"
	"testing"

	v1 "github.com/lcc-aid/fsystem-backend/internal/controllers/v1"
	"github.com/lcc-aid/fsystem-backend/internal/types"
	"github.com/lcc-aid/fsystem-backend/test"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func createTestGrantSerial(t *testing.T, c v1.GrantSerialEditable, expectedStatus ...int) v1.GrantSerialResponse {
	if len(expectedStatus) == 0 {
		expectedStatus = append(expectedStatus, http.StatusOK)
	}

	r := test.Request(t, http.MethodPost, "http://example.com/v1/grant-serials", c)
	test.AssertHTTPStatus(t, &r, expectedStatus...)

	var response v1.GrantSerialResponse
	test.DecodeResponse(t, &r, &response)

	return response
}

func (suite *TestSuiteStandard) TestGrantSerialsCreate() {
	grantCall := createTestGrantCall(suite.T(), v1.GrantCallEditable{Name: "Serial source", TotalAmount: decimal.NewFromInt(100000)})
	_ = createTestState(suite.T(), v1.StateEditable{Name: "Khartoum", ShortCode: "KH"})

	grantCallID := grantCall.Data.ID
	serial := createTestGrantSerial(suite.T(), v1.GrantSerialEditable{
		GrantCallID: &grantCallID,
		StateName:   "Khartoum",
		Month:       types.MonthCode("0825"),
	})

	assert.Equal(suite.T(), "LCC-DKH-KH-0825-0001", serial.Data.Code)
	assert.Equal(suite.T(), uint(1), serial.Data.SerialSeq)
}

// TestGrantSerialsIdempotent verifies that repeating the POST with the
// same scope returns the same serial instead of creating a second one.
func (suite *TestSuiteStandard) TestGrantSerialsIdempotent() {
	grantCall := createTestGrantCall(suite.T(), v1.GrantCallEditable{Name: "Idempotency"})
	_ = createTestState(suite.T(), v1.StateEditable{Name: "Khartoum", ShortCode: "KH"})

	grantCallID := grantCall.Data.ID
	scope := v1.GrantSerialEditable{
		GrantCallID: &grantCallID,
		StateName:   "Khartoum",
		Month:       types.MonthCode("0825"),
	}

	first := createTestGrantSerial(suite.T(), scope)
	second := createTestGrantSerial(suite.T(), scope)

	assert.Equal(suite.T(), first.Data.ID, second.Data.ID)
	assert.Equal(suite.T(), first.Data.Code, second.Data.Code)

	// A different month within the same scope starts its own sequence
	scope.Month = types.MonthCode("0925")
	third := createTestGrantSerial(suite.T(), scope)
	assert.Equal(suite.T(), "LCC-DKH-KH-0925-0001", third.Data.Code)
}

func (suite *TestSuiteStandard) TestGrantSerialsInvalidScope() {
	tests := []struct {
		name     string
		editable v1.GrantSerialEditable
	}{
		{"Empty scope", v1.GrantSerialEditable{}},
		{"No month", v1.GrantSerialEditable{StateName: "Khartoum"}},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPost, "http://example.com/v1/grant-serials", tt.editable)
			test.AssertHTTPStatus(t, &r, http.StatusBadRequest)
		})
	}
}

func (suite *TestSuiteStandard) TestGrantSerialsGet() {
	grantCall := createTestGrantCall(suite.T(), v1.GrantCallEditable{Name: "Serial list"})
	_ = createTestState(suite.T(), v1.StateEditable{Name: "Khartoum", ShortCode: "KH"})
	_ = createTestState(suite.T(), v1.StateEditable{Name: "Gezira", ShortCode: "GZ"})

	grantCallID := grantCall.Data.ID
	_ = createTestGrantSerial(suite.T(), v1.GrantSerialEditable{GrantCallID: &grantCallID, StateName: "Khartoum", Month: types.MonthCode("0825")})
	_ = createTestGrantSerial(suite.T(), v1.GrantSerialEditable{GrantCallID: &grantCallID, StateName: "Gezira", Month: types.MonthCode("0825")})

	r := test.Request(suite.T(), http.MethodGet, "http://example.com/v1/grant-serials?state=Khartoum", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.GrantSerialListResponse
	test.DecodeResponse(suite.T(), &r, &response)

	if assert.Len(suite.T(), response.Data, 1) {
		assert.Equal(suite.T(), "Khartoum", response.Data[0].StateName)
	}
}

// TestGrantSerialsNoDelete verifies that serials cannot be deleted,
// workplan numbers hang off them.
func (suite *TestSuiteStandard) TestGrantSerialsNoDelete() {
	grantCall := createTestGrantCall(suite.T(), v1.GrantCallEditable{Name: "No delete"})
	_ = createTestState(suite.T(), v1.StateEditable{Name: "Khartoum", ShortCode: "KH"})

	grantCallID := grantCall.Data.ID
	serial := createTestGrantSerial(suite.T(), v1.GrantSerialEditable{GrantCallID: &grantCallID, StateName: "Khartoum", Month: types.MonthCode("0825")})

	r := test.Request(suite.T(), http.MethodDelete, serial.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusMethodNotAllowed)
}
