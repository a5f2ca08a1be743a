package v1_test

import (
	"encoding/json"
	"net/http"
	"testing"

	v1 "github.com/lcc-aid/fsystem-backend/internal/controllers/v1"
	"github.com/lcc-aid/fsystem-backend/internal/models"
	"github.com/lcc-aid/fsystem-backend/test"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const forecastCSV = `Donor,State,Month,Amount
DKH Emergency Fund,Khartoum,0825,15000
Unknown Donor,Gezira,0925,2750.50
`

// createForecastFixture creates a donor and a rule matching the "DKH
// Emergency Fund" rows of forecastCSV.
func createForecastFixture(t *testing.T) v1.DonorResponse {
	donor := createTestDonor(t, v1.DonorEditable{Name: "Deutsche Katastrophenhilfe", ShortCode: "DKH"})
	_ = createTestDonorRule(t, v1.DonorRuleEditable{Priority: 1, Match: "DKH*", DonorID: donor.Data.ID})

	return donor
}

func (suite *TestSuiteStandard) TestImportForecastPreview() {
	donor := createForecastFixture(suite.T())

	body, headers := test.FileUpload(suite.T(), "forecast.csv", []byte(forecastCSV))
	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/import/forecast", body, headers)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.ForecastImportResponse
	test.DecodeResponse(suite.T(), &r, &response)

	require.Len(suite.T(), response.Data, 2)
	assert.Equal(suite.T(), 0, response.Saved)

	matched := response.Data[0]
	assert.True(suite.T(), matched.DonorMatched)
	require.NotNil(suite.T(), matched.Record.DonorID)
	assert.Equal(suite.T(), donor.Data.ID, *matched.Record.DonorID)
	assert.Equal(suite.T(), "Khartoum", matched.Record.StateName)
	assert.True(suite.T(), matched.Record.Amount.Equal(decimal.NewFromInt(15000)))
	assert.Empty(suite.T(), matched.DuplicateIDs)

	unmatched := response.Data[1]
	assert.False(suite.T(), unmatched.DonorMatched)
	assert.Nil(suite.T(), unmatched.Record.DonorID)
	assert.Equal(suite.T(), "Unknown Donor", unmatched.Record.DonorName, "The raw name is kept for manual review")

	// A preview does not save anything, so a second preview still sees
	// no duplicates
	body, headers = test.FileUpload(suite.T(), "forecast.csv", []byte(forecastCSV))
	r = test.Request(suite.T(), http.MethodPost, "http://example.com/v1/import/forecast", body, headers)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	test.DecodeResponse(suite.T(), &r, &response)
	for _, preview := range response.Data {
		assert.Empty(suite.T(), preview.DuplicateIDs)
	}
}

func (suite *TestSuiteStandard) TestImportForecastFinalize() {
	_ = createForecastFixture(suite.T())

	body, headers := test.FileUpload(suite.T(), "forecast.csv", []byte(forecastCSV))
	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/import/forecast?finalize=true", body, headers)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusCreated)

	var response v1.ForecastImportResponse
	test.DecodeResponse(suite.T(), &r, &response)
	assert.Equal(suite.T(), 2, response.Saved)

	// Importing the same file again marks every row as a duplicate and
	// saves nothing
	body, headers = test.FileUpload(suite.T(), "forecast.csv", []byte(forecastCSV))
	r = test.Request(suite.T(), http.MethodPost, "http://example.com/v1/import/forecast?finalize=true", body, headers)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusCreated)

	test.DecodeResponse(suite.T(), &r, &response)
	assert.Equal(suite.T(), 0, response.Saved)

	for _, preview := range response.Data {
		assert.NotEmpty(suite.T(), preview.DuplicateIDs)
	}
}

func (suite *TestSuiteStandard) TestImportForecastFails() {
	tests := []struct {
		name     string
		fileName string
		content  string
	}{
		{"Wrong file suffix", "forecast.xlsx", forecastCSV},
		{"Invalid month", "forecast.csv", "Donor,State,Month,Amount\nDKH,Khartoum,1325,100\n"},
		{"Negative amount", "forecast.csv", "Donor,State,Month,Amount\nDKH,Khartoum,0825,-100\n"},
		{"Missing donor", "forecast.csv", "Donor,State,Month,Amount\n,Khartoum,0825,100\n"},
		{"Missing state", "forecast.csv", "Donor,State,Month,Amount\nDKH,,0825,100\n"},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			body, headers := test.FileUpload(t, tt.fileName, []byte(tt.content))

			r := test.Request(t, http.MethodPost, "http://example.com/v1/import/forecast", body, headers)
			test.AssertHTTPStatus(t, &r, http.StatusBadRequest)
		})
	}

	suite.T().Run("No file", func(t *testing.T) {
		r := test.Request(t, http.MethodPost, "http://example.com/v1/import/forecast", "")
		test.AssertHTTPStatus(t, &r, http.StatusBadRequest)
	})
}

func (suite *TestSuiteStandard) TestImportExtractionF1() {
	request := v1.ExtractionRequest{
		FormType: "F1",
		Document: json.RawMessage(`{
			"stateName": "Khartoum",
			"locality": "Jabra",
			"roomName": "Jabra ERR",
			"month": "0825",
			"expenses": [
				{"activity": "Water trucking", "totalCost": "3000"},
				{"activity": "Communal kitchen", "totalCost": "1999.50", "tags": ["food"]}
			]
		}`),
	}

	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/import/extraction", request)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusCreated)

	var response v1.ExtractionResponse
	test.DecodeResponse(suite.T(), &r, &response)

	require.NotNil(suite.T(), response.Workplan)
	assert.Equal(suite.T(), "Khartoum", response.Workplan.StateName)
	assert.Equal(suite.T(), "Jabra (Jabra ERR)", response.Workplan.Locality, "The room name is kept in the locality")
	assert.Equal(suite.T(), models.WorkplanDraft, response.Workplan.Status)

	// The draft is available for review in the regular workplan list
	list := test.Request(suite.T(), http.MethodGet, "http://example.com/v1/workplans?status=draft", "")
	test.AssertHTTPStatus(suite.T(), &list, http.StatusOK)

	var workplans v1.WorkplanListResponse
	test.DecodeResponse(suite.T(), &list, &workplans)
	assert.Len(suite.T(), workplans.Data, 1)
}

func (suite *TestSuiteStandard) TestImportExtractionF4() {
	request := v1.ExtractionRequest{
		FormType: "F4",
		Document: json.RawMessage(`{
			"workplanIdentifier": "LCC-DKH-KH-0825-0001-001",
			"period": "August 2025",
			"spentLines": [{"activity": "Water trucking", "totalCost": "2800"}]
		}`),
	}

	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/import/extraction", request)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.ExtractionResponse
	test.DecodeResponse(suite.T(), &r, &response)

	// F4 documents do not touch stored data
	assert.Nil(suite.T(), response.Workplan)
	assert.NotNil(suite.T(), response.Document)
}

func (suite *TestSuiteStandard) TestImportExtractionF5() {
	request := v1.ExtractionRequest{
		FormType: "F5",
		Document: json.RawMessage(`{
			"workplanIdentifier": "LCC-DKH-KH-0825-0001-001",
			"summary": "Water trucking completed for all shelters",
			"beneficiaries": 1250
		}`),
	}

	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/import/extraction", request)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.ExtractionResponse
	test.DecodeResponse(suite.T(), &r, &response)
	assert.Nil(suite.T(), response.Workplan)
}

func (suite *TestSuiteStandard) TestImportExtractionFails() {
	tests := []struct {
		name string
		body any
	}{
		{"Unknown form type", v1.ExtractionRequest{FormType: "F9", Document: json.RawMessage(`{}`)}},
		{"Missing form type", map[string]any{"document": map[string]any{}}},
		{"Broken JSON", `{ "formType": `},
		{"F1 without locality", v1.ExtractionRequest{FormType: "F1", Document: json.RawMessage(`{"stateName": "Khartoum", "expenses": [{"activity": "Water trucking", "totalCost": "100"}]}`)}},
		{"F1 without expenses", v1.ExtractionRequest{FormType: "F1", Document: json.RawMessage(`{"stateName": "Khartoum", "locality": "Jabra", "expenses": []}`)}},
		{"F1 with unknown field", v1.ExtractionRequest{FormType: "F1", Document: json.RawMessage(`{"stateName": "Khartoum", "locality": "Jabra", "surprise": true, "expenses": [{"activity": "Water trucking", "totalCost": "100"}]}`)}},
		{"F4 without identifier", v1.ExtractionRequest{FormType: "F4", Document: json.RawMessage(`{"period": "August 2025", "spentLines": [{"activity": "Water trucking", "totalCost": "100"}]}`)}},
		{"F5 with negative beneficiaries", v1.ExtractionRequest{FormType: "F5", Document: json.RawMessage(`{"workplanIdentifier": "LCC-DKH-KH-0825-0001-001", "summary": "done", "beneficiaries": -1}`)}},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPost, "http://example.com/v1/import/extraction", tt.body)
			test.AssertHTTPStatus(t, &r, http.StatusBadRequest)
		})
	}
}
