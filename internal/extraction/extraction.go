// Package extraction validates the structured output of the external
// document extraction service. Documents arrive as already-extracted
// JSON in a per-form schema, no file parsing happens here.
//
// Validation is strict at the boundary: a record missing a required
// field is rejected as a whole, nothing is defaulted or saved halfway.
package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lcc-aid/fsystem-backend/internal/models"
	"github.com/lcc-aid/fsystem-backend/internal/types"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

var (
	ErrUnknownFormType = errors.New("the form type is not supported, must be one of F1, F4, F5")
	ErrInvalidDocument = errors.New("the extracted document is invalid")
)

// FormType identifies which paper form a document was extracted from.
type FormType string

const (
	FormF1 FormType = "F1" // funding request (workplan)
	FormF4 FormType = "F4" // financial report
	FormF5 FormType = "F5" // final narrative report
)

// ExpenseItem is one extracted budget line.
type ExpenseItem struct {
	Activity  string          `json:"activity"`
	TotalCost decimal.Decimal `json:"totalCost"`
	Tags      []string        `json:"tags,omitempty"`
}

// F1Document is an extracted funding request.
type F1Document struct {
	StateName string        `json:"stateName"`
	Locality  string        `json:"locality"`
	RoomName  string        `json:"roomName"`
	Month     string        `json:"month"`
	Expenses  []ExpenseItem `json:"expenses"`
}

// F4Document is an extracted financial report against a committed
// workplan.
type F4Document struct {
	WorkplanIdentifier string        `json:"workplanIdentifier"`
	Period             string        `json:"period"`
	SpentLines         []ExpenseItem `json:"spentLines"`
}

// F5Document is an extracted final report.
type F5Document struct {
	WorkplanIdentifier string `json:"workplanIdentifier"`
	Summary            string `json:"summary"`
	Beneficiaries      int    `json:"beneficiaries"`
}

func invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidDocument, field, reason)
}

func validateExpenses(field string, expenses []ExpenseItem) error {
	if len(expenses) == 0 {
		return invalid(field, "must contain at least one line")
	}

	for i, line := range expenses {
		if strings.TrimSpace(line.Activity) == "" {
			return invalid(fmt.Sprintf("%s[%d].activity", field, i), "is required")
		}

		if !line.TotalCost.IsPositive() {
			return invalid(fmt.Sprintf("%s[%d].totalCost", field, i), "must be positive")
		}
	}

	return nil
}

func (d F1Document) Validate() error {
	if strings.TrimSpace(d.StateName) == "" {
		return invalid("stateName", "is required")
	}

	if strings.TrimSpace(d.Locality) == "" {
		return invalid("locality", "is required")
	}

	if d.Month != "" && !types.MonthCode(d.Month).Valid() {
		return invalid("month", "must be a four digit MMYY code")
	}

	return validateExpenses("expenses", d.Expenses)
}

func (d F4Document) Validate() error {
	if strings.TrimSpace(d.WorkplanIdentifier) == "" {
		return invalid("workplanIdentifier", "is required")
	}

	return validateExpenses("spentLines", d.SpentLines)
}

func (d F5Document) Validate() error {
	if strings.TrimSpace(d.WorkplanIdentifier) == "" {
		return invalid("workplanIdentifier", "is required")
	}

	if strings.TrimSpace(d.Summary) == "" {
		return invalid("summary", "is required")
	}

	if d.Beneficiaries < 0 {
		return invalid("beneficiaries", "must not be negative")
	}

	return nil
}

// ParseF1 decodes and validates an extracted F1 document.
func ParseF1(data []byte) (F1Document, error) {
	var document F1Document
	err := decodeStrict(data, &document)
	if err != nil {
		return F1Document{}, err
	}

	return document, document.Validate()
}

// ParseF4 decodes and validates an extracted F4 document.
func ParseF4(data []byte) (F4Document, error) {
	var document F4Document
	err := decodeStrict(data, &document)
	if err != nil {
		return F4Document{}, err
	}

	return document, document.Validate()
}

// ParseF5 decodes and validates an extracted F5 document.
func ParseF5(data []byte) (F5Document, error) {
	var document F5Document
	err := decodeStrict(data, &document)
	if err != nil {
		return F5Document{}, err
	}

	return document, document.Validate()
}

// decodeStrict rejects unknown fields so schema drift in the extraction
// service surfaces as an error instead of silently dropped data.
func decodeStrict(data []byte, target any) error {
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()

	err := decoder.Decode(target)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDocument, err)
	}

	return nil
}

// Workplan maps a validated F1 document to a draft workplan. The
// extracted room name is kept in the locality when both are present.
func (d F1Document) Workplan() models.Workplan {
	locality := d.Locality
	if d.RoomName != "" {
		locality = fmt.Sprintf("%s (%s)", d.Locality, d.RoomName)
	}

	expenses := make([]models.ExpenseLine, 0, len(d.Expenses))
	for _, line := range d.Expenses {
		expenses = append(expenses, models.ExpenseLine{
			Activity:  line.Activity,
			TotalCost: line.TotalCost,
			Tags:      line.Tags,
		})
	}

	return models.Workplan{
		StateName: d.StateName,
		Locality:  locality,
		Status:    models.WorkplanDraft,
		Expenses:  datatypes.NewJSONSlice(expenses),
	}
}
