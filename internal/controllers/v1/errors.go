package v1

import (
	"errors"
	"net/http"

	"github.com/lcc-aid/fsystem-backend/internal/models"
)

type httpError struct {
	Error string `json:"error" example:"there is no donor matching your query"`
}

// status returns the appropriate HTTP status for an error.
//
// Conflicts from concurrent serial or number generation map to 409 so
// callers know to retry with fresh data. A detected ledger
// inconsistency is a server fault, not a caller mistake.
func status(err error) int {
	if errors.Is(err, models.ErrGeneral) || errors.Is(err, models.ErrLedgerInconsistent) {
		return http.StatusInternalServerError
	}

	if errors.Is(err, models.ErrResourceNotFound) {
		return http.StatusNotFound
	}

	if errors.Is(err, models.ErrSerialConflict) || errors.Is(err, models.ErrWorkplanNumberConflict) {
		return http.StatusConflict
	}

	return http.StatusBadRequest
}

// Cleanup errors
var errCleanupConfirmation = errors.New("the confirmation for the cleanup API call was incorrect")

// Import errors
var (
	errNoFilePost      = errors.New("you must send a file to this endpoint")
	errWrongFileSuffix = errors.New("this endpoint only supports files of the following types")
)

// Dashboard errors
var errAllocationIDParameter = errors.New("the allocationId parameter must be set")

// Allocation errors
var errAllocationHasLedgerEntries = errors.New("allocations with ledger entries cannot be deleted")

// Workplan errors
var (
	errNoWorkplanIDs        = errors.New("the ids field must contain at least one workplan ID")
	errMonthParameterNotSet = errors.New("the month field must be set to a MMYY code")
)
