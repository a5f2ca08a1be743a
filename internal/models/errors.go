package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrGeneral          = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound = errors.New("there is no")
)

// Reference data errors
var (
	ErrDonorNameNotUnique = errors.New("the donor name must be unique")
	ErrStateNameNotUnique = errors.New("the state name must be unique")
	ErrReferenceInvalid   = errors.New("there is no resource for the ID you specified in the reference to another resource")
)

// Allocation hierarchy errors
var (
	ErrAllocationRootInvalid = errors.New("a state allocation must reference exactly one of a grant call and a funding cycle")
	ErrAllocationImmutable   = errors.New("state allocations are append-only, issue a new decision instead of editing")
	ErrGrantCallImmutable    = errors.New("only the status of a grant call can change once allocations exist")
)

// Serial and sequence errors. ErrSerialConflict is returned when a
// concurrent request created the same serial or sequence number first,
// callers should retry with a fresh read.
var (
	ErrSerialConflict          = errors.New("a concurrent request created this grant serial first, please retry")
	ErrWorkplanNumberConflict  = errors.New("a concurrent request took this workplan number first, please retry")
	ErrSerialScopeInvalid      = errors.New("a grant serial needs exactly one of a grant call and a funding cycle, a state and a month code")
	ErrDonorShortCodeMissing   = errors.New("the donor for this grant call has no short code configured")
	ErrStateShortCodeMissing   = errors.New("this state has no short code configured")
	ErrWorkplanAlreadyAssigned = errors.New("this workplan already has a serial assignment, use reassignment to change it")
)

// Workplan and ledger errors
var (
	ErrExpensesInvalid          = errors.New("every expense line needs an activity and a total cost larger than zero")
	ErrLedgerDeltaZero          = errors.New("a ledger entry must have a non-zero delta")
	ErrLedgerAmountNotPositive  = errors.New("commitment and reassignment amounts must be larger than zero")
	ErrWorkplanFlagged          = errors.New("this workplan is flagged for manual review, ledger writes are halted")
	ErrWorkplanNotCommitted     = errors.New("this workplan is not committed")
	ErrWorkplanNotInMou         = errors.New("this workplan is not part of an MOU")
	ErrLedgerInconsistent       = errors.New("the ledger sum for this workplan does not match its expected commitment")
	ErrCommitPreconditionFailed = errors.New("one or more workplans do not meet the commit preconditions")
)

// PreconditionError is returned by CommitWorkplans when any member of
// the batch fails a precondition. It names every offending workplan so
// that the caller never has to reconcile a partial success.
type PreconditionError struct {
	MissingApprovalFile []uuid.UUID `json:"missingApprovalFileIds"`
	MissingAllocation   []uuid.UUID `json:"missingAllocationIds"`
	AlreadyCommitted    []uuid.UUID `json:"alreadyCommittedIds"`
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %d without approval file, %d without allocation, %d already committed",
		ErrCommitPreconditionFailed, len(e.MissingApprovalFile), len(e.MissingAllocation), len(e.AlreadyCommitted))
}

// Is makes errors.Is(err, ErrCommitPreconditionFailed) work for
// PreconditionError values.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrCommitPreconditionFailed
}

// ConsistencyError reports a workplan whose ledger rows do not sum to
// the expected live amount. The workplan is flagged and further ledger
// writes against it are refused until it is reviewed manually.
type ConsistencyError struct {
	WorkplanID uuid.UUID
	LedgerSum  string
	Expected   string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: workplan %s has ledger sum %s, expected %s",
		ErrLedgerInconsistent, e.WorkplanID, e.LedgerSum, e.Expected)
}

func (e *ConsistencyError) Is(target error) bool {
	return target == ErrLedgerInconsistent
}
