package v1

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lcc-aid/fsystem-backend/internal/httputil"
	"github.com/lcc-aid/fsystem-backend/internal/models"
	"github.com/lcc-aid/fsystem-backend/internal/storage"
	"github.com/lcc-aid/fsystem-backend/internal/types"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WorkplanAssignRequest is the body for assigning a workplan to a
// state allocation.
type WorkplanAssignRequest struct {
	AllocationID uuid.UUID       `json:"allocationId" binding:"required" example:"af892e10-7e0a-4fb8-b1bc-4f6a4e1d151c"` // ID of the state allocation to fund the workplan from
	Month        types.MonthCode `json:"month" example:"0825"`                                                          // Month code for the grant serial. Defaults to the current month
}

// WorkplanCommitRequest is the body for committing a batch of
// workplans.
type WorkplanCommitRequest struct {
	IDs []uuid.UUID `json:"ids" example:"055ff1a1-b68a-4d10-8d2d-1e8a16ea8bd4"` // IDs of the workplans to commit
}

// WorkplanCommitResponse reports the outcome of a commit. When any
// precondition fails, the offending workplan IDs are listed and
// nothing is committed.
type WorkplanCommitResponse struct {
	CommittedCount      int         `json:"committedCount" example:"3"`      // Number of workplans committed
	Error               *string     `json:"error"`                           // The error, if any occurred
	MissingApprovalIDs  []uuid.UUID `json:"missingApprovalIds,omitempty"`    // Workplans without an uploaded approval file
	MissingAllocationIDs []uuid.UUID `json:"missingAllocationIds,omitempty"` // Workplans without an assigned allocation
	AlreadyCommittedIDs []uuid.UUID `json:"alreadyCommittedIds,omitempty"`   // Workplans that are already committed
}

// WorkplanReassignRequest is the body for moving a batch of workplans
// to another state allocation.
type WorkplanReassignRequest struct {
	IDs             []uuid.UUID     `json:"ids" example:"055ff1a1-b68a-4d10-8d2d-1e8a16ea8bd4"`                               // IDs of the workplans to move
	NewAllocationID uuid.UUID       `json:"newAllocationId" binding:"required" example:"af892e10-7e0a-4fb8-b1bc-4f6a4e1d151c"` // ID of the allocation to move the workplans to
	Month           types.MonthCode `json:"month" example:"0825"`                                                             // Month code for the new grant serial. Defaults to the current month
	Reason          string          `json:"reason" example:"Khartoum access suspended"`                                       // Reason recorded on the ledger rows
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Workplans
// @Success		204
// @Router			/v1/workplans/commit [options]
func OptionsWorkplanCommit(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Workplans
// @Success		204
// @Router			/v1/workplans/reassign [options]
func OptionsWorkplanReassign(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Assign allocation
// @Description	Assigns a workplan to a state allocation. This resolves the grant serial for the allocation's scope and month, takes the next workplan number and moves the workplan to the allocated funding status.
// @Tags			Workplans
// @Accept			json
// @Produce		json
// @Success		200			{object}	WorkplanResponse
// @Failure		400			{object}	WorkplanResponse
// @Failure		404			{object}	WorkplanResponse
// @Failure		409			{object}	WorkplanResponse
// @Failure		500			{object}	WorkplanResponse
// @Param			id			path		URIID					true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			assignment	body		WorkplanAssignRequest	true	"Assignment"
// @Router			/v1/workplans/{id}/assign [post]
func AssignWorkplanAllocation(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkplanResponse{
			Error: &s,
		})
		return
	}

	var request WorkplanAssignRequest
	err = httputil.BindData(c, &request)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkplanResponse{
			Error: &s,
		})
		return
	}

	month := request.Month
	if month == "" {
		month = types.MonthCodeOf(timeNow())
	}

	if !month.Valid() {
		s := types.ErrInvalidMonthCode.Error()
		c.JSON(http.StatusBadRequest, WorkplanResponse{
			Error: &s,
		})
		return
	}

	workplan, err := models.AssignAllocation(models.DB, uri.ID.UUID, request.AllocationID, month, actor(c))
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkplanResponse{
			Error: &s,
		})
		return
	}

	data := newWorkplan(c, workplan)
	c.JSON(http.StatusOK, WorkplanResponse{Data: &data})
}

// @Summary		Commit workplans
// @Description	Commits a batch of workplans with all-or-nothing semantics: if any member is missing its approval file or allocation, or is already committed, the whole batch is rejected and the offending workplans are listed.
// @Tags			Workplans
// @Accept			json
// @Produce		json
// @Success		200		{object}	WorkplanCommitResponse
// @Failure		400		{object}	WorkplanCommitResponse
// @Failure		404		{object}	WorkplanCommitResponse
// @Failure		500		{object}	WorkplanCommitResponse
// @Param			commit	body		WorkplanCommitRequest	true	"Commit"
// @Router			/v1/workplans/commit [post]
func CommitWorkplans(c *gin.Context) {
	var request WorkplanCommitRequest
	err := httputil.BindData(c, &request)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkplanCommitResponse{
			Error: &s,
		})
		return
	}

	if len(request.IDs) == 0 {
		s := errNoWorkplanIDs.Error()
		c.JSON(http.StatusBadRequest, WorkplanCommitResponse{
			Error: &s,
		})
		return
	}

	// Approval files move to their final identifier-based key before
	// the commit transaction. The move is idempotent, so a retried
	// commit after a partial failure converges.
	relocateApprovalFiles(request.IDs)

	count, err := models.CommitWorkplans(models.DB, request.IDs, actor(c))
	if err != nil {
		s := err.Error()
		response := WorkplanCommitResponse{
			Error: &s,
		}

		var precondition *models.PreconditionError
		if errors.As(err, &precondition) {
			response.MissingApprovalIDs = precondition.MissingApprovalFile
			response.MissingAllocationIDs = precondition.MissingAllocation
			response.AlreadyCommittedIDs = precondition.AlreadyCommitted
		}

		c.JSON(status(err), response)
		return
	}

	dashboardCache.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, WorkplanCommitResponse{CommittedCount: count})
}

// @Summary		Reassign workplans
// @Description	Moves a batch of workplans to another state allocation. Committed workplans keep their committed status, their committed totals move to the new scope through paired ledger rows. Approval files follow the workplans under their new identifiers.
// @Tags			Workplans
// @Accept			json
// @Produce		json
// @Success		200				{object}	WorkplanListResponse
// @Failure		400				{object}	WorkplanListResponse
// @Failure		404				{object}	WorkplanListResponse
// @Failure		409				{object}	WorkplanListResponse
// @Failure		500				{object}	WorkplanListResponse
// @Param			reassignment	body		WorkplanReassignRequest	true	"Reassignment"
// @Router			/v1/workplans/reassign [post]
func ReassignWorkplans(c *gin.Context) {
	var request WorkplanReassignRequest
	err := httputil.BindData(c, &request)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkplanListResponse{
			Error: &s,
		})
		return
	}

	if len(request.IDs) == 0 {
		s := errNoWorkplanIDs.Error()
		c.JSON(http.StatusBadRequest, WorkplanListResponse{
			Error: &s,
		})
		return
	}

	month := request.Month
	if month == "" {
		month = types.MonthCodeOf(timeNow())
	}

	if !month.Valid() {
		s := types.ErrInvalidMonthCode.Error()
		c.JSON(http.StatusBadRequest, WorkplanListResponse{
			Error: &s,
		})
		return
	}

	oldKeys := approvalKeysFor(request.IDs)

	workplans, err := models.ReassignWorkplans(models.DB, request.IDs, request.NewAllocationID, month, request.Reason, actor(c))
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkplanListResponse{
			Error: &s,
		})
		return
	}

	moveApprovalFiles(oldKeys, workplans)

	data := make([]Workplan, 0, len(workplans))
	for _, workplan := range workplans {
		data = append(data, newWorkplan(c, workplan))
	}

	dashboardCache.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, WorkplanListResponse{
		Data: data,
		Pagination: &Pagination{
			Count: len(data),
			Total: int64(len(data)),
			Limit: len(data),
		},
	})
}

// relocateApprovalFiles moves uploaded approval files to the key
// derived from the workplan identifier. Files uploaded before the
// serial assignment sit under an ID-based key until this runs.
func relocateApprovalFiles(ids []uuid.UUID) {
	var workplans []models.Workplan
	err := models.DB.Preload("GrantSerial").Where("id IN ?", ids).Find(&workplans).Error
	if err != nil {
		log.Error().Err(err).Msg("loading workplans for approval file relocation failed")
		return
	}

	for _, workplan := range workplans {
		identifier := workplan.Identifier()
		if workplan.ApprovalFileKey == "" || identifier == "" {
			continue
		}

		finalKey := storage.ApprovalKey(identifier)
		if finalKey == workplan.ApprovalFileKey {
			continue
		}

		err = approvalStore.Move(workplan.ApprovalFileKey, finalKey)
		if err != nil {
			log.Error().Err(err).Str("workplan", workplan.ID.String()).Msg("moving the approval file failed")
			continue
		}

		err = models.DB.Model(&models.Workplan{}).Where("id = ?", workplan.ID).Update("approval_file_key", finalKey).Error
		if err != nil {
			log.Error().Err(err).Str("workplan", workplan.ID.String()).Msg("updating the approval file key failed")
		}
	}
}

// approvalKeysFor records the current approval file key per workplan
// before a reassignment changes identifiers.
func approvalKeysFor(ids []uuid.UUID) map[uuid.UUID]string {
	keys := make(map[uuid.UUID]string, len(ids))

	var workplans []models.Workplan
	err := models.DB.Where("id IN ?", ids).Find(&workplans).Error
	if err != nil {
		log.Error().Err(err).Msg("loading approval file keys failed")
		return keys
	}

	for _, w := range workplans {
		if w.ApprovalFileKey != "" {
			keys[w.ID] = w.ApprovalFileKey
		}
	}

	return keys
}

// moveApprovalFiles renames stored approval files to the new workplan
// identifiers after a reassignment. Failures are logged, the file stays
// reachable under its old key.
func moveApprovalFiles(oldKeys map[uuid.UUID]string, workplans []models.Workplan) {
	for _, workplan := range workplans {
		oldKey, ok := oldKeys[workplan.ID]
		if !ok {
			continue
		}

		newKey := storage.ApprovalKey(workplan.Identifier())
		if newKey == oldKey {
			continue
		}

		err := approvalStore.Move(oldKey, newKey)
		if err != nil {
			log.Error().Err(err).Str("workplan", workplan.ID.String()).Msg("moving the approval file failed")
			continue
		}

		err = models.DB.Model(&models.Workplan{}).Where("id = ?", workplan.ID).Update("approval_file_key", newKey).Error
		if err != nil {
			log.Error().Err(err).Str("workplan", workplan.ID.String()).Msg("updating the approval file key failed")
		}
	}
}

// WorkplanAdjustRequest is the body for a manual ledger adjustment.
type WorkplanAdjustRequest struct {
	Delta  decimal.Decimal `json:"delta" example:"-500"`                      // Signed amount to add to the workplan's committed total
	Reason string          `json:"reason" example:"price revision, cycle 5"` // Reason recorded on the ledger row
}

// @Summary		Adjust committed amount
// @Description	Appends a manual adjustment to the workplan's ledger, e.g. for a price revision after commitment. The delta is signed and must not be zero.
// @Tags			Workplans
// @Accept			json
// @Produce		json
// @Success		200			{object}	WorkplanResponse
// @Failure		400			{object}	WorkplanResponse
// @Failure		404			{object}	WorkplanResponse
// @Failure		500			{object}	WorkplanResponse
// @Param			id			path		URIID					true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			adjustment	body		WorkplanAdjustRequest	true	"Adjustment"
// @Router			/v1/workplans/{id}/adjust [post]
func AdjustWorkplan(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkplanResponse{
			Error: &s,
		})
		return
	}

	var request WorkplanAdjustRequest
	err = httputil.BindData(c, &request)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkplanResponse{
			Error: &s,
		})
		return
	}

	var workplan models.Workplan
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		txErr := tx.Preload("GrantSerial").First(&workplan, uri.ID).Error
		if txErr != nil {
			return txErr
		}

		if workplan.FundingStatus != models.FundingCommitted {
			return models.ErrWorkplanNotCommitted
		}

		return models.RecordAdjustment(tx, workplan.ID, models.ScopeOf(workplan), request.Delta, request.Reason, actor(c))
	})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkplanResponse{
			Error: &s,
		})
		return
	}

	dashboardCache.Invalidate(c.Request.Context())

	data := newWorkplan(c, workplan)
	c.JSON(http.StatusOK, WorkplanResponse{Data: &data})
}

// @Summary		Remove workplan from MOU
// @Description	Takes a committed workplan out of its MOU and back to the allocated funding status. Its ledger contribution is reversed, the serial assignment stays in place.
// @Tags			Workplans
// @Produce		json
// @Success		200	{object}	WorkplanResponse
// @Failure		400	{object}	WorkplanResponse
// @Failure		404	{object}	WorkplanResponse
// @Failure		500	{object}	WorkplanResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/workplans/{id}/remove-from-mou [post]
func RemoveWorkplanFromMou(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkplanResponse{
			Error: &s,
		})
		return
	}

	workplan, err := models.RemoveFromMou(models.DB, uri.ID.UUID, actor(c))
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkplanResponse{
			Error: &s,
		})
		return
	}

	dashboardCache.Invalidate(c.Request.Context())

	data := newWorkplan(c, workplan)
	c.JSON(http.StatusOK, WorkplanResponse{Data: &data})
}

// @Summary		Upload approval file
// @Description	Uploads the community approval document for a workplan. The file is a commit precondition: without it the workplan cannot be committed.
// @Tags			Workplans
// @Accept			multipart/form-data
// @Produce		json
// @Success		200		{object}	WorkplanResponse
// @Failure		400		{object}	WorkplanResponse
// @Failure		404		{object}	WorkplanResponse
// @Failure		500		{object}	WorkplanResponse
// @Param			id		path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			file	formData	file	true	"The approval document as PDF"
// @Router			/v1/workplans/{id}/approval-file [post]
func UploadApprovalFile(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkplanResponse{
			Error: &s,
		})
		return
	}

	var workplan models.Workplan
	err = models.DB.Preload("GrantSerial").First(&workplan, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkplanResponse{
			Error: &s,
		})
		return
	}

	formFile, err := c.FormFile("file")
	if formFile == nil || err != nil {
		s := errNoFilePost.Error()
		c.JSON(http.StatusBadRequest, WorkplanResponse{
			Error: &s,
		})
		return
	}

	if !strings.EqualFold(filepath.Ext(formFile.Filename), ".pdf") {
		s := errWrongFileSuffix.Error() + ": .pdf"
		c.JSON(http.StatusBadRequest, WorkplanResponse{
			Error: &s,
		})
		return
	}

	f, err := formFile.Open()
	if err != nil {
		s := err.Error()
		c.JSON(http.StatusBadRequest, WorkplanResponse{
			Error: &s,
		})
		return
	}
	defer f.Close()

	// Unassigned workplans have no identifier yet, fall back to the ID
	name := workplan.Identifier()
	if name == "" {
		name = workplan.ID.String()
	}

	key := storage.ApprovalKey(name)
	err = approvalStore.Put(key, f)
	if err != nil {
		s := err.Error()
		c.JSON(http.StatusInternalServerError, WorkplanResponse{
			Error: &s,
		})
		return
	}

	err = models.DB.Model(&workplan).Update("approval_file_key", key).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkplanResponse{
			Error: &s,
		})
		return
	}

	workplan.ApprovalFileKey = key
	data := newWorkplan(c, workplan)
	c.JSON(http.StatusOK, WorkplanResponse{Data: &data})
}

// @Summary		Reconcile workplan
// @Description	Checks that the ledger rows of a workplan sum to its expected live amount. On a mismatch the workplan is flagged, further ledger writes against it are refused and a 500 with the discrepancy is returned.
// @Tags			Workplans
// @Produce		json
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/workplans/{id}/reconcile [post]
func ReconcileWorkplan(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.ReconcileWorkplan(models.DB, uri.ID.UUID)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
