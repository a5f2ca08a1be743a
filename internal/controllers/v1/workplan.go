package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lcc-aid/fsystem-backend/internal/httputil"
	"github.com/lcc-aid/fsystem-backend/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// RegisterWorkplanRoutes registers the routes for workplans with
// the RouterGroup that is passed.
func RegisterWorkplanRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsWorkplanList)
		r.GET("", GetWorkplans)
		r.POST("", CreateWorkplans)
	}

	// Batch operations
	{
		r.OPTIONS("/commit", OptionsWorkplanCommit)
		r.POST("/commit", CommitWorkplans)
		r.OPTIONS("/reassign", OptionsWorkplanReassign)
		r.POST("/reassign", ReassignWorkplans)
	}

	// Workplan with ID
	{
		r.OPTIONS("/:id", OptionsWorkplanDetail)
		r.GET("/:id", GetWorkplan)
		r.PATCH("/:id", UpdateWorkplan)
		r.DELETE("/:id", DeleteWorkplan)
		r.POST("/:id/assign", AssignWorkplanAllocation)
		r.POST("/:id/adjust", AdjustWorkplan)
		r.POST("/:id/remove-from-mou", RemoveWorkplanFromMou)
		r.POST("/:id/approval-file", UploadApprovalFile)
		r.POST("/:id/reconcile", ReconcileWorkplan)
	}
}

// WorkplanEditable represents all user configurable parameters
type WorkplanEditable struct {
	StateName string                           `json:"stateName" example:"Khartoum" default:""`      // Name of the state the workplan is for
	Locality  string                           `json:"locality" example:"Jabra (Jabra ERR)" default:""` // Locality and room the workplan is for
	Status    models.WorkplanStatus            `json:"status" example:"approved" default:"new"`      // Review status
	MouID     *uuid.UUID                       `json:"mouId" example:"c236c8e4-f2a6-44ac-98ae-c3a89a8ddecb"` // ID of the MOU grouping the workplan, optional
	Expenses  []models.ExpenseLine             `json:"expenses"`                                     // Budget lines, the requested amount is their sum
}

func (editable WorkplanEditable) model() models.Workplan {
	return models.Workplan{
		StateName: editable.StateName,
		Locality:  editable.Locality,
		Status:    editable.Status,
		MouID:     editable.MouID,
		Expenses:  editable.Expenses,
	}
}

type WorkplanLinks struct {
	Self         string `json:"self" example:"https://example.com/api/v1/workplans/055ff1a1-b68a-4d10-8d2d-1e8a16ea8bd4"`           // The workplan itself
	ApprovalFile string `json:"approvalFile" example:"https://example.com/api/v1/workplans/055ff1a1-b68a-4d10-8d2d-1e8a16ea8bd4/approval-file"` // Upload target for the community approval file
	GrantSerial  string `json:"grantSerial" example:"https://example.com/api/v1/grant-serials/0597035f-16cd-4547-bd65-fa12c9e62e5e"` // The serial the workplan is numbered under, empty until assigned
}

type Workplan struct {
	models.DefaultModel
	WorkplanEditable
	FundingStatus     models.FundingStatus `json:"fundingStatus" example:"allocated"`                               // Progress through the allocation hierarchy
	Identifier        string               `json:"identifier" example:"LCC-DKH-KH-0825-0001-003"`                   // Full identifier, empty until a serial and number are assigned
	WorkplanNumber    uint                 `json:"workplanNumber" example:"3"`                                      // Number on the grant serial, 0 until assigned
	RequestedAmount   decimal.Decimal      `json:"requestedAmount" example:"4999.50"`                               // Sum of the expense line costs
	StateAllocationID *uuid.UUID           `json:"stateAllocationId" example:"af892e10-7e0a-4fb8-b1bc-4f6a4e1d151c"` // The allocation funding the workplan, null until assigned
	GrantSerialID     *uuid.UUID           `json:"grantSerialId" example:"0597035f-16cd-4547-bd65-fa12c9e62e5e"`    // The serial the workplan is numbered under, null until assigned
	HasApprovalFile   bool                 `json:"hasApprovalFile" example:"true"`                                  // Whether the community approval file is uploaded
	Flagged           bool                 `json:"flagged" example:"false"`                                         // Whether reconciliation found a ledger mismatch
	Links             WorkplanLinks        `json:"links"`
}

func newWorkplan(c *gin.Context, model models.Workplan) Workplan {
	url := c.GetString(string(models.DBContextURL))

	links := WorkplanLinks{
		Self:         fmt.Sprintf("%s/v1/workplans/%s", url, model.ID),
		ApprovalFile: fmt.Sprintf("%s/v1/workplans/%s/approval-file", url, model.ID),
	}

	if model.GrantSerialID != nil {
		links.GrantSerial = fmt.Sprintf("%s/v1/grant-serials/%s", url, *model.GrantSerialID)
	}

	return Workplan{
		DefaultModel: model.DefaultModel,
		WorkplanEditable: WorkplanEditable{
			StateName: model.StateName,
			Locality:  model.Locality,
			Status:    model.Status,
			MouID:     model.MouID,
			Expenses:  model.Expenses,
		},
		FundingStatus:     model.FundingStatus,
		Identifier:        model.Identifier(),
		WorkplanNumber:    model.WorkplanNumber,
		RequestedAmount:   model.RequestedAmount(),
		StateAllocationID: model.StateAllocationID,
		GrantSerialID:     model.GrantSerialID,
		HasApprovalFile:   model.ApprovalFileKey != "",
		Flagged:           model.Flagged,
		Links:             links,
	}
}

type WorkplanListResponse struct {
	Data       []Workplan  `json:"data"`                                                          // List of workplans
	Error      *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type WorkplanCreateResponse struct {
	Data  []WorkplanResponse `json:"data"`                                                          // List of the created workplans or their respective error
	Error *string            `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (w *WorkplanCreateResponse) appendError(err error, currentStatus int) int {
	e := err.Error()
	w.Data = append(w.Data, WorkplanResponse{Error: &e})

	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type WorkplanResponse struct {
	Data  *Workplan `json:"data"`                                                          // Data for the workplan
	Error *string   `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type WorkplanQueryFilter struct {
	StateName     string `form:"state"`                             // By state name
	Locality      string `form:"locality" filterField:"false"`      // By locality
	Status        string `form:"status"`                            // By review status
	FundingStatus string `form:"fundingStatus" filterField:"false"` // By funding status. "uncommitted" matches everything that is not committed
	MouID         string `form:"mou"`                               // By MOU ID
	GrantSerialID string `form:"grantSerial"`                       // By grant serial ID
	Flagged       bool   `form:"flagged" filterField:"false"`       // Only flagged workplans
	Offset        uint   `form:"offset" filterField:"false"`        // The offset of the first workplan returned. Defaults to 0.
	Limit         int    `form:"limit" filterField:"false"`         // Maximum number of workplans to return. Defaults to 50.
}

func (f WorkplanQueryFilter) model() (models.Workplan, error) {
	var mouID, serialID *uuid.UUID

	if f.MouID != "" {
		id, err := uuid.Parse(f.MouID)
		if err != nil {
			return models.Workplan{}, httputil.ErrInvalidUUID
		}
		mouID = &id
	}

	if f.GrantSerialID != "" {
		id, err := uuid.Parse(f.GrantSerialID)
		if err != nil {
			return models.Workplan{}, httputil.ErrInvalidUUID
		}
		serialID = &id
	}

	return models.Workplan{
		StateName:     f.StateName,
		Status:        models.WorkplanStatus(f.Status),
		MouID:         mouID,
		GrantSerialID: serialID,
	}, nil
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Workplans
// @Success		204
// @Router			/v1/workplans [options]
func OptionsWorkplanList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Workplans
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/workplans/{id} [options]
func OptionsWorkplanDetail(c *gin.Context) {
	resourceOptionsDetail(c, models.Workplan{})
}

// @Summary		Create workplans
// @Description	Creates new workplans in the state they were submitted in. Funding assignment happens through the assign endpoint.
// @Tags			Workplans
// @Produce		json
// @Success		201			{object}	WorkplanCreateResponse
// @Failure		400			{object}	WorkplanCreateResponse
// @Failure		500			{object}	WorkplanCreateResponse
// @Param			workplans	body		[]WorkplanEditable	true	"Workplans"
// @Router			/v1/workplans [post]
func CreateWorkplans(c *gin.Context) {
	var editables []WorkplanEditable

	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), WorkplanCreateResponse{
			Error: &e,
		})
		return
	}

	status := http.StatusCreated
	r := WorkplanCreateResponse{}

	for _, editable := range editables {
		workplan := editable.model()

		err = models.DB.Create(&workplan).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newWorkplan(c, workplan)
		r.Data = append(r.Data, WorkplanResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Get workplans
// @Description	Returns a list of workplans
// @Tags			Workplans
// @Produce		json
// @Success		200	{object}	WorkplanListResponse
// @Failure		400	{object}	WorkplanListResponse
// @Failure		500	{object}	WorkplanListResponse
// @Router			/v1/workplans [get]
// @Param			state			query	string	false	"Filter by state name"
// @Param			locality		query	string	false	"Filter by locality"
// @Param			status			query	string	false	"Filter by review status"
// @Param			fundingStatus	query	string	false	"Filter by funding status. Use 'uncommitted' for everything that is not committed"
// @Param			mou				query	string	false	"Filter by the ID of the MOU"
// @Param			grantSerial		query	string	false	"Filter by the ID of the grant serial"
// @Param			flagged			query	bool	false	"Only return flagged workplans"
// @Param			offset			query	uint	false	"The offset of the first workplan returned. Defaults to 0."
// @Param			limit			query	int		false	"Maximum number of workplans to return. Defaults to 50."
func GetWorkplans(c *gin.Context) {
	var filter WorkplanQueryFilter
	_ = c.Bind(&filter)

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	model, err := filter.model()
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkplanListResponse{
			Error: &s,
		})
		return
	}

	q := models.DB.
		Order("created_at DESC").
		Where(model, queryFields...)

	if slices.Contains(setFields, "Locality") {
		q = q.Where("locality LIKE ?", fmt.Sprintf("%%%s%%", filter.Locality))
	}

	if slices.Contains(setFields, "FundingStatus") {
		if filter.FundingStatus == "uncommitted" {
			q = q.Where("funding_status != ?", models.FundingCommitted)
		} else {
			q = q.Where("funding_status = ?", filter.FundingStatus)
		}
	}

	if filter.Flagged {
		q = q.Where("flagged = ?", true)
	}

	q = q.Offset(int(filter.Offset))

	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var workplans []models.Workplan
	err = q.Preload("GrantSerial").Find(&workplans).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkplanListResponse{
			Error: &s,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), WorkplanListResponse{
			Error: &e,
		})
		return
	}

	data := make([]Workplan, 0, len(workplans))
	for _, workplan := range workplans {
		data = append(data, newWorkplan(c, workplan))
	}

	c.JSON(http.StatusOK, WorkplanListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get workplan
// @Description	Returns a specific workplan
// @Tags			Workplans
// @Produce		json
// @Success		200	{object}	WorkplanResponse
// @Failure		400	{object}	WorkplanResponse
// @Failure		404	{object}	WorkplanResponse
// @Failure		500	{object}	WorkplanResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/workplans/{id} [get]
func GetWorkplan(c *gin.Context) {
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

	data := newWorkplan(c, workplan)
	c.JSON(http.StatusOK, WorkplanResponse{Data: &data})
}

// @Summary		Update workplan
// @Description	Update an existing workplan. Only values to be updated need to be specified. Funding assignment cannot be changed here, use the assign and reassign endpoints.
// @Tags			Workplans
// @Accept			json
// @Produce		json
// @Success		200			{object}	WorkplanResponse
// @Failure		400			{object}	WorkplanResponse
// @Failure		404			{object}	WorkplanResponse
// @Failure		500			{object}	WorkplanResponse
// @Param			id			path		URIID				true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			workplan	body		WorkplanEditable	true	"Workplan"
// @Router			/v1/workplans/{id} [patch]
func UpdateWorkplan(c *gin.Context) {
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

	updateFields, err := httputil.GetBodyFields(c, WorkplanEditable{})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkplanResponse{
			Error: &s,
		})
		return
	}

	var data WorkplanEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkplanResponse{
			Error: &s,
		})
		return
	}

	err = models.DB.Model(&workplan).Select("", updateFields...).Updates(data.model()).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkplanResponse{
			Error: &s,
		})
		return
	}

	r := newWorkplan(c, workplan)
	c.JSON(http.StatusOK, WorkplanResponse{Data: &r})
}

// @Summary		Delete workplan
// @Description	Deletes a workplan. A committed workplan's ledger contribution is reversed, and a workplan holding the highest number on its serial frees that number for reuse.
// @Tags			Workplans
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/workplans/{id} [delete]
func DeleteWorkplan(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DeleteWorkplan(models.DB, uri.ID.UUID, actor(c))
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	dashboardCache.Invalidate(c.Request.Context())
	c.JSON(http.StatusNoContent, nil)
}
