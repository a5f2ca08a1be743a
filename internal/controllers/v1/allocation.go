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

// RegisterAllocationRoutes registers the routes for state allocations
// with the RouterGroup that is passed.
//
// Allocations have no PATCH route. They are append-only: a new decision
// number supersedes the previous one, it never edits it.
func RegisterAllocationRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsAllocationList)
		r.GET("", GetAllocations)
		r.POST("", CreateAllocations)
	}

	// Allocation with ID
	{
		r.OPTIONS("/:id", OptionsAllocationDetail)
		r.GET("/:id", GetAllocation)
		r.DELETE("/:id", DeleteAllocation)
	}
}

// AllocationEditable represents all user configurable parameters
type AllocationEditable struct {
	GrantCallID    *uuid.UUID      `json:"grantCallId" example:"17f29ec6-d88b-4686-8a25-69ed753a4eba"`    // ID of the grant call the amount is carved out of. Exactly one of grantCallId and fundingCycleId must be set
	FundingCycleID *uuid.UUID      `json:"fundingCycleId" example:"da08b79e-79b4-4ce1-bbc4-24b0cfeae854"` // ID of the funding cycle the amount is carved out of
	StateName      string          `json:"stateName" example:"Khartoum" default:""`                       // Name of the state the amount is allocated to
	Amount         decimal.Decimal `json:"amount" example:"100000" default:"0"`                           // Allocated amount
	DecisionNo     uint            `json:"decisionNo" example:"1" default:"0"`                            // Decision number, a higher number supersedes lower ones for the same root and state
}

func (editable AllocationEditable) model() models.StateAllocation {
	return models.StateAllocation{
		GrantCallID:    editable.GrantCallID,
		FundingCycleID: editable.FundingCycleID,
		StateName:      editable.StateName,
		Amount:         editable.Amount,
		DecisionNo:     editable.DecisionNo,
	}
}

type AllocationLinks struct {
	Self    string `json:"self" example:"https://example.com/api/v1/allocations/af892e10-7e0a-4fb8-b1bc-4f6a4e1d151c"`       // The allocation itself
	Preview string `json:"preview" example:"https://example.com/api/v1/dashboard/preview?allocationId=af892e10-7e0a-4fb8-b1bc-4f6a4e1d151c"` // Commitment preview against this allocation
}

type Allocation struct {
	models.DefaultModel
	AllocationEditable
	Active bool            `json:"active" example:"true"` // Whether this is the latest decision for its root and state
	Links  AllocationLinks `json:"links"`
}

func newAllocation(c *gin.Context, model models.StateAllocation, active bool) Allocation {
	url := c.GetString(string(models.DBContextURL))

	return Allocation{
		DefaultModel: model.DefaultModel,
		AllocationEditable: AllocationEditable{
			GrantCallID:    model.GrantCallID,
			FundingCycleID: model.FundingCycleID,
			StateName:      model.StateName,
			Amount:         model.Amount,
			DecisionNo:     model.DecisionNo,
		},
		Active: active,
		Links: AllocationLinks{
			Self:    fmt.Sprintf("%s/v1/allocations/%s", url, model.ID),
			Preview: fmt.Sprintf("%s/v1/dashboard/preview?allocationId=%s", url, model.ID),
		},
	}
}

type AllocationListResponse struct {
	Data       []Allocation `json:"data"`                                                          // List of allocations
	Error      *string      `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination  `json:"pagination"`                                                    // Pagination information
}

type AllocationCreateResponse struct {
	Data  []AllocationResponse `json:"data"`                                                          // List of the created allocations or their respective error
	Error *string              `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (a *AllocationCreateResponse) appendError(err error, currentStatus int) int {
	e := err.Error()
	a.Data = append(a.Data, AllocationResponse{Error: &e})

	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type AllocationResponse struct {
	Data  *Allocation `json:"data"`                                                          // Data for the allocation
	Error *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type AllocationQueryFilter struct {
	StateName      string `form:"state"`                      // By state name
	GrantCallID    string `form:"grantCall"`                  // By grant call ID
	FundingCycleID string `form:"fundingCycle"`               // By funding cycle ID
	Active         bool   `form:"active" filterField:"false"` // Only return active allocations, i.e. the latest decision per root and state
	Offset         uint   `form:"offset" filterField:"false"` // The offset of the first allocation returned. Defaults to 0.
	Limit          int    `form:"limit" filterField:"false"`  // Maximum number of allocations to return. Defaults to 50.
}

func (f AllocationQueryFilter) model() (models.StateAllocation, error) {
	var grantCallID, fundingCycleID *uuid.UUID

	if f.GrantCallID != "" {
		id, err := uuid.Parse(f.GrantCallID)
		if err != nil {
			return models.StateAllocation{}, httputil.ErrInvalidUUID
		}
		grantCallID = &id
	}

	if f.FundingCycleID != "" {
		id, err := uuid.Parse(f.FundingCycleID)
		if err != nil {
			return models.StateAllocation{}, httputil.ErrInvalidUUID
		}
		fundingCycleID = &id
	}

	return models.StateAllocation{
		StateName:      f.StateName,
		GrantCallID:    grantCallID,
		FundingCycleID: fundingCycleID,
	}, nil
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Allocations
// @Success		204
// @Router			/v1/allocations [options]
func OptionsAllocationList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Allocations
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/allocations/{id} [options]
func OptionsAllocationDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var allocation models.StateAllocation
	err = models.DB.First(&allocation, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGetDelete(c)
}

// @Summary		Create allocations
// @Description	Creates new state allocations. A decision number higher than an existing one supersedes it for the same root and state.
// @Tags			Allocations
// @Produce		json
// @Success		201			{object}	AllocationCreateResponse
// @Failure		400			{object}	AllocationCreateResponse
// @Failure		500			{object}	AllocationCreateResponse
// @Param			allocations	body		[]AllocationEditable	true	"Allocations"
// @Router			/v1/allocations [post]
func CreateAllocations(c *gin.Context) {
	var editables []AllocationEditable

	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationCreateResponse{
			Error: &e,
		})
		return
	}

	status := http.StatusCreated
	r := AllocationCreateResponse{}

	for _, editable := range editables {
		allocation := editable.model()

		if (allocation.GrantCallID == nil) == (allocation.FundingCycleID == nil) {
			status = r.appendError(models.ErrAllocationRootInvalid, status)
			continue
		}

		err = models.DB.Create(&allocation).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		active, err := allocation.IsActive(models.DB)
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newAllocation(c, allocation, active)
		r.Data = append(r.Data, AllocationResponse{Data: &data})
	}

	dashboardCache.Invalidate(c.Request.Context())
	c.JSON(status, r)
}

// @Summary		Get allocations
// @Description	Returns a list of state allocations
// @Tags			Allocations
// @Produce		json
// @Success		200	{object}	AllocationListResponse
// @Failure		400	{object}	AllocationListResponse
// @Failure		500	{object}	AllocationListResponse
// @Router			/v1/allocations [get]
// @Param			state			query	string	false	"Filter by state name"
// @Param			grantCall		query	string	false	"Filter by the ID of the grant call"
// @Param			fundingCycle	query	string	false	"Filter by the ID of the funding cycle"
// @Param			active			query	bool	false	"Only return active allocations, i.e. the latest decision per root and state"
// @Param			offset			query	uint	false	"The offset of the first allocation returned. Defaults to 0."
// @Param			limit			query	int		false	"Maximum number of allocations to return. Defaults to 50."
func GetAllocations(c *gin.Context) {
	var filter AllocationQueryFilter
	_ = c.Bind(&filter)

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	model, err := filter.model()
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllocationListResponse{
			Error: &s,
		})
		return
	}

	q := models.DB.
		Order("state_name ASC, decision_no DESC").
		Where(model, queryFields...)

	if filter.Active {
		q = q.Scopes(models.ActiveOnly)
	}

	q = q.Offset(int(filter.Offset))

	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var allocations []models.StateAllocation
	err = q.Find(&allocations).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllocationListResponse{
			Error: &s,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationListResponse{
			Error: &e,
		})
		return
	}

	data := make([]Allocation, 0, len(allocations))
	for _, allocation := range allocations {
		active, err := allocation.IsActive(models.DB)
		if err != nil {
			e := err.Error()
			c.JSON(status(err), AllocationListResponse{
				Error: &e,
			})
			return
		}

		data = append(data, newAllocation(c, allocation, active))
	}

	c.JSON(http.StatusOK, AllocationListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get allocation
// @Description	Returns a specific state allocation
// @Tags			Allocations
// @Produce		json
// @Success		200	{object}	AllocationResponse
// @Failure		400	{object}	AllocationResponse
// @Failure		404	{object}	AllocationResponse
// @Failure		500	{object}	AllocationResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/allocations/{id} [get]
func GetAllocation(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllocationResponse{
			Error: &s,
		})
		return
	}

	var allocation models.StateAllocation
	err = models.DB.First(&allocation, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllocationResponse{
			Error: &s,
		})
		return
	}

	active, err := allocation.IsActive(models.DB)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllocationResponse{
			Error: &s,
		})
		return
	}

	data := newAllocation(c, allocation, active)
	c.JSON(http.StatusOK, AllocationResponse{Data: &data})
}

// @Summary		Delete allocation
// @Description	Deletes a state allocation. Only allocations without ledger entries can be deleted.
// @Tags			Allocations
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/allocations/{id} [delete]
func DeleteAllocation(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var allocation models.StateAllocation
	err = models.DB.First(&allocation, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var entries int64
	err = models.DB.Model(&models.LedgerEntry{}).Where("state_allocation_id = ?", allocation.ID).Count(&entries).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	if entries > 0 {
		c.JSON(http.StatusBadRequest, httpError{
			Error: errAllocationHasLedgerEntries.Error(),
		})
		return
	}

	err = models.DB.Delete(&allocation).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	dashboardCache.Invalidate(c.Request.Context())
	c.JSON(http.StatusNoContent, nil)
}
