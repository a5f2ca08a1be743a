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

// RegisterGrantCallRoutes registers the routes for grant calls with
// the RouterGroup that is passed.
func RegisterGrantCallRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsGrantCallList)
		r.GET("", GetGrantCalls)
		r.POST("", CreateGrantCalls)
	}

	// GrantCall with ID
	{
		r.OPTIONS("/:id", OptionsGrantCallDetail)
		r.GET("/:id", GetGrantCall)
		r.PATCH("/:id", UpdateGrantCall)
		r.DELETE("/:id", DeleteGrantCall)
	}
}

// GrantCallEditable represents all user configurable parameters
type GrantCallEditable struct {
	Name        string                 `json:"name" example:"Emergency Response Rooms 2025" default:""` // Name of the grant call
	Shortname   string                 `json:"shortname" example:"ERR-2025" default:""`                 // Short name for display purposes
	DonorID     uuid.UUID              `json:"donorId" example:"b2d453aa-52bc-4aae-9dce-a79c16933fe1"`  // ID of the funding donor
	TotalAmount decimal.Decimal        `json:"totalAmount" example:"1000000" default:"0"`               // Total budget of the grant call
	Status      models.GrantCallStatus `json:"status" example:"open" default:"open"`                    // Lifecycle status, one of "open" and "closed"
}

func (editable GrantCallEditable) model() models.GrantCall {
	return models.GrantCall{
		Name:        editable.Name,
		Shortname:   editable.Shortname,
		DonorID:     editable.DonorID,
		TotalAmount: editable.TotalAmount,
		Status:      editable.Status,
	}
}

type GrantCallLinks struct {
	Self        string `json:"self" example:"https://example.com/api/v1/grant-calls/17f29ec6-d88b-4686-8a25-69ed753a4eba"`                // The grant call itself
	Donor       string `json:"donor" example:"https://example.com/api/v1/donors/b2d453aa-52bc-4aae-9dce-a79c16933fe1"`                    // The funding donor
	Allocations string `json:"allocations" example:"https://example.com/api/v1/allocations?grantCall=17f29ec6-d88b-4686-8a25-69ed753a4eba"` // Allocations carved out of this grant call
}

type GrantCall struct {
	models.DefaultModel
	GrantCallEditable
	Links GrantCallLinks `json:"links"`
}

func newGrantCall(c *gin.Context, model models.GrantCall) GrantCall {
	url := c.GetString(string(models.DBContextURL))

	return GrantCall{
		DefaultModel: model.DefaultModel,
		GrantCallEditable: GrantCallEditable{
			Name:        model.Name,
			Shortname:   model.Shortname,
			DonorID:     model.DonorID,
			TotalAmount: model.TotalAmount,
			Status:      model.Status,
		},
		Links: GrantCallLinks{
			Self:        fmt.Sprintf("%s/v1/grant-calls/%s", url, model.ID),
			Donor:       fmt.Sprintf("%s/v1/donors/%s", url, model.DonorID),
			Allocations: fmt.Sprintf("%s/v1/allocations?grantCall=%s", url, model.ID),
		},
	}
}

type GrantCallListResponse struct {
	Data       []GrantCall `json:"data"`                                                          // List of grant calls
	Error      *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type GrantCallCreateResponse struct {
	Data  []GrantCallResponse `json:"data"`                                                          // List of the created grant calls or their respective error
	Error *string             `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (g *GrantCallCreateResponse) appendError(err error, currentStatus int) int {
	e := err.Error()
	g.Data = append(g.Data, GrantCallResponse{Error: &e})

	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type GrantCallResponse struct {
	Data  *GrantCall `json:"data"`                                                          // Data for the grant call
	Error *string    `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type GrantCallQueryFilter struct {
	Name      string `form:"name" filterField:"false"`   // By name
	Shortname string `form:"shortname"`                  // By short name
	DonorID   string `form:"donor"`                      // By donor ID
	Status    string `form:"status"`                     // By lifecycle status
	Offset    uint   `form:"offset" filterField:"false"` // The offset of the first grant call returned. Defaults to 0.
	Limit     int    `form:"limit" filterField:"false"`  // Maximum number of grant calls to return. Defaults to 50.
}

func (f GrantCallQueryFilter) model() (models.GrantCall, error) {
	var donorID uuid.UUID

	if f.DonorID != "" {
		var err error
		donorID, err = uuid.Parse(f.DonorID)
		if err != nil {
			return models.GrantCall{}, httputil.ErrInvalidUUID
		}
	}

	return models.GrantCall{
		Shortname: f.Shortname,
		DonorID:   donorID,
		Status:    models.GrantCallStatus(f.Status),
	}, nil
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			GrantCalls
// @Success		204
// @Router			/v1/grant-calls [options]
func OptionsGrantCallList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			GrantCalls
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/grant-calls/{id} [options]
func OptionsGrantCallDetail(c *gin.Context) {
	resourceOptionsDetail(c, models.GrantCall{})
}

// @Summary		Create grant calls
// @Description	Creates new grant calls
// @Tags			GrantCalls
// @Produce		json
// @Success		201			{object}	GrantCallCreateResponse
// @Failure		400			{object}	GrantCallCreateResponse
// @Failure		500			{object}	GrantCallCreateResponse
// @Param			grantCalls	body		[]GrantCallEditable	true	"Grant calls"
// @Router			/v1/grant-calls [post]
func CreateGrantCalls(c *gin.Context) {
	var editables []GrantCallEditable

	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), GrantCallCreateResponse{
			Error: &e,
		})
		return
	}

	status := http.StatusCreated
	r := GrantCallCreateResponse{}

	for _, editable := range editables {
		grantCall := editable.model()

		err = models.DB.Create(&grantCall).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newGrantCall(c, grantCall)
		r.Data = append(r.Data, GrantCallResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Get grant calls
// @Description	Returns a list of grant calls
// @Tags			GrantCalls
// @Produce		json
// @Success		200	{object}	GrantCallListResponse
// @Failure		400	{object}	GrantCallListResponse
// @Failure		500	{object}	GrantCallListResponse
// @Router			/v1/grant-calls [get]
// @Param			name		query	string	false	"Filter by name"
// @Param			shortname	query	string	false	"Filter by short name"
// @Param			donor		query	string	false	"Filter by the ID of the donor"
// @Param			status		query	string	false	"Filter by lifecycle status"
// @Param			offset		query	uint	false	"The offset of the first grant call returned. Defaults to 0."
// @Param			limit		query	int		false	"Maximum number of grant calls to return. Defaults to 50."
func GetGrantCalls(c *gin.Context) {
	var filter GrantCallQueryFilter
	_ = c.Bind(&filter)

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	model, err := filter.model()
	if err != nil {
		s := err.Error()
		c.JSON(status(err), GrantCallListResponse{
			Error: &s,
		})
		return
	}

	q := models.DB.
		Order("name ASC").
		Where(model, queryFields...)

	if slices.Contains(setFields, "Name") {
		q = q.Where("name LIKE ?", fmt.Sprintf("%%%s%%", filter.Name))
	}

	q = q.Offset(int(filter.Offset))

	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var grantCalls []models.GrantCall
	err = q.Find(&grantCalls).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), GrantCallListResponse{
			Error: &s,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), GrantCallListResponse{
			Error: &e,
		})
		return
	}

	data := make([]GrantCall, 0, len(grantCalls))
	for _, grantCall := range grantCalls {
		data = append(data, newGrantCall(c, grantCall))
	}

	c.JSON(http.StatusOK, GrantCallListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get grant call
// @Description	Returns a specific grant call
// @Tags			GrantCalls
// @Produce		json
// @Success		200	{object}	GrantCallResponse
// @Failure		400	{object}	GrantCallResponse
// @Failure		404	{object}	GrantCallResponse
// @Failure		500	{object}	GrantCallResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/grant-calls/{id} [get]
func GetGrantCall(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), GrantCallResponse{
			Error: &s,
		})
		return
	}

	var grantCall models.GrantCall
	err = models.DB.First(&grantCall, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), GrantCallResponse{
			Error: &s,
		})
		return
	}

	data := newGrantCall(c, grantCall)
	c.JSON(http.StatusOK, GrantCallResponse{Data: &data})
}

// @Summary		Update grant call
// @Description	Update an existing grant call. Once allocations reference the grant call, only the status can change.
// @Tags			GrantCalls
// @Accept			json
// @Produce		json
// @Success		200			{object}	GrantCallResponse
// @Failure		400			{object}	GrantCallResponse
// @Failure		404			{object}	GrantCallResponse
// @Failure		500			{object}	GrantCallResponse
// @Param			id			path		URIID				true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			grantCall	body		GrantCallEditable	true	"Grant call"
// @Router			/v1/grant-calls/{id} [patch]
func UpdateGrantCall(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), GrantCallResponse{
			Error: &s,
		})
		return
	}

	var grantCall models.GrantCall
	err = models.DB.First(&grantCall, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), GrantCallResponse{
			Error: &s,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, GrantCallEditable{})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), GrantCallResponse{
			Error: &s,
		})
		return
	}

	var data GrantCallEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), GrantCallResponse{
			Error: &s,
		})
		return
	}

	err = models.DB.Model(&grantCall).Select("", updateFields...).Updates(data.model()).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), GrantCallResponse{
			Error: &s,
		})
		return
	}

	r := newGrantCall(c, grantCall)
	c.JSON(http.StatusOK, GrantCallResponse{Data: &r})
}

// @Summary		Delete grant call
// @Description	Deletes a grant call
// @Tags			GrantCalls
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/grant-calls/{id} [delete]
func DeleteGrantCall(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var grantCall models.GrantCall
	err = models.DB.First(&grantCall, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.Delete(&grantCall).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
