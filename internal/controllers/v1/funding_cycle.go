package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lcc-aid/fsystem-backend/internal/httputil"
	"github.com/lcc-aid/fsystem-backend/internal/models"
	"golang.org/x/exp/slices"
)

// RegisterFundingCycleRoutes registers the routes for funding cycles with
// the RouterGroup that is passed.
func RegisterFundingCycleRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsFundingCycleList)
		r.GET("", GetFundingCycles)
		r.POST("", CreateFundingCycles)
	}

	// FundingCycle with ID
	{
		r.OPTIONS("/:id", OptionsFundingCycleDetail)
		r.GET("/:id", GetFundingCycle)
		r.PATCH("/:id", UpdateFundingCycle)
		r.DELETE("/:id", DeleteFundingCycle)
	}
}

// FundingCycleEditable represents all user configurable parameters
type FundingCycleEditable struct {
	Name      string `json:"name" example:"Cycle 5" default:""`  // Name of the funding cycle, must be unique
	ShortCode string `json:"shortCode" example:"C5" default:""`  // Short code used in grant serial codes instead of a donor short code
	Year      int    `json:"year" example:"2025" default:"0"`    // Calendar year the cycle belongs to
}

func (editable FundingCycleEditable) model() models.FundingCycle {
	return models.FundingCycle{
		Name:      editable.Name,
		ShortCode: editable.ShortCode,
		Year:      editable.Year,
	}
}

type FundingCycleLinks struct {
	Self        string `json:"self" example:"https://example.com/api/v1/funding-cycles/da08b79e-79b4-4ce1-bbc4-24b0cfeae854"`               // The funding cycle itself
	Allocations string `json:"allocations" example:"https://example.com/api/v1/allocations?fundingCycle=da08b79e-79b4-4ce1-bbc4-24b0cfeae854"` // Allocations backed by this funding cycle
}

type FundingCycle struct {
	models.DefaultModel
	FundingCycleEditable
	Links FundingCycleLinks `json:"links"`
}

func newFundingCycle(c *gin.Context, model models.FundingCycle) FundingCycle {
	url := c.GetString(string(models.DBContextURL))

	return FundingCycle{
		DefaultModel: model.DefaultModel,
		FundingCycleEditable: FundingCycleEditable{
			Name:      model.Name,
			ShortCode: model.ShortCode,
			Year:      model.Year,
		},
		Links: FundingCycleLinks{
			Self:        fmt.Sprintf("%s/v1/funding-cycles/%s", url, model.ID),
			Allocations: fmt.Sprintf("%s/v1/allocations?fundingCycle=%s", url, model.ID),
		},
	}
}

type FundingCycleListResponse struct {
	Data       []FundingCycle `json:"data"`                                                          // List of funding cycles
	Error      *string        `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination    `json:"pagination"`                                                    // Pagination information
}

type FundingCycleCreateResponse struct {
	Data  []FundingCycleResponse `json:"data"`                                                          // List of the created funding cycles or their respective error
	Error *string                `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (f *FundingCycleCreateResponse) appendError(err error, currentStatus int) int {
	e := err.Error()
	f.Data = append(f.Data, FundingCycleResponse{Error: &e})

	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type FundingCycleResponse struct {
	Data  *FundingCycle `json:"data"`                                                          // Data for the funding cycle
	Error *string       `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type FundingCycleQueryFilter struct {
	Name      string `form:"name" filterField:"false"`   // By name
	ShortCode string `form:"shortCode"`                  // By short code
	Year      int    `form:"year"`                       // By year
	Offset    uint   `form:"offset" filterField:"false"` // The offset of the first funding cycle returned. Defaults to 0.
	Limit     int    `form:"limit" filterField:"false"`  // Maximum number of funding cycles to return. Defaults to 50.
}

func (f FundingCycleQueryFilter) model() models.FundingCycle {
	return models.FundingCycle{
		ShortCode: f.ShortCode,
		Year:      f.Year,
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			FundingCycles
// @Success		204
// @Router			/v1/funding-cycles [options]
func OptionsFundingCycleList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			FundingCycles
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/funding-cycles/{id} [options]
func OptionsFundingCycleDetail(c *gin.Context) {
	resourceOptionsDetail(c, models.FundingCycle{})
}

// @Summary		Create funding cycles
// @Description	Creates new funding cycles
// @Tags			FundingCycles
// @Produce		json
// @Success		201				{object}	FundingCycleCreateResponse
// @Failure		400				{object}	FundingCycleCreateResponse
// @Failure		500				{object}	FundingCycleCreateResponse
// @Param			fundingCycles	body		[]FundingCycleEditable	true	"Funding cycles"
// @Router			/v1/funding-cycles [post]
func CreateFundingCycles(c *gin.Context) {
	var editables []FundingCycleEditable

	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), FundingCycleCreateResponse{
			Error: &e,
		})
		return
	}

	status := http.StatusCreated
	r := FundingCycleCreateResponse{}

	for _, editable := range editables {
		cycle := editable.model()

		err = models.DB.Create(&cycle).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newFundingCycle(c, cycle)
		r.Data = append(r.Data, FundingCycleResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Get funding cycles
// @Description	Returns a list of funding cycles
// @Tags			FundingCycles
// @Produce		json
// @Success		200	{object}	FundingCycleListResponse
// @Failure		400	{object}	FundingCycleListResponse
// @Failure		500	{object}	FundingCycleListResponse
// @Router			/v1/funding-cycles [get]
// @Param			name		query	string	false	"Filter by name"
// @Param			shortCode	query	string	false	"Filter by short code"
// @Param			year		query	int		false	"Filter by year"
// @Param			offset		query	uint	false	"The offset of the first funding cycle returned. Defaults to 0."
// @Param			limit		query	int		false	"Maximum number of funding cycles to return. Defaults to 50."
func GetFundingCycles(c *gin.Context) {
	var filter FundingCycleQueryFilter
	_ = c.Bind(&filter)

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := models.DB.
		Order("year DESC, name ASC").
		Where(filter.model(), queryFields...)

	if slices.Contains(setFields, "Name") {
		q = q.Where("name LIKE ?", fmt.Sprintf("%%%s%%", filter.Name))
	}

	q = q.Offset(int(filter.Offset))

	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var cycles []models.FundingCycle
	err := q.Find(&cycles).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), FundingCycleListResponse{
			Error: &s,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), FundingCycleListResponse{
			Error: &e,
		})
		return
	}

	data := make([]FundingCycle, 0, len(cycles))
	for _, cycle := range cycles {
		data = append(data, newFundingCycle(c, cycle))
	}

	c.JSON(http.StatusOK, FundingCycleListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get funding cycle
// @Description	Returns a specific funding cycle
// @Tags			FundingCycles
// @Produce		json
// @Success		200	{object}	FundingCycleResponse
// @Failure		400	{object}	FundingCycleResponse
// @Failure		404	{object}	FundingCycleResponse
// @Failure		500	{object}	FundingCycleResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/funding-cycles/{id} [get]
func GetFundingCycle(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), FundingCycleResponse{
			Error: &s,
		})
		return
	}

	var cycle models.FundingCycle
	err = models.DB.First(&cycle, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), FundingCycleResponse{
			Error: &s,
		})
		return
	}

	data := newFundingCycle(c, cycle)
	c.JSON(http.StatusOK, FundingCycleResponse{Data: &data})
}

// @Summary		Update funding cycle
// @Description	Update an existing funding cycle. Only values to be updated need to be specified.
// @Tags			FundingCycles
// @Accept			json
// @Produce		json
// @Success		200				{object}	FundingCycleResponse
// @Failure		400				{object}	FundingCycleResponse
// @Failure		404				{object}	FundingCycleResponse
// @Failure		500				{object}	FundingCycleResponse
// @Param			id				path		URIID					true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			fundingCycle	body		FundingCycleEditable	true	"Funding cycle"
// @Router			/v1/funding-cycles/{id} [patch]
func UpdateFundingCycle(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), FundingCycleResponse{
			Error: &s,
		})
		return
	}

	var cycle models.FundingCycle
	err = models.DB.First(&cycle, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), FundingCycleResponse{
			Error: &s,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, FundingCycleEditable{})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), FundingCycleResponse{
			Error: &s,
		})
		return
	}

	var data FundingCycleEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), FundingCycleResponse{
			Error: &s,
		})
		return
	}

	err = models.DB.Model(&cycle).Select("", updateFields...).Updates(data.model()).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), FundingCycleResponse{
			Error: &s,
		})
		return
	}

	r := newFundingCycle(c, cycle)
	c.JSON(http.StatusOK, FundingCycleResponse{Data: &r})
}

// @Summary		Delete funding cycle
// @Description	Deletes a funding cycle
// @Tags			FundingCycles
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/funding-cycles/{id} [delete]
func DeleteFundingCycle(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var cycle models.FundingCycle
	err = models.DB.First(&cycle, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.Delete(&cycle).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
