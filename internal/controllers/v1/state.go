package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lcc-aid/fsystem-backend/internal/httputil"
	"github.com/lcc-aid/fsystem-backend/internal/models"
	"golang.org/x/exp/slices"
)

// RegisterStateRoutes registers the routes for states with
// the RouterGroup that is passed.
func RegisterStateRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsStateList)
		r.GET("", GetStates)
		r.POST("", CreateStates)
	}

	// State with ID
	{
		r.OPTIONS("/:id", OptionsStateDetail)
		r.GET("/:id", GetState)
		r.PATCH("/:id", UpdateState)
		r.DELETE("/:id", DeleteState)
	}
}

// StateEditable represents all user configurable parameters
type StateEditable struct {
	Name      string `json:"name" example:"Khartoum" default:""`   // Name of the state, must be unique
	ShortCode string `json:"shortCode" example:"KH" default:""`    // Short code used in grant serial codes
}

func (editable StateEditable) model() models.State {
	return models.State{
		Name:      editable.Name,
		ShortCode: editable.ShortCode,
	}
}

type StateLinks struct {
	Self        string `json:"self" example:"https://example.com/api/v1/states/3b1ea324-d438-4419-882a-2fc91d71772f"` // The state itself
	Allocations string `json:"allocations" example:"https://example.com/api/v1/allocations?state=Khartoum"`           // Allocations for this state
}

type State struct {
	models.DefaultModel
	StateEditable
	Links StateLinks `json:"links"`
}

func newState(c *gin.Context, model models.State) State {
	url := c.GetString(string(models.DBContextURL))

	return State{
		DefaultModel: model.DefaultModel,
		StateEditable: StateEditable{
			Name:      model.Name,
			ShortCode: model.ShortCode,
		},
		Links: StateLinks{
			Self:        fmt.Sprintf("%s/v1/states/%s", url, model.ID),
			Allocations: fmt.Sprintf("%s/v1/allocations?state=%s", url, model.Name),
		},
	}
}

type StateListResponse struct {
	Data       []State     `json:"data"`                                                          // List of states
	Error      *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type StateCreateResponse struct {
	Data  []StateResponse `json:"data"`                                                          // List of the created states or their respective error
	Error *string         `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (s *StateCreateResponse) appendError(err error, currentStatus int) int {
	e := err.Error()
	s.Data = append(s.Data, StateResponse{Error: &e})

	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type StateResponse struct {
	Data  *State  `json:"data"`                                                          // Data for the state
	Error *string `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type StateQueryFilter struct {
	Name      string `form:"name" filterField:"false"`   // By name
	ShortCode string `form:"shortCode"`                  // By short code
	Offset    uint   `form:"offset" filterField:"false"` // The offset of the first state returned. Defaults to 0.
	Limit     int    `form:"limit" filterField:"false"`  // Maximum number of states to return. Defaults to 50.
}

func (f StateQueryFilter) model() models.State {
	return models.State{
		ShortCode: f.ShortCode,
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			States
// @Success		204
// @Router			/v1/states [options]
func OptionsStateList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			States
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/states/{id} [options]
func OptionsStateDetail(c *gin.Context) {
	resourceOptionsDetail(c, models.State{})
}

// @Summary		Create states
// @Description	Creates new states
// @Tags			States
// @Produce		json
// @Success		201		{object}	StateCreateResponse
// @Failure		400		{object}	StateCreateResponse
// @Failure		500		{object}	StateCreateResponse
// @Param			states	body		[]StateEditable	true	"States"
// @Router			/v1/states [post]
func CreateStates(c *gin.Context) {
	var editables []StateEditable

	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), StateCreateResponse{
			Error: &e,
		})
		return
	}

	status := http.StatusCreated
	r := StateCreateResponse{}

	for _, editable := range editables {
		state := editable.model()

		err = models.DB.Create(&state).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newState(c, state)
		r.Data = append(r.Data, StateResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Get states
// @Description	Returns a list of states
// @Tags			States
// @Produce		json
// @Success		200	{object}	StateListResponse
// @Failure		400	{object}	StateListResponse
// @Failure		500	{object}	StateListResponse
// @Router			/v1/states [get]
// @Param			name		query	string	false	"Filter by name"
// @Param			shortCode	query	string	false	"Filter by short code"
// @Param			offset		query	uint	false	"The offset of the first state returned. Defaults to 0."
// @Param			limit		query	int		false	"Maximum number of states to return. Defaults to 50."
func GetStates(c *gin.Context) {
	var filter StateQueryFilter
	_ = c.Bind(&filter)

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := models.DB.
		Order("name ASC").
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

	var states []models.State
	err := q.Find(&states).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), StateListResponse{
			Error: &s,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), StateListResponse{
			Error: &e,
		})
		return
	}

	data := make([]State, 0, len(states))
	for _, state := range states {
		data = append(data, newState(c, state))
	}

	c.JSON(http.StatusOK, StateListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get state
// @Description	Returns a specific state
// @Tags			States
// @Produce		json
// @Success		200	{object}	StateResponse
// @Failure		400	{object}	StateResponse
// @Failure		404	{object}	StateResponse
// @Failure		500	{object}	StateResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/states/{id} [get]
func GetState(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), StateResponse{
			Error: &s,
		})
		return
	}

	var state models.State
	err = models.DB.First(&state, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), StateResponse{
			Error: &s,
		})
		return
	}

	data := newState(c, state)
	c.JSON(http.StatusOK, StateResponse{Data: &data})
}

// @Summary		Update state
// @Description	Update an existing state. Only values to be updated need to be specified.
// @Tags			States
// @Accept			json
// @Produce		json
// @Success		200		{object}	StateResponse
// @Failure		400		{object}	StateResponse
// @Failure		404		{object}	StateResponse
// @Failure		500		{object}	StateResponse
// @Param			id		path		URIID			true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			state	body		StateEditable	true	"State"
// @Router			/v1/states/{id} [patch]
func UpdateState(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), StateResponse{
			Error: &s,
		})
		return
	}

	var state models.State
	err = models.DB.First(&state, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), StateResponse{
			Error: &s,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, StateEditable{})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), StateResponse{
			Error: &s,
		})
		return
	}

	var data StateEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), StateResponse{
			Error: &s,
		})
		return
	}

	err = models.DB.Model(&state).Select("", updateFields...).Updates(data.model()).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), StateResponse{
			Error: &s,
		})
		return
	}

	r := newState(c, state)
	c.JSON(http.StatusOK, StateResponse{Data: &r})
}

// @Summary		Delete state
// @Description	Deletes a state
// @Tags			States
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/states/{id} [delete]
func DeleteState(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var state models.State
	err = models.DB.First(&state, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.Delete(&state).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
