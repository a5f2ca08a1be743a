package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lcc-aid/fsystem-backend/internal/httputil"
	"github.com/lcc-aid/fsystem-backend/internal/models"
	"golang.org/x/exp/slices"
)

// RegisterDonorRuleRoutes registers the routes for donor rules with
// the RouterGroup that is passed.
func RegisterDonorRuleRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsDonorRuleList)
		r.GET("", GetDonorRules)
		r.POST("", CreateDonorRules)
	}

	// DonorRule with ID
	{
		r.OPTIONS("/:id", OptionsDonorRuleDetail)
		r.GET("/:id", GetDonorRule)
		r.PATCH("/:id", UpdateDonorRule)
		r.DELETE("/:id", DeleteDonorRule)
	}
}

// DonorRuleEditable represents all user configurable parameters
type DonorRuleEditable struct {
	Priority uint      `json:"priority" example:"1" default:"0"`                      // Evaluation order, lower is evaluated first
	Match    string    `json:"match" example:"DKH*" default:""`                       // Glob pattern matched against raw donor names from forecast imports
	DonorID  uuid.UUID `json:"donorId" example:"b2d453aa-52bc-4aae-9dce-a79c16933fe1"` // ID of the donor a matching name resolves to
}

func (editable DonorRuleEditable) model() models.DonorRule {
	return models.DonorRule{
		Priority: editable.Priority,
		Match:    editable.Match,
		DonorID:  editable.DonorID,
	}
}

type DonorRuleLinks struct {
	Self  string `json:"self" example:"https://example.com/api/v1/donor-rules/95685c82-53c6-455d-b235-f49960b73b21"` // The donor rule itself
	Donor string `json:"donor" example:"https://example.com/api/v1/donors/b2d453aa-52bc-4aae-9dce-a79c16933fe1"`     // The donor the rule resolves to
}

type DonorRule struct {
	models.DefaultModel
	DonorRuleEditable
	Links DonorRuleLinks `json:"links"`
}

func newDonorRule(c *gin.Context, model models.DonorRule) DonorRule {
	url := c.GetString(string(models.DBContextURL))

	return DonorRule{
		DefaultModel: model.DefaultModel,
		DonorRuleEditable: DonorRuleEditable{
			Priority: model.Priority,
			Match:    model.Match,
			DonorID:  model.DonorID,
		},
		Links: DonorRuleLinks{
			Self:  fmt.Sprintf("%s/v1/donor-rules/%s", url, model.ID),
			Donor: fmt.Sprintf("%s/v1/donors/%s", url, model.DonorID),
		},
	}
}

type DonorRuleListResponse struct {
	Data       []DonorRule `json:"data"`                                                          // List of donor rules
	Error      *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type DonorRuleCreateResponse struct {
	Data  []DonorRuleResponse `json:"data"`                                                          // List of the created donor rules or their respective error
	Error *string             `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (d *DonorRuleCreateResponse) appendError(err error, currentStatus int) int {
	e := err.Error()
	d.Data = append(d.Data, DonorRuleResponse{Error: &e})

	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type DonorRuleResponse struct {
	Data  *DonorRule `json:"data"`                                                          // Data for the donor rule
	Error *string    `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type DonorRuleQueryFilter struct {
	Match   string `form:"match" filterField:"false"`  // By match pattern
	DonorID string `form:"donor"`                      // By donor ID
	Offset  uint   `form:"offset" filterField:"false"` // The offset of the first rule returned. Defaults to 0.
	Limit   int    `form:"limit" filterField:"false"`  // Maximum number of rules to return. Defaults to 50.
}

func (f DonorRuleQueryFilter) model() (models.DonorRule, error) {
	var donorID uuid.UUID

	if f.DonorID != "" {
		var err error
		donorID, err = uuid.Parse(f.DonorID)
		if err != nil {
			return models.DonorRule{}, httputil.ErrInvalidUUID
		}
	}

	return models.DonorRule{
		DonorID: donorID,
	}, nil
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			DonorRules
// @Success		204
// @Router			/v1/donor-rules [options]
func OptionsDonorRuleList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			DonorRules
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/donor-rules/{id} [options]
func OptionsDonorRuleDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.First(&models.DonorRule{}, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// @Summary		Create donor rules
// @Description	Creates new donor rules. Rules are evaluated in priority order during forecast imports, the first matching glob wins.
// @Tags			DonorRules
// @Produce		json
// @Success		201		{object}	DonorRuleCreateResponse
// @Failure		400		{object}	DonorRuleCreateResponse
// @Failure		500		{object}	DonorRuleCreateResponse
// @Param			rules	body		[]DonorRuleEditable	true	"Donor rules"
// @Router			/v1/donor-rules [post]
func CreateDonorRules(c *gin.Context) {
	var editables []DonorRuleEditable

	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), DonorRuleCreateResponse{
			Error: &e,
		})
		return
	}

	status := http.StatusCreated
	r := DonorRuleCreateResponse{}

	for _, editable := range editables {
		rule := editable.model()

		err = models.DB.Create(&rule).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newDonorRule(c, rule)
		r.Data = append(r.Data, DonorRuleResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Get donor rules
// @Description	Returns a list of donor rules in evaluation order
// @Tags			DonorRules
// @Produce		json
// @Success		200	{object}	DonorRuleListResponse
// @Failure		400	{object}	DonorRuleListResponse
// @Failure		500	{object}	DonorRuleListResponse
// @Router			/v1/donor-rules [get]
// @Param			match	query	string	false	"Filter by match pattern"
// @Param			donor	query	string	false	"Filter by the ID of the donor"
// @Param			offset	query	uint	false	"The offset of the first rule returned. Defaults to 0."
// @Param			limit	query	int		false	"Maximum number of rules to return. Defaults to 50."
func GetDonorRules(c *gin.Context) {
	var filter DonorRuleQueryFilter
	_ = c.Bind(&filter)

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	model, err := filter.model()
	if err != nil {
		s := err.Error()
		c.JSON(status(err), DonorRuleListResponse{
			Error: &s,
		})
		return
	}

	q := models.DB.
		Order("priority ASC, match ASC").
		Where(model, queryFields...)

	if slices.Contains(setFields, "Match") {
		q = q.Where("match LIKE ?", fmt.Sprintf("%%%s%%", filter.Match))
	}

	q = q.Offset(int(filter.Offset))

	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var rules []models.DonorRule
	err = q.Find(&rules).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), DonorRuleListResponse{
			Error: &s,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), DonorRuleListResponse{
			Error: &e,
		})
		return
	}

	data := make([]DonorRule, 0, len(rules))
	for _, rule := range rules {
		data = append(data, newDonorRule(c, rule))
	}

	c.JSON(http.StatusOK, DonorRuleListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get donor rule
// @Description	Returns a specific donor rule
// @Tags			DonorRules
// @Produce		json
// @Success		200	{object}	DonorRuleResponse
// @Failure		400	{object}	DonorRuleResponse
// @Failure		404	{object}	DonorRuleResponse
// @Failure		500	{object}	DonorRuleResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/donor-rules/{id} [get]
func GetDonorRule(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), DonorRuleResponse{
			Error: &s,
		})
		return
	}

	var rule models.DonorRule
	err = models.DB.First(&rule, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), DonorRuleResponse{
			Error: &s,
		})
		return
	}

	data := newDonorRule(c, rule)
	c.JSON(http.StatusOK, DonorRuleResponse{Data: &data})
}

// @Summary		Update donor rule
// @Description	Update an existing donor rule. Only values to be updated need to be specified.
// @Tags			DonorRules
// @Accept			json
// @Produce		json
// @Success		200		{object}	DonorRuleResponse
// @Failure		400		{object}	DonorRuleResponse
// @Failure		404		{object}	DonorRuleResponse
// @Failure		500		{object}	DonorRuleResponse
// @Param			id		path		URIID				true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			rule	body		DonorRuleEditable	true	"Donor rule"
// @Router			/v1/donor-rules/{id} [patch]
func UpdateDonorRule(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), DonorRuleResponse{
			Error: &s,
		})
		return
	}

	var rule models.DonorRule
	err = models.DB.First(&rule, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), DonorRuleResponse{
			Error: &s,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, DonorRuleEditable{})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), DonorRuleResponse{
			Error: &s,
		})
		return
	}

	var data DonorRuleEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), DonorRuleResponse{
			Error: &s,
		})
		return
	}

	err = models.DB.Model(&rule).Select("", updateFields...).Updates(data.model()).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), DonorRuleResponse{
			Error: &s,
		})
		return
	}

	r := newDonorRule(c, rule)
	c.JSON(http.StatusOK, DonorRuleResponse{Data: &r})
}

// @Summary		Delete donor rule
// @Description	Deletes a donor rule
// @Tags			DonorRules
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/donor-rules/{id} [delete]
func DeleteDonorRule(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var rule models.DonorRule
	err = models.DB.First(&rule, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.Delete(&rule).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
