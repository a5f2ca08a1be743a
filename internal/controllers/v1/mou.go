package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lcc-aid/fsystem-backend/internal/httputil"
	"github.com/lcc-aid/fsystem-backend/internal/models"
	"golang.org/x/exp/slices"
)

// RegisterMouRoutes registers the routes for MOUs with
// the RouterGroup that is passed.
func RegisterMouRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsMouList)
		r.GET("", GetMous)
		r.POST("", CreateMous)
	}

	// Mou with ID
	{
		r.OPTIONS("/:id", OptionsMouDetail)
		r.GET("/:id", GetMou)
		r.PATCH("/:id", UpdateMou)
		r.DELETE("/:id", DeleteMou)
	}
}

// MouEditable represents all user configurable parameters
type MouEditable struct {
	Code        string `json:"code" example:"MOU-2025-014" default:""`        // Reference code of the MOU, must be unique
	PartnerName string `json:"partnerName" example:"Jabra ERR" default:""`    // Name of the partner organization
	Note        string `json:"note" example:"Covers Q3 commitments" default:""` // Notes about the MOU
}

func (editable MouEditable) model() models.Mou {
	return models.Mou{
		Code:        editable.Code,
		PartnerName: editable.PartnerName,
		Note:        editable.Note,
	}
}

type MouLinks struct {
	Self      string `json:"self" example:"https://example.com/api/v1/mous/c236c8e4-f2a6-44ac-98ae-c3a89a8ddecb"`        // The MOU itself
	Workplans string `json:"workplans" example:"https://example.com/api/v1/workplans?mou=c236c8e4-f2a6-44ac-98ae-c3a89a8ddecb"` // Workplans grouped under this MOU
}

type Mou struct {
	models.DefaultModel
	MouEditable
	Links MouLinks `json:"links"`
}

func newMou(c *gin.Context, model models.Mou) Mou {
	url := c.GetString(string(models.DBContextURL))

	return Mou{
		DefaultModel: model.DefaultModel,
		MouEditable: MouEditable{
			Code:        model.Code,
			PartnerName: model.PartnerName,
			Note:        model.Note,
		},
		Links: MouLinks{
			Self:      fmt.Sprintf("%s/v1/mous/%s", url, model.ID),
			Workplans: fmt.Sprintf("%s/v1/workplans?mou=%s", url, model.ID),
		},
	}
}

type MouListResponse struct {
	Data       []Mou       `json:"data"`                                                          // List of MOUs
	Error      *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type MouCreateResponse struct {
	Data  []MouResponse `json:"data"`                                                          // List of the created MOUs or their respective error
	Error *string       `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (m *MouCreateResponse) appendError(err error, currentStatus int) int {
	e := err.Error()
	m.Data = append(m.Data, MouResponse{Error: &e})

	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type MouResponse struct {
	Data  *Mou    `json:"data"`                                                          // Data for the MOU
	Error *string `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type MouQueryFilter struct {
	Code        string `form:"code"`                        // By reference code
	PartnerName string `form:"partnerName" filterField:"false"` // By partner name
	Offset      uint   `form:"offset" filterField:"false"`  // The offset of the first MOU returned. Defaults to 0.
	Limit       int    `form:"limit" filterField:"false"`   // Maximum number of MOUs to return. Defaults to 50.
}

func (f MouQueryFilter) model() models.Mou {
	return models.Mou{
		Code: f.Code,
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Mous
// @Success		204
// @Router			/v1/mous [options]
func OptionsMouList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Mous
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/mous/{id} [options]
func OptionsMouDetail(c *gin.Context) {
	resourceOptionsDetail(c, models.Mou{})
}

// @Summary		Create MOUs
// @Description	Creates new MOUs
// @Tags			Mous
// @Produce		json
// @Success		201		{object}	MouCreateResponse
// @Failure		400		{object}	MouCreateResponse
// @Failure		500		{object}	MouCreateResponse
// @Param			mous	body		[]MouEditable	true	"MOUs"
// @Router			/v1/mous [post]
func CreateMous(c *gin.Context) {
	var editables []MouEditable

	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), MouCreateResponse{
			Error: &e,
		})
		return
	}

	status := http.StatusCreated
	r := MouCreateResponse{}

	for _, editable := range editables {
		mou := editable.model()

		err = models.DB.Create(&mou).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newMou(c, mou)
		r.Data = append(r.Data, MouResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Get MOUs
// @Description	Returns a list of MOUs
// @Tags			Mous
// @Produce		json
// @Success		200	{object}	MouListResponse
// @Failure		400	{object}	MouListResponse
// @Failure		500	{object}	MouListResponse
// @Router			/v1/mous [get]
// @Param			code		query	string	false	"Filter by reference code"
// @Param			partnerName	query	string	false	"Filter by partner name"
// @Param			offset		query	uint	false	"The offset of the first MOU returned. Defaults to 0."
// @Param			limit		query	int		false	"Maximum number of MOUs to return. Defaults to 50."
func GetMous(c *gin.Context) {
	var filter MouQueryFilter
	_ = c.Bind(&filter)

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := models.DB.
		Order("code ASC").
		Where(filter.model(), queryFields...)

	if slices.Contains(setFields, "PartnerName") {
		q = q.Where("partner_name LIKE ?", fmt.Sprintf("%%%s%%", filter.PartnerName))
	}

	q = q.Offset(int(filter.Offset))

	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var mous []models.Mou
	err := q.Find(&mous).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), MouListResponse{
			Error: &s,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), MouListResponse{
			Error: &e,
		})
		return
	}

	data := make([]Mou, 0, len(mous))
	for _, mou := range mous {
		data = append(data, newMou(c, mou))
	}

	c.JSON(http.StatusOK, MouListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get MOU
// @Description	Returns a specific MOU
// @Tags			Mous
// @Produce		json
// @Success		200	{object}	MouResponse
// @Failure		400	{object}	MouResponse
// @Failure		404	{object}	MouResponse
// @Failure		500	{object}	MouResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/mous/{id} [get]
func GetMou(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), MouResponse{
			Error: &s,
		})
		return
	}

	var mou models.Mou
	err = models.DB.First(&mou, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), MouResponse{
			Error: &s,
		})
		return
	}

	data := newMou(c, mou)
	c.JSON(http.StatusOK, MouResponse{Data: &data})
}

// @Summary		Update MOU
// @Description	Update an existing MOU. Only values to be updated need to be specified.
// @Tags			Mous
// @Accept			json
// @Produce		json
// @Success		200	{object}	MouResponse
// @Failure		400	{object}	MouResponse
// @Failure		404	{object}	MouResponse
// @Failure		500	{object}	MouResponse
// @Param			id	path		URIID		true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			mou	body		MouEditable	true	"MOU"
// @Router			/v1/mous/{id} [patch]
func UpdateMou(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), MouResponse{
			Error: &s,
		})
		return
	}

	var mou models.Mou
	err = models.DB.First(&mou, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), MouResponse{
			Error: &s,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, MouEditable{})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), MouResponse{
			Error: &s,
		})
		return
	}

	var data MouEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), MouResponse{
			Error: &s,
		})
		return
	}

	err = models.DB.Model(&mou).Select("", updateFields...).Updates(data.model()).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), MouResponse{
			Error: &s,
		})
		return
	}

	r := newMou(c, mou)
	c.JSON(http.StatusOK, MouResponse{Data: &r})
}

// @Summary		Delete MOU
// @Description	Deletes an MOU. Workplans grouped under it are detached, not deleted.
// @Tags			Mous
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/mous/{id} [delete]
func DeleteMou(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var mou models.Mou
	err = models.DB.First(&mou, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	// Detach member workplans before the MOU goes away
	err = models.DB.Model(&models.Workplan{}).Where("mou_id = ?", mou.ID).Update("mou_id", nil).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.Delete(&mou).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
