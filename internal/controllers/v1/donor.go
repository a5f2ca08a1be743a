package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lcc-aid/fsystem-backend/internal/httputil"
	"github.com/lcc-aid/fsystem-backend/internal/models"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// RegisterDonorRoutes registers the routes for donors with
// the RouterGroup that is passed.
func RegisterDonorRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsDonorList)
		r.GET("", GetDonors)
		r.POST("", CreateDonors)
	}

	// Donor with ID
	{
		r.OPTIONS("/:id", OptionsDonorDetail)
		r.GET("/:id", GetDonor)
		r.PATCH("/:id", UpdateDonor)
		r.DELETE("/:id", DeleteDonor)
	}
}

// DonorEditable represents all user configurable parameters
type DonorEditable struct {
	Name      string `json:"name" example:"Diakonie Katastrophenhilfe" default:""`  // Name of the donor, must be unique
	ShortCode string `json:"shortCode" example:"DKH" default:""`                    // Short code used in grant serial codes
	Note      string `json:"note" example:"Main donor for WASH projects" default:""` // Notes about the donor
}

func (editable DonorEditable) model() models.Donor {
	return models.Donor{
		Name:      editable.Name,
		ShortCode: editable.ShortCode,
		Note:      editable.Note,
	}
}

type DonorLinks struct {
	Self       string `json:"self" example:"https://example.com/api/v1/donors/3b1ea324-d438-4419-882a-2fc91d71772f"`              // The donor itself
	GrantCalls string `json:"grantCalls" example:"https://example.com/api/v1/grant-calls?donor=3b1ea324-d438-4419-882a-2fc91d71772f"` // Grant calls of this donor
}

type Donor struct {
	models.DefaultModel
	DonorEditable
	Links DonorLinks `json:"links"`
}

func newDonor(c *gin.Context, model models.Donor) Donor {
	url := c.GetString(string(models.DBContextURL))

	return Donor{
		DefaultModel: model.DefaultModel,
		DonorEditable: DonorEditable{
			Name:      model.Name,
			ShortCode: model.ShortCode,
			Note:      model.Note,
		},
		Links: DonorLinks{
			Self:       fmt.Sprintf("%s/v1/donors/%s", url, model.ID),
			GrantCalls: fmt.Sprintf("%s/v1/grant-calls?donor=%s", url, model.ID),
		},
	}
}

type DonorListResponse struct {
	Data       []Donor     `json:"data"`                                                          // List of donors
	Error      *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type DonorCreateResponse struct {
	Data  []DonorResponse `json:"data"`                                                          // List of the created donors or their respective error
	Error *string         `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (d *DonorCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	d.Data = append(d.Data, DonorResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type DonorResponse struct {
	Data  *Donor  `json:"data"`                                                          // Data for the donor
	Error *string `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type DonorQueryFilter struct {
	Name      string `form:"name" filterField:"false"`   // By name
	ShortCode string `form:"shortCode"`                  // By short code
	Search    string `form:"search" filterField:"false"` // Search for this text in name and note
	Offset    uint   `form:"offset" filterField:"false"` // The offset of the first donor returned. Defaults to 0.
	Limit     int    `form:"limit" filterField:"false"`  // Maximum number of donors to return. Defaults to 50.
}

func (f DonorQueryFilter) model() models.Donor {
	return models.Donor{
		ShortCode: f.ShortCode,
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Donors
// @Success		204
// @Router			/v1/donors [options]
func OptionsDonorList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Donors
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/donors/{id} [options]
func OptionsDonorDetail(c *gin.Context) {
	resourceOptionsDetail(c, models.Donor{})
}

// @Summary		Create donors
// @Description	Creates new donors
// @Tags			Donors
// @Produce		json
// @Success		201		{object}	DonorCreateResponse
// @Failure		400		{object}	DonorCreateResponse
// @Failure		500		{object}	DonorCreateResponse
// @Param			donors	body		[]DonorEditable	true	"Donors"
// @Router			/v1/donors [post]
func CreateDonors(c *gin.Context) {
	var editables []DonorEditable

	// Bind data and return error if not possible
	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), DonorCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := DonorCreateResponse{}

	for _, editable := range editables {
		donor := editable.model()

		err = models.DB.Create(&donor).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newDonor(c, donor)
		r.Data = append(r.Data, DonorResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Get donors
// @Description	Returns a list of donors
// @Tags			Donors
// @Produce		json
// @Success		200	{object}	DonorListResponse
// @Failure		400	{object}	DonorListResponse
// @Failure		500	{object}	DonorListResponse
// @Router			/v1/donors [get]
// @Param			name		query	string	false	"Filter by name"
// @Param			shortCode	query	string	false	"Filter by short code"
// @Param			search		query	string	false	"Search for this text in name and note"
// @Param			offset		query	uint	false	"The offset of the first donor returned. Defaults to 0."
// @Param			limit		query	int		false	"Maximum number of donors to return. Defaults to 50."
func GetDonors(c *gin.Context) {
	var filter DonorQueryFilter

	// Every parameter is bound into a string, so this will always succeed
	_ = c.Bind(&filter)

	// Get the fields that we are filtering for
	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := models.DB.
		Order("name ASC").
		Where(filter.model(), queryFields...)

	q = stringFilters(models.DB, q, setFields, filter.Name, "", filter.Search)

	// Set the offset. Does not need checking since the default is 0
	q = q.Offset(int(filter.Offset))

	// Default to 50 donors and set the limit
	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var donors []models.Donor
	err := q.Find(&donors).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), DonorListResponse{
			Error: &s,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), DonorListResponse{
			Error: &e,
		})
		return
	}

	data := make([]Donor, 0, len(donors))
	for _, donor := range donors {
		data = append(data, newDonor(c, donor))
	}

	c.JSON(http.StatusOK, DonorListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get donor
// @Description	Returns a specific donor
// @Tags			Donors
// @Produce		json
// @Success		200	{object}	DonorResponse
// @Failure		400	{object}	DonorResponse
// @Failure		404	{object}	DonorResponse
// @Failure		500	{object}	DonorResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/donors/{id} [get]
func GetDonor(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), DonorResponse{
			Error: &s,
		})
		return
	}

	var donor models.Donor
	err = models.DB.First(&donor, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), DonorResponse{
			Error: &s,
		})
		return
	}

	data := newDonor(c, donor)
	c.JSON(http.StatusOK, DonorResponse{Data: &data})
}

// @Summary		Update donor
// @Description	Update an existing donor. Only values to be updated need to be specified.
// @Tags			Donors
// @Accept			json
// @Produce		json
// @Success		200		{object}	DonorResponse
// @Failure		400		{object}	DonorResponse
// @Failure		404		{object}	DonorResponse
// @Failure		500		{object}	DonorResponse
// @Param			id		path		URIID			true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			donor	body		DonorEditable	true	"Donor"
// @Router			/v1/donors/{id} [patch]
func UpdateDonor(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), DonorResponse{
			Error: &s,
		})
		return
	}

	var donor models.Donor
	err = models.DB.First(&donor, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), DonorResponse{
			Error: &s,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, DonorEditable{})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), DonorResponse{
			Error: &s,
		})
		return
	}

	var data DonorEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), DonorResponse{
			Error: &s,
		})
		return
	}

	err = models.DB.Model(&donor).Select("", updateFields...).Updates(data.model()).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), DonorResponse{
			Error: &s,
		})
		return
	}

	r := newDonor(c, donor)
	c.JSON(http.StatusOK, DonorResponse{Data: &r})
}

// @Summary		Delete donor
// @Description	Deletes a donor
// @Tags			Donors
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/donors/{id} [delete]
func DeleteDonor(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var donor models.Donor
	err = models.DB.First(&donor, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.Delete(&donor).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// stringFilters applies the name and search filters to a query.
func stringFilters(db, query *gorm.DB, setFields []string, name, note, search string) *gorm.DB {
	if slices.Contains(setFields, "Name") {
		query = query.Where("name LIKE ?", fmt.Sprintf("%%%s%%", name))
	}

	if slices.Contains(setFields, "Note") {
		query = query.Where("note LIKE ?", fmt.Sprintf("%%%s%%", note))
	}

	if slices.Contains(setFields, "Search") {
		query = query.Where(
			db.Where("note LIKE ?", fmt.Sprintf("%%%s%%", search)).
				Or("name LIKE ?", fmt.Sprintf("%%%s%%", search)),
		)
	}

	return query
}
