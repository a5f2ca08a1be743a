package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lcc-aid/fsystem-backend/internal/httputil"
	"github.com/lcc-aid/fsystem-backend/internal/models"
	"github.com/lcc-aid/fsystem-backend/internal/types"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// RegisterGrantSerialRoutes registers the routes for grant serials with
// the RouterGroup that is passed.
//
// Serials are created through the idempotent POST and never edited or
// deleted directly: workplan numbers hang off them and the code is
// referenced in approval documents.
func RegisterGrantSerialRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsGrantSerialList)
		r.GET("", GetGrantSerials)
		r.POST("", CreateGrantSerial)
	}

	// GrantSerial with ID
	{
		r.OPTIONS("/:id", OptionsGrantSerialDetail)
		r.GET("/:id", GetGrantSerial)
	}
}

// GrantSerialEditable represents the scope a serial is requested for
type GrantSerialEditable struct {
	GrantCallID    *uuid.UUID      `json:"grantCallId" example:"17f29ec6-d88b-4686-8a25-69ed753a4eba"`    // ID of the grant call. Exactly one of grantCallId and fundingCycleId must be set
	FundingCycleID *uuid.UUID      `json:"fundingCycleId" example:"da08b79e-79b4-4ce1-bbc4-24b0cfeae854"` // ID of the funding cycle
	StateName      string          `json:"stateName" example:"Khartoum" default:""`                       // Name of the state
	Month          types.MonthCode `json:"month" example:"0825" default:""`                               // Month code in MMYY format
}

func (editable GrantSerialEditable) scope() models.SerialScope {
	return models.SerialScope{
		GrantCallID:    editable.GrantCallID,
		FundingCycleID: editable.FundingCycleID,
		StateName:      editable.StateName,
		Month:          editable.Month,
	}
}

type GrantSerialLinks struct {
	Self      string `json:"self" example:"https://example.com/api/v1/grant-serials/0597035f-16cd-4547-bd65-fa12c9e62e5e"`    // The grant serial itself
	Workplans string `json:"workplans" example:"https://example.com/api/v1/workplans?grantSerial=0597035f-16cd-4547-bd65-fa12c9e62e5e"` // Workplans numbered under this serial
}

type GrantSerial struct {
	models.DefaultModel
	GrantSerialEditable
	Code      string           `json:"code" example:"LCC-DKH-KH-0825-0001"` // The assembled serial code
	SerialSeq uint             `json:"serialSeq" example:"1"`               // Position of this serial within its scope
	Links     GrantSerialLinks `json:"links"`
}

func newGrantSerial(c *gin.Context, model models.GrantSerial) GrantSerial {
	url := c.GetString(string(models.DBContextURL))

	return GrantSerial{
		DefaultModel: model.DefaultModel,
		GrantSerialEditable: GrantSerialEditable{
			GrantCallID:    model.GrantCallID,
			FundingCycleID: model.FundingCycleID,
			StateName:      model.StateName,
			Month:          model.Month,
		},
		Code:      model.Code,
		SerialSeq: model.SerialSeq,
		Links: GrantSerialLinks{
			Self:      fmt.Sprintf("%s/v1/grant-serials/%s", url, model.ID),
			Workplans: fmt.Sprintf("%s/v1/workplans?grantSerial=%s", url, model.ID),
		},
	}
}

type GrantSerialListResponse struct {
	Data       []GrantSerial `json:"data"`                                                          // List of grant serials
	Error      *string       `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination   `json:"pagination"`                                                    // Pagination information
}

type GrantSerialResponse struct {
	Data  *GrantSerial `json:"data"`                                                          // Data for the grant serial
	Error *string      `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type GrantSerialQueryFilter struct {
	StateName string `form:"state"`                      // By state name
	Month     string `form:"month"`                      // By month code
	Code      string `form:"code" filterField:"false"`   // By serial code
	Offset    uint   `form:"offset" filterField:"false"` // The offset of the first serial returned. Defaults to 0.
	Limit     int    `form:"limit" filterField:"false"`  // Maximum number of serials to return. Defaults to 50.
}

func (f GrantSerialQueryFilter) model() models.GrantSerial {
	return models.GrantSerial{
		StateName: f.StateName,
		Month:     types.MonthCode(f.Month),
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			GrantSerials
// @Success		204
// @Router			/v1/grant-serials [options]
func OptionsGrantSerialList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			GrantSerials
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/grant-serials/{id} [options]
func OptionsGrantSerialDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var serial models.GrantSerial
	err = models.DB.First(&serial, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGet(c)
}

// @Summary		Create or get grant serial
// @Description	Returns the grant serial for the requested scope, creating it if it does not exist yet. The call is idempotent: repeating it with the same scope returns the same serial.
// @Tags			GrantSerials
// @Produce		json
// @Success		200		{object}	GrantSerialResponse
// @Failure		400		{object}	GrantSerialResponse
// @Failure		409		{object}	GrantSerialResponse
// @Failure		500		{object}	GrantSerialResponse
// @Param			serial	body		GrantSerialEditable	true	"Serial scope"
// @Router			/v1/grant-serials [post]
func CreateGrantSerial(c *gin.Context) {
	var editable GrantSerialEditable

	err := httputil.BindData(c, &editable)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), GrantSerialResponse{
			Error: &s,
		})
		return
	}

	var serial models.GrantSerial
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		serial, txErr = models.CreateOrGetGrantSerial(tx, editable.scope())
		return txErr
	})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), GrantSerialResponse{
			Error: &s,
		})
		return
	}

	data := newGrantSerial(c, serial)
	c.JSON(http.StatusOK, GrantSerialResponse{Data: &data})
}

// @Summary		Get grant serials
// @Description	Returns a list of grant serials
// @Tags			GrantSerials
// @Produce		json
// @Success		200	{object}	GrantSerialListResponse
// @Failure		400	{object}	GrantSerialListResponse
// @Failure		500	{object}	GrantSerialListResponse
// @Router			/v1/grant-serials [get]
// @Param			state	query	string	false	"Filter by state name"
// @Param			month	query	string	false	"Filter by month code"
// @Param			code	query	string	false	"Filter by serial code"
// @Param			offset	query	uint	false	"The offset of the first serial returned. Defaults to 0."
// @Param			limit	query	int		false	"Maximum number of serials to return. Defaults to 50."
func GetGrantSerials(c *gin.Context) {
	var filter GrantSerialQueryFilter
	_ = c.Bind(&filter)

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := models.DB.
		Order("code ASC").
		Where(filter.model(), queryFields...)

	if slices.Contains(setFields, "Code") {
		q = q.Where("code LIKE ?", fmt.Sprintf("%%%s%%", filter.Code))
	}

	q = q.Offset(int(filter.Offset))

	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var serials []models.GrantSerial
	err := q.Find(&serials).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), GrantSerialListResponse{
			Error: &s,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), GrantSerialListResponse{
			Error: &e,
		})
		return
	}

	data := make([]GrantSerial, 0, len(serials))
	for _, serial := range serials {
		data = append(data, newGrantSerial(c, serial))
	}

	c.JSON(http.StatusOK, GrantSerialListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get grant serial
// @Description	Returns a specific grant serial
// @Tags			GrantSerials
// @Produce		json
// @Success		200	{object}	GrantSerialResponse
// @Failure		400	{object}	GrantSerialResponse
// @Failure		404	{object}	GrantSerialResponse
// @Failure		500	{object}	GrantSerialResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/grant-serials/{id} [get]
func GetGrantSerial(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), GrantSerialResponse{
			Error: &s,
		})
		return
	}

	var serial models.GrantSerial
	err = models.DB.First(&serial, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), GrantSerialResponse{
			Error: &s,
		})
		return
	}

	data := newGrantSerial(c, serial)
	c.JSON(http.StatusOK, GrantSerialResponse{Data: &data})
}
