package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lcc-aid/fsystem-backend/internal/httputil"
	"github.com/lcc-aid/fsystem-backend/internal/models"
	"github.com/shopspring/decimal"
)

// RegisterDashboardRoutes registers the routes for the dashboard
// figures with the RouterGroup that is passed.
func RegisterDashboardRoutes(r *gin.RouterGroup) {
	r.OPTIONS("/pool-summary", OptionsDashboard)
	r.GET("/pool-summary", GetPoolSummary)

	r.OPTIONS("/by-state", OptionsDashboard)
	r.GET("/by-state", GetFiguresByState)

	r.OPTIONS("/by-donor", OptionsDashboard)
	r.GET("/by-donor", GetFiguresByDonor)

	r.OPTIONS("/preview", OptionsDashboard)
	r.GET("/preview", GetCommitmentPreview)
}

type PoolSummaryResponse struct {
	Data  *models.PoolSummary `json:"data"`  // The pool summary
	Error *string             `json:"error"` // The error, if any occurred
}

type StateFiguresResponse struct {
	Data  []models.StateFigures `json:"data"`  // Figures per state
	Error *string               `json:"error"` // The error, if any occurred
}

type DonorFiguresResponse struct {
	Data  []models.DonorFigures `json:"data"`  // Figures per donor and grant call
	Error *string               `json:"error"` // The error, if any occurred
}

type CommitmentPreviewResponse struct {
	Data  *models.PreviewFigures `json:"data"`  // The commitment preview
	Error *string                `json:"error"` // The error, if any occurred
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Dashboard
// @Success		204
// @Router			/v1/dashboard/pool-summary [options]
func OptionsDashboard(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Funding pool summary
// @Description	Returns the global funding pool overview: total budget, allocated, committed, pending and remaining amounts.
// @Tags			Dashboard
// @Produce		json
// @Success		200	{object}	PoolSummaryResponse
// @Failure		500	{object}	PoolSummaryResponse
// @Router			/v1/dashboard/pool-summary [get]
func GetPoolSummary(c *gin.Context) {
	var summary models.PoolSummary
	if dashboardCache.Get(c.Request.Context(), "pool-summary", &summary) {
		c.JSON(http.StatusOK, PoolSummaryResponse{Data: &summary})
		return
	}

	summary, err := models.GetPoolSummary(models.DB)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), PoolSummaryResponse{
			Error: &s,
		})
		return
	}

	dashboardCache.Set(c.Request.Context(), "pool-summary", summary)
	c.JSON(http.StatusOK, PoolSummaryResponse{Data: &summary})
}

// @Summary		Figures by state
// @Description	Returns the allocated, committed, pending and remaining amounts per state. Only active allocations count, superseded decisions are ignored.
// @Tags			Dashboard
// @Produce		json
// @Success		200	{object}	StateFiguresResponse
// @Failure		500	{object}	StateFiguresResponse
// @Router			/v1/dashboard/by-state [get]
func GetFiguresByState(c *gin.Context) {
	var figures []models.StateFigures
	if dashboardCache.Get(c.Request.Context(), "by-state", &figures) {
		c.JSON(http.StatusOK, StateFiguresResponse{Data: figures})
		return
	}

	figures, err := models.ByState(models.DB)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), StateFiguresResponse{
			Error: &s,
		})
		return
	}

	dashboardCache.Set(c.Request.Context(), "by-state", figures)
	c.JSON(http.StatusOK, StateFiguresResponse{Data: figures})
}

// @Summary		Figures by donor
// @Description	Returns the allocated, committed, pending and remaining amounts per donor and grant call.
// @Tags			Dashboard
// @Produce		json
// @Success		200	{object}	DonorFiguresResponse
// @Failure		500	{object}	DonorFiguresResponse
// @Router			/v1/dashboard/by-donor [get]
func GetFiguresByDonor(c *gin.Context) {
	var figures []models.DonorFigures
	if dashboardCache.Get(c.Request.Context(), "by-donor", &figures) {
		c.JSON(http.StatusOK, DonorFiguresResponse{Data: figures})
		return
	}

	figures, err := models.ByDonor(models.DB)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), DonorFiguresResponse{
			Error: &s,
		})
		return
	}

	dashboardCache.Set(c.Request.Context(), "by-donor", figures)
	c.JSON(http.StatusOK, DonorFiguresResponse{Data: figures})
}

// @Summary		Commitment preview
// @Description	Answers what committing an amount against an allocation would do: the remaining amount before and after, and whether the allocation is still the active decision.
// @Tags			Dashboard
// @Produce		json
// @Success		200				{object}	CommitmentPreviewResponse
// @Failure		400				{object}	CommitmentPreviewResponse
// @Failure		404				{object}	CommitmentPreviewResponse
// @Failure		500				{object}	CommitmentPreviewResponse
// @Param			allocationId	query		string	true	"ID of the allocation to preview against"
// @Param			amount			query		string	false	"The proposed commitment amount. Defaults to 0"
// @Router			/v1/dashboard/preview [get]
func GetCommitmentPreview(c *gin.Context) {
	allocationParam := c.Query("allocationId")
	if allocationParam == "" {
		s := errAllocationIDParameter.Error()
		c.JSON(http.StatusBadRequest, CommitmentPreviewResponse{
			Error: &s,
		})
		return
	}

	allocationID, err := uuid.Parse(allocationParam)
	if err != nil {
		s := httputil.ErrInvalidUUID.Error()
		c.JSON(http.StatusBadRequest, CommitmentPreviewResponse{
			Error: &s,
		})
		return
	}

	amount := decimal.Zero
	if amountParam := c.Query("amount"); amountParam != "" {
		amount, err = decimal.NewFromString(amountParam)
		if err != nil {
			s := err.Error()
			c.JSON(http.StatusBadRequest, CommitmentPreviewResponse{
				Error: &s,
			})
			return
		}
	}

	preview, err := models.PreviewCommitment(models.DB, allocationID, amount)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CommitmentPreviewResponse{
			Error: &s,
		})
		return
	}

	c.JSON(http.StatusOK, CommitmentPreviewResponse{Data: &preview})
}
