package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lcc-aid/fsystem-backend/internal/models"
)

// @Summary		Delete everything
// @Description	Permanently deletes all resources
// @Tags			v1
// @Success		204
// @Failure		400		{object}	httpError
// @Failure		500		{object}	httpError
// @Param			confirm	query		string	false	"Confirmation to delete all resources. Must have the value 'yes-please-delete-everything'"
// @Router			/v1 [delete]
func Cleanup(c *gin.Context) {
	var params struct {
		Confirm string `form:"confirm"`
	}

	err := c.Bind(&params)
	if err != nil || params.Confirm != "yes-please-delete-everything" {
		c.JSON(http.StatusBadRequest, httpError{
			Error: errCleanupConfirmation.Error(),
		})
		return
	}

	// Foreign keys are checked during cleanup,
	// add new models *before* any of the models
	// they reference
	resources := []any{
		models.LedgerEntry{},
		models.Workplan{},
		models.Mou{},
		models.WorkplanSequenceCounter{},
		models.GrantSerial{},
		models.StateAllocation{},
		models.GrantCall{},
		models.FundingCycle{},
		models.DonorRule{},
		models.ForecastRecord{},
		models.Donor{},
		models.State{},
	}

	// Use a transaction so that we can roll back if errors happen
	tx := models.DB.Begin()

	for _, model := range resources {
		err := tx.Unscoped().Where("true").Delete(&model).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, httpError{
				Error: err.Error(),
			})
			tx.Rollback()
			return
		}
	}

	tx.Commit()

	dashboardCache.Invalidate(c.Request.Context())
	c.JSON(http.StatusNoContent, nil)
}
