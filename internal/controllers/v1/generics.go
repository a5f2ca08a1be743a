package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/lcc-aid/fsystem-backend/internal/httputil"
	"github.com/lcc-aid/fsystem-backend/internal/models"
)

// resourceOptionsDetail returns the appropriate response for an HTTP OPTIONS request for a specific resource.
func resourceOptionsDetail[R models.Donor | models.State | models.GrantCall | models.FundingCycle | models.StateAllocation | models.Mou | models.Workplan](c *gin.Context, resource R) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.First(&resource, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGetPatchDelete(c)
}
