package v1

import (
	"github.com/gin-gonic/gin"
	fs_uuid "github.com/lcc-aid/fsystem-backend/internal/uuid"
)

type URIID struct {
	ID fs_uuid.UUID `uri:"id" binding:"required" format:"UUID"` // ID of the resource
}

// actor returns the acting user recorded on ledger rows. There is no
// authentication layer, callers identify themselves through the
// X-Actor header.
func actor(c *gin.Context) string {
	if a := c.GetHeader("X-Actor"); a != "" {
		return a
	}

	return "api"
}

// Pagination contains information about the pagination for collection endpoint responses.
type Pagination struct {
	Count  int   `json:"count"`  // The amount of records returned in this response
	Offset uint  `json:"offset"` // The offset for the first record returned
	Limit  int   `json:"limit"`  // The maximum amount of resources to return for this request
	Total  int64 `json:"total"`  // The total number of resources matching the query
}
