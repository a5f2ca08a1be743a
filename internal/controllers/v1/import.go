package v1

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lcc-aid/fsystem-backend/internal/extraction"
	"github.com/lcc-aid/fsystem-backend/internal/forecast"
	"github.com/lcc-aid/fsystem-backend/internal/httputil"
	"github.com/lcc-aid/fsystem-backend/internal/models"
)

// RegisterImportRoutes registers the import routes with the RouterGroup
// that is passed.
func RegisterImportRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", OptionsImport)
	r.GET("", GetImport)

	r.OPTIONS("/forecast", OptionsImportForecast)
	r.POST("/forecast", ImportForecast)

	r.OPTIONS("/extraction", OptionsImportExtraction)
	r.POST("/extraction", ImportExtraction)
}

type ImportResponse struct {
	Links ImportLinks `json:"links"` // Links to the available importers
}

type ImportLinks struct {
	Forecast   string `json:"forecast" example:"https://example.com/api/v1/import/forecast"`     // URL of the forecast CSV import endpoint
	Extraction string `json:"extraction" example:"https://example.com/api/v1/import/extraction"` // URL of the form extraction endpoint
}

type ImportForecastQuery struct {
	Finalize bool `form:"finalize"` // When true, non-duplicate rows are saved and pushed to the spreadsheet sync. When false, only a preview is returned
}

// ForecastImportResponse is the preview (or import result) for an
// uploaded forecast CSV.
type ForecastImportResponse struct {
	Data  []forecast.RecordPreview `json:"data"`  // The parsed rows with donor matches and duplicates
	Saved int                      `json:"saved"` // Number of rows saved, 0 for preview runs
	Error *string                  `json:"error"` // The error, if any occurred
}

// ExtractionRequest is a document extracted from a scanned form.
type ExtractionRequest struct {
	FormType extraction.FormType `json:"formType" binding:"required" example:"F1"` // One of F1, F4, F5
	Document json.RawMessage     `json:"document" binding:"required"`              // The extracted document matching the form type
}

// ExtractionResponse returns the parse result. For F1 documents the
// created draft workplan is included.
type ExtractionResponse struct {
	Workplan *Workplan `json:"workplan"` // The draft workplan, only set for F1 documents
	Document any       `json:"document"` // The validated document as parsed
	Error    *string   `json:"error"`    // The error, if any occurred
}

// getUploadedFile returns the form file and handles potential errors.
func getUploadedFile(c *gin.Context, suffix string) (multipart.File, error) {
	formFile, err := c.FormFile("file")
	if formFile == nil {
		return nil, errNoFilePost
	}

	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(formFile.Filename, suffix) {
		return nil, fmt.Errorf("%w: %s", errWrongFileSuffix, suffix)
	}

	f, err := formFile.Open()
	if err != nil {
		return nil, err
	}

	return f, nil
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Import
// @Success		204
// @Router			/v1/import [options]
func OptionsImport(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Import API overview
// @Description	Returns general information about the import endpoints
// @Tags			Import
// @Success		200	{object}	ImportResponse
// @Router			/v1/import [get]
func GetImport(c *gin.Context) {
	c.JSON(http.StatusOK, ImportResponse{
		Links: ImportLinks{
			Forecast:   c.GetString(string(models.DBContextURL)) + "/v1/import/forecast",
			Extraction: c.GetString(string(models.DBContextURL)) + "/v1/import/extraction",
		},
	})
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Import
// @Success		204
// @Router			/v1/import/forecast [options]
func OptionsImportForecast(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Import
// @Success		204
// @Router			/v1/import/extraction [options]
func OptionsImportExtraction(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Import forecast CSV
// @Description	Parses a donor forecast CSV export. Donor names are matched against the donor rules and rows already imported are marked as duplicates. Without finalize=true nothing is saved. With finalize=true all non-duplicate rows are saved and pushed to the spreadsheet sync.
// @Tags			Import
// @Accept			multipart/form-data
// @Produce		json
// @Success		200			{object}	ForecastImportResponse
// @Success		201			{object}	ForecastImportResponse
// @Failure		400			{object}	ForecastImportResponse
// @Failure		500			{object}	ForecastImportResponse
// @Param			file		formData	file	true	"The CSV export"
// @Param			finalize	query		bool	false	"Save non-duplicate rows instead of only previewing"
// @Router			/v1/import/forecast [post]
func ImportForecast(c *gin.Context) {
	var query ImportForecastQuery
	_ = c.Bind(&query)

	f, err := getUploadedFile(c, ".csv")
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ForecastImportResponse{
			Error: &s,
		})
		return
	}
	defer f.Close()

	previews, err := forecast.Parse(f)
	if err != nil {
		s := err.Error()
		c.JSON(http.StatusBadRequest, ForecastImportResponse{
			Error: &s,
		})
		return
	}

	err = forecast.Resolve(models.DB, previews)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ForecastImportResponse{
			Error: &s,
		})
		return
	}

	if !query.Finalize {
		c.JSON(http.StatusOK, ForecastImportResponse{Data: previews})
		return
	}

	saved := 0
	var records []models.ForecastRecord
	for i := range previews {
		if len(previews[i].DuplicateIDs) > 0 {
			continue
		}

		record := previews[i].Record
		err = models.DB.Create(&record).Error
		if err != nil {
			s := err.Error()
			c.JSON(status(err), ForecastImportResponse{
				Error: &s,
			})
			return
		}

		previews[i].Record = record
		records = append(records, record)
		saved++
	}

	forecastPusher.Push(c.Request.Context(), records)

	c.JSON(http.StatusCreated, ForecastImportResponse{
		Data:  previews,
		Saved: saved,
	})
}

// @Summary		Import extracted form
// @Description	Validates a document extracted from a scanned form. F1 documents create a draft workplan for review. F4 and F5 documents are validated and echoed back, they do not change any stored data.
// @Tags			Import
// @Accept			json
// @Produce		json
// @Success		200			{object}	ExtractionResponse
// @Success		201			{object}	ExtractionResponse
// @Failure		400			{object}	ExtractionResponse
// @Failure		500			{object}	ExtractionResponse
// @Param			extraction	body		ExtractionRequest	true	"The extracted document"
// @Router			/v1/import/extraction [post]
func ImportExtraction(c *gin.Context) {
	var request ExtractionRequest
	err := httputil.BindData(c, &request)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ExtractionResponse{
			Error: &s,
		})
		return
	}

	switch request.FormType {
	case extraction.FormF1:
		document, err := extraction.ParseF1(request.Document)
		if err != nil {
			s := err.Error()
			c.JSON(http.StatusBadRequest, ExtractionResponse{
				Error: &s,
			})
			return
		}

		workplan := document.Workplan()
		err = models.DB.Create(&workplan).Error
		if err != nil {
			s := err.Error()
			c.JSON(status(err), ExtractionResponse{
				Error: &s,
			})
			return
		}

		data := newWorkplan(c, workplan)
		c.JSON(http.StatusCreated, ExtractionResponse{
			Workplan: &data,
			Document: document,
		})

	case extraction.FormF4:
		document, err := extraction.ParseF4(request.Document)
		if err != nil {
			s := err.Error()
			c.JSON(http.StatusBadRequest, ExtractionResponse{
				Error: &s,
			})
			return
		}

		c.JSON(http.StatusOK, ExtractionResponse{Document: document})

	case extraction.FormF5:
		document, err := extraction.ParseF5(request.Document)
		if err != nil {
			s := err.Error()
			c.JSON(http.StatusBadRequest, ExtractionResponse{
				Error: &s,
			})
			return
		}

		c.JSON(http.StatusOK, ExtractionResponse{Document: document})

	default:
		s := extraction.ErrUnknownFormType.Error()
		c.JSON(http.StatusBadRequest, ExtractionResponse{
			Error: &s,
		})
	}
}
