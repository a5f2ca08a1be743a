package router

import (
	"net/http"
	"net/url"
	"os"
	"strings"

	docs "github.com/lcc-aid/fsystem-backend/api"
	"github.com/lcc-aid/fsystem-backend/internal/controllers/healthz"
	v1 "github.com/lcc-aid/fsystem-backend/internal/controllers/v1"
	"github.com/lcc-aid/fsystem-backend/internal/httputil"
	"github.com/lcc-aid/fsystem-backend/internal/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/logger"
	"github.com/gin-contrib/pprof"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// This is set at build time, see Makefile.
var version = "0.0.0"

// Config sets up the gin engine with all middlewares. Routes are
// attached separately with AttachRoutes so the API can be mounted on
// different base paths.
func Config(url *url.URL) (*gin.Engine, error) {
	r := gin.New()

	// Don’t process X-Forwarded-For header as we do not do anything with
	// client IPs
	r.ForwardedByClientIP = false

	// Send a HTTP 405 (Method not allowed) for all paths where there is
	// a handler, but not for the specific method used
	r.HandleMethodNotAllowed = true

	if err := registerMetrics(); err != nil {
		return nil, err
	}

	r.Use(gin.Recovery())
	r.Use(requestid.New())
	r.Use(URLMiddleware(url))
	r.Use(MetricsMiddleware())
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "This HTTP method is not allowed for the endpoint you called"})
	})
	r.Use(logger.SetLogger(
		logger.WithDefaultLevel(zerolog.InfoLevel),
		logger.WithClientErrorLevel(zerolog.InfoLevel),
		logger.WithServerErrorLevel(zerolog.ErrorLevel),
		logger.WithLogger(func(c *gin.Context, logger zerolog.Logger) zerolog.Logger {
			return logger.With().
				Str("request-id", requestid.Get(c)).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Int("status", c.Writer.Status()).
				Int("size", c.Writer.Size()).
				Str("user-agent", c.Request.UserAgent()).
				Logger()
		})))

	// CORS settings
	allowOrigins, ok := os.LookupEnv("CORS_ALLOW_ORIGINS")
	if ok {
		log.Debug().Str("CORS Allowed Origins", allowOrigins).Msg("Router")

		r.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Fields(allowOrigins),
			AllowMethods:     []string{"OPTIONS", "GET", "POST", "PATCH", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	// Disable the gin debug route printing as it clutters logs (and test logs)
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, numHandlers int) {}

	// Don’t trust any proxy. We do not process any client IPs,
	// therefore we don’t need to trust anyone here.
	_ = r.SetTrustedProxies([]string{})

	log.Debug().Str("API Base URL", url.String()).Str("Host", url.Host).Str("Path", url.Path).Msg("Router")
	log.Info().Str("version", version).Msg("Router")

	docs.SwaggerInfo.Host = url.Host
	docs.SwaggerInfo.BasePath = url.Path
	docs.SwaggerInfo.Title = "F-System Backend"
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Description = "The backend for the grant management of Localization Coordination Council emergency response rooms."

	return r, nil
}

// AttachRoutes attaches the API routes to the router group that is passed in.
// Separating this from Config() allows us to attach it to different
// paths for different use cases.
func AttachRoutes(group *gin.RouterGroup) {
	group.GET("", GetRoot)
	group.OPTIONS("", OptionsRoot)
	group.GET("/version", GetVersion)
	group.OPTIONS("/version", OptionsVersion)

	healthz.RegisterRoutes(group.Group("/healthz"))

	// pprof performance profiles
	enablePprof, ok := os.LookupEnv("ENABLE_PPROF")
	if ok && enablePprof == "true" {
		pprof.RouteRegister(group, "debug/pprof")
	}

	group.GET("/metrics", gin.WrapH(promhttp.Handler()))
	group.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 setup
	v1Group := group.Group("/v1")
	{
		v1Group.GET("", GetV1)
		v1Group.DELETE("", v1.Cleanup)
		v1Group.OPTIONS("", OptionsV1)
	}

	v1.RegisterDonorRoutes(v1Group.Group("/donors"))
	v1.RegisterStateRoutes(v1Group.Group("/states"))
	v1.RegisterGrantCallRoutes(v1Group.Group("/grant-calls"))
	v1.RegisterFundingCycleRoutes(v1Group.Group("/funding-cycles"))
	v1.RegisterAllocationRoutes(v1Group.Group("/allocations"))
	v1.RegisterMouRoutes(v1Group.Group("/mous"))
	v1.RegisterGrantSerialRoutes(v1Group.Group("/grant-serials"))
	v1.RegisterWorkplanRoutes(v1Group.Group("/workplans"))
	v1.RegisterDonorRuleRoutes(v1Group.Group("/donor-rules"))
	v1.RegisterDashboardRoutes(v1Group.Group("/dashboard"))
	v1.RegisterImportRoutes(v1Group.Group("/import"))
}

type RootResponse struct {
	Links RootLinks `json:"links"`
}

type RootLinks struct {
	Docs    string `json:"docs" example:"https://example.com/api/docs/index.html"` // Swagger API documentation
	Healthz string `json:"healthz" example:"https://example.com/api/healthz"`      // Health check endpoint
	Metrics string `json:"metrics" example:"https://example.com/api/metrics"`      // Endpoint returning Prometheus metrics
	Version string `json:"version" example:"https://example.com/api/version"`      // Endpoint returning the version of the backend
	V1      string `json:"v1" example:"https://example.com/api/v1"`                // List endpoint for all v1 endpoints
}

// GetRoot returns the link list for the API root
//
//	@Summary		API root
//	@Description	Entrypoint for the API, listing all endpoints
//	@Tags			General
//	@Success		200	{object}	RootResponse
//	@Router			/ [get]
func GetRoot(c *gin.Context) {
	url := c.GetString(string(models.DBContextURL))

	c.JSON(http.StatusOK, RootResponse{
		Links: RootLinks{
			Docs:    url + "/docs/index.html",
			Healthz: url + "/healthz",
			Metrics: url + "/metrics",
			Version: url + "/version",
			V1:      url + "/v1",
		},
	})
}

type VersionResponse struct {
	Data VersionObject `json:"data"` // Data object for the version endpoint
}
type VersionObject struct {
	Version string `json:"version" example:"1.1.0"` // the running version of the backend
}

// GetVersion returns the API version object
//
//	@Summary		API version
//	@Description	Returns the software version of the API
//	@Tags			General
//	@Success		200	{object}	VersionResponse
//	@Router			/version [get]
func GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, VersionResponse{
		Data: VersionObject{
			Version: version,
		},
	})
}

// OptionsRoot returns the allowed HTTP methods
//
//	@Summary		Allowed HTTP verbs
//	@Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
//	@Tags			General
//	@Success		204
//	@Router			/ [options]
func OptionsRoot(c *gin.Context) {
	httputil.OptionsGet(c)
}

// OptionsVersion returns the allowed HTTP methods
//
//	@Summary		Allowed HTTP verbs
//	@Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
//	@Tags			General
//	@Success		204
//	@Router			/version [options]
func OptionsVersion(c *gin.Context) {
	httputil.OptionsGet(c)
}

type V1Response struct {
	Links V1Links `json:"links"` // Links for the v1 API
}

type V1Links struct {
	Donors        string `json:"donors" example:"https://example.com/api/v1/donors"`               // URL of donor list endpoint
	States        string `json:"states" example:"https://example.com/api/v1/states"`               // URL of state list endpoint
	GrantCalls    string `json:"grantCalls" example:"https://example.com/api/v1/grant-calls"`      // URL of grant call list endpoint
	FundingCycles string `json:"fundingCycles" example:"https://example.com/api/v1/funding-cycles"` // URL of funding cycle list endpoint
	Allocations   string `json:"allocations" example:"https://example.com/api/v1/allocations"`     // URL of allocation list endpoint
	Mous          string `json:"mous" example:"https://example.com/api/v1/mous"`                   // URL of MOU list endpoint
	GrantSerials  string `json:"grantSerials" example:"https://example.com/api/v1/grant-serials"`  // URL of grant serial list endpoint
	Workplans     string `json:"workplans" example:"https://example.com/api/v1/workplans"`         // URL of workplan list endpoint
	DonorRules    string `json:"donorRules" example:"https://example.com/api/v1/donor-rules"`      // URL of donor rule list endpoint
	Dashboard     string `json:"dashboard" example:"https://example.com/api/v1/dashboard"`         // URL of the dashboard endpoints
	Import        string `json:"import" example:"https://example.com/api/v1/import"`               // URL of import list endpoint
}

// GetV1 returns the link list for v1
//
//	@Summary		v1 API
//	@Description	Returns general information about the v1 API
//	@Tags			v1
//	@Success		200	{object}	V1Response
//	@Router			/v1 [get]
func GetV1(c *gin.Context) {
	url := c.GetString(string(models.DBContextURL))

	c.JSON(http.StatusOK, V1Response{
		Links: V1Links{
			Donors:        url + "/v1/donors",
			States:        url + "/v1/states",
			GrantCalls:    url + "/v1/grant-calls",
			FundingCycles: url + "/v1/funding-cycles",
			Allocations:   url + "/v1/allocations",
			Mous:          url + "/v1/mous",
			GrantSerials:  url + "/v1/grant-serials",
			Workplans:     url + "/v1/workplans",
			DonorRules:    url + "/v1/donor-rules",
			Dashboard:     url + "/v1/dashboard",
			Import:        url + "/v1/import",
		},
	})
}

// OptionsV1 returns the allowed HTTP methods
//
//	@Summary		Allowed HTTP verbs
//	@Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
//	@Tags			v1
//	@Success		204
//	@Router			/v1 [options]
func OptionsV1(c *gin.Context) {
	httputil.OptionsGetDelete(c)
}
