package main

import (
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/lcc-aid/fsystem-backend/internal/cache"
	"github.com/lcc-aid/fsystem-backend/internal/config"
	v1 "github.com/lcc-aid/fsystem-backend/internal/controllers/v1"
	"github.com/lcc-aid/fsystem-backend/internal/forecast"
	"github.com/lcc-aid/fsystem-backend/internal/models"
	"github.com/lcc-aid/fsystem-backend/internal/router"
	"github.com/lcc-aid/fsystem-backend/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// gin uses debug as the default mode, we use release for
	// security reasons
	ginMode, ok := os.LookupEnv("GIN_MODE")
	if !ok {
		gin.SetMode("release")
	} else {
		gin.SetMode(ginMode)
	}

	// Log format can be explicitly set.
	// If it is not set, it defaults to human readable for development
	// and JSON for release
	logFormat, ok := os.LookupEnv("LOG_FORMAT")
	output := io.Writer(os.Stdout)
	if (!ok && gin.IsDebugging()) || (ok && logFormat == "human") {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if gin.IsDebugging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(output).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	// The sqlite file and the approval file store both live under the
	// data directory by default
	err = os.MkdirAll(filepath.Dir(cfg.DBFile), os.ModePerm)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	err = models.Connect(cfg.DBFile)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	store, err := storage.NewDisk(cfg.StorageDir)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	figureCache, err := cache.New(cfg.RedisURL)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	v1.Configure(figureCache, store, forecast.NewPusher(cfg.ForecastPushURL))

	apiURL, err := url.Parse(cfg.APIURL)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	r, err := router.Config(apiURL)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}
	router.AttachRoutes(r.Group("/"))

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Msg(err.Error())
	}
}
