package v1

import (
	"time"

	"github.com/lcc-aid/fsystem-backend/internal/cache"
	"github.com/lcc-aid/fsystem-backend/internal/forecast"
	"github.com/lcc-aid/fsystem-backend/internal/storage"
)

// timeNow is replaceable so tests can pin the month defaulting.
var timeNow = time.Now

// Package wide dependencies, set once at startup via Configure. The
// defaults keep everything working in tests: a disabled cache, an
// in-memory file store and a disabled forecast pusher.
var (
	dashboardCache = &cache.Cache{}
	approvalStore  storage.Store = storage.NewMemory()
	forecastPusher               = forecast.NewPusher("")
)

// Configure wires the external dependencies of the API handlers. Nil
// values keep the respective default.
func Configure(c *cache.Cache, store storage.Store, pusher *forecast.Pusher) {
	if c != nil {
		dashboardCache = c
	}

	if store != nil {
		approvalStore = store
	}

	if pusher != nil {
		forecastPusher = pusher
	}
}
