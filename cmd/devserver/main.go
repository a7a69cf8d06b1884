// Package main starts the local stand-in for the job-board's REST JSON
// store, serving the users, jobs and jobApplications collections from
// memory for development and testing.
package main

import (
	"cmp"
	"fmt"
	nethttp "net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sucheta/jobport/internal/config"
	"github.com/sucheta/jobport/internal/logger"
	"github.com/sucheta/jobport/internal/middleware"
	"github.com/sucheta/jobport/internal/server/rest"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()
	addr := options.ListenAddress

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// In-memory collection store and its HTTP surface.
	store := rest.NewStore()
	handler := &rest.Handler{Store: store}

	// 2 requests/sec sustained per client, bursts of 120.
	limiter := middleware.NewRateLimiter(rate.Limit(2), 120)

	router := rest.NewRouter(handler, limiter, zapLogger)

	server := &nethttp.Server{
		Addr:    addr,
		Handler: router,
	}

	zapLogger.Info("starting dev store", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}
