package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shallweswim/backend-go/internal/api"
	"github.com/shallweswim/backend-go/internal/cache"
	"github.com/shallweswim/backend-go/internal/conditions"
	"github.com/shallweswim/backend-go/internal/config"
	"github.com/shallweswim/backend-go/internal/engine"
	"github.com/shallweswim/backend-go/internal/feed"
	"github.com/shallweswim/backend-go/internal/scheduler"
	"github.com/shallweswim/backend-go/pkg/noaa/client"
)

func main() {
	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()

	pipelineCfg := config.GetPipelineConfig()

	locations := config.DefaultLocations()
	if path := os.Getenv("LOCATIONS_FILE"); path != "" {
		var err error
		locations, err = config.LoadLocations(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Loading locations")
		}
	}

	httpClient := client.New(client.Options{
		BaseURL:    cfg.NOAABaseURL,
		Timeout:    cfg.HTTPTimeout,
		MaxRetries: cfg.MaxRetries,
	})
	feedClient := feed.NewNOAAClient(httpClient)

	seriesCache, err := cache.New(feedClient, pipelineCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Creating time series cache")
	}

	eng := engine.New(pipelineCfg)
	service := conditions.NewService(seriesCache, eng, locations)

	warmer := scheduler.New(seriesCache, pipelineCfg, locations)
	if err := warmer.Start(); err != nil {
		log.Fatal().Err(err).Msg("Starting warm scheduler")
	}
	defer warmer.Stop()

	handler := api.NewHandler(service)

	log.Info().
		Str("addr", cfg.ListenAddr).
		Strs("locations", locations.IDs()).
		Msg("Starting conditions server")

	if err := http.ListenAndServe(cfg.ListenAddr, handler.Routes()); err != nil {
		log.Fatal().Err(err).Msg("Server exited")
	}
}
