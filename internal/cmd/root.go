package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yunhanz/storymap-api/internal/api"
	"github.com/yunhanz/storymap-api/internal/config"
	"github.com/yunhanz/storymap-api/internal/geo"
	"github.com/yunhanz/storymap-api/internal/pipeline"
	"github.com/yunhanz/storymap-api/internal/placename"
	"github.com/yunhanz/storymap-api/internal/platform/gemini"
	"github.com/yunhanz/storymap-api/internal/platform/logger"
	"github.com/yunhanz/storymap-api/internal/story"
	"github.com/yunhanz/storymap-api/internal/task"
)

var rootCmd = &cobra.Command{
	Use:   "storymap",
	Short: "Generate life-track map pages for historical figures",
	Long: "storymap turns free text naming historical figures into generated " +
		"biographies, geocoded map pages, and GeoJSON/CSV exports. Run the " +
		"serve command for the HTTP API or generate for a one-shot run.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Missing .env files are fine; the environment may be set elsewhere.
	_ = godotenv.Load()

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
}

// app bundles the wired components shared by the serve and generate commands.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *task.Store
	pipeline  *pipeline.Pipeline
	scheduler *task.Scheduler
	handler   http.Handler
}

// buildApp loads configuration and wires every component.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	generator, err := gemini.NewGenerator(ctx, log, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	geocoder := geo.NewGeocoder(cfg.Geocode, log)
	splitter := placename.NewSplitter(generator, log)
	builder := story.NewBuilder(splitter, geocoder, log)

	store := task.NewStore()
	pipe := pipeline.New(generator, builder, geocoder, store, cfg.Output.Root, log)

	scheduler := task.NewScheduler(store, pipe, task.SchedulerConfig{
		WorkerCount: cfg.Task.WorkerCount,
		QueueSize:   cfg.Task.QueueSize,
		MaxInputLen: cfg.Task.MaxInputLen,
	}, log)

	handler := api.NewRouter(api.NewTaskHandler(scheduler, store, log), cfg.Server.AllowedOrigins)

	return &app{
		cfg:       cfg,
		logger:    log,
		store:     store,
		pipeline:  pipe,
		scheduler: scheduler,
		handler:   handler,
	}, nil
}
