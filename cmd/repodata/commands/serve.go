package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/componentize/repodata/announce"
	"github.com/componentize/repodata/github"
	"github.com/componentize/repodata/ingest"
	"github.com/componentize/repodata/logger"
	"github.com/componentize/repodata/queue"
	"github.com/componentize/repodata/server"
	"github.com/componentize/repodata/version"
)

// ServeCmd runs the full service: fetch loop, garbage collector, and HTTP API
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ingestion pipeline and HTTP API",
	Long: `Run the repodata service: the ingestion fetch loop, the queue garbage
collector, and the HTTP API for enqueueing and inspection.

The service shuts down cleanly on SIGINT/SIGTERM: the HTTP server drains
in-flight requests and the pipeline stops after its current tick.`,
	RunE: runServe,
}

func init() {
	addConfigFlag(ServeCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ingestions := queue.NewStore(database)
	versions := version.NewStore(database)

	source := github.NewClient(cfg.GitHub.Token, cfg.GitHub.Timeout(), logger.Named("github"),
		github.WithBaseURL(cfg.GitHub.APIBaseURL),
		github.WithRateLimit(cfg.GitHub.RequestsPerSec),
	)
	materializer := ingest.NewMaterializer(source, versions,
		cfg.Registry.DefaultSupportEmail, cfg.Registry.DefaultSupportChannel)
	announcer := announce.NewAnnouncer(cfg.Announce.WebhookURL, cfg.Announce.Channel,
		cfg.Registry.DefaultSupportEmail, logger.Named("announce"))

	loop := ingest.NewLoop(ingestions, materializer, announcer, ingest.LoopConfig{
		PollInterval:     cfg.Ingest.PollInterval(),
		IdlePollInterval: cfg.Ingest.IdlePollInterval(),
		BackoffBase:      cfg.Ingest.RetryBackoffBase(),
		MaxAttempts:      cfg.Ingest.MaxAttempts,
	}, logger.Named("ingest"))
	collector := ingest.NewCollector(ingestions, cfg.Ingest.CollectorInterval(),
		cfg.Ingest.MaxAttempts, cfg.Ingest.MaxRunTime(), logger.Named("collector"))
	api := server.NewServer(cfg.Server.Port, ingestions, versions, cfg.Registry, logger.Named("server"))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		loop.Run(ctx)
		return nil
	})
	group.Go(func() error {
		collector.Run(ctx)
		return nil
	})
	group.Go(api.Start)
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return api.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
