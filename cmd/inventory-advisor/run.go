package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/kubev2v/inventory-advisor/internal/advisory"
	apiserver "github.com/kubev2v/inventory-advisor/internal/api_server"
	"github.com/kubev2v/inventory-advisor/internal/config"
	"github.com/kubev2v/inventory-advisor/internal/events"
	handlers "github.com/kubev2v/inventory-advisor/internal/handlers/v1alpha1"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/internal/rvtools"
	"github.com/kubev2v/inventory-advisor/internal/service"
	"github.com/kubev2v/inventory-advisor/internal/store"
	"github.com/kubev2v/inventory-advisor/pkg/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the inventory advisor api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, done, err := setup()
		if err != nil {
			return err
		}
		defer done()

		zap.S().Info("Starting API service")
		defer zap.S().Info("API service stopped")

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		if err := migrations.MigrateStore(db, cfg); err != nil {
			zap.S().Fatalw("running migrations", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		holder := inventory.NewHolder(s.Inventory())
		if _, err := holder.Reload(ctx); err != nil {
			zap.S().Fatalw("loading inventory", "error", err)
		}

		var sourceOpts []service.SourceServiceOption
		if cfg.Service.EventsEnabled {
			producer := events.NewEventProducer(&events.LogWriter{}, events.WithOutputTopic(cfg.Service.EventsTopic))
			defer producer.Close()
			sourceOpts = append(sourceOpts, service.WithEventPublisher(producer))
		}

		sourceSrv := service.NewSourceService(s, holder, sourceOpts...)
		analysisSrv := service.NewAnalysisService(holder, *cfg.Thresholds,
			service.WithRates(*cfg.Rates),
			service.WithAdvisory(newAdvisor(cfg)),
		)
		reportSrv := service.NewReportService(analysisSrv)

		handler := handlers.NewServiceHandler(sourceSrv, analysisSrv, reportSrv,
			handlers.WithMaxUploadSize(cfg.Service.MaxUploadMB<<20),
		)

		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				return err
			}
			return apiserver.New(cfg, handler, listener).Run(ctx)
		})

		g.Go(func() error {
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				return err
			}
			return apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener, s, cfg.Service.LogLevel).Run(ctx)
		})

		if cfg.Ingest.Dir != "" {
			ingest := func(ctx context.Context) {
				if _, err := sourceSrv.IngestDir(ctx, cfg.Ingest.Dir); err != nil {
					zap.S().Errorw("failed to ingest workbook directory", "dir", cfg.Ingest.Dir, "error", err)
				}
			}
			ingest(ctx)

			if cfg.Ingest.Watch {
				g.Go(func() error {
					return rvtools.NewWatcher(cfg.Ingest.Dir, cfg.Ingest.Debounce, ingest).Run(ctx)
				})
			}
		}

		if err := g.Wait(); err != nil {
			zap.S().Errorw("server stopped", "error", err)
			return err
		}
		return nil
	},
}

// newAdvisor returns the advisory service. Without a configured provider it
// serves placeholder text.
func newAdvisor(cfg *config.Config) *advisory.Service {
	opts := []advisory.ServiceOption{advisory.WithCacheTTL(cfg.Advisory.CacheTTL)}
	if !cfg.Advisory.Enabled || cfg.Advisory.APIKey == "" {
		return advisory.NewService(nil, opts...)
	}

	client := advisory.NewOpenAIClient(cfg.Advisory.APIKey, cfg.Advisory.Model, cfg.Advisory.BaseURL,
		advisory.WithFallbackModel(cfg.Advisory.FallbackModel),
		advisory.WithTimeout(cfg.Advisory.Timeout),
	)
	zap.S().Infow("advisory provider enabled", "model", cfg.Advisory.Model)
	return advisory.NewService(client, opts...)
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
