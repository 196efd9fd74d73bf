package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/tewans-kitchen/pos/internal/config"
	"github.com/tewans-kitchen/pos/internal/export"
	kafkaexport "github.com/tewans-kitchen/pos/internal/export/kafka"
	mongoexport "github.com/tewans-kitchen/pos/internal/export/mongodb"
	pgexport "github.com/tewans-kitchen/pos/internal/export/postgres"
	amqpexport "github.com/tewans-kitchen/pos/internal/export/rabbitmq"
	redisdlq "github.com/tewans-kitchen/pos/internal/export/redis"
	"github.com/tewans-kitchen/pos/internal/ledger"
	"github.com/tewans-kitchen/pos/internal/logging"
	"github.com/tewans-kitchen/pos/internal/router"
	"github.com/tewans-kitchen/pos/internal/ws"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

var configPath = kingpin.Flag("config", "Path to the application config file").Short('c').Default("config.yml").String()

// sinks holds the exporters plus what must be closed on shutdown.
type sinks struct {
	exporters []export.Exporter
	dlq       export.DeadLetter
	metrics   http.Handler
	closers   []func()
}

func (s *sinks) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// connectSinks enables every export sink that has configuration.
func connectSinks(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sinks, error) {
	s := &sinks{exporters: []export.Exporter{export.NewLogExporter(logger)}}
	ec := cfg.Export

	if ec.Webhook.URL != "" {
		s.exporters = append(s.exporters, export.NewWebhookExporter(ec.Webhook.URL, ec.Webhook.Secret, ec.Webhook.TokenTTL, nil))
	}

	if ec.Postgres.URL != "" {
		pool, err := pgexport.Connect(ctx, ec.Postgres.URL)
		if err != nil {
			return s, err
		}
		s.closers = append(s.closers, pool.Close)
		s.exporters = append(s.exporters, pgexport.NewExporter(pool))
	}

	if ec.RabbitMQ.URL != "" {
		client, err := amqpexport.Dial(ec.RabbitMQ.URL, ec.RabbitMQ.Exchange)
		if err != nil {
			return s, err
		}
		s.closers = append(s.closers, client.Close)
		s.exporters = append(s.exporters, amqpexport.NewExporter(client.Channel(), ec.RabbitMQ.Exchange))
	}

	if ec.Mongo.URI != "" {
		client, err := mongoexport.Connect(ctx, ec.Mongo.URI)
		if err != nil {
			return s, err
		}
		s.closers = append(s.closers, func() { _ = client.Disconnect(context.Background()) })
		coll := client.Database(ec.Mongo.Database).Collection(ec.Mongo.Collection)
		s.exporters = append(s.exporters, mongoexport.NewExporter(coll))
	}

	if len(ec.Kafka.Brokers) > 0 {
		metrics := kprom.NewMetrics("pos")
		client, err := kafkaexport.NewClient(&kafkaexport.ProducerConfig{
			Brokers:  ec.Kafka.Brokers,
			Topic:    ec.Kafka.Topic,
			ClientID: ec.Kafka.ClientID,
		}, metrics)
		if err != nil {
			return s, err
		}
		s.closers = append(s.closers, client.Close)
		s.exporters = append(s.exporters, kafkaexport.NewExporter(client, ec.Kafka.Topic))
		s.metrics = metrics.Handler()
	}

	if ec.Redis.Addr != "" {
		client, err := redisdlq.Connect(ctx, ec.Redis.Addr, ec.Redis.Password, ec.Redis.DB)
		if err != nil {
			return s, err
		}
		s.closers = append(s.closers, func() { _ = client.Close() })
		s.dlq = redisdlq.NewDeadLetterQueue(client, ec.Redis.TTL, logger)
	}

	return s, nil
}

func main() {
	kingpin.Parse()

	cfg, k, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if !cfg.IsProdMode {
		k.Print()
	}

	logger, err := logging.New(cfg.Application, cfg.Logger.Level)
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	// Validate already checked these.
	catalog, _ := cfg.Catalog()
	pricing, _ := cfg.LedgerPricing()
	loc, _ := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := connectSinks(ctx, cfg, logger)
	if err != nil {
		s.close()
		logger.Fatal("cannot connect export sinks", zap.Error(err))
	}
	defer s.close()

	dispatcher := export.NewDispatcher(export.Config{
		Workers:      cfg.Export.Workers,
		QueueSize:    cfg.Export.QueueSize,
		OverflowSize: cfg.Export.OverflowSize,
		Timeout:      cfg.Export.Timeout,
	}, logger, s.dlq, s.exporters...)
	dispatcher.Start()

	l := ledger.New(catalog, pricing,
		ledger.WithTables(cfg.Floor.Tables),
		ledger.WithLocation(loc),
		ledger.WithExportHook(dispatcher.Hook()),
		ledger.WithLogger(logger),
	)

	hub := ws.NewHub(logger, cfg.Server.AllowedOrigins)
	go hub.Run(ctx)

	srv := &http.Server{
		Addr:    router.Addr(cfg),
		Handler: router.New(cfg, l, hub, logger, s.metrics),
	}

	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Error("export dispatcher shutdown", zap.Error(err))
	}

	stats := dispatcher.Stats()
	logger.Info("server stopped",
		zap.Uint64("exported", stats.Delivered),
		zap.Uint64("export_failures", stats.Failed),
		zap.Uint64("export_dropped", stats.Dropped),
		zap.Uint64("export_lost", stats.Lost),
	)
}
