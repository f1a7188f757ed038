package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/order-engine/internal/domain/catalog"
	"github.com/xenking/order-engine/internal/domain/order"
	"github.com/xenking/order-engine/internal/events"
	"github.com/xenking/order-engine/internal/handler"
	"github.com/xenking/order-engine/internal/ledger"
	"github.com/xenking/order-engine/internal/metrics"
	"github.com/xenking/order-engine/internal/processing"
	"github.com/xenking/order-engine/internal/storage/postgres"
	"github.com/xenking/order-engine/pkg/health"
	"github.com/xenking/order-engine/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the event consumer and HTTP server,
// and handles graceful shutdown. It is the single wiring point for the
// application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	rules, err := parseRules(cfg)
	if err != nil {
		return err
	}

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Product catalog: built-in fixtures plus an optional catalog file.
	cat := catalog.NewSeeded()
	if cfg.CatalogFile != "" {
		n, err := cat.LoadFile(cfg.CatalogFile)
		if err != nil {
			return errors.Wrap(err, "load catalog")
		}
		lg.Info("Catalog loaded", zap.String("file", cfg.CatalogFile), zap.Int("products", n))
	}

	orderRepo := postgres.NewOrderRepository(pool)

	// Resource ledgers.
	creditLimit, err := decimal.NewFromString(cfg.Processing.CreditLimit)
	if err != nil {
		return errors.Wrap(err, "parse credit limit")
	}
	approvalThreshold, err := decimal.NewFromString(cfg.Processing.ApprovalThreshold)
	if err != nil {
		return errors.Wrap(err, "parse approval threshold")
	}
	stock := ledger.NewStock()
	subs := ledger.NewSubscriptions(cfg.Processing.MaxActiveSubscriptions)
	licenses := ledger.NewLicenses(cat)
	preOrders := ledger.NewPreOrders(cat)
	credit := ledger.NewCredit(creditLimit)

	// Event bus.
	sc, err := events.Connect(cfg.NATS.ClusterID, cfg.NATS.ClientID, cfg.NATS.URL)
	if err != nil {
		return errors.Wrap(err, "connect nats streaming")
	}
	defer sc.Close()
	publisher := events.NewPublisher(sc, cfg.NATS.Subject)

	// Metrics.
	mtr, err := metrics.New(m.MeterProvider().Meter("order-engine"))
	if err != nil {
		return errors.Wrap(err, "create metrics")
	}

	// Processing pipeline.
	registry := processing.NewRegistry(
		processing.NewPhysicalProcessor(cat, stock, publisher, mtr),
		processing.NewSubscriptionProcessor(subs),
		processing.NewDigitalProcessor(licenses),
		processing.NewPreOrderProcessor(preOrders),
		processing.NewCorporateProcessor(credit, approvalThreshold),
	)
	globalRules := processing.NewGlobalRules(rules, publisher, nil)
	orchestrator := processing.NewOrchestrator(
		orderRepo, registry, globalRules, publisher, mtr,
		m.TracerProvider().Tracer("order-engine"),
	)

	consumer := events.NewConsumer(sc, events.ConsumerConfig{
		Subject:    cfg.NATS.Subject,
		QueueGroup: cfg.NATS.QueueGroup,
		Durable:    cfg.NATS.Durable,
		AckWait:    cfg.NATS.AckWait,
	}, orchestrator, lg.Named("consumer"))
	if err := consumer.Subscribe(ctx); err != nil {
		return errors.Wrap(err, "subscribe order events")
	}

	// Domain services and HTTP handlers.
	orderService := order.NewService(cat, orderRepo, publisher)
	h := handler.New(orderService)

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddReadinessCheck("nats", time.Second, func(context.Context) error {
		if sc.NatsConn() == nil || !sc.NatsConn().IsConnected() {
			return errors.New("nats connection down")
		}
		return nil
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.SetReady(true)

	// Router: health endpoints + API routes on one server.
	router := mux.NewRouter()
	router.HandleFunc("/livez", healthSvc.LiveEndpoint)
	router.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(router.PathPrefix("/api/v1").Subrouter())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(
			otelhttp.NewHandler(router, "order-api",
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			httpmiddleware.Recovery(),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

func parseRules(cfg *Config) (processing.GlobalRulesConfig, error) {
	rules := processing.DefaultGlobalRulesConfig()

	highValue, err := decimal.NewFromString(cfg.Rules.HighValueThreshold)
	if err != nil {
		return rules, errors.Wrap(err, "parse high value threshold")
	}
	fraudCheck, err := decimal.NewFromString(cfg.Rules.FraudCheckThreshold)
	if err != nil {
		return rules, errors.Wrap(err, "parse fraud check threshold")
	}
	rules.HighValueThreshold = highValue
	rules.FraudCheckThreshold = fraudCheck
	rules.FraudProbability = cfg.Rules.FraudProbability
	rules.PaymentFailureProbability = cfg.Rules.PaymentFailureRate
	return rules, nil
}
