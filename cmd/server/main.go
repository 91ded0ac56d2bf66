package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"guardian/internal/adaptive"
	adaptivehandler "guardian/internal/adaptive/handler"
	adaptivemetrics "guardian/internal/adaptive/metrics"
	"guardian/internal/device"
	"guardian/internal/guardian"
	guardianhandler "guardian/internal/guardian/handler"
	guardianmetrics "guardian/internal/guardian/metrics"
	guardianservice "guardian/internal/guardian/service"
	"guardian/internal/incident"
	incidenthandler "guardian/internal/incident/handler"
	incidentmetrics "guardian/internal/incident/metrics"
	"guardian/internal/lockdown"
	lockdownhandler "guardian/internal/lockdown/handler"
	lockdownmetrics "guardian/internal/lockdown/metrics"
	"guardian/internal/platform/config"
	"guardian/internal/platform/httpserver"
	"guardian/internal/platform/kafka"
	"guardian/internal/platform/logger"
	"guardian/internal/platform/metrics"
	"guardian/internal/platform/otel"
	profilehandler "guardian/internal/profile/handler"
	"guardian/internal/shield"
	"guardian/internal/shield/adn"
	"guardian/internal/shield/dqsn"
	dqsnhandler "guardian/internal/shield/dqsn/handler"
	shieldmetrics "guardian/internal/shield/metrics"
	"guardian/internal/shield/qwg"
	"guardian/internal/shield/sentinel"
	httptransport "guardian/internal/transport/http"
	"guardian/internal/wsqk"
	wsqkmetrics "guardian/internal/wsqk/metrics"
	audit "guardian/pkg/platform/audit"
	"guardian/pkg/platform/audit/publishers/compliance"
	"guardian/pkg/platform/audit/publishers/ops"
	"guardian/pkg/platform/audit/publishers/security"
	"guardian/pkg/platform/audit/worker"
	"guardian/pkg/platform/circuit"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "guardian:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Setup(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	policy := guardian.DefaultPolicy()
	if cfg.PolicyPath != "" {
		if policy, err = guardian.LoadPolicy(cfg.PolicyPath); err != nil {
			return err
		}
	}
	log.InfoContext(ctx, "policy loaded", "version", policy.Version, "hash", policy.Hash())

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn("closing backends failed", "error", err)
		}
	}()

	auditMetrics := audit.NewMetrics()
	securityPub := security.New(b.audit,
		security.WithLogger(log),
		security.WithMetrics(auditMetrics),
		security.WithCapacity(cfg.Audit.SecurityBuffer),
	)
	defer securityPub.Close()
	sampler := ops.NewSampler(cfg.Audit.OpsSampleRate)
	for event, rate := range cfg.Audit.OpsRates {
		sampler.SetRate(event, rate)
	}
	opsTracker := ops.NewTracker(b.audit, sampler, cfg.Audit.OpsBufferSize,
		ops.WithLogger(log),
		ops.WithMetrics(auditMetrics),
	)
	defer opsTracker.Close()
	complianceAuditor := compliance.New(b.audit,
		compliance.WithLogger(log),
		compliance.WithMetrics(auditMetrics),
	)

	lockdowns, err := lockdown.New(b.lockdowns,
		lockdown.WithLogger(log),
		lockdown.WithSecurityPublisher(securityPub),
		lockdown.WithMetrics(lockdownmetrics.New()),
		lockdown.WithPolicy(policy.Lockdown),
	)
	if err != nil {
		return err
	}
	incidents, err := incident.New(b.incidents,
		incident.WithLogger(log),
		incident.WithComplianceAuditor(complianceAuditor),
		incident.WithOpsTracker(opsTracker),
		incident.WithMetrics(incidentmetrics.New()),
		incident.WithRetention(cfg.Incident.Retention),
	)
	if err != nil {
		return err
	}
	reputations, err := dqsn.NewRegistry(b.reputations,
		dqsn.WithLogger(log),
		dqsn.WithSecurityPublisher(securityPub),
	)
	if err != nil {
		return err
	}
	hints, err := adaptive.New(b.hints,
		adaptive.WithLogger(log),
		adaptive.WithSecurityPublisher(securityPub),
		adaptive.WithMetrics(adaptivemetrics.New()),
		adaptive.WithBreaker(circuit.New("adaptive_hints",
			circuit.WithFailureThreshold(cfg.Guardian.BreakerFailures),
			circuit.WithSuccessThreshold(cfg.Guardian.BreakerSuccesses),
		)),
		adaptive.WithTTL(cfg.Guardian.HintsTTL),
	)
	if err != nil {
		return err
	}

	gatherer := shield.NewGatherer([]shield.Provider{
		sentinel.New(sentinel.DefaultConfig()),
		dqsn.New(b.reputations),
		adn.New(),
		qwg.New(qwg.DefaultHighValue),
	},
		shield.WithTimeout(cfg.Guardian.SignalTimeout),
		shield.WithLogger(log),
		shield.WithMetrics(shieldmetrics.New()),
	)

	secret := []byte(cfg.Guardian.TokenSecret)
	tokenMetrics := wsqkmetrics.New()
	issuer, err := wsqk.NewIssuer(secret,
		wsqk.WithTTL(cfg.Guardian.TokenTTL),
		wsqk.WithIssuerMetrics(tokenMetrics),
	)
	if err != nil {
		return err
	}
	gate, err := wsqk.NewGate(secret, b.consumed,
		wsqk.WithGateLogger(log),
		wsqk.WithGateMetrics(tokenMetrics),
		wsqk.WithOpsTracker(opsTracker),
		wsqk.WithSecurityPublisher(securityPub),
	)
	if err != nil {
		return err
	}

	evaluator, err := guardianservice.New(gatherer, lockdowns, incidents, b.profiles,
		guardianservice.WithPolicy(policy),
		guardianservice.WithHintsSource(hints),
		guardianservice.WithTokenIssuer(issuer),
		guardianservice.WithDeviceService(device.NewService(true)),
		guardianservice.WithTxRunner(b.tx),
		guardianservice.WithComplianceAuditor(complianceAuditor),
		guardianservice.WithOpsTracker(opsTracker),
		guardianservice.WithLogger(log),
		guardianservice.WithMetrics(guardianmetrics.New()),
	)
	if err != nil {
		return err
	}

	guardianHandler := guardianhandler.New(evaluator, gate, log)
	incidentHandler := incidenthandler.New(incidents, log)
	lockdownHandler := lockdownhandler.New(lockdowns, log)
	router := httptransport.NewRouter(httptransport.Config{
		AdminToken: cfg.AdminToken,
		Logger:     log,
		Metrics:    metrics.New(),
		Health:     b.health,
	},
		[]httptransport.Registrar{
			guardianHandler,
			profilehandler.New(b.profiles, log),
			incidentHandler,
			lockdownHandler,
		},
		[]httptransport.AdminRegistrar{
			incidentHandler,
			lockdownHandler,
			adaptivehandler.New(hints, log),
			dqsnhandler.New(reputations, log),
		},
	)
	srv := httpserver.New(cfg.Addr, router, cfg.HTTP)

	var relay *worker.Worker
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return err
		}
		defer producer.Close()
		topics := make([]string, 0, len(audit.Categories()))
		for _, c := range audit.Categories() {
			topics = append(topics, c.Topic())
		}
		if err := producer.EnsureTopics(ctx, cfg.Kafka.Partitions, topics...); err != nil {
			return err
		}
		relay, err = worker.New(b.audit, producer,
			worker.WithInterval(cfg.Kafka.RelayInterval),
			worker.WithBatchSize(cfg.Kafka.BatchSize),
			worker.WithTxRunner(b.tx),
			worker.WithLogger(log),
		)
		if err != nil {
			return err
		}
		log.InfoContext(ctx, "audit outbox relay enabled", "brokers", cfg.Kafka.Brokers)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "starting guardian", "addr", cfg.Addr, "store", cfg.Store, "regulated_mode", cfg.RegulatedMode)
		if err := httpserver.Serve(gctx, srv, cfg.ShutdownTimeout); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		log.InfoContext(gctx, "server stopped")
		return nil
	})
	g.Go(func() error {
		return incident.NewPruner(incidents, cfg.Incident.PruneInterval, log).Run(gctx)
	})
	if relay != nil {
		g.Go(func() error { return relay.Run(gctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
