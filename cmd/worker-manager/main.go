// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sahayak-workers/internal/common/aws"
	"sahayak-workers/internal/common/camunda"
	"sahayak-workers/internal/common/config"
	"sahayak-workers/internal/common/database"
	"sahayak-workers/internal/common/logger"
	"sahayak-workers/internal/common/observability"
	"sahayak-workers/internal/conversation"
	"sahayak-workers/internal/intent"
	"sahayak-workers/internal/matching"
	"sahayak-workers/internal/opportunity"
	"sahayak-workers/internal/profile"
	"sahayak-workers/internal/response"

	// Conversation workers
	ar "sahayak-workers/internal/workers/conversation/assemble-response"
	rr "sahayak-workers/internal/workers/conversation/resolve-reference"
	ri "sahayak-workers/internal/workers/conversation/route-intent"

	// Discovery workers
	ee "sahayak-workers/internal/workers/discovery/evaluate-eligibility"
	so "sahayak-workers/internal/workers/discovery/search-opportunities"

	// Citizen workers
	up "sahayak-workers/internal/workers/citizen/update-profile"

	// Communication workers
	esc "sahayak-workers/internal/workers/communication/escalate-session"
	sms "sahayak-workers/internal/workers/communication/send-sms"
)

// retryWithBackoff attempts to execute a function with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting worker manager",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	var zeebeClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = camunda.NewClient(camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected")

	// --- Elasticsearch ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected")

	// --- Redis ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected")

	// --- Core services ---
	profileStore := profile.NewPostgresStore(pg, log)
	if err := profileStore.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("profile schema migration failed", zap.Error(err))
	}
	cacheTTL := time.Duration(cfg.Database.Redis.ProfileCacheTTL) * time.Second
	profiles := profile.NewService(profile.NewCachedStore(profileStore, redis, cacheTTL, log), log)

	sessionStore := conversation.NewRedisSessionStore(redis, cfg.Conversation.SessionTimeout(), log)
	tracker := conversation.NewTracker(sessionStore, cfg.Conversation, log)

	source := opportunity.NewESSource(esClient, cfg.Database.Elasticsearch.OpportunityIndex, log)
	engine := matching.NewEngine(source, cfg.Matching, log)
	router := intent.NewRouter(cfg.Intent)
	assembler := response.NewAssembler(log)

	var classifier intent.Classifier
	if cfg.Classifier.Enabled {
		classifier = intent.NewHTTPClassifier(cfg.Classifier, log)
		zapLog.Info("intent classifier enabled", zap.String("baseURL", cfg.Classifier.BaseURL))
	} else {
		zapLog.Info("intent classifier disabled; turns must arrive pre-classified")
	}

	// --- Delivery clients ---
	var snsClient *aws.SNSClient
	var sesClient *aws.SESClient
	if cfg.Integrations.AWS.SNS.Enabled || cfg.Integrations.AWS.SES.Enabled {
		awsCfg, err := aws.LoadConfig(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("AWS config load failed", zap.Error(err))
		}
		if cfg.Integrations.AWS.SNS.Enabled {
			snsClient = aws.NewSNSClient(awsCfg)
		}
		if cfg.Integrations.AWS.SES.Enabled {
			sesClient = aws.NewSESClient(awsCfg)
		}
	}

	// --- Register workers ---
	var workers []*camunda.CamundaWorker
	register := func(taskType string, handler camunda.JobHandler) {
		wc := config.GetWorkerConfig(cfg, taskType)
		if !wc.Enabled {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		w := camunda.NewWorker(zeebeClient.Raw(), taskType, wc.MaxJobsActive, handler, zapLog)
		w.Start()
		workers = append(workers, w)
	}

	register(ri.TaskType, ri.NewHandler(
		ri.LoadConfig(config.GetWorkerConfig(cfg, ri.TaskType)),
		tracker, router, classifier, log,
	))

	register(rr.TaskType, rr.NewHandler(
		rr.LoadConfig(config.GetWorkerConfig(cfg, rr.TaskType)),
		tracker, source, profiles, log,
	))

	register(so.TaskType, so.NewHandler(
		so.LoadConfig(config.GetWorkerConfig(cfg, so.TaskType)),
		profiles, engine, log,
	))

	register(ee.TaskType, ee.NewHandler(
		ee.LoadConfig(config.GetWorkerConfig(cfg, ee.TaskType)),
		profiles, source, log,
	))

	register(up.TaskType, up.NewHandler(
		up.LoadConfig(config.GetWorkerConfig(cfg, up.TaskType)),
		profiles, log,
	))

	register(ar.TaskType, ar.NewHandler(
		ar.LoadConfig(config.GetWorkerConfig(cfg, ar.TaskType)),
		tracker, assembler, log,
	))

	if snsClient != nil {
		register(sms.TaskType, sms.NewHandler(
			sms.LoadConfig(config.GetWorkerConfig(cfg, sms.TaskType), cfg.Integrations),
			snsClient, source, log,
		))
	} else {
		zapLog.Info("worker skipped, SNS integration disabled", zap.String("taskType", sms.TaskType))
	}

	if sesClient != nil {
		register(esc.TaskType, esc.NewHandler(
			esc.LoadConfig(config.GetWorkerConfig(cfg, esc.TaskType), cfg.Integrations),
			sesClient, tracker, log,
		))
	} else {
		zapLog.Info("worker skipped, SES integration disabled", zap.String("taskType", esc.TaskType))
	}

	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & metrics server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := pg.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "not ready", "error": err.Error()})
				return
			}
			if err := zeebeClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "not ready", "error": err.Error()})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("health/metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("health/metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("shutdown signal received, stopping workers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}
	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("worker manager stopped")
}
