// cmd/worker-manager/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"loan-eligibility/internal/common/aws"
	"loan-eligibility/internal/common/camunda"
	"loan-eligibility/internal/common/config"
	"loan-eligibility/internal/common/database"
	commonhttp "loan-eligibility/internal/common/http"
	"loan-eligibility/internal/common/logger"
	"loan-eligibility/internal/common/observability"
	"loan-eligibility/internal/decision"
	"loan-eligibility/internal/eligibility"
	"loan-eligibility/internal/model"
	"loan-eligibility/internal/server"
	"loan-eligibility/pkg/registry"

	af "loan-eligibility/internal/workers/eligibility/assemble-features"
	ev "loan-eligibility/internal/workers/eligibility/evaluate"
	mr "loan-eligibility/internal/workers/eligibility/model-register"
	pv "loan-eligibility/internal/workers/eligibility/predict-verdict"
	rd "loan-eligibility/internal/workers/eligibility/record-decision"
	sn "loan-eligibility/internal/workers/eligibility/send-notification"
	vp "loan-eligibility/internal/workers/eligibility/validate-profile"
)

const serviceName = "loan-eligibility"

// retryWithBackoff attempts to execute a function with exponential backoff
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
		boot := logger.New("info", "console")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting loan eligibility worker manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(serviceName)
	defer obs.Shutdown()
	if cfg.Tracing.Enabled {
		if err := obs.EnableTracing(serviceName, cfg.Tracing.JaegerEndpoint); err != nil {
			zapLog.Warn("tracing disabled", zap.Error(err))
		}
	}

	ctx := context.Background()

	// --- Zeebe ---
	zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: cfg.Camunda.Plaintext,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		RetryConfig:            camunda.DefaultRetryConfig,
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

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
	if err := pg.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("postgres schema setup failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Elasticsearch (optional) ---
	var indexer decision.Indexer
	var es *database.ElasticsearchClient
	if len(cfg.Database.Elasticsearch.Addresses) > 0 {
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Warn("elasticsearch unavailable, decisions will not be indexed", zap.Error(err))
			es = nil
		} else {
			indexer = es
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	// --- Field orders ---
	fieldOrders := eligibility.BuiltinFieldOrders()
	if path := cfg.Model.FieldOrderRegistry; path != "" {
		reg, err := registry.LoadRegistry(path)
		if err != nil {
			zapLog.Fatal("field order registry load failed", zap.String("path", path), zap.Error(err))
		}
		if fieldOrders, err = reg.FieldOrders(); err != nil {
			zapLog.Fatal("field order registry invalid", zap.String("path", path), zap.Error(err))
		}
		if cfg.Model.FieldOrderVersion == "" {
			cfg.Model.FieldOrderVersion = reg.DefaultVersion()
		}
	}
	if _, err := fieldOrders.Get(cfg.Model.FieldOrderVersion); err != nil {
		zapLog.Fatal("configured field order version is unknown", zap.String("version", cfg.Model.FieldOrderVersion))
	}
	rule, err := eligibility.VerdictRuleByName(cfg.Model.VerdictRule)
	if err != nil {
		zapLog.Fatal("verdict rule invalid", zap.Error(err))
	}

	// --- Models ---
	builder := model.NewBuilder(fieldOrders, commonhttp.NewClient(config.GetDuration(cfg.Model.RemoteTimeout)))
	loader := model.NewLoader(builder, cfg.Model.LoadTimeoutDuration(), log)
	if cfg.Model.ArtifactDir != "" {
		loader.Register(model.SourceFile, model.NewFileSource(cfg.Model.ArtifactDir))
	}
	var store *database.MinioClient
	if cfg.Storage.Minio.Enabled {
		store, err = database.NewMinio(cfg.Storage)
		if err != nil {
			zapLog.Fatal("minio client init failed", zap.Error(err))
		}
		loader.Register(model.SourceMinio, model.NewMinioSource(store.Client, store.Bucket))
		zapLog.Info("MinIO model source registered", zap.String("bucket", store.Bucket))
	}
	sessions := model.NewSessionStore(rdb.Client, builder, cfg.Model.SessionTTLDuration(), log)
	recorder := decision.NewRecorder(pg, indexer, cfg.Database.Elasticsearch.DecisionIndex, log)

	// --- Notifications (optional) ---
	var smsSender sn.SMSSender
	var emailSender sn.EmailSender
	if cfg.Notifications.SMS.Enabled {
		client, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.SMS.SenderID)
		if err != nil {
			zapLog.Warn("sms notifications disabled", zap.Error(err))
		} else {
			smsSender = client
		}
	}
	if cfg.Notifications.Email.Enabled {
		client, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.Email.FromEmail)
		if err != nil {
			zapLog.Warn("email notifications disabled", zap.Error(err))
		} else {
			emailSender = client
		}
	}

	// --- Workers ---
	pool := camunda.NewPool(zeebe.GetClient(), zapLog)
	timeoutOf := func(taskType string) time.Duration {
		return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
	}
	start := func(taskType string, handle camunda.HandlerFunc) {
		pool.Start(taskType, config.GetWorkerConfig(cfg, taskType), instrument(obs, taskType, handle))
	}

	defaultSource := model.SourceFile
	if cfg.Model.ArtifactDir == "" && store != nil {
		defaultSource = model.SourceMinio
	}
	start(mr.TaskType, mr.NewHandler(&mr.Config{Timeout: timeoutOf(mr.TaskType), DefaultSource: defaultSource}, loader, sessions, log).Handle)
	start(vp.TaskType, vp.NewHandler(&vp.Config{Timeout: timeoutOf(vp.TaskType)}, log).Handle)
	start(af.TaskType, af.NewHandler(&af.Config{
		Timeout:                  timeoutOf(af.TaskType),
		FieldOrders:              fieldOrders,
		DefaultFieldOrderVersion: cfg.Model.FieldOrderVersion,
	}, log).Handle)
	start(pv.TaskType, pv.NewHandler(&pv.Config{Timeout: timeoutOf(pv.TaskType), VerdictRule: rule}, sessions, log).Handle)

	evaluator := ev.NewHandler(&ev.Config{
		Timeout:     timeoutOf(ev.TaskType),
		FieldOrders: fieldOrders,
		VerdictRule: rule,
	}, sessions, log)
	start(ev.TaskType, evaluator.Handle)
	start(rd.TaskType, rd.NewHandler(&rd.Config{Timeout: timeoutOf(rd.TaskType)}, recorder, log).Handle)
	start(sn.TaskType, sn.NewHandler(&sn.Config{Timeout: timeoutOf(sn.TaskType)}, smsSender, emailSender, log).Handle)

	zapLog.Info("Workers started", zap.Strings("taskTypes", pool.TaskTypes()))

	// --- HTTP ---
	checkers := []server.Checker{
		{Name: "zeebe", Ping: zeebe.HealthCheck},
		{Name: "postgres", Ping: pg.Ping},
		{Name: "redis", Ping: rdb.Ping},
	}
	if es != nil {
		checkers = append(checkers, server.Checker{Name: "elasticsearch", Ping: es.Ping})
	}
	if store != nil {
		checkers = append(checkers, server.Checker{Name: "minio", Ping: store.Ping})
	}
	srv := server.New(cfg.Server, server.Deps{
		Sessions:    sessions,
		Evaluator:   evaluator,
		FieldOrders: fieldOrders,
		Recorder:    recorder,
		Obs:         obs,
		Checkers:    checkers,
		Logger:      log,
	})
	go func() {
		if err := srv.Start(); err != nil {
			zapLog.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	if err := srv.Shutdown(10 * time.Second); err != nil {
		zapLog.Warn("HTTP server shutdown failed", zap.Error(err))
	}
	pool.Close()
	zapLog.Info("Worker manager stopped")
}

// instrument records job count and duration on the otel meter around handle.
func instrument(obs *observability.Observability, taskType string, handle camunda.HandlerFunc) camunda.HandlerFunc {
	return func(client worker.JobClient, job entities.Job) {
		started := time.Now()
		handle(client, job)
		obs.RecordJobProcessed(context.Background(), taskType, "handled")
		obs.RecordJobDuration(context.Background(), taskType, time.Since(started), "handled")
	}
}
