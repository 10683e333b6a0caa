package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shaiso/Pipeflow/internal/api"
	"github.com/shaiso/Pipeflow/internal/blocks"
	"github.com/shaiso/Pipeflow/internal/config"
	"github.com/shaiso/Pipeflow/internal/deployment"
	"github.com/shaiso/Pipeflow/internal/lock"
	"github.com/shaiso/Pipeflow/internal/mq"
	"github.com/shaiso/Pipeflow/internal/pipeline"
	"github.com/shaiso/Pipeflow/internal/prefect"
	"github.com/shaiso/Pipeflow/internal/repo"
	"github.com/shaiso/Pipeflow/internal/rungraph"
	"github.com/shaiso/Pipeflow/internal/telemetry"
)

var startTime = time.Now()

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger("pipeflow-api")
	logger.Info("starting pipeflow-api")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Подключаемся к базе данных
	pool, err := repo.NewPool(context.Background(), cfg.DBURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Создаём репозитории
	orgRepo := repo.NewOrgRepo(pool)
	orgTaskRepo := repo.NewOrgTaskRepo(pool)
	lockRepo := repo.NewLockRepo(pool)
	blockRepo := repo.NewBlockRepo(pool)

	engine := prefect.New(prefect.Config{
		BaseURL: cfg.Engine.URL,
		Timeout: cfg.Engine.Timeout,
		Logger:  logger,
	})

	// Брокер опционален: без него события не публикуются
	var (
		assembledEvents api.EventPublisher
		deployEvents    deployment.EventPublisher
	)
	conn := connectBroker(cfg.RabbitMQURL, logger)
	if conn != nil {
		defer conn.Close()
		publisher := mq.NewPublisher(conn, logger)
		assembledEvents = publisher
		deployEvents = publisher
	}

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		Orgs:   orgRepo,
		Tasks:  orgTaskRepo,
		Blocks: blockRepo,
		Manager: blocks.NewManager(blocks.Config{
			Engine: engine,
			Store:  blockRepo,
			Logger: logger,
		}),
		Assembler: pipeline.NewAssembler(pipeline.AssemblerConfig{
			Builder:      pipeline.NewBuilder(cfg.Pipeline.SyncTimeout),
			Blocks:       blockRepo,
			SecretFilter: cfg.Pipeline.GitPullSecretFilter,
			Logger:       logger,
		}),
		Locks: lock.NewResolver(lock.Config{
			Tasks:  orgTaskRepo,
			Locks:  lockRepo,
			Runs:   engine,
			Logger: logger,
		}),
		Logs: rungraph.New(rungraph.Config{
			Engine:    engine,
			PageLimit: cfg.Engine.LogPageLimit,
			Logger:    logger,
		}),
		Deployer: deployment.NewDeployer(deployment.Config{
			Engine: engine,
			Store:  orgRepo,
			Events: deployEvents,
			Logger: logger,
		}),
		Engine: engine,
		Events: assembledEvents,
		Logger: logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		telemetry.HTTPRequests.WithLabelValues("/healthz", "200").Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":" + cfg.APIPort

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}

// connectBroker подключается к RabbitMQ и объявляет топологию.
// Возвращает nil, если URL пуст или брокер недоступен.
func connectBroker(url string, logger *slog.Logger) *mq.Connection {
	if url == "" {
		logger.Info("rabbitmq disabled, events will not be published")
		return nil
	}

	conn, err := mq.Dial(url, logger)
	if err != nil {
		logger.Warn("failed to connect to rabbitmq, events will not be published", "error", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := conn.Setup(ctx); err != nil {
		logger.Warn("failed to declare rabbitmq topology, events will not be published", "error", err)
		conn.Close()
		return nil
	}

	logger.Info("connected to rabbitmq")
	return conn
}
