package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"plant-advisor/internal/application"
	"plant-advisor/internal/config"
	"plant-advisor/internal/domain/model"
	aiAdapters "plant-advisor/internal/infra/adapters/ai"
	"plant-advisor/internal/infra/filestore"
	httpapi "plant-advisor/internal/infra/http"
	"plant-advisor/internal/infra/logging"
	"plant-advisor/internal/infra/metrics"
	"plant-advisor/internal/infra/scheduler"
	"plant-advisor/internal/infra/worker"
	"plant-advisor/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "advisor: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", config.DefaultPath, "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode: console logs, noop AI when no key is set")
	initOnly := flag.Bool("init", false, "create the shared documents and exit")
	testDisease := flag.String("test-disease", "", "print one recommendation for a disease, bypassing the queue")
	testChat := flag.String("test-chat", "", "print one chat answer, bypassing the queue")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.SetBuildInfo(version, commit)

	// ---- Shared documents ----
	shared := filestore.Open(cfg.Shared.Dir, logger)
	created, err := shared.Init(ctx)
	if err != nil {
		return fmt.Errorf("init shared dir: %w", err)
	}
	for _, p := range created {
		logger.Info().Str("path", p).Msg("created document")
	}
	if *initOnly {
		for _, p := range shared.Pipelines() {
			fmt.Println(p.Requests.Path())
			fmt.Println(p.Results.Path())
		}
		return nil
	}

	// ---- Generation ----
	generators, err := aiAdapters.NewGenerators(ctx, cfg.AI, cfg.Runtime.Dev, logger)
	if err != nil {
		return err
	}
	prompts, err := usecase.NewPromptBook(cfg.Prompts)
	if err != nil {
		return err
	}
	advisor := usecase.NewAdvisorUseCase(prompts, generators, cfg.Consumer.GenerationTimeout, logger)

	if *testDisease != "" || *testChat != "" {
		return runTest(ctx, advisor, *testDisease, *testChat)
	}

	// ---- Consumer ----
	notifier, closeNotifier, err := application.NewResultNotifier(ctx, cfg, shared, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	var pipelines []worker.Pipeline
	queues := map[model.WorkType]httpapi.Queue{}
	for _, p := range shared.Pipelines() {
		pipelines = append(pipelines, worker.Pipeline{WorkType: p.WorkType, Requests: p.Requests, Results: p.Results, DeadLetters: p.DeadLetters})
		queues[p.WorkType] = httpapi.Queue{Requests: p.Requests, Results: p.Results, DeadLetters: p.DeadLetters}
	}
	processor := worker.NewQueueProcessor(pipelines, advisor, notifier, worker.RetryPolicyFromConfig(cfg.Consumer.Retry), logger)
	sched := scheduler.NewScheduler(cfg.Consumer.Interval, processor, logger)

	// ---- Admin HTTP ----
	var srv *httpapi.Server
	if cfg.Admin.Port > 0 {
		srv = httpapi.NewServer(cfg.Admin.Port, queues, logger)
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error().Err(err).Msg("admin server stopped")
			}
		}()
	}

	logger.Info().Str("shared_dir", shared.Dir).Dur("interval", cfg.Consumer.Interval).Msg("Starting service loop")
	sched.Start(ctx)

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")
	sched.Stop()
	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("admin server shutdown")
		}
	}
	return nil
}

func runTest(ctx context.Context, advisor usecase.AdvisorUseCase, disease, query string) error {
	if disease != "" {
		text, err := advisor.Recommend(ctx, disease)
		if err != nil {
			return fmt.Errorf("test disease: %w", err)
		}
		fmt.Println(text)
	}
	if query != "" {
		text, err := advisor.Answer(ctx, query, "")
		if err != nil {
			return fmt.Errorf("test chat: %w", err)
		}
		fmt.Println(text)
	}
	return nil
}
