package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	openai "github.com/sashabaranov/go-openai"

	"github.com/voxlate/voxlate/internal/api"
	"github.com/voxlate/voxlate/internal/audio"
	"github.com/voxlate/voxlate/internal/config"
	"github.com/voxlate/voxlate/internal/jobs"
	"github.com/voxlate/voxlate/internal/persistence"
	"github.com/voxlate/voxlate/internal/segmenter"
	"github.com/voxlate/voxlate/internal/service"
	"github.com/voxlate/voxlate/internal/storage"
	"github.com/voxlate/voxlate/internal/translator"
	"github.com/voxlate/voxlate/internal/tts"
	"github.com/voxlate/voxlate/pkg/log"
)

const shutdownTimeout = 10 * time.Second

// scheduler registers periodic work on the cron engine.
type scheduler interface {
	Schedule(ctx context.Context) error
}

type cronEngine interface {
	Start()
	Stop() context.Context
}

type httpServer interface {
	ListenAndServe(addr string) error
	Shutdown(ctx context.Context) error
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	level := log.ParseLevel(cfg.Log.Level)
	if cfg.Log.File != "" {
		fileLogger, err := log.InitFileLogger(cfg.Log.File, level)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
			os.Exit(1)
		}
		defer fileLogger.Close()
	} else {
		log.InitLogger(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, sched, cronRunner, cleanup, err := buildComponents(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to build components: %v", err)
	}
	defer cleanup()

	if err := runWithComponents(ctx, cfg, sched, cronRunner, srv); err != nil {
		log.Fatal("Server exited: %v", err)
	}
}

// buildComponents wires the whole dependency graph from configuration.
// The returned cleanup releases the job queue and the database.
func buildComponents(ctx context.Context, cfg *config.Config) (httpServer, scheduler, cronEngine, func(), error) {
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	synth, err := tts.New(ctx, tts.Config{
		Provider:              tts.Provider(cfg.TTS.Provider),
		ElevenLabsAPIKey:      cfg.TTS.ElevenLabsKey,
		OpenAIAPIKey:          cfg.TTS.OpenAIKey,
		GoogleCredentialsFile: cfg.TTS.GoogleCredsFile,
		RequestsPerMinute:     cfg.TTS.ElevenLabsRPM,
	})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("build synthesizer: %w", err)
	}

	trans := translator.NewOpenAITranslator(
		openai.NewClient(cfg.Translate.APIKey),
		translator.WithModel(cfg.Translate.Model),
		translator.WithMaxWorkers(cfg.Translate.MaxWorkers),
	)

	db, err := persistence.NewSQLiteStore(filepath.Join(cfg.Jobs.DataDir, "voxlate.db"))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open job store: %w", err)
	}

	svc := service.New(service.Deps{
		Store:      store,
		Engine:     audio.NewFFmpegEngine(),
		Synth:      synth,
		Translator: trans,
		Detector:   segmenter.NewRuleBasedDetector(),
		Batches:    db,
		KeyPrefix:  cfg.Storage.KeyPrefix,
		MaxWorkers: cfg.Narration.MaxWorkers,
	})

	queue := jobs.NewQueue(cfg.Jobs.Workers, db)
	queue.Start(dubExecutor(svc))

	cleanup := func() {
		queue.Stop()
		if err := db.Close(); err != nil {
			log.Error("Failed to close job store: %v", err)
		}
	}

	sched := cleanupScheduler{
		svc:  svc,
		cron: cron.New(),
		expr: cfg.Jobs.CleanupCronExpr,
		ttl:  time.Duration(cfg.Jobs.ArtifactTTLHours) * time.Hour,
	}

	return api.NewServer(svc, queue), sched, sched.cron, cleanup, nil
}

func buildStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if !cfg.Storage.Remote() {
		log.Warn("No remote storage configured, artifacts are held in memory only")
		return storage.NewMemoryStore(), nil
	}
	return storage.NewR2Store(ctx, storage.R2Config{
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		EndpointURL:     cfg.Storage.Endpoint,
		Bucket:          cfg.Storage.Bucket,
	})
}

// dubExecutor adapts the service's end-to-end run to the job queue.
func dubExecutor(svc *service.Service) jobs.Executor {
	return func(ctx context.Context, job *jobs.DubJob) (jobs.JobResult, error) {
		p := job.Payload
		res, err := svc.DubVoiceOver(ctx, p.SRT, p.SourceLang, p.TargetLang, p.Voice, p.Model)
		if err != nil {
			return jobs.JobResult{}, err
		}
		return jobs.JobResult{BatchID: res.BatchID, TrackURL: res.TrackURL}, nil
	}
}

// cleanupScheduler purges expired batch artifacts on a cron schedule.
type cleanupScheduler struct {
	svc  *service.Service
	cron *cron.Cron
	expr string
	ttl  time.Duration
}

func (s cleanupScheduler) Schedule(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.expr, func() {
		if err := s.svc.CleanupExpiredBatches(ctx, s.ttl); err != nil {
			log.Error("Artifact cleanup failed: %v", err)
		}
	})
	return err
}

// runWithComponents starts the cron engine and the HTTP server, then
// blocks until the context is cancelled and both are shut down.
func runWithComponents(
	ctx context.Context,
	cfg *config.Config,
	sched scheduler,
	cronRunner cronEngine,
	srv httpServer,
) error {
	if err := sched.Schedule(ctx); err != nil {
		return fmt.Errorf("schedule housekeeping: %w", err)
	}
	cronRunner.Start()

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening on %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		cronRunner.Stop()
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed: %v", err)
	}
	cronRunner.Stop()
	return <-errCh
}
