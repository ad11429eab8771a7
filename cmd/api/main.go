package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/GoIngest/internal/config"
	"github.com/akolanti/GoIngest/internal/data/blobStore"
	"github.com/akolanti/GoIngest/internal/data/store"
	jobmodel "github.com/akolanti/GoIngest/internal/domain/jobModel"
	"github.com/akolanti/GoIngest/internal/events"
	"github.com/akolanti/GoIngest/internal/handlers"
	"github.com/akolanti/GoIngest/internal/job"
	"github.com/akolanti/GoIngest/internal/middleware"
	"github.com/akolanti/GoIngest/internal/rag"
	"github.com/akolanti/GoIngest/internal/rag/ingest"
	"github.com/akolanti/GoIngest/internal/server"
	"github.com/akolanti/GoIngest/internal/worker"
	"github.com/akolanti/GoIngest/pkg/logger_i"
)

var (
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {
	settings, err := config.Load()
	if err != nil {
		logger_i.Init("text", "info")
		logger_i.NewLogger("main").Error("Invalid configuration", "error", err)
		os.Exit(2)
	}
	logger_i.Init(settings.Log.Format, settings.Log.Level)
	var logger = logger_i.NewLogger("main")

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//embedding + index, both fail fast
	embedder, err := buildEmbedder(serviceContext, settings.Embedding)
	if err != nil {
		logger.Error("Embedding client failed to initialize", "error", err)
		os.Exit(1)
	}
	index, err := buildIndex(serviceContext, settings)
	if err != nil {
		logger.Error("Search index failed to initialize", "error", err)
		os.Exit(1)
	}

	pipeline, err := ingest.NewPipeline(embedder, index, ingest.WithConcurrency(settings.Embedding.Concurrency))
	if err != nil {
		logger.Error("Ingestion pipeline failed to initialize", "error", err)
		os.Exit(1)
	}
	defer pipeline.Release()

	var blobs blobStore.ObjectReader
	if settings.BlobEnabled() {
		blobs, err = blobStore.NewMinioStore(blobStore.Options{
			Endpoint:  settings.Blob.Endpoint,
			AccessKey: settings.Blob.AccessKey,
			SecretKey: settings.Blob.SecretKey,
			UseSSL:    settings.Blob.UseSSL,
		})
		if err != nil {
			logger.Error("Blob store failed to initialize", "error", err)
			os.Exit(1)
		}
	}

	//job store, in memory when redis is offline
	var jobStore jobmodel.JobStore
	redisJobs, err := store.GetRedisJobStore(serviceContext, settings.Redis)
	if err != nil {
		logger.Error("Redis job store is offline, using in memory store", "error", err)
		jobStore = store.InitInMemoryJobStore()
	} else {
		jobStore = redisJobs
	}

	service := job.InitJobService(job.ServiceConfig{
		JobChannel:        make(chan jobmodel.Job, config.BufferLimit),
		DispatcherChannel: make(chan bool, 1),
		JobStore:          jobStore,
	})
	logger.Info("Job service started")

	ragService := rag.NewService(pipeline, blobs)

	handlers.InitJobHandler(service)
	middleware.Init(settings.Server)

	//init worker pool
	stopWorkerChannel = make(chan bool)
	worker.InitServices(service, ragService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//blob events
	intakeContext, stopIntake := context.WithCancel(serviceContext)
	if settings.EventsEnabled() {
		consumer := events.NewConsumer(settings.Kafka, service)
		go func() {
			consumer.Run(intakeContext)
			if err := consumer.Close(); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Closing kafka reader failed", "error", err)
			}
		}()
		logger.Info("Listening for blob events", "topic", settings.Kafka.Topic, "brokers", settings.Kafka.Brokers)
	}

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		StopIntake:       stopIntake,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(settings.Server.ListenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}
