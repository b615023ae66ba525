package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"imagematch/infra/database"
	"imagematch/infra/rabbitmq"
	"imagematch/internal/consumers"
	"imagematch/pkg/config"
	"imagematch/pkg/events"
	"imagematch/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	appConfig := config.Read()

	flush, err := logger.Install(appConfig.LogLevel, appConfig.LogFormat)
	if err != nil {
		panic(err)
	}
	defer flush()

	zap.L().Info("Imagematch worker starting...",
		zap.String("serviceName", appConfig.ServiceName),
		zap.String("databaseDriver", appConfig.DatabaseDriver),
	)

	if !appConfig.BrokerEnabled() {
		zap.L().Fatal("RABBITMQ_URL is required for worker service")
	}

	repository, err := database.Open(appConfig)
	if err != nil {
		zap.L().Fatal("Failed to open image store", zap.Error(err))
	}
	defer repository.Close()

	listingHandler := consumers.NewListingImageEventHandler(repository)

	// Queue name: {service}.{domain}.{events}.{version}
	routingKey := events.ListingImageDiscoveredEvent + "." + events.EventVersionV1
	listingConsumer, err := rabbitmq.NewConsumer(appConfig.RabbitMQURL, rabbitmq.ConsumerConfig{
		Exchange:       events.ListingImageExchange,
		QueueName:      appConfig.ServiceName + "." + routingKey,
		RoutingKeys:    []string{routingKey},
		ServiceName:    appConfig.ServiceName,
		PrefetchCount:  10,
		WorkerPoolSize: 4,
	})
	if err != nil {
		zap.L().Fatal("Failed to create listing image consumer", zap.Error(err))
	}
	defer listingConsumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		zap.L().Info("Starting listing image consumer...")
		if err := listingConsumer.Consume(ctx, listingHandler.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
			zap.L().Error("Listing image consumer error", zap.Error(err))
			select {
			case sigChan <- syscall.SIGTERM:
			default:
			}
		}
	}()

	go monitorPool(ctx, repository)

	zap.L().Info("Worker service started successfully. Waiting for events...",
		zap.String("exchange", events.ListingImageExchange),
		zap.String("routingKey", routingKey),
	)

	<-sigChan
	zap.L().Info("Shutdown signal received, stopping worker service...")
	cancel()
	<-consumerDone

	zap.L().Info("Worker service stopped gracefully")
}

func monitorPool(ctx context.Context, repository *database.Repository) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := repository.GetPoolStats()
			zap.L().Info("Connection pool stats",
				zap.Int("max_open", stats["max_open_connections"].(int)),
				zap.Int("open", stats["open_connections"].(int)),
				zap.Int("in_use", stats["in_use"].(int)),
				zap.Int("idle", stats["idle"].(int)),
				zap.Int64("wait_count", stats["wait_count"].(int64)),
				zap.Int64("wait_duration_ms", stats["wait_duration_ms"].(int64)),
			)
		}
	}
}
