package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"imagematch/infra/database"
	"imagematch/infra/grpc"
	"imagematch/infra/rabbitmq"
	"imagematch/internal/router"
	"imagematch/pkg/config"
	"imagematch/pkg/events"
	"imagematch/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	appConfig := config.Read()

	flush, err := logger.Install(appConfig.LogLevel, appConfig.LogFormat)
	if err != nil {
		panic(err)
	}
	defer flush()

	zap.L().Info("app starting...",
		zap.String("serviceName", appConfig.ServiceName),
		zap.String("databaseDriver", appConfig.DatabaseDriver),
		zap.Int("batchSize", appConfig.BatchSize),
		zap.Bool("brokerEnabled", appConfig.BrokerEnabled()),
	)

	repository, err := database.Open(appConfig)
	if err != nil {
		zap.L().Fatal("Failed to open image store", zap.Error(err))
	}
	defer repository.Close()

	var publisher events.Publisher = events.LogPublisher{}
	if appConfig.BrokerEnabled() {
		rabbitPublisher, err := rabbitmq.NewRabbitMQPublisher(appConfig.RabbitMQURL, appConfig.ServiceName)
		if err != nil {
			zap.L().Fatal("Failed to connect event publisher", zap.Error(err))
		}
		publisher = rabbitPublisher
	}
	defer publisher.Close()

	app := router.New(router.Dependencies{
		Repository:  repository,
		Publisher:   publisher,
		BatchSize:   appConfig.BatchSize,
		ServiceName: appConfig.ServiceName,
	})

	grpcServer, err := grpc.NewServer(appConfig.GRPCPort, appConfig.ServiceName)
	if err != nil {
		zap.L().Fatal("Failed to create gRPC server", zap.Error(err))
	}

	go func() {
		if err := app.Listen(fmt.Sprintf("0.0.0.0:%s", appConfig.Port)); err != nil {
			zap.L().Error("Failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			zap.L().Error("Failed to start gRPC server", zap.Error(err))
			os.Exit(1)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchStore(ctx, repository, grpcServer)

	zap.L().Info("Server started on port",
		zap.String("port", appConfig.Port),
		zap.String("grpcPort", appConfig.GRPCPort),
	)

	gracefulShutdown(app, grpcServer)
}

// watchStore pings the store every 30s. The gRPC health status follows the
// result, and pool stats are logged on every tick.
func watchStore(ctx context.Context, repository *database.Repository, grpcServer *grpc.Server) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := repository.Ping(pingCtx)
			cancel()

			if err != nil {
				zap.L().Error("Image store ping failed", zap.Error(err))
			}
			grpcServer.SetServing(err == nil)

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

func gracefulShutdown(app *fiber.App, grpcServer *grpc.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	zap.L().Info("Shutting down server...")

	grpcServer.GracefulStop()

	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		zap.L().Error("Error during server shutdown", zap.Error(err))
	}

	zap.L().Info("Server gracefully stopped")
}
