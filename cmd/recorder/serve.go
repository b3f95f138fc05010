package main

import (
	"context"

	"github.com/benmeehan/location-recorder/internal/handlers"
	"github.com/benmeehan/location-recorder/internal/service_registry"
	"github.com/benmeehan/location-recorder/internal/services"
	"github.com/benmeehan/location-recorder/internal/storage"
	"github.com/benmeehan/location-recorder/internal/utils"
	"github.com/benmeehan/location-recorder/pkg/identity"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP recorder and the enabled background services",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	source := utils.NewConfigSource(config)
	if config.WatchConfig {
		watcher := utils.NewConfigWatcher(configPath, source, fileClient, log)
		if err := watcher.Start(); err != nil {
			log.Warn().Err(err).Msg("Configuration hot reload disabled")
		} else {
			defer watcher.Stop()
		}
	}

	fileStore := storage.NewFileStore(config.Storage.DataDir, fileClient, log.With().Str("store", "file").Logger())
	if err := fileStore.EnsureContainer(); err != nil {
		log.Warn().Err(err).Str("path", fileStore.Path()).Msg("Data directory is not writable yet")
	}

	handles := storage.NewHandles(storage.NewConnector(storage.DialOptions{
		Database:       config.Storage.Database.Name,
		Collection:     config.Storage.Database.Collection,
		ConnectTimeout: config.Storage.Database.ConnectTimeout,
	}), log.With().Str("store", "collection").Logger())
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
		defer cancel()
		if err := handles.Close(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to close database connections")
		}
	}()

	selector := storage.NewSelector(source, fileStore, handles, config.Storage.Database.OperationTimeout, log)
	log.Info().Str("backend", string(storage.SelectKind(source.ConnectionString()))).Msg("Initial storage backend")

	hub := handlers.NewStreamHub(log)
	locationService := services.NewLocationService(selector, hub, log)

	server := handlers.NewServer(handlers.ServerConfig{
		Address:         config.Server.Address,
		ReadTimeout:     config.Server.ReadTimeout,
		WriteTimeout:    config.Server.WriteTimeout,
		ShutdownTimeout: config.Server.ShutdownTimeout,
	}, handlers.NewRouter(locationService, hub, log), hub.Close, log)

	deps := service_registry.Dependencies{
		HTTPServer: server,
		Recorder:   locationService,
	}

	reporterConfig := config.Services.Reporter
	if config.Services.Ingest.Enabled || (reporterConfig.Enabled && reporterConfig.Transport == service_registry.TransportMQTT) {
		mqttClient, err := connectMQTT()
		if err != nil {
			return err
		}
		defer mqttClient.Disconnect(250)
		deps.MQTTClient = mqttClient
	}

	if reporterConfig.Enabled {
		deviceInfo := identity.NewDeviceInfo(reporterConfig.DeviceFile, fileClient)
		if err := deviceInfo.LoadDeviceInfo(cmd.Context()); err != nil {
			return err
		}
		deps.DeviceInfo = deviceInfo
	}

	return runServices(deps)
}

func runServices(deps service_registry.Dependencies) error {
	serviceRegistry := service_registry.NewServiceRegistry(log)
	if err := serviceRegistry.RegisterServices(config, deps); err != nil {
		return err
	}

	if err := serviceRegistry.StartServices(); err != nil {
		return err
	}
	log.Info().Msg("All services started successfully")

	waitForSignal()

	log.Info().Msg("Shutting down gracefully...")
	return serviceRegistry.StopServices()
}
