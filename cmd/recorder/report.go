package main

import (
	"context"

	"github.com/benmeehan/location-recorder/internal/service_registry"
	"github.com/benmeehan/location-recorder/internal/services"
	"github.com/benmeehan/location-recorder/pkg/identity"
	"github.com/spf13/cobra"
)

var reportOnce bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report this device's location to a recorder",
	Long: `report reads the device position from a serial GPS receiver or the Google
Geolocation API and sends it to a recorder over HTTP or MQTT, every
services.reporter.interval or just once with --once.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportOnce, "once", false, "send a single report and exit")
}

func runReport(cmd *cobra.Command, args []string) error {
	config.Services.Reporter.Enabled = true
	reporterConfig := config.Services.Reporter

	deviceInfo := identity.NewDeviceInfo(reporterConfig.DeviceFile, fileClient)
	if err := deviceInfo.LoadDeviceInfo(cmd.Context()); err != nil {
		return err
	}

	deps := service_registry.Dependencies{DeviceInfo: deviceInfo}
	if reporterConfig.Transport == service_registry.TransportMQTT {
		mqttClient, err := connectMQTT()
		if err != nil {
			return err
		}
		defer mqttClient.Disconnect(250)
		deps.MQTTClient = mqttClient
	}

	if !reportOnce {
		return runServices(deps)
	}

	provider, err := service_registry.NewProvider(config)
	if err != nil {
		return err
	}
	defer provider.Close()

	publisher, err := service_registry.NewPublisher(config, deviceInfo, deps.MQTTClient)
	if err != nil {
		return err
	}

	reporter := services.NewReporterService(reporterConfig.Interval, deviceInfo, publisher, provider, log)
	return reporter.ReportOnce(context.Background())
}
