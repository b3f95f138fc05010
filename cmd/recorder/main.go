package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/benmeehan/location-recorder/internal/utils"
	"github.com/benmeehan/location-recorder/pkg/file"
	"github.com/benmeehan/location-recorder/pkg/mqtt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath string

	fileClient = file.NewFileService()
	config     *utils.Config
	log        zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "recorder",
	Short: "Record device locations and serve them back",
	Long: `recorder stores location reports in a JSON file or a document database
(MongoDB or DynamoDB, chosen by the connection string) and serves them over HTTP.

The database connection string is read from DATABASE_URI, then MONGODB_URI,
then storage.database.uri. Without one, records go to <data_dir>/locations.json.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := utils.LoadConfig(configPath, fileClient)
		if err != nil {
			return fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
		}
		config = cfg
		log = utils.NewLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to the configuration file")
	rootCmd.AddCommand(serveCmd, reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// connectMQTT opens the shared broker connection with a unique client ID.
func connectMQTT() (*mqtt.MqttService, error) {
	if config.MQTT.Broker == "" {
		return nil, fmt.Errorf("mqtt.broker is not configured")
	}

	clientID := config.MQTT.ClientID + "-" + uuid.New().String()
	log.Info().Str("client_id", clientID).Str("broker", config.MQTT.Broker).Msg("Connecting to MQTT broker")

	client := mqtt.NewMqttService(fileClient)
	if err := client.Initialize(config.MQTT.Broker, clientID, config.MQTT.CACertificate); err != nil {
		return nil, fmt.Errorf("failed to initialize MQTT connection: %w", err)
	}
	return client, nil
}

func waitForSignal() {
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh
	signal.Stop(stopCh)
}
