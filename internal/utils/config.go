package utils

import (
	"time"

	"github.com/benmeehan/location-recorder/internal/constants"
	"github.com/benmeehan/location-recorder/pkg/file"
)

// Environment variables that override the configured connection string.
const (
	EnvDatabaseURI = "DATABASE_URI"
	EnvMongoDBURI  = "MONGODB_URI"
)

// Config represents the structure of the configuration file.
type Config struct {
	Logging struct {
		Level  string `yaml:"level"`  // zerolog level name (debug, info, warn, error)
		Format string `yaml:"format"` // json or console
	} `yaml:"logging"`

	WatchConfig bool `yaml:"watch_config"` // Reload this file when it changes

	Server struct {
		Address         string        `yaml:"address"`          // HTTP listen address
		ReadTimeout     time.Duration `yaml:"read_timeout"`     // Maximum duration for reading a request
		WriteTimeout    time.Duration `yaml:"write_timeout"`    // Maximum duration for writing a response
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // Grace period for in-flight requests
	} `yaml:"server"`

	Storage struct {
		DataDir  string `yaml:"data_dir"` // Directory holding locations.json
		Database struct {
			URI              string        `yaml:"uri"`               // Connection string; empty selects the file store
			Name             string        `yaml:"name"`              // Database name (MongoDB)
			Collection       string        `yaml:"collection"`        // Collection name (MongoDB)
			ConnectTimeout   time.Duration `yaml:"connect_timeout"`   // Timeout for establishing the connection
			OperationTimeout time.Duration `yaml:"operation_timeout"` // Timeout for each insert/find
		} `yaml:"database"`
	} `yaml:"storage"`

	MQTT struct {
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID
		CACertificate string `yaml:"ca_certificate"` // Path to the CA certificate, empty for plain TCP
	} `yaml:"mqtt"`

	Services struct {
		Ingest struct {
			Enabled bool   `yaml:"enabled"` // Enable/disable MQTT ingestion
			Topic   string `yaml:"topic"`   // MQTT topic carrying location payloads
			QOS     int    `yaml:"qos"`     // MQTT QoS level for the subscription
			Workers int    `yaml:"workers"` // Number of concurrent message workers
		} `yaml:"ingest"`

		Reporter struct {
			Enabled           bool          `yaml:"enabled"`         // Run the reporter alongside the recorder
			Transport         string        `yaml:"transport"`       // http or mqtt
			Endpoint          string        `yaml:"endpoint"`        // Location endpoint for the http transport
			Topic             string        `yaml:"topic"`           // MQTT topic for the mqtt transport
			QOS               int           `yaml:"qos"`             // MQTT QoS level for published fixes
			Interval          time.Duration `yaml:"interval"`        // Interval between reports
			AcceptLanguage    string        `yaml:"accept_language"` // Accept-Language sent with http reports
			DeviceFile        string        `yaml:"device_file"`     // Path to the persisted device info
			SensorBased       bool          `yaml:"sensor_based"`    // Use sensor or geo-location api
			MapsAPIKey        string        `yaml:"maps_api_key"`    // Google maps API Key
			GPSDeviceBaudRate int           `yaml:"gps_baud_rate"`   // The Baud rate for GPS sensor
			GPSDevicePort     string        `yaml:"gps_device_port"` // UNIX Port where the GPS sensor is mounted
		} `yaml:"reporter"`
	} `yaml:"services"`
}

// DefaultConfig returns the configuration used for values the file leaves empty.
func DefaultConfig() Config {
	var c Config
	c.Logging.Level = "info"
	c.Logging.Format = "json"
	c.Server.Address = ":3000"
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 10 * time.Second
	c.Server.ShutdownTimeout = 5 * time.Second
	c.Storage.DataDir = constants.DefaultDataDir
	c.Storage.Database.Name = constants.DefaultDatabaseName
	c.Storage.Database.Collection = constants.DefaultCollectionName
	c.Storage.Database.ConnectTimeout = 10 * time.Second
	c.Storage.Database.OperationTimeout = 5 * time.Second
	c.MQTT.ClientID = "location-recorder"
	c.Services.Ingest.Topic = "locations"
	c.Services.Ingest.QOS = 1
	c.Services.Ingest.Workers = 4
	c.Services.Reporter.Transport = "http"
	c.Services.Reporter.Endpoint = "http://localhost:3000/api/location"
	c.Services.Reporter.Topic = "locations"
	c.Services.Reporter.QOS = 1
	c.Services.Reporter.Interval = time.Minute
	c.Services.Reporter.DeviceFile = "configs/device.json"
	c.Services.Reporter.GPSDeviceBaudRate = 9600
	return c
}

// LoadConfig loads the YAML configuration from the specified file on top of DefaultConfig.
// It returns a pointer to the Config struct and an error if loading fails.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	config := DefaultConfig()
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}

	return &config, nil
}
