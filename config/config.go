package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"nurifarm/engine"
)

// ErrInvalid is returned by Validate for unusable settings
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	// Farm layout and tick
	HouseCount     int
	RacksPerHouse  int
	LayersPerRack  int
	CellsPerLayer  int
	TickIntervalMs int
	RandomSeed     *int64
	TransportUnits int
	MaxAlerts      int

	// Thresholds for alert evaluation
	TemperatureMax float64
	CO2Min         float64
	HoistLoadMax   float64
	BatteryMin     float64

	HTTPAddr        string
	CropCatalogPath string
	Timezone        string

	MQTTBroker      string
	MQTTUser        string
	MQTTPass        string
	MQTTTopicPrefix string
	MQTTClientID    string

	RabbitMQURL      string
	RabbitMQExchange string

	FirebaseDbUrl              string
	FirebaseServiceAccountJSON string
	FirebaseMirrorInterval     int // seconds
	FirebaseMirrorPath         string

	TelegramBotToken        string
	TelegramChatID          string
	TelegramThrottleSeconds int

	AlertWebhookURL string

	WatchdogTimeout int // seconds without a snapshot before the stall alert
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	defaults := engine.DefaultConfig()
	config := &Config{
		HouseCount:     getEnvInt("FARM_HOUSE_COUNT", defaults.HouseCount),
		RacksPerHouse:  getEnvInt("FARM_RACKS_PER_HOUSE", defaults.RacksPerHouse),
		LayersPerRack:  getEnvInt("FARM_LAYERS_PER_RACK", defaults.LayersPerRack),
		CellsPerLayer:  getEnvInt("FARM_CELLS_PER_LAYER", defaults.CellsPerLayer),
		TickIntervalMs: getEnvInt("FARM_TICK_INTERVAL_MS", int(defaults.TickInterval/time.Millisecond)),
		TransportUnits: getEnvInt("FARM_TRANSPORT_UNITS", defaults.TransportUnits),
		MaxAlerts:      getEnvInt("FARM_MAX_ALERTS", defaults.MaxAlerts),

		TemperatureMax: getEnvFloat("ALERT_TEMPERATURE_MAX", defaults.Thresholds.HouseTemperatureMax),
		CO2Min:         getEnvFloat("ALERT_CO2_MIN", defaults.Thresholds.HouseCO2Min),
		HoistLoadMax:   getEnvFloat("ALERT_HOIST_LOAD_MAX", defaults.Thresholds.HoistLoadMax),
		BatteryMin:     getEnvFloat("ALERT_BATTERY_MIN", defaults.Thresholds.BatteryMin),

		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		CropCatalogPath: getEnv("CROP_CATALOG_PATH", ""),
		Timezone:        getEnv("FARM_TIMEZONE", "Asia/Seoul"),

		MQTTBroker:      getEnv("MQTT_BROKER", ""),
		MQTTUser:        getEnv("MQTT_USER", ""),
		MQTTPass:        getEnv("MQTT_PASS", ""),
		MQTTTopicPrefix: getEnv("MQTT_TOPIC_PREFIX", "nurifarm/houses"),
		MQTTClientID:    getEnv("MQTT_CLIENT_ID", "nurifarm-engine"),

		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", "nurifarm.alerts"),

		FirebaseDbUrl:              getEnv("FIREBASE_DB_URL", ""),
		FirebaseServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		FirebaseMirrorInterval:     getEnvInt("FIREBASE_MIRROR_INTERVAL", 30),
		FirebaseMirrorPath:         getEnv("FIREBASE_MIRROR_PATH", "farm-report/latest"),

		TelegramBotToken:        getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:          getEnv("TELEGRAM_CHAT_ID", ""),
		TelegramThrottleSeconds: getEnvInt("TELEGRAM_THROTTLE_SECONDS", 60),

		AlertWebhookURL: getEnv("ALERT_WEBHOOK_URL", ""),

		WatchdogTimeout: getEnvInt("WATCHDOG_TIMEOUT", 30),
	}

	if value := os.Getenv("FARM_RANDOM_SEED"); value != "" {
		seed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: FARM_RANDOM_SEED %q: %v", ErrInvalid, value, err)
		}
		config.RandomSeed = &seed
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the settings that are not covered by the engine's own validation
func (c *Config) Validate() error {
	if c.TickIntervalMs <= 0 {
		return fmt.Errorf("%w: FARM_TICK_INTERVAL_MS must be positive", ErrInvalid)
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("%w: HTTP_ADDR is required", ErrInvalid)
	}
	if c.FirebaseMirrorEnabled() && c.FirebaseMirrorInterval <= 0 {
		return fmt.Errorf("%w: FIREBASE_MIRROR_INTERVAL must be positive", ErrInvalid)
	}
	if (c.TelegramBotToken == "") != (c.TelegramChatID == "") {
		return fmt.Errorf("%w: TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together", ErrInvalid)
	}
	if c.WatchdogTimeout <= 0 {
		return fmt.Errorf("%w: WATCHDOG_TIMEOUT must be positive", ErrInvalid)
	}
	return c.EngineConfig().Validate()
}

// EngineConfig maps the environment settings onto the engine configuration
func (c *Config) EngineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.HouseCount = c.HouseCount
	cfg.RacksPerHouse = c.RacksPerHouse
	cfg.LayersPerRack = c.LayersPerRack
	cfg.CellsPerLayer = c.CellsPerLayer
	cfg.TickInterval = time.Duration(c.TickIntervalMs) * time.Millisecond
	cfg.RandomSeed = c.RandomSeed
	cfg.TransportUnits = c.TransportUnits
	cfg.MaxAlerts = c.MaxAlerts
	cfg.Thresholds = engine.AlertThresholds{
		HouseTemperatureMax: c.TemperatureMax,
		HouseCO2Min:         c.CO2Min,
		HoistLoadMax:        c.HoistLoadMax,
		BatteryMin:          c.BatteryMin,
	}
	return cfg
}

func (c *Config) MQTTEnabled() bool {
	return c.MQTTBroker != ""
}

func (c *Config) RabbitMQEnabled() bool {
	return c.RabbitMQURL != ""
}

func (c *Config) FirebaseMirrorEnabled() bool {
	return c.FirebaseDbUrl != "" && c.FirebaseServiceAccountJSON != ""
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

func (c *Config) WebhookEnabled() bool {
	return c.AlertWebhookURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
