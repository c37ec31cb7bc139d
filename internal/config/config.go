package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	SMTP      SMTPConfig
	Azure     AzureConfig
	Scheduler SchedulerConfig
	Logging   LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	Environment     string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// SMTPConfig holds outbound email configuration. When Host is empty,
// notifications are written to the log instead of sent.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// AzureConfig holds Azure service configuration
type AzureConfig struct {
	OpenAI  OpenAIConfig
	Storage StorageConfig
}

// OpenAIConfig holds Azure OpenAI configuration. Optional; with no endpoint
// the daily email falls back to templated text.
type OpenAIConfig struct {
	Endpoint   string
	APIKey     string
	Deployment string
}

// StorageConfig holds Azure Blob Storage configuration
type StorageConfig struct {
	AccountName      string
	AccountKey       string
	ConnectionString string
	BlobEndpoint     string
	ReportContainer  string
}

// SchedulerConfig holds the notification scheduler cadence
type SchedulerConfig struct {
	MedicationInterval  time.Duration
	DailyInterval       time.Duration
	ReloadInterval      time.Duration
	OperatingHoursStart int
	OperatingHoursEnd   int
	SendsPerSecond      float64
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// Load reads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Read from environment variables
	v.AutomaticEnv()

	// Bind specific environment variables
	bindEnvVars(v)

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.maxopenconns", 25)
	v.SetDefault("database.maxidleconns", 5)
	v.SetDefault("database.connmaxlifetime", 5*time.Minute)

	// SMTP defaults
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.from", "care@vitaltrack.example.com")

	// Azure Storage defaults
	v.SetDefault("azure.storage.reportcontainer", "health-reports")

	// Scheduler defaults
	v.SetDefault("scheduler.medicationinterval", 2*time.Minute)
	v.SetDefault("scheduler.dailyinterval", 5*time.Minute)
	v.SetDefault("scheduler.reloadinterval", time.Hour)
	v.SetDefault("scheduler.operatinghoursstart", 7)
	v.SetDefault("scheduler.operatinghoursend", 22)
	v.SetDefault("scheduler.sendspersecond", 5.0)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.environment", "ENV", "ENVIRONMENT")

	// Database
	v.BindEnv("database.url", "DATABASE_URL")

	// SMTP
	v.BindEnv("smtp.host", "SMTP_HOST")
	v.BindEnv("smtp.port", "SMTP_PORT")
	v.BindEnv("smtp.username", "SMTP_USERNAME")
	v.BindEnv("smtp.password", "SMTP_PASSWORD")
	v.BindEnv("smtp.from", "SMTP_FROM")

	// Azure OpenAI
	v.BindEnv("azure.openai.endpoint", "AZURE_OPENAI_ENDPOINT")
	v.BindEnv("azure.openai.apikey", "AZURE_OPENAI_API_KEY")
	v.BindEnv("azure.openai.deployment", "AZURE_OPENAI_DEPLOYMENT")

	// Azure Storage
	v.BindEnv("azure.storage.accountname", "AZURE_STORAGE_ACCOUNT_NAME")
	v.BindEnv("azure.storage.accountkey", "AZURE_STORAGE_ACCOUNT_KEY")
	v.BindEnv("azure.storage.connectionstring", "AZURE_STORAGE_CONNECTION_STRING")
	v.BindEnv("azure.storage.blobendpoint", "AZURE_STORAGE_BLOB_ENDPOINT")
	v.BindEnv("azure.storage.reportcontainer", "AZURE_STORAGE_REPORT_CONTAINER")

	// Scheduler
	v.BindEnv("scheduler.medicationinterval", "SCHEDULER_MEDICATION_INTERVAL")
	v.BindEnv("scheduler.dailyinterval", "SCHEDULER_DAILY_INTERVAL")
	v.BindEnv("scheduler.reloadinterval", "SCHEDULER_RELOAD_INTERVAL")
	v.BindEnv("scheduler.operatinghoursstart", "SCHEDULER_OPERATING_HOURS_START")
	v.BindEnv("scheduler.operatinghoursend", "SCHEDULER_OPERATING_HOURS_END")
	v.BindEnv("scheduler.sendspersecond", "SCHEDULER_SENDS_PER_SECOND")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.format", "LOG_FORMAT")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}

	// The OpenAI client is optional, but a partial configuration is a
	// deployment mistake worth failing on
	if c.Azure.OpenAI.Endpoint != "" {
		if c.Azure.OpenAI.APIKey == "" {
			return fmt.Errorf("azure.openai.apikey is required when an endpoint is set")
		}
		if c.Azure.OpenAI.Deployment == "" {
			return fmt.Errorf("azure.openai.deployment is required when an endpoint is set")
		}
	}

	if c.SMTP.Host != "" && c.SMTP.From == "" {
		return fmt.Errorf("smtp.from is required when an SMTP host is set")
	}

	if c.Azure.Storage.ConnectionString == "" && (c.Azure.Storage.AccountName == "" || c.Azure.Storage.AccountKey == "") {
		return fmt.Errorf("azure storage credentials are required (either connection string or account name + key)")
	}

	if c.Scheduler.OperatingHoursStart < 0 || c.Scheduler.OperatingHoursEnd > 24 ||
		c.Scheduler.OperatingHoursStart >= c.Scheduler.OperatingHoursEnd {
		return fmt.Errorf("scheduler operating hours %d-%d are invalid",
			c.Scheduler.OperatingHoursStart, c.Scheduler.OperatingHoursEnd)
	}

	return nil
}
