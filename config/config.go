package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"
)

type Config struct {
	Amadeus  AmadeusConfig  `yaml:"amadeus"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	LLM      LLMConfig      `yaml:"llm"`
}

type AmadeusConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	APISecret  string `yaml:"api_secret"`
	Currency   string `yaml:"currency"`
	MaxResults int    `yaml:"max_results"`
}

type MonitorConfig struct {
	Origin             string  `yaml:"origin"`
	Destination        string  `yaml:"destination"`
	PriceThreshold     float64 `yaml:"price_threshold"`
	CheckIntervalHours int     `yaml:"check_interval_hours"`
	FlexibleDates      bool    `yaml:"flexible_dates"`
	DaysRange          int     `yaml:"days_range"`
	MaxStops           int     `yaml:"max_stops"`
	DepartDate         string  `yaml:"depart_date"`
	ReturnDate         string  `yaml:"return_date"`
	CooldownSeconds    int     `yaml:"cooldown_seconds"`
	RateLimitPerMinute int     `yaml:"rate_limit_per_minute"`
	CacheTTLSeconds    int     `yaml:"cache_ttl_seconds"`
	HTTPAddr           string  `yaml:"http_addr"`
}

type StorageConfig struct {
	// "file" (default) or "postgres".
	Backend  string `yaml:"backend"`
	FilePath string `yaml:"file_path"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type KafkaConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	FareAlertTopicName string `yaml:"fare_alert_topic_name"`
}

type SMTPConfig struct {
	Server   string `yaml:"server"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

// LoadConfig reads the YAML file, then overlays environment variables
// (a .env file is loaded first when present) so deployments can keep
// secrets out of the config file.
func LoadConfig(filename string) (*Config, error) {
	var config Config

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
		}
	}

	_ = godotenv.Load()
	config.applyEnv()

	return &config, nil
}

func (c *Config) applyEnv() {
	setStr(&c.Amadeus.APIKey, "AMADEUS_API_KEY")
	setStr(&c.Amadeus.APISecret, "AMADEUS_API_SECRET")
	setStr(&c.Monitor.Origin, "ORIGIN")
	setStr(&c.Monitor.Destination, "DESTINATION")
	setFloat(&c.Monitor.PriceThreshold, "PRICE_THRESHOLD")
	setInt(&c.Monitor.CheckIntervalHours, "CHECK_INTERVAL_HOURS")

	setStr(&c.SMTP.Server, "SMTP_SERVER")
	setInt(&c.SMTP.Port, "SMTP_PORT")
	setStr(&c.SMTP.Username, "SMTP_USERNAME")
	setStr(&c.SMTP.Password, "SMTP_PASSWORD")
	setStr(&c.SMTP.To, "NOTIFICATION_EMAIL")

	setStr(&c.LLM.Provider, "LLM_PROVIDER")
	setStr(&c.LLM.Model, "LLM_MODEL")
	if c.LLM.APIKey == "" {
		for _, k := range []string{"OPENROUTER_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY"} {
			if v := os.Getenv(k); v != "" {
				c.LLM.APIKey = v
				break
			}
		}
	}
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
