package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
		Host string `yaml:"host"`
		// WriteTimeoutSeconds stays zero by default: streamed campaigns hold
		// the response open for the whole send loop.
		ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
		IdleTimeoutSeconds  int `yaml:"idle_timeout_seconds"`
	} `yaml:"server"`

	SMTP struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"smtp"`

	App struct {
		Env                 string   `yaml:"env"`
		LogLevel            string   `yaml:"log_level"`
		MaxBatchSize        int      `yaml:"max_batch_size"`
		DefaultDelaySeconds int      `yaml:"default_delay_seconds"`
		APIKeys             []string `yaml:"api_keys"`
		UploadDir           string   `yaml:"upload_dir"`
		// SendCommand switches delivery to the external script transport;
		// empty means in-process SMTP.
		SendCommand string `yaml:"send_command"`
	} `yaml:"app"`
}

// LoadConfig reads the YAML config file when present and applies environment
// variable overrides. Defaults are populated before decoding so explicit
// zeros in the file survive: a zero batch size disables the cap and a zero
// delay disables pacing. A missing config file is not an error; the service
// runs on defaults plus environment.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	config := defaultConfig()

	if configPath != "" {
		file, err := os.Open(configPath)
		if err == nil {
			defer file.Close()
			decoder := yaml.NewDecoder(file)
			if err := decoder.Decode(config); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	config.overrideWithEnvVars()

	return config, nil
}

func defaultConfig() *Config {
	c := &Config{}
	c.Server.Port = "8080"
	c.Server.ReadTimeoutSeconds = 30
	c.Server.IdleTimeoutSeconds = 60
	c.SMTP.Host = "smtp.gmail.com"
	c.SMTP.Port = 587
	c.App.Env = "development"
	c.App.LogLevel = "info"
	c.App.MaxBatchSize = 50
	c.App.DefaultDelaySeconds = 3
	c.App.UploadDir = os.TempDir()
	return c
}

func (c *Config) overrideWithEnvVars() {
	// Server settings
	if port := GetEnv("PORT", ""); port != "" {
		c.Server.Port = port
	}
	if host := GetEnv("HOST", ""); host != "" {
		c.Server.Host = host
	}

	// App settings
	if env := GetEnv("APP_ENV", ""); env != "" {
		c.App.Env = env
	}
	if level := GetEnv("LOG_LEVEL", ""); level != "" {
		c.App.LogLevel = level
	}
	if v := GetEnv("MAX_BATCH_SIZE", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.App.MaxBatchSize = n
		}
	}
	if v := GetEnv("DEFAULT_DELAY_SECONDS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.App.DefaultDelaySeconds = n
		}
	}
	if keys := GetEnv("API_KEYS", ""); keys != "" {
		c.App.APIKeys = c.App.APIKeys[:0]
		for _, key := range strings.Split(keys, ",") {
			if key = strings.TrimSpace(key); key != "" {
				c.App.APIKeys = append(c.App.APIKeys, key)
			}
		}
	}
	if dir := GetEnv("UPLOAD_DIR", ""); dir != "" {
		c.App.UploadDir = dir
	}
	if cmd := GetEnv("SEND_COMMAND", ""); cmd != "" {
		c.App.SendCommand = cmd
	}

	// SMTP defaults used when a request does not override them
	if smtpHost := GetEnv("SMTP_HOST", ""); smtpHost != "" {
		c.SMTP.Host = smtpHost
	}
	if v := GetEnv("SMTP_PORT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SMTP.Port = n
		}
	}
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func MustLoadConfig(configPath string) *Config {
	config, err := LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return config
}
