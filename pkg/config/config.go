// Package config loads the host configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/callmelater/operion-callmelater/pkg/credentials"
	"github.com/callmelater/operion-callmelater/pkg/models"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	EventBusGoChannel = "gochannel"
	EventBusKafka     = "kafka"
	EventBusRedis     = "redis"

	DefaultPort       = 3000
	DefaultBodyLimit  = 1 << 20
	DefaultRedisQueue = "callmelater:events"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

var ErrUnresolvedEnv = errors.New("unresolved environment variable")

// Config is the YAML document read by the host.
type Config struct {
	LogLevel    string                  `yaml:"log_level"`
	LogFormat   string                  `yaml:"log_format"  validate:"omitempty,oneof=text json"`
	Server      ServerConfig            `yaml:"server"`
	CallMeLater credentials.Credentials `yaml:"callmelater"`
	EventBus    EventBusConfig          `yaml:"event_bus"`
	Action      ActionConfig            `yaml:"action"`
	Triggers    []TriggerConfig         `yaml:"triggers"    validate:"unique=ID,dive"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"         validate:"gte=1,lte=65535"`
	BodyLimit   int    `yaml:"body_limit"   validate:"gte=0"`
	PluginsPath string `yaml:"plugins_path"`
}

type EventBusConfig struct {
	Type  string      `yaml:"type"  validate:"omitempty,oneof=gochannel kafka redis"`
	Kafka KafkaConfig `yaml:"kafka"`
	Redis RedisConfig `yaml:"redis"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"    validate:"gte=0"`
	Queue    string `yaml:"queue"`
}

// ActionConfig holds parameter defaults applied to every action node execution.
type ActionConfig struct {
	Defaults map[string]any `yaml:"defaults"`
}

// TriggerConfig declares one inbound webhook endpoint, served at /webhook/<id>.
type TriggerConfig struct {
	ID        string `yaml:"id"         validate:"required,excludesall=/ "`
	Event     string `yaml:"event"      validate:"omitempty,oneof=any reminder.responded action.executed action.failed action.expired"`
	Secret    string `yaml:"secret"`
	SecretEnv string `yaml:"secret_env"`
}

// NodeConfig is the trigger node configuration for this endpoint.
func (t TriggerConfig) NodeConfig() map[string]any {
	event := t.Event
	if event == "" {
		event = models.EventAny
	}

	return map[string]any{
		"event":         event,
		"webhookSecret": t.Secret,
	}
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()

	return cfg
}

// Load reads path, expands ${VAR} references from the environment and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(interpolateEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	for i, t := range c.Triggers {
		if match := envVarPattern.FindStringSubmatch(t.Secret); match != nil {
			return fmt.Errorf("triggers[%d].secret: %w: ${%s}", i, ErrUnresolvedEnv, match[1])
		}
	}

	if match := envVarPattern.FindStringSubmatch(c.CallMeLater.APIToken); match != nil {
		return fmt.Errorf("callmelater.api_token: %w: ${%s}", ErrUnresolvedEnv, match[1])
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}

	if c.Server.BodyLimit == 0 {
		c.Server.BodyLimit = DefaultBodyLimit
	}

	if c.EventBus.Type == "" {
		c.EventBus.Type = EventBusGoChannel
	}

	if c.EventBus.Redis.Addr == "" {
		c.EventBus.Redis.Addr = "localhost:6379"
	}

	if c.EventBus.Redis.Queue == "" {
		c.EventBus.Redis.Queue = DefaultRedisQueue
	}

	c.CallMeLater = credentials.New(c.CallMeLater.APIToken, c.CallMeLater.APIURL)

	for i := range c.Triggers {
		t := &c.Triggers[i]
		if t.Event == "" {
			t.Event = models.EventAny
		}

		if t.Secret == "" && t.SecretEnv != "" {
			t.Secret = os.Getenv(t.SecretEnv)
		}

		t.Secret = strings.TrimSpace(t.Secret)
	}
}

func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}

		return match
	})
}
