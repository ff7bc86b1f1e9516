package config

import (
	"fmt"
	"os"
	"time"

	"runbox/internal/common/storage"
	"runbox/pkg/utils/logger"

	"github.com/zeromicro/go-zero/core/stores/redis"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

type MysqlConfig struct {
	DataSource string `yaml:"dataSource"`
}

type KafkaConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Brokers    []string `yaml:"brokers"`
	ClientID   string   `yaml:"clientId"`
	UsageTopic string   `yaml:"usageTopic"`
}

type MinioConfig struct {
	Enabled bool `yaml:"enabled"`
	storage.MinIOConfig `yaml:",inline"`
}

type SandboxConfig struct {
	ScratchRoot      string `yaml:"scratchRoot"`
	PoolSize         int    `yaml:"poolSize"`
	WallTimeMs       int64  `yaml:"wallTimeMs"`
	MemoryMB         int64  `yaml:"memoryMB"`
	PIDs             int64  `yaml:"pids"`
	MaxOutputBytes   int64  `yaml:"maxOutputBytes"`
	CgroupRoot       string `yaml:"cgroupRoot"`
	EnableCgroup     bool   `yaml:"enableCgroup"`
	EnableNamespaces bool   `yaml:"enableNamespaces"`
	DisableNetwork   bool   `yaml:"disableNetwork"`
}

type VerificationConfig struct {
	CodeTTL   time.Duration `yaml:"codeTTL"`
	WindowTTL time.Duration `yaml:"windowTTL"`
	// EchoCode returns the issued code in the API response. Development
	// convenience only.
	EchoCode bool `yaml:"echoCode"`
}

// UnmarshalYAML accepts durations in the "5m" / "30m" form.
func (v *VerificationConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		CodeTTL   string `yaml:"codeTTL"`
		WindowTTL string `yaml:"windowTTL"`
		EchoCode  bool   `yaml:"echoCode"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	v.EchoCode = raw.EchoCode
	if raw.CodeTTL != "" {
		d, err := time.ParseDuration(raw.CodeTTL)
		if err != nil {
			return fmt.Errorf("parse codeTTL: %w", err)
		}
		v.CodeTTL = d
	}
	if raw.WindowTTL != "" {
		d, err := time.ParseDuration(raw.WindowTTL)
		if err != nil {
			return fmt.Errorf("parse windowTTL: %w", err)
		}
		v.WindowTTL = d
	}
	return nil
}

type BillingConfig struct {
	CostPerRun float64 `yaml:"costPerRun"`
}

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Log          logger.Config      `yaml:"log"`
	Mysql        MysqlConfig        `yaml:"mysql"`
	Redis        redis.RedisConf    `yaml:"redis"`
	Kafka        KafkaConfig        `yaml:"kafka"`
	Minio        MinioConfig        `yaml:"minio"`
	Sandbox      SandboxConfig      `yaml:"sandbox"`
	Verification VerificationConfig `yaml:"verification"`
	Billing      BillingConfig      `yaml:"billing"`
	MaxCodeBytes int64              `yaml:"maxCodeBytes"`
}

// Load reads the yaml config file and applies defaults.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	cfg.SetDefaults()
	return cfg, nil
}

// SetDefaults fills zero values with sane defaults.
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Sandbox.PoolSize == 0 {
		c.Sandbox.PoolSize = 4
	}
	if c.Sandbox.WallTimeMs == 0 {
		c.Sandbox.WallTimeMs = 10000
	}
	if c.Sandbox.MemoryMB == 0 {
		c.Sandbox.MemoryMB = 128
	}
	if c.Sandbox.PIDs == 0 {
		c.Sandbox.PIDs = 64
	}
	if c.Sandbox.MaxOutputBytes == 0 {
		c.Sandbox.MaxOutputBytes = 1 << 20
	}
	if c.Verification.CodeTTL == 0 {
		c.Verification.CodeTTL = 5 * time.Minute
	}
	if c.Verification.WindowTTL == 0 {
		c.Verification.WindowTTL = 30 * time.Minute
	}
	if c.Billing.CostPerRun == 0 {
		c.Billing.CostPerRun = 0.01
	}
	if c.MaxCodeBytes == 0 {
		c.MaxCodeBytes = 64 << 10
	}
	if c.Kafka.ClientID == "" {
		c.Kafka.ClientID = "runbox"
	}
	if c.Kafka.UsageTopic == "" {
		c.Kafka.UsageTopic = "runbox.usage"
	}
}
