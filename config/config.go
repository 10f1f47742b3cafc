// Package config 加载训练与推理进程的运行时配置。
//
// 优先级：环境变量 > 配置文件 > 内置默认值。
package config

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rushteam/airsat/core"
)

// Config 运行时配置
type Config struct {
	Server ServerConfig `koanf:"server"`
	Log    LogConfig    `koanf:"log"`
	Store  StoreConfig  `koanf:"store"`
	Model  ModelConfig  `koanf:"model"`
	Train  TrainConfig  `koanf:"train"`
}

// ServerConfig HTTP 推理服务
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes" validate:"gt=0"`
}

// LogConfig 日志
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// StoreConfig 产物存储后端
type StoreConfig struct {
	Backend string      `koanf:"backend" validate:"required"`
	Dir     string      `koanf:"dir" validate:"required_if=Backend file"`
	Redis   RedisConfig `koanf:"redis"`
}

// RedisConfig Redis 后端连接参数
type RedisConfig struct {
	Addr   string `koanf:"addr"`
	DB     int    `koanf:"db" validate:"gte=0"`
	Prefix string `koanf:"prefix"`
}

// ModelConfig 推理侧模型参数
type ModelConfig struct {
	// Threshold 覆盖训练时记录的决策阈值；为空时沿用 score 产物中的阈值
	Threshold *float64 `koanf:"threshold" validate:"omitempty,gte=0,lte=1"`
}

// TrainConfig 训练进程的输入
type TrainConfig struct {
	Params   string `koanf:"params"`
	Features string `koanf:"features"`
	Labels   string `koanf:"labels"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    64 << 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Store: StoreConfig{
			Backend: "file",
			Dir:     "data/artifacts",
			Redis: RedisConfig{
				Addr:   "127.0.0.1:6379",
				Prefix: "airsat:",
			},
		},
		Train: TrainConfig{
			Params:   "conf/parameters.yml",
			Features: "data/features.csv",
			Labels:   "data/labels.csv",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验字段取值以及存储后端是否已注册
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return core.Wrap(core.ModuleConfig, core.ErrorCodeInvalidInput, err, "config: validation failed")
	}
	if !IsRegistered(c.Store.Backend) {
		return core.Errorf(core.ModuleConfig, core.ErrorCodeNotSupported,
			"config: unsupported store backend %q (supported: %v)", c.Store.Backend, SupportedBackends())
	}
	if c.Store.Backend == "redis" && c.Store.Redis.Addr == "" {
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, "config: store.redis.addr is required for the redis backend")
	}
	return nil
}
