package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix 环境变量前缀，例如 AIRSAT_SERVER_ADDR -> server.addr
const EnvPrefix = "AIRSAT_"

// PathEnvVar 指定配置文件路径的环境变量
const PathEnvVar = "AIRSAT_CONFIG"

// DefaultPaths 未指定路径时依次查找的配置文件
var DefaultPaths = []string{"config.yaml", "config.yml"}

// Load 依次加载默认值、配置文件（AIRSAT_CONFIG 或 DefaultPaths 中第一个存在的文件）与环境变量
func Load() (*Config, error) {
	path := os.Getenv(PathEnvVar)
	if path == "" {
		for _, p := range DefaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	return LoadFile(path)
}

// LoadFile 与 Load 相同，但显式指定配置文件；path 为空时跳过文件层
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKeys 字段名本身含下划线，无法机械拆分的环境变量
var envKeys = map[string]string{
	"server_read_timeout":     "server.read_timeout",
	"server_write_timeout":    "server.write_timeout",
	"server_shutdown_timeout": "server.shutdown_timeout",
	"server_max_body_bytes":   "server.max_body_bytes",
}

// envKey 去掉前缀并转换为 koanf 路径：STORE_REDIS_ADDR -> store.redis.addr
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key == "config" {
		return ""
	}
	if path, ok := envKeys[key]; ok {
		return path
	}
	return strings.ReplaceAll(key, "_", ".")
}
