package config

import (
	"context"
	"sort"
	"sync"

	"github.com/rushteam/airsat/core"
	"github.com/rushteam/airsat/store"
)

// StoreBuilder 根据配置打开一种存储后端
type StoreBuilder func(ctx context.Context, cfg StoreConfig) (core.Store, error)

var (
	backends   = make(map[string]StoreBuilder)
	backendsMu sync.RWMutex
)

func init() {
	Register("memory", func(context.Context, StoreConfig) (core.Store, error) {
		return store.NewMemoryStore(), nil
	})
	Register("file", func(_ context.Context, cfg StoreConfig) (core.Store, error) {
		return store.NewFileStore(cfg.Dir), nil
	})
	Register("redis", func(ctx context.Context, cfg StoreConfig) (core.Store, error) {
		s, err := store.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// Register 注册一种存储后端，同名后注册的覆盖先注册的
func Register(name string, builder StoreBuilder) {
	if name == "" || builder == nil {
		return
	}
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = builder
}

// IsRegistered 后端是否已注册
func IsRegistered(name string) bool {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// SupportedBackends 返回已注册的后端名称（排序），用于错误提示
func SupportedBackends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OpenStore 按 cfg.Backend 打开存储
func OpenStore(ctx context.Context, cfg StoreConfig) (core.Store, error) {
	backendsMu.RLock()
	builder, ok := backends[cfg.Backend]
	backendsMu.RUnlock()
	if !ok {
		return nil, core.Errorf(core.ModuleConfig, core.ErrorCodeNotSupported,
			"config: unsupported store backend %q (supported: %v)", cfg.Backend, SupportedBackends())
	}
	return builder(ctx, cfg)
}
