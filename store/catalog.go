package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/rushteam/airsat/core"
)

// 流水线产物名称
const (
	ArtifactUncalibratedModel  = "trained_uncalibrated_model"
	ArtifactCalibratedModel    = "trained_calibrated_model"
	ArtifactMapping            = "mapping_unique_values"
	ArtifactColumnOrder        = "data_columns_order"
	ArtifactScore              = "score"
	ArtifactColumnNamesMapping = "columns_names_mapping"
	ArtifactFeatureImportances = "feature_importances"
	ArtifactDataProfile        = "data_profile"
)

// Envelope 是产物的存储格式：数据本身加上产生它的运行信息
type Envelope struct {
	Name    string          `json:"name"`
	RunID   string          `json:"run_id"`
	SavedAt time.Time       `json:"saved_at"`
	Data    json.RawMessage `json:"data"`
}

// Catalog 按名称读写 JSON 产物，取代框架托管的全局 catalog。
// 同一个 Catalog 写入的产物共享一个 run id，推理侧可据此确认产物来自同一次训练。
type Catalog struct {
	store core.Store
	runID string
	now   func() time.Time
}

// CatalogOption 配置 Catalog
type CatalogOption func(*Catalog)

// WithRunID 指定运行 id（默认随机 UUID）
func WithRunID(id string) CatalogOption {
	return func(c *Catalog) {
		if id != "" {
			c.runID = id
		}
	}
}

func NewCatalog(s core.Store, opts ...CatalogOption) *Catalog {
	c := &Catalog{store: s, runID: uuid.NewString(), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunID 返回本 Catalog 写入产物使用的运行 id
func (c *Catalog) RunID() string { return c.runID }

// Store 返回底层存储
func (c *Catalog) Store() core.Store { return c.store }

// Save 将 v 编码为 JSON 并以 name 写入
func (c *Catalog) Save(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("catalog: encode %s: %w", name, err)
	}
	raw, err := json.Marshal(Envelope{Name: name, RunID: c.runID, SavedAt: c.now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("catalog: encode %s: %w", name, err)
	}
	if err := c.store.Set(ctx, name, raw); err != nil {
		return fmt.Errorf("catalog: save %s to %s: %w", name, c.store.Name(), err)
	}
	return nil
}

// Load 读取 name 并解码到 v，返回产物的运行信息（Data 字段保留原始 JSON）
func (c *Catalog) Load(ctx context.Context, name string, v any) (*Envelope, error) {
	raw, err := c.store.Get(ctx, name)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.Wrap(core.ModuleStore, core.ErrorCodeNotFound, err, "catalog: artifact "+name)
		}
		return nil, fmt.Errorf("catalog: load %s from %s: %w", name, c.store.Name(), err)
	}
	return decode(name, raw, v)
}

// LoadAll 用一次 BatchGet 读取 targets 中的全部产物（名称 -> 解码目标）。
// 任一产物缺失返回 NOT_FOUND，产物来自不同运行时返回 INVALID_INPUT；成功时返回共同的 run id。
func (c *Catalog) LoadAll(ctx context.Context, targets map[string]any) (string, error) {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)

	raws, err := c.store.BatchGet(ctx, names)
	if err != nil {
		return "", fmt.Errorf("catalog: load %v from %s: %w", names, c.store.Name(), err)
	}
	runID := ""
	for i, name := range names {
		raw, ok := raws[name]
		if !ok {
			return "", core.Wrap(core.ModuleStore, core.ErrorCodeNotFound, core.ErrStoreNotFound, "catalog: artifact "+name)
		}
		env, err := decode(name, raw, targets[name])
		if err != nil {
			return "", err
		}
		if i == 0 {
			runID = env.RunID
		} else if env.RunID != runID {
			return "", core.Errorf(core.ModuleStore, core.ErrorCodeInvalidInput,
				"catalog: artifact %s from run %q, %s from run %q", names[0], runID, name, env.RunID)
		}
	}
	return runID, nil
}

func decode(name string, raw []byte, v any) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, core.Wrap(core.ModuleStore, core.ErrorCodeInvalidInput, err, "catalog: decode "+name)
	}
	if env.Name != name {
		return nil, core.Errorf(core.ModuleStore, core.ErrorCodeInvalidInput, "catalog: key %s holds artifact %q", name, env.Name)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return nil, core.Wrap(core.ModuleStore, core.ErrorCodeInvalidInput, err, "catalog: decode "+name)
	}
	return &env, nil
}
