// Package schema 负责原始数据的列规范化：合并特征表与标签表、统一列名、删除无关列。
package schema

import (
	"sort"
	"strings"

	"github.com/rushteam/airsat/core"
	"github.com/rushteam/airsat/dataset"
)

// DefaultReserved 是与保留字冲突时的替换名。
// "class" 在原始问卷中表示舱位，规范化后改为 flight_class。
var DefaultReserved = map[string]string{
	"class": "flight_class",
}

// Merge 以 joinKey 内连接特征表与标签表。
//
// 结果保留 features 的行顺序，列为 features 的全部列加上 labels 中除 joinKey 以外的列。
// 任一侧缺少 joinKey、joinKey 重复（会导致行数膨胀）或非 key 列重名时返回 DATA_QUALITY 错误。
func Merge(features, labels *dataset.Dataset, joinKey string) (*dataset.Dataset, error) {
	fk, ok := features.Column(joinKey)
	if !ok {
		return nil, core.Errorf(core.ModuleSchema, core.ErrorCodeDataQuality, "merge: join key %q missing from features", joinKey)
	}
	lk, ok := labels.Column(joinKey)
	if !ok {
		return nil, core.Errorf(core.ModuleSchema, core.ErrorCodeDataQuality, "merge: join key %q missing from labels", joinKey)
	}

	if dup, ok := firstDuplicate(fk); ok {
		return nil, core.Errorf(core.ModuleSchema, core.ErrorCodeDataQuality, "merge: duplicated key %q in features", dup)
	}
	labelRow := make(map[string]int, lk.Len())
	for i := 0; i < lk.Len(); i++ {
		k := lk.StringAt(i)
		if _, dup := labelRow[k]; dup {
			return nil, core.Errorf(core.ModuleSchema, core.ErrorCodeDataQuality, "merge: duplicated key %q in labels", k)
		}
		labelRow[k] = i
	}

	var leftIdx, rightIdx []int
	for i := 0; i < fk.Len(); i++ {
		if j, ok := labelRow[fk.StringAt(i)]; ok {
			leftIdx = append(leftIdx, i)
			rightIdx = append(rightIdx, j)
		}
	}

	left, err := features.Take(leftIdx)
	if err != nil {
		return nil, err
	}
	right, err := labels.Take(rightIdx)
	if err != nil {
		return nil, err
	}

	cols := left.Columns()
	for _, c := range right.Columns() {
		if c.Name == joinKey {
			continue
		}
		if left.Has(c.Name) {
			return nil, core.Errorf(core.ModuleSchema, core.ErrorCodeDataQuality, "merge: column %q present in both inputs", c.Name)
		}
		cols = append(cols, c)
	}
	merged, err := dataset.New(cols...)
	if err != nil {
		return nil, err
	}
	if merged.Rows() > features.Rows() || merged.Rows() > labels.Rows() {
		return nil, core.Errorf(core.ModuleSchema, core.ErrorCodeDataQuality,
			"merge: row count grew to %d (features %d, labels %d)", merged.Rows(), features.Rows(), labels.Rows())
	}
	return merged, nil
}

func firstDuplicate(c *dataset.Column) (string, bool) {
	seen := make(map[string]struct{}, c.Len())
	for i := 0; i < c.Len(); i++ {
		k := c.StringAt(i)
		if _, ok := seen[k]; ok {
			return k, true
		}
		seen[k] = struct{}{}
	}
	return "", false
}

// CanonicalName 将列名转小写，并把 "/"、" "、"-" 替换为 "_"
func CanonicalName(name string) string {
	return strings.NewReplacer("/", "_", " ", "_", "-", "_").Replace(strings.ToLower(name))
}

// RenameColumns 规范化全部列名，返回新数据集和 old -> new 映射（用于溯源）。
// reserved 为 nil 时使用 DefaultReserved。规范化后列名冲突时返回 DATA_QUALITY 错误。
func RenameColumns(ds *dataset.Dataset, reserved map[string]string) (*dataset.Dataset, map[string]string, error) {
	if reserved == nil {
		reserved = DefaultReserved
	}
	mapping := make(map[string]string, ds.Width())
	owner := make(map[string]string, ds.Width())
	for _, old := range ds.Names() {
		name := CanonicalName(old)
		if alt, ok := reserved[name]; ok {
			name = alt
		}
		if prev, ok := owner[name]; ok {
			return nil, nil, core.Errorf(core.ModuleSchema, core.ErrorCodeDataQuality,
				"rename: columns %q and %q both map to %q", prev, old, name)
		}
		owner[name] = old
		mapping[old] = name
	}
	renamed, err := ds.Rename(mapping)
	if err != nil {
		return nil, nil, err
	}
	return renamed, mapping, nil
}

// DeleteColumns 删除指定列，任一列不存在时返回 DATA_QUALITY 错误
func DeleteColumns(ds *dataset.Dataset, names []string) (*dataset.Dataset, error) {
	var missing []string
	for _, n := range names {
		if !ds.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, core.Errorf(core.ModuleSchema, core.ErrorCodeDataQuality,
			"delete columns: not found: %s", strings.Join(missing, ", "))
	}
	return ds.Drop(names...)
}
