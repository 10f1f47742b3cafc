// Package dataset 提供流水线各阶段之间传递的表格数据结构。
//
// Dataset 是不可变值：所有变换方法都返回新的 Dataset，不修改输入。
// 列的取值切片在构造后不得再被修改，新 Dataset 可能与旧 Dataset 共享未变更的列。
package dataset

import (
	"math"
	"strconv"
	"sync/atomic"

	"github.com/rushteam/airsat/core"
)

// Kind 是列的取值类型
type Kind int

const (
	Numeric     Kind = iota // 数值列
	Categorical             // 类别列（字符串取值）
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Column 是一列命名数据，Numbers 与 Strings 二选一（由 Kind 决定）
type Column struct {
	Name    string
	Kind    Kind
	Numbers []float64
	Strings []string
}

// NewNumeric 创建数值列
func NewNumeric(name string, values []float64) *Column {
	return &Column{Name: name, Kind: Numeric, Numbers: values}
}

// NewCategorical 创建类别列
func NewCategorical(name string, values []string) *Column {
	return &Column{Name: name, Kind: Categorical, Strings: values}
}

// Len 返回列的行数
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Numbers)
	}
	return len(c.Strings)
}

// StringAt 返回第 i 行的字符串表示。
// 数值列使用最短十进制表示（3 -> "3"，2.5 -> "2.5"），与 JSON 数字的格式化结果一致。
func (c *Column) StringAt(i int) string {
	if c.Kind == Categorical {
		return c.Strings[i]
	}
	return FormatNumber(c.Numbers[i])
}

// ValueAt 返回第 i 行的原始取值（float64 或 string）
func (c *Column) ValueAt(i int) any {
	if c.Kind == Categorical {
		return c.Strings[i]
	}
	return c.Numbers[i]
}

// take 按行索引复制出新列
func (c *Column) take(idx []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == Numeric {
		out.Numbers = make([]float64, len(idx))
		for i, r := range idx {
			out.Numbers[i] = c.Numbers[r]
		}
		return out
	}
	out.Strings = make([]string, len(idx))
	for i, r := range idx {
		out.Strings[i] = c.Strings[r]
	}
	return out
}

// renamed 返回共享取值的同名副本
func (c *Column) renamed(name string) *Column {
	cp := *c
	cp.Name = name
	return &cp
}

// FormatNumber 将数值格式化为类别映射所用的字符串形式
func FormatNumber(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Dataset 是有序的命名列集合。
// 不变量：所有列行数相同，列名唯一。
// rowIDs 记录每一行在最初数据集中的位置，source 标识最初的数据集，
// 二者一起用于校验切分子集互不重叠。
type Dataset struct {
	columns []*Column
	index   map[string]int
	rows    int
	rowIDs  []int
	source  uint64
}

var sourceSeq atomic.Uint64

// New 根据列创建 Dataset，行 ID 从 0 开始顺序分配
func New(columns ...*Column) (*Dataset, error) {
	rows := 0
	if len(columns) > 0 {
		rows = columns[0].Len()
	}
	ids := make([]int, rows)
	for i := range ids {
		ids[i] = i
	}
	return build(columns, ids, sourceSeq.Add(1))
}

func build(columns []*Column, rowIDs []int, source uint64) (*Dataset, error) {
	d := &Dataset{
		columns: columns,
		index:   make(map[string]int, len(columns)),
		rows:    len(rowIDs),
		rowIDs:  rowIDs,
		source:  source,
	}
	for i, c := range columns {
		if c == nil {
			return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeInvalidInput, "dataset: column %d is nil", i)
		}
		if _, dup := d.index[c.Name]; dup {
			return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeDataQuality, "dataset: duplicate column %q", c.Name)
		}
		if c.Len() != d.rows {
			return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeDataQuality,
				"dataset: column %q has %d rows, want %d", c.Name, c.Len(), d.rows)
		}
		d.index[c.Name] = i
	}
	return d, nil
}

// Rows 返回行数
func (d *Dataset) Rows() int { return d.rows }

// Width 返回列数
func (d *Dataset) Width() int { return len(d.columns) }

// Names 返回当前顺序下的列名
func (d *Dataset) Names() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Columns 返回列的副本切片（列本身共享）
func (d *Dataset) Columns() []*Column {
	out := make([]*Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// Column 按名称查找列
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.columns[i], true
}

// Has 判断列是否存在
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// RowIDs 返回每一行的来源 ID（副本）
func (d *Dataset) RowIDs() []int {
	out := make([]int, len(d.rowIDs))
	copy(out, d.rowIDs)
	return out
}

// Source 返回来源数据集标识；由同一数据集 Take/Drop/Select 得到的子集标识相同
func (d *Dataset) Source() uint64 { return d.source }

// Row 以 map 形式返回第 i 行
func (d *Dataset) Row(i int) map[string]any {
	row := make(map[string]any, len(d.columns))
	for _, c := range d.columns {
		row[c.Name] = c.ValueAt(i)
	}
	return row
}

// Take 按行索引选出子集，保留来源行 ID
func (d *Dataset) Take(idx []int) (*Dataset, error) {
	ids := make([]int, len(idx))
	for i, r := range idx {
		if r < 0 || r >= d.rows {
			return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeOutOfRange, "dataset: row %d out of range [0,%d)", r, d.rows)
		}
		ids[i] = d.rowIDs[r]
	}
	cols := make([]*Column, len(d.columns))
	for i, c := range d.columns {
		cols[i] = c.take(idx)
	}
	return build(cols, ids, d.source)
}

// TakeRowIDs 按来源行 ID 选出子集，ID 不在本数据集中时返回错误
func (d *Dataset) TakeRowIDs(ids []int) (*Dataset, error) {
	pos := make(map[int]int, len(d.rowIDs))
	for i, id := range d.rowIDs {
		pos[id] = i
	}
	idx := make([]int, len(ids))
	for i, id := range ids {
		r, ok := pos[id]
		if !ok {
			return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeOutOfRange, "dataset: row id %d not found", id)
		}
		idx[i] = r
	}
	return d.Take(idx)
}

// Drop 删除指定列，任一列不存在时返回错误
func (d *Dataset) Drop(names ...string) (*Dataset, error) {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		if !d.Has(n) {
			return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeDataQuality, "dataset: column %q not found", n)
		}
		drop[n] = struct{}{}
	}
	cols := make([]*Column, 0, len(d.columns))
	for _, c := range d.columns {
		if _, ok := drop[c.Name]; !ok {
			cols = append(cols, c)
		}
	}
	return build(cols, d.rowIDs, d.source)
}

// Select 按给定顺序选出列，任一列不存在时返回错误
func (d *Dataset) Select(names []string) (*Dataset, error) {
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		c, ok := d.Column(n)
		if !ok {
			return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeDataQuality, "dataset: column %q not found", n)
		}
		cols = append(cols, c)
	}
	return build(cols, d.rowIDs, d.source)
}

// WithColumn 替换同名列；不存在时追加到末尾
func (d *Dataset) WithColumn(c *Column) (*Dataset, error) {
	cols := d.Columns()
	if i, ok := d.index[c.Name]; ok {
		cols[i] = c
	} else {
		cols = append(cols, c)
	}
	return build(cols, d.rowIDs, d.source)
}

// Rename 按 old -> new 映射重命名列，未出现在映射中的列保持原名
func (d *Dataset) Rename(mapping map[string]string) (*Dataset, error) {
	cols := make([]*Column, len(d.columns))
	for i, c := range d.columns {
		if n, ok := mapping[c.Name]; ok && n != c.Name {
			cols[i] = c.renamed(n)
			continue
		}
		cols[i] = c
	}
	return build(cols, d.rowIDs, d.source)
}

// Matrix 按 order 输出行优先的数值矩阵。
// 列集合必须与 order 完全一致（数量和顺序），且全部为数值列。
func (d *Dataset) Matrix(order []string) ([][]float64, error) {
	if len(order) != len(d.columns) {
		return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeShapeMismatch,
			"dataset: got %d columns, want %d", len(d.columns), len(order))
	}
	for i, name := range order {
		c := d.columns[i]
		if c.Name != name {
			return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeShapeMismatch,
				"dataset: column %d is %q, want %q", i, c.Name, name)
		}
		if c.Kind != Numeric {
			return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeShapeMismatch,
				"dataset: column %q is not encoded", c.Name)
		}
	}
	out := make([][]float64, d.rows)
	for r := 0; r < d.rows; r++ {
		row := make([]float64, len(d.columns))
		for j, c := range d.columns {
			row[j] = c.Numbers[r]
		}
		out[r] = row
	}
	return out, nil
}
