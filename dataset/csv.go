package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rushteam/airsat/core"
)

// LoadCSV 从本地文件读取带表头的 CSV
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	ds, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	return ds, nil
}

// ReadCSV 读取带表头的 CSV 并推断列类型：
// 所有非空单元格都能解析为浮点数的列为数值列（空单元格记为 NaN），其余为类别列。
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeDataQuality, "csv: missing header")
		}
		return nil, err
	}
	// 去掉 UTF-8 BOM
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	raw := make([][]string, len(header))
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for j := range header {
			raw[j] = append(raw[j], rec[j])
		}
	}

	cols := make([]*Column, len(header))
	for j, name := range header {
		cols[j] = inferColumn(name, raw[j])
	}
	return New(cols...)
}

func inferColumn(name string, values []string) *Column {
	nums := make([]float64, len(values))
	seen := false
	for i, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			nums[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return NewCategorical(name, values)
		}
		nums[i] = f
		seen = true
	}
	if !seen {
		return NewCategorical(name, values)
	}
	return NewNumeric(name, nums)
}
