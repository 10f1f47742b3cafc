// Package conv 提供请求体等弱类型值（any）到特征值的转换工具。
package conv

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ToFloat64 将 any 转为 float64。
// 支持 float64、float32、int、int64、int32、json.Number 以及可解析为数字的字符串；bool 视为 1.0/0.0。
func ToFloat64(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	case bool:
		if val {
			return 1.0, true
		}
		return 0.0, true
	default:
		return 0, false
	}
}

// ToString 将 any 转为 string。
// 数字按最短十进制格式化（30.0 与 30 均得到 "30"），与数据集中数值单元格的字符串形式一致。
func ToString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return val.String(), true
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	if f, ok := ToFloat64(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}
