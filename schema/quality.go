package schema

import (
	"fmt"

	"github.com/rushteam/airsat/core"
	"github.com/rushteam/airsat/dataset"
	"github.com/rushteam/airsat/pkg/dsl"
)

// CheckQuality 逐行校验数据质量规则（CEL 表达式），任一行不满足即返回 DATA_QUALITY 错误。
// 错误信息包含规则、首个失败行号以及失败总行数。
func CheckQuality(ds *dataset.Dataset, exprs []string) error {
	if len(exprs) == 0 {
		return nil
	}
	rules := make([]*dsl.Rule, 0, len(exprs))
	for _, expr := range exprs {
		rule, err := dsl.Compile(expr)
		if err != nil {
			return core.Wrap(core.ModuleSchema, core.ErrorCodeInvalidInput, err, fmt.Sprintf("quality rule %q", expr))
		}
		rules = append(rules, rule)
	}

	for _, rule := range rules {
		first, failed := -1, 0
		for i := 0; i < ds.Rows(); i++ {
			ok, err := rule.Match(ds.Row(i))
			if err != nil {
				return core.Wrap(core.ModuleSchema, core.ErrorCodeDataQuality, err,
					fmt.Sprintf("quality rule %q at row %d", rule, i))
			}
			if !ok {
				if first < 0 {
					first = i
				}
				failed++
			}
		}
		if failed > 0 {
			return core.Errorf(core.ModuleSchema, core.ErrorCodeDataQuality,
				"quality rule %q failed on %d rows (first row %d)", rule, failed, first)
		}
	}
	return nil
}
