package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("row", cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Rule 是编译后的行级表达式，使用 CEL (Common Expression Language) 语法。
//
// 表达式通过 row 访问当前行的列值：
//   - 数值：row.age >= 0 / row.flight_distance < 20000.0
//   - 字符串：row.gender in ["Male", "Female"]
//   - 逻辑：row.age >= 0 && row.age <= 120
//   - 存在性：has(row.customer_type)
//
// Rule 编译一次，可并发调用 Match。
type Rule struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式
func Compile(expr string) (*Rule, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}
	return &Rule{expr: expr, prg: prg}, nil
}

// String 返回原始表达式
func (r *Rule) String() string { return r.expr }

// Match 对一行数据求值，表达式必须返回布尔值
func (r *Rule) Match(row map[string]any) (bool, error) {
	out, _, err := r.prg.Eval(map[string]any{"row": row})
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}
