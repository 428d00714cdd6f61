package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/histfeat/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("event", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// EventFilter 是事件过滤表达式，使用 CEL (Common Expression Language) 实现。
// 在计算特征之前筛选事件，例如只统计高价商品的购买。
//
// 表达式语法（CEL 标准语法），event 包含事件的全部列以及 client_id、timestamp：
//   - 数值：event.price > 50 / event.category == 3
//   - 逻辑：event.category == 3 && event.price >= 10
//   - 时间：event.timestamp > timestamp("2022-06-01T00:00:00Z")
//   - 存在性：has(event.name)
//
// 表达式只编译一次，Match 可以被多个 goroutine 并发调用。
type EventFilter struct {
	expr string
	prg  cel.Program
}

// NewEventFilter 编译过滤表达式。
func NewEventFilter(expr string) (*EventFilter, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &EventFilter{expr: expr, prg: prg}, nil
}

// String 返回原始表达式
func (f *EventFilter) String() string { return f.expr }

// Match 判断单个事件是否满足表达式。
func (f *EventFilter) Match(ev *core.Event) (bool, error) {
	out, _, err := f.prg.Eval(map[string]any{"event": buildInput(ev)})
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", f.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q must return boolean, got %T", f.expr, out.Value())
	}
	return result, nil
}

// Apply 返回满足表达式的事件（保持原顺序）。
func (f *EventFilter) Apply(events []core.Event) ([]core.Event, error) {
	out := make([]core.Event, 0, len(events))
	for i := range events {
		ok, err := f.Match(&events[i])
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, events[i])
		}
	}
	return out, nil
}

// buildInput 构建 CEL 表达式的输入数据，空值不放入 map（用 has() 判断存在性）
func buildInput(ev *core.Event) map[string]any {
	input := make(map[string]any, len(ev.Fields)+2)
	for k, v := range ev.Fields {
		if v != nil {
			input[k] = v
		}
	}
	input[core.ColumnClientID] = ev.ClientID
	input[core.ColumnTimestamp] = ev.Timestamp
	return input
}
