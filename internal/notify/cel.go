package notify

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/Godatcode/DevFlow-sub004/internal/events"
)

// ExpressionEvaluator compiles rule expressions into CEL programs and caches
// them by source text. Rules see the event as `event` (envelope fields) plus
// `data` (the free-form data map).
type ExpressionEvaluator struct {
	env *cel.Env

	mu    sync.RWMutex
	cache map[string]cel.Program
}

// NewExpressionEvaluator creates an evaluator with the standard environment.
func NewExpressionEvaluator() (*ExpressionEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("event", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("data", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("cel environment: %w", err)
	}
	return &ExpressionEvaluator{
		env:   env,
		cache: make(map[string]cel.Program),
	}, nil
}

// Compile compiles an expression, or returns the cached program.
func (e *ExpressionEvaluator) Compile(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.cache[expr]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("cel compile error: %w", issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("cel program creation error: %w", err)
	}

	e.mu.Lock()
	e.cache[expr] = prg
	e.mu.Unlock()
	return prg, nil
}

// Matches evaluates an expression against an event. An empty expression
// matches everything. Evaluation errors are returned to the caller, who
// decides whether the rule is skipped.
func (e *ExpressionEvaluator) Matches(expr string, event events.Event) (bool, error) {
	if expr == "" {
		return true, nil
	}

	prg, err := e.Compile(expr)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]any{
		"event": map[string]any{
			"id":         event.ID,
			"type":       event.Type,
			"workflowId": event.WorkflowID,
			"source":     event.Source,
			"severity":   string(event.Severity()),
		},
		"data": event.Data,
	})
	if err != nil {
		return false, err
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("cel result is not boolean: %T", out.Value())
	}
	return result, nil
}
