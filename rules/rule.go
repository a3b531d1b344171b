// Package rules evaluates boolean expressions against persisted values. A
// Rule guards both directions of a binding: a stored value that fails its
// rules is replaced by the fallback on read, and a new value that fails is
// not written.
//
// Values are presented to expressions in JSON shape. The whole value is bound
// as `value`, and when it is an object its fields are also bound at the top
// level, so `theme in ["dark", "light"]` and `value.theme != ""` are
// equivalent. `key`, `now`, `args` and `metadata` are always available.
//
// Engines: expr (default), CEL, and JS via goja when built with the js_eval
// tag.
package rules

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Engine names accepted by NewEvaluator and WithEngine.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// NewEvaluator returns the evaluator registered for engine, sharing cache and
// registry when they are non-nil.
func NewEvaluator(engine string, cache ProgramCache, registry *FunctionRegistry) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(registry)), nil
	case EngineCEL:
		return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(registry)), nil
	case EngineJS:
		evaluator := NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(registry))
		if evaluator == nil {
			return nil, fmt.Errorf("rules: js engine requires the js_eval build tag")
		}
		return evaluator, nil
	default:
		return nil, fmt.Errorf("rules: unknown engine %q", engine)
	}
}

// Option configures a Rule.
type Option func(*ruleConfig)

type ruleConfig struct {
	engine    string
	evaluator Evaluator
	cache     ProgramCache
	registry  *FunctionRegistry
	logger    EvaluatorLogger
	args      map[string]any
	metadata  map[string]any
	err       error
}

// WithEngine selects a built-in engine by name.
func WithEngine(engine string) Option {
	return func(cfg *ruleConfig) {
		cfg.engine = engine
	}
}

// WithEvaluator supplies a custom evaluator; it takes precedence over
// WithEngine.
func WithEvaluator(evaluator Evaluator) Option {
	return func(cfg *ruleConfig) {
		cfg.evaluator = evaluator
	}
}

// WithProgramCache shares compiled programs between rules.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *ruleConfig) {
		cfg.cache = cache
	}
}

// WithFunctionRegistry exposes custom functions to the expression.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *ruleConfig) {
		cfg.registry = registry
	}
}

// WithCustomFunction registers a single function for this rule. A name that
// is reserved or already registered makes New fail.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *ruleConfig) {
		if cfg.registry == nil {
			cfg.registry = NewFunctionRegistry()
		} else {
			cfg.registry = cfg.registry.Clone()
		}
		if err := cfg.registry.Register(name, fn); err != nil && cfg.err == nil {
			cfg.err = err
		}
	}
}

// WithEvaluatorLogger records every evaluation.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *ruleConfig) {
		cfg.logger = logger
	}
}

// WithArgs binds static arguments available as `args` in the expression.
func WithArgs(args map[string]any) Option {
	return func(cfg *ruleConfig) {
		cfg.args = copyMap(args)
	}
}

// WithMetadata binds static metadata available as `metadata`.
func WithMetadata(metadata map[string]any) Option {
	return func(cfg *ruleConfig) {
		cfg.metadata = copyMap(metadata)
	}
}

// Rule is a compiled boolean expression.
type Rule struct {
	expr     string
	engine   string
	compiled CompiledRule
	logger   EvaluatorLogger
	args     map[string]any
	metadata map[string]any
}

// New compiles expression. Option and compilation errors are returned
// immediately. Without WithProgramCache each rule gets its own cache so
// engines that rebuild per evaluation compile once.
func New(expression string, opts ...Option) (*Rule, error) {
	cfg := ruleConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.err != nil {
		return nil, cfg.err
	}
	evaluator := cfg.evaluator
	engine := strings.ToLower(strings.TrimSpace(cfg.engine))
	if evaluator == nil {
		cache := cfg.cache
		if cache == nil {
			cache = NewMemoryCache()
		}
		var err error
		evaluator, err = NewEvaluator(engine, cache, cfg.registry)
		if err != nil {
			return nil, err
		}
	}
	if engine == "" {
		engine = EngineExpr
	}
	if cfg.evaluator != nil {
		engine = "custom"
	}
	compiled, err := evaluator.Compile(expression)
	if err != nil {
		return nil, err
	}
	logger := cfg.logger
	if logger == nil {
		logger = noopEvaluatorLogger{}
	}
	return &Rule{
		expr:     expression,
		engine:   engine,
		compiled: compiled,
		logger:   logger,
		args:     cfg.args,
		metadata: cfg.metadata,
	}, nil
}

// MustNew is like New but panics on error. Intended for package-level rule
// declarations.
func MustNew(expression string, opts ...Option) *Rule {
	rule, err := New(expression, opts...)
	if err != nil {
		panic(err)
	}
	return rule
}

// Expr returns the source expression.
func (r *Rule) Expr() string {
	return r.expr
}

// Engine returns the engine name the rule was compiled with.
func (r *Rule) Engine() string {
	return r.engine
}

// Check evaluates the rule against value stored under key. It returns nil
// when the expression yields true, an error wrapping ErrRejected when it
// yields false, and an evaluation error otherwise.
func (r *Rule) Check(key string, value any) error {
	snapshot, err := Snapshot(value)
	if err != nil {
		return wrapEvaluationError(r.engine, r.expr, key, err)
	}
	ctx := RuleContext{
		Snapshot: snapshot,
		Key:      key,
		Args:     copyMap(r.args),
		Metadata: copyMap(r.metadata),
	}
	start := time.Now()
	result, evalErr := r.compiled.Evaluate(ctx)
	event := EvaluationEvent{
		Engine:   r.engine,
		Expr:     r.expr,
		Key:      key,
		Duration: time.Since(start),
	}
	defer func() { r.logger.LogEvaluation(event) }()

	if evalErr != nil {
		event.Err = wrapEvaluationError(r.engine, r.expr, key, evalErr)
		return event.Err
	}
	passed, ok := result.(bool)
	if !ok {
		event.Err = wrapEvaluationError(r.engine, r.expr, key, fmt.Errorf("%w, got %T", ErrNotBoolean, result))
		return event.Err
	}
	event.Passed = passed
	if !passed {
		return fmt.Errorf("%w: key=%s expr=%q", ErrRejected, key, r.expr)
	}
	return nil
}

// Snapshot converts value into its JSON shape: objects become map[string]any,
// arrays []any, numbers float64.
func Snapshot(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return out, nil
}

func copyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
