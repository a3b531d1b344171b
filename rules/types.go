package rules

import "time"

// RuleContext carries inputs needed when evaluating an expression.
type RuleContext struct {
	// Snapshot is the value under test in JSON shape (map[string]any for
	// objects). Object fields are also bound as top-level variables.
	Snapshot any
	Key      string
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) keyLabel() string {
	if ctx.Key != "" {
		return ctx.Key
	}
	return "unknown"
}

// fields returns the snapshot's top-level fields when it is an object.
func (ctx RuleContext) fields() map[string]any {
	if m, ok := ctx.Snapshot.(map[string]any); ok {
		return m
	}
	return nil
}

// reservedNames are bound by every engine and can be neither snapshot
// variables nor custom function names.
var reservedNames = map[string]struct{}{
	"value": {}, "key": {}, "now": {}, "args": {}, "metadata": {}, "call": {},
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// ProgramCache stores compiled expression programs keyed by expression
// strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}
