package rules_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/goliatone/go-persisted/rules"
)

type theme struct {
	Name     string `json:"name"`
	Contrast int    `json:"contrast"`
}

var engines = []string{rules.EngineExpr, rules.EngineCEL}

func TestRuleCheckAcrossEngines(t *testing.T) {
	cases := []struct {
		name    string
		expr    string
		value   any
		reject  bool
		invalid bool
	}{
		{name: "object field passes", expr: `name in ["dark", "light"]`, value: theme{Name: "dark", Contrast: 2}},
		{name: "object field rejects", expr: `name in ["dark", "light"]`, value: theme{Name: "neon"}, reject: true},
		{name: "value binding", expr: `value.contrast < 5`, value: theme{Name: "dark", Contrast: 2}},
		{name: "scalar value", expr: `value == true`, value: true},
		{name: "scalar rejects", expr: `value == true`, value: false, reject: true},
		{name: "key binding", expr: `key == "theme"`, value: theme{}},
		{name: "non boolean", expr: `contrast + 1`, value: theme{Contrast: 1}, invalid: true},
	}
	for _, engine := range engines {
		for _, tc := range cases {
			t.Run(engine+"/"+tc.name, func(t *testing.T) {
				rule, err := rules.New(tc.expr, rules.WithEngine(engine))
				if err != nil {
					t.Fatalf("compile %q: %v", tc.expr, err)
				}
				err = rule.Check("theme", tc.value)
				switch {
				case tc.reject:
					if !errors.Is(err, rules.ErrRejected) {
						t.Fatalf("expected ErrRejected, got %v", err)
					}
				case tc.invalid:
					if err == nil || errors.Is(err, rules.ErrRejected) {
						t.Fatalf("expected evaluation error, got %v", err)
					}
					var evalErr *rules.EvaluationError
					if !errors.As(err, &evalErr) {
						t.Fatalf("expected EvaluationError, got %T", err)
					}
					if evalErr.Key != "theme" {
						t.Fatalf("expected key theme on error, got %q", evalErr.Key)
					}
				default:
					if err != nil {
						t.Fatalf("expected pass, got %v", err)
					}
				}
			})
		}
	}
}

func TestRuleCompileErrors(t *testing.T) {
	for _, engine := range engines {
		t.Run(engine, func(t *testing.T) {
			if _, err := rules.New(`name ==`, rules.WithEngine(engine)); err == nil {
				t.Fatalf("expected syntax error")
			}
			if _, err := rules.New(``, rules.WithEngine(engine)); err == nil {
				t.Fatalf("expected empty expression error")
			}
		})
	}
}

func TestRuleUnknownEngine(t *testing.T) {
	if _, err := rules.New(`true`, rules.WithEngine("lua")); err == nil {
		t.Fatalf("expected unknown engine error")
	}
}

func TestRuleJSRequiresBuildTag(t *testing.T) {
	if rules.JSEvaluatorAvailable() {
		t.Skip("built with js_eval")
	}
	if _, err := rules.New(`true`, rules.WithEngine(rules.EngineJS)); err == nil {
		t.Fatalf("expected js engine to be unavailable")
	}
}

func TestRuleCustomFunctionExpr(t *testing.T) {
	rule, err := rules.New(`allowed(name)`, rules.WithCustomFunction("allowed", func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("allowed expects 1 argument")
		}
		name, _ := args[0].(string)
		return strings.HasPrefix(name, "d"), nil
	}))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := rule.Check("theme", theme{Name: "dark"}); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
	if err := rule.Check("theme", theme{Name: "light"}); !errors.Is(err, rules.ErrRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestRuleCustomFunctionCEL(t *testing.T) {
	registry := rules.NewFunctionRegistry()
	if err := registry.Register("maxContrast", func(args ...any) (any, error) {
		return float64(3), nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	rule, err := rules.New(`contrast <= call("maxcontrast", [])`,
		rules.WithEngine(rules.EngineCEL),
		rules.WithFunctionRegistry(registry),
	)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := rule.Check("theme", map[string]any{"contrast": 2}); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
}

func TestRuleArgsAndMetadata(t *testing.T) {
	rule, err := rules.New(`contrast <= args.max && metadata.owner == "ui"`,
		rules.WithArgs(map[string]any{"max": 4}),
		rules.WithMetadata(map[string]any{"owner": "ui"}),
	)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := rule.Check("theme", theme{Contrast: 4}); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
	if err := rule.Check("theme", theme{Contrast: 5}); !errors.Is(err, rules.ErrRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestRuleLogsEvaluations(t *testing.T) {
	var events []rules.EvaluationEvent
	rule, err := rules.New(`value > 1`, rules.WithEvaluatorLogger(rules.EvaluatorLoggerFunc(func(e rules.EvaluationEvent) {
		events = append(events, e)
	})))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	_ = rule.Check("count", 2)
	_ = rule.Check("count", 0)

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if !events[0].Passed || events[1].Passed {
		t.Fatalf("unexpected pass flags: %+v", events)
	}
	if events[0].Engine != rules.EngineExpr || events[0].Key != "count" {
		t.Fatalf("unexpected event metadata: %+v", events[0])
	}
}

func TestProgramCacheSharedAcrossRules(t *testing.T) {
	cache := rules.NewMemoryCache()
	if _, err := rules.New(`value > 1`, rules.WithProgramCache(cache)); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, ok := cache.Get("expr:value > 1"); !ok {
		t.Fatalf("expected compiled program to be cached")
	}
}

func TestSnapshotShapes(t *testing.T) {
	got, err := rules.Snapshot(theme{Name: "dark", Contrast: 2})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	m, ok := got.(map[string]any)
	if !ok || m["name"] != "dark" || m["contrast"] != float64(2) {
		t.Fatalf("unexpected snapshot %#v", got)
	}
	if got, _ := rules.Snapshot(nil); got != nil {
		t.Fatalf("expected nil snapshot, got %#v", got)
	}
	if _, err := rules.Snapshot(func() {}); err == nil {
		t.Fatalf("expected error for unsupported value")
	}
}
