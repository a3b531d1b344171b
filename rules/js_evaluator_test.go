//go:build js_eval

package rules_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-persisted/rules"
)

func TestJSRule(t *testing.T) {
	rule, err := rules.New(`name === "dark" && value.contrast < 3`, rules.WithEngine(rules.EngineJS))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := rule.Check("theme", theme{Name: "dark", Contrast: 1}); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
	if err := rule.Check("theme", theme{Name: "light"}); !errors.Is(err, rules.ErrRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestJSRuleInterruptedAfterTimeout(t *testing.T) {
	evaluator := rules.NewJSEvaluator(rules.JSWithTimeout(20 * time.Millisecond))
	rule, err := rules.New(`(function() { while (true) {} })()`, rules.WithEvaluator(evaluator))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	err = rule.Check("theme", theme{Name: "dark"})
	var evalErr *rules.EvaluationError
	if !errors.As(err, &evalErr) || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout evaluation error, got %v", err)
	}
}
