package rules

import "testing"

func TestNewGivesEachRuleItsOwnCache(t *testing.T) {
	rule, err := New(`contrast <= 3`, WithEngine(EngineCEL))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	compiled, ok := rule.compiled.(*celCompiledRule)
	if !ok {
		t.Fatalf("expected a CEL rule, got %T", rule.compiled)
	}
	cache, ok := compiled.evaluator.cache.(*MemoryCache)
	if !ok {
		t.Fatalf("expected a default memory cache, got %T", compiled.evaluator.cache)
	}

	if err := rule.Check("theme", map[string]any{"contrast": 2}); err != nil {
		t.Fatalf("check: %v", err)
	}
	key := celCacheKey(`contrast <= 3`, map[string]any{"contrast": nil})
	first, ok := cache.Get(key)
	if !ok {
		t.Fatalf("expected program cached under %q", key)
	}
	if err := rule.Check("theme", map[string]any{"contrast": 1}); err != nil {
		t.Fatalf("check: %v", err)
	}
	second, _ := cache.Get(key)
	if first != second {
		t.Fatalf("expected the cached program to be reused")
	}

	other, err := New(`contrast <= 3`, WithEngine(EngineCEL))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if other.compiled.(*celCompiledRule).evaluator.cache == compiled.evaluator.cache {
		t.Fatalf("expected rules built without WithProgramCache to get separate caches")
	}
}
