package rules

import "time"

// DefaultJSTimeout bounds a single JS rule evaluation.
const DefaultJSTimeout = 100 * time.Millisecond

// jsSettings is shared by the goja evaluator and its stub so the options
// exist in every build.
type jsSettings struct {
	cache    ProgramCache
	registry *FunctionRegistry
	timeout  time.Duration
}

// JSEvaluatorOption configures the JS evaluator.
type JSEvaluatorOption func(*jsSettings)

// JSWithProgramCache shares compiled goja programs.
func JSWithProgramCache(cache ProgramCache) JSEvaluatorOption {
	return func(s *jsSettings) {
		s.cache = cache
	}
}

// JSWithFunctionRegistry exposes custom functions both as call(name, ...)
// and as globals under their registered names.
func JSWithFunctionRegistry(registry *FunctionRegistry) JSEvaluatorOption {
	return func(s *jsSettings) {
		s.registry = registry.Clone()
	}
}

// JSWithTimeout interrupts evaluations that run longer than timeout. Zero
// or negative disables the limit.
func JSWithTimeout(timeout time.Duration) JSEvaluatorOption {
	return func(s *jsSettings) {
		s.timeout = timeout
	}
}

func newJSSettings(opts []JSEvaluatorOption) jsSettings {
	s := jsSettings{timeout: DefaultJSTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}
