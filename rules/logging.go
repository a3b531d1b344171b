package rules

import (
	"time"

	"github.com/rs/zerolog"
)

// EvaluationEvent describes one rule evaluation for logging.
type EvaluationEvent struct {
	Engine   string
	Expr     string
	Key      string
	Duration time.Duration
	Passed   bool
	Err      error
}

// EvaluatorLogger records evaluation events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluationEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluationEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluationEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluationEvent) {}

// ZerologLogger writes evaluation events at debug level, or warn level when
// evaluation failed.
func ZerologLogger(logger zerolog.Logger) EvaluatorLogger {
	return EvaluatorLoggerFunc(func(event EvaluationEvent) {
		entry := logger.Debug()
		if event.Err != nil {
			entry = logger.Warn().Err(event.Err)
		}
		entry.
			Str("engine", event.Engine).
			Str("expr", event.Expr).
			Str("key", event.Key).
			Dur("duration", event.Duration).
			Bool("passed", event.Passed).
			Msg("rule evaluated")
	})
}
