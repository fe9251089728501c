package transient

import "time"

// EvaluatorLogEvent describes an expression transform evaluation for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Path     string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// InstallEvent describes one field handled by Apply.
type InstallEvent struct {
	Path   string
	As     string
	LinkTo []string
	Err    error
}

// InstallLogger records the fields Apply rewrites and links.
type InstallLogger interface {
	LogInstall(InstallEvent)
}

// InstallLoggerFunc adapts a function to InstallLogger.
type InstallLoggerFunc func(InstallEvent)

// LogInstall implements InstallLogger.
func (f InstallLoggerFunc) LogInstall(event InstallEvent) {
	if f != nil {
		f(event)
	}
}

type noopInstallLogger struct{}

func (noopInstallLogger) LogInstall(InstallEvent) {}
