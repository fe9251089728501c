package transient

import (
	"context"
	"time"
)

// Option configures Apply and Plugin.
type Option func(*config)

type config struct {
	ctx    context.Context
	logger InstallLogger
}

func applyOptions(opts []Option) config {
	cfg := config{
		ctx:    context.Background(),
		logger: noopInstallLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithInstallLogger attaches a logger notified for every rewritten field.
func WithInstallLogger(logger InstallLogger) Option {
	return func(cfg *config) {
		if logger == nil {
			cfg.logger = noopInstallLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithContext sets the context install signals are emitted with.
func WithContext(ctx context.Context) Option {
	return func(cfg *config) {
		if ctx != nil {
			cfg.ctx = ctx
		}
	}
}

// ExpressionOption configures Expression.
type ExpressionOption func(*expressionConfig)

type expressionConfig struct {
	path     string
	metadata map[string]any
	logger   EvaluatorLogger
	clock    func() time.Time
}

func applyExpressionOptions(opts []ExpressionOption) expressionConfig {
	cfg := expressionConfig{
		logger: noopEvaluatorLogger{},
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithPath labels evaluations and errors with the field path.
func WithPath(path string) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.path = path
	}
}

// WithMetadata exposes metadata to the expression as `metadata`.
func WithMetadata(metadata map[string]any) ExpressionOption {
	return func(cfg *expressionConfig) {
		if metadata == nil {
			cfg.metadata = nil
			return
		}
		cfg.metadata = make(map[string]any, len(metadata))
		for key, value := range metadata {
			cfg.metadata[key] = value
		}
	}
}

// WithEvaluatorLogger attaches an evaluator logger to the transform.
func WithEvaluatorLogger(logger EvaluatorLogger) ExpressionOption {
	return func(cfg *expressionConfig) {
		if logger == nil {
			cfg.logger = noopEvaluatorLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithClock overrides the source of `now`.
func WithClock(clock func() time.Time) ExpressionOption {
	return func(cfg *expressionConfig) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}
