package transient

import (
	"fmt"
	"sync"
	"time"
)

// TransformContext carries the inputs of a single expression transform call.
type TransformContext struct {
	Value    any
	Args     []any
	Now      *time.Time
	Path     string
	Metadata map[string]any
}

func (ctx TransformContext) withDefaults() TransformContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = []any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx TransformContext) timestamp() time.Time {
	return *ctx.withDefaults().Now
}

func (ctx TransformContext) pathLabel() string {
	if ctx.Path == "" {
		return "unknown"
	}
	return ctx.Path
}

// bindings returns the variables every engine exposes to expressions.
func (ctx TransformContext) bindings() map[string]any {
	ctx = ctx.withDefaults()
	return map[string]any{
		"value":    ctx.Value,
		"args":     ctx.Args,
		"now":      *ctx.Now,
		"path":     ctx.Path,
		"metadata": ctx.Metadata,
	}
}

// Evaluator executes transform expressions against a TransformContext.
type Evaluator interface {
	Evaluate(ctx TransformContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx TransformContext) (any, error)
}

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MemoryProgramCache is a ProgramCache backed by a map. Safe for concurrent
// use.
type MemoryProgramCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

// NewProgramCache constructs an empty MemoryProgramCache.
func NewProgramCache() *MemoryProgramCache {
	return &MemoryProgramCache{programs: make(map[string]any)}
}

func (c *MemoryProgramCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	program, ok := c.programs[key]
	return program, ok
}

func (c *MemoryProgramCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.programs == nil {
		c.programs = make(map[string]any)
	}
	c.programs[key] = value
}

// Len reports how many programs are cached.
func (c *MemoryProgramCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.programs)
}

func engineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*transient.exprEvaluator":
		return "expr"
	case "*transient.celEvaluator":
		return "cel"
	case "*transient.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}

func cacheKey(engine, expression string) string {
	return engine + ":" + expression
}
