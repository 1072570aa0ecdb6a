package mathjax

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wudi/mathtex/observability"
	"github.com/wudi/mathtex/scripting"
)

// State is the lifecycle state of an engine session.
type State int32

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used for load stages and script console output.
func WithLogger(l observability.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTracer sets the tracer wrapping loads and conversions.
func WithTracer(t observability.Tracer) EngineOption {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithScriptEngine replaces the script runtime factory.
func WithScriptEngine(factory func() scripting.Engine) EngineOption {
	return func(e *Engine) {
		if factory != nil {
			e.factory = factory
		}
	}
}

// Engine owns one MathJax instance running in an embedded script runtime.
// All methods are safe for concurrent use; Load, Unload and conversions are
// serialized because the runtime is not re-entrant.
type Engine struct {
	mu      sync.Mutex
	state   atomic.Int32
	src     ScriptSource
	factory func() scripting.Engine
	vm      scripting.Engine
	logger  observability.Logger
	tracer  observability.Tracer
}

// New returns an unloaded engine reading its scripts from src.
func New(src ScriptSource, opts ...EngineOption) *Engine {
	e := &Engine{
		src:     src,
		factory: func() scripting.Engine { return scripting.NewEngine() },
		logger:  observability.NopLogger{},
		tracer:  observability.NopTracer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State reports the current session state without waiting for a load in
// progress.
func (e *Engine) State() State { return State(e.state.Load()) }

// Ready reports whether conversions can run.
func (e *Engine) Ready() bool { return e.State() == StateReady }

func (e *Engine) setState(s State) { e.state.Store(int32(s)) }

// Load starts the engine. It is a no-op when the engine is ready. A failed
// load leaves the engine in StateFailed and returns a *LoadError; calling
// Load again retries from scratch.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.State() == StateReady {
		return nil
	}

	ctx, span := e.tracer.StartSpan(ctx, "mathjax.load")
	defer span.Finish()
	start := time.Now()

	e.setState(StateLoading)
	e.closeVM()

	if err := e.load(ctx); err != nil {
		e.closeVM()
		e.setState(StateFailed)
		span.SetError(err)
		e.logger.Error("mathjax load failed", observability.Error("error", err))
		return err
	}
	e.setState(StateReady)
	span.SetTag(observability.MetricEngineLoadTime, time.Since(start))
	e.logger.Info("mathjax engine ready", observability.Duration("elapsed", time.Since(start)))
	return nil
}

func (e *Engine) load(ctx context.Context) error {
	if e.src == nil {
		return &LoadError{Stage: "source", Err: errors.New("no script source")}
	}
	bundle, shim, err := e.src.Scripts()
	if err != nil {
		return &LoadError{Stage: "source", Err: err}
	}
	if bundle == "" {
		return &LoadError{Stage: "source", Err: errors.New("empty bundle")}
	}

	e.vm = e.factory()
	if err := e.vm.RegisterHost(scripting.HostFunc(e.console)); err != nil {
		return &LoadError{Stage: "host", Err: err}
	}

	stages := []struct {
		name   string
		script string
	}{
		{"config", startupConfig},
		{"bundle", bundle},
		{"dom", shim},
		{"ready", readyCall},
		{"helpers", helperFunctions},
	}
	for _, stage := range stages {
		if stage.script == "" {
			continue
		}
		e.logger.Debug("mathjax load stage", observability.String("stage", stage.name), observability.Int("bytes", len(stage.script)))
		if _, err := e.vm.Execute(ctx, stage.script); err != nil {
			return &LoadError{Stage: stage.name, Err: err}
		}
	}
	return nil
}

func (e *Engine) console(level, msg string) {
	switch level {
	case "error":
		e.logger.Error(msg, observability.String("source", "mathjax"))
	case "warn":
		e.logger.Warn(msg, observability.String("source", "mathjax"))
	default:
		e.logger.Debug(msg, observability.String("source", "mathjax"))
	}
}

// Unload releases the runtime and returns the engine to StateUnloaded.
// It is safe to call on an unloaded engine.
func (e *Engine) Unload() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.closeVM()
	e.setState(StateUnloaded)
	return err
}

func (e *Engine) closeVM() error {
	if e.vm == nil {
		return nil
	}
	err := e.vm.Close()
	e.vm = nil
	return err
}

// ConvertToVector typesets req into an SVG document. Formula errors reported
// by MathJax come back as *TypesetError.
func (e *Engine) ConvertToVector(ctx context.Context, req Request) (string, error) {
	raw, err := e.call(ctx, vectorFunc, req)
	if err != nil {
		return "", err
	}
	if msg, found := DetectError(raw); found {
		return "", &TypesetError{Message: msg}
	}
	return raw, nil
}

// ConvertToMarkup typesets req into a MathML document.
func (e *Engine) ConvertToMarkup(ctx context.Context, req Request) (string, error) {
	return e.call(ctx, markupFunc, req)
}

// ConvertBoth returns the SVG and MathML documents for req. The markup
// conversion only runs when the vector conversion succeeds.
func (e *Engine) ConvertBoth(ctx context.Context, req Request) (string, string, error) {
	svg, err := e.ConvertToVector(ctx, req)
	if err != nil {
		return "", "", err
	}
	mml, err := e.ConvertToMarkup(ctx, req)
	if err != nil {
		return "", "", err
	}
	return svg, mml, nil
}

func (e *Engine) call(ctx context.Context, fn string, req Request) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.State() != StateReady || e.vm == nil {
		return "", ErrEngineNotReady
	}

	text, err := Sanitize(req.Formula)
	if err != nil {
		return "", err
	}
	opts, err := req.EncodedOptions()
	if err != nil {
		return "", err
	}

	ctx, span := e.tracer.StartSpan(ctx, "mathjax."+fn)
	defer span.Finish()
	start := time.Now()

	out, err := e.vm.Evaluate(ctx, fn+`("`+text+`",`+opts+`)`)
	if err != nil {
		span.SetError(err)
		return "", fmt.Errorf("mathjax: %s: %w", fn, err)
	}
	span.SetTag(observability.MetricConvertTime, time.Since(start))
	e.logger.Debug("mathjax conversion",
		observability.String("func", fn),
		observability.Int("bytes", len(out)),
		observability.Duration("elapsed", time.Since(start)))
	return out, nil
}
