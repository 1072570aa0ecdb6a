package scripting

import (
	"context"
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

// maxTimerRuns bounds how many queued timer callbacks a single call drains,
// so a script that keeps rescheduling itself cannot spin forever.
const maxTimerRuns = 10000

type timer struct {
	id   int64
	fn   goja.Callable
	args []goja.Value
}

type GojaEngine struct {
	vm        *goja.Runtime
	timers    []timer
	cancelled map[int64]bool
	nextTimer int64
	scripts   int
}

func NewEngine() *GojaEngine {
	return &GojaEngine{vm: goja.New(), cancelled: make(map[int64]bool)}
}

func (e *GojaEngine) Execute(ctx context.Context, script string) (interface{}, error) {
	e.scripts++
	val, err := e.run(ctx, fmt.Sprintf("script-%d.js", e.scripts), script)
	if err != nil {
		return nil, err
	}
	return val.Export(), nil
}

func (e *GojaEngine) Evaluate(ctx context.Context, expr string) (string, error) {
	val, err := e.run(ctx, "expr.js", expr)
	if err != nil {
		return "", err
	}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return "", ErrNoResult
	}
	return val.String(), nil
}

func (e *GojaEngine) Close() error {
	if e.vm == nil {
		return nil
	}
	e.vm.Interrupt(ErrClosed)
	e.vm = nil
	e.timers = nil
	e.cancelled = nil
	return nil
}

func (e *GojaEngine) run(ctx context.Context, name, src string) (goja.Value, error) {
	if e.vm == nil {
		return nil, ErrClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vm := e.vm
	stop := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-stop:
		}
	}()
	defer func() {
		close(stop)
		<-exited
		vm.ClearInterrupt()
	}()

	val, err := vm.RunScript(name, src)
	if err == nil {
		err = e.drainTimers()
	}
	if err != nil {
		if interruptedErr, ok := err.(*goja.InterruptedError); ok {
			if cause := interruptedErr.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return val, nil
}

func (e *GojaEngine) drainTimers() error {
	for runs := 0; len(e.timers) > 0; runs++ {
		if runs >= maxTimerRuns {
			e.timers = nil
			return fmt.Errorf("timer queue exceeded %d callbacks", maxTimerRuns)
		}
		t := e.timers[0]
		e.timers = e.timers[1:]
		if e.cancelled[t.id] {
			delete(e.cancelled, t.id)
			continue
		}
		if _, err := t.fn(goja.Undefined(), t.args...); err != nil {
			return err
		}
	}
	return nil
}

func (e *GojaEngine) RegisterHost(host Host) error {
	if e.vm == nil {
		return ErrClosed
	}
	console := e.vm.NewObject()
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if err := console.Set(level, e.logFunc(host, level)); err != nil {
			return err
		}
	}
	if err := console.Set("log", e.logFunc(host, "info")); err != nil {
		return err
	}
	if err := e.vm.Set("console", console); err != nil {
		return err
	}

	// Timers run synchronously once the current script returns.
	if err := e.vm.Set("setTimeout", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			return goja.Undefined()
		}
		e.nextTimer++
		var args []goja.Value
		if len(call.Arguments) > 2 {
			args = append(args, call.Arguments[2:]...)
		}
		e.timers = append(e.timers, timer{id: e.nextTimer, fn: fn, args: args})
		return e.vm.ToValue(e.nextTimer)
	}); err != nil {
		return err
	}
	return e.vm.Set("clearTimeout", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			e.cancelled[call.Arguments[0].ToInteger()] = true
		}
		return goja.Undefined()
	})
}

func (e *GojaEngine) logFunc(host Host, level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}
		if host != nil {
			host.Log(level, strings.Join(parts, " "))
		}
		return goja.Undefined()
	}
}
