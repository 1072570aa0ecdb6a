package scripting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestGojaEngine_ContextCancellation(t *testing.T) {
	engine := NewEngine()

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	if _, err := engine.Execute(ctx, "while (true) {}"); err == nil || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}

	if _, err := engine.Execute(context.Background(), "1 + 1"); err != nil {
		t.Fatalf("engine should recover after cancellation, got %v", err)
	}
}

func TestGojaEngine_ImmediateCancel(t *testing.T) {
	engine := NewEngine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := engine.Execute(ctx, "42"); err == nil || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled error, got %v", err)
	}
}

func TestGojaEngine_Evaluate(t *testing.T) {
	engine := NewEngine()
	ctx := context.Background()

	if _, err := engine.Execute(ctx, `function greet(name) { return "hello " + name; }`); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	got, err := engine.Evaluate(ctx, `greet("tex")`)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if got != "hello tex" {
		t.Fatalf("Evaluate() = %q", got)
	}

	if _, err := engine.Evaluate(ctx, "undefined"); !errors.Is(err, ErrNoResult) {
		t.Fatalf("expected ErrNoResult, got %v", err)
	}
	if _, err := engine.Evaluate(ctx, "throw new Error('bad')"); err == nil || !strings.Contains(err.Error(), "bad") {
		t.Fatalf("expected script error, got %v", err)
	}
}

func TestGojaEngine_HostConsoleAndTimers(t *testing.T) {
	engine := NewEngine()
	var logs []string
	err := engine.RegisterHost(HostFunc(func(level, msg string) {
		logs = append(logs, level+":"+msg)
	}))
	if err != nil {
		t.Fatalf("RegisterHost() error = %v", err)
	}

	script := `
var order = [];
var cancelled = setTimeout(function () { order.push("never"); }, 0);
clearTimeout(cancelled);
setTimeout(function (v) { order.push(v); console.warn("timer", v); }, 10, "late");
order.push("now");
console.log("count", 2);
`
	if _, err := engine.Execute(context.Background(), script); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	got, err := engine.Evaluate(context.Background(), `order.join(",")`)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if got != "now,late" {
		t.Fatalf("timer order = %q", got)
	}
	want := []string{"info:count 2", "warn:timer late"}
	if strings.Join(logs, "|") != strings.Join(want, "|") {
		t.Fatalf("logs = %v, want %v", logs, want)
	}
}

func TestGojaEngine_Close(t *testing.T) {
	engine := NewEngine()
	if err := engine.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := engine.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if _, err := engine.Evaluate(context.Background(), "1"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
