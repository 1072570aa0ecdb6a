package mathtex

import (
	"context"
	"errors"
	"testing"
)

func TestRenderBatch(t *testing.T) {
	conv := newTestConverter(t, testConfig())
	jobs := []Job{
		{ID: "a", Formula: `a^2+b^2`},
		{ID: "bad", Formula: `\frac{a}`},
		{ID: "c", Formula: `\sqrt{x}`, Render: RenderOptions{Scale: 2}},
		{ID: "blank", Formula: " "},
	}

	var calls, lastDone int
	results, err := conv.RenderBatch(context.Background(), jobs, BatchOptions{
		Workers: 3,
		Progress: func(done, total int, r Result) {
			calls++
			if total != len(jobs) {
				t.Errorf("total = %d", total)
			}
			if done <= lastDone {
				t.Errorf("progress went from %d to %d", lastDone, done)
			}
			lastDone = done
		},
	})
	if err != nil {
		t.Fatalf("RenderBatch() error = %v", err)
	}
	if calls != len(jobs) || lastDone != len(jobs) {
		t.Fatalf("progress calls = %d, last done = %d", calls, lastDone)
	}
	if len(results) != len(jobs) {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results {
		if r.Job.ID != jobs[i].ID {
			t.Fatalf("result %d is job %q, want %q", i, r.Job.ID, jobs[i].ID)
		}
	}

	if results[0].Err != nil || results[0].Image == nil || results[0].SVG == "" {
		t.Fatalf("job a: %+v", results[0])
	}
	if !errors.Is(results[1].Err, ErrTypeset) || results[1].Image != nil {
		t.Fatalf("job bad: %+v", results[1])
	}
	// 8 characters at 0.5ex, 8px per ex, scale 2.
	if results[2].Err != nil || results[2].Image.Width() != 64 {
		t.Fatalf("job c: %+v", results[2])
	}
	assertPainted(t, results[0].Image, 14, 12)
	assertPainted(t, results[2].Image, 32, 24)
	if !errors.Is(results[3].Err, ErrEmptyFormula) {
		t.Fatalf("job blank: %+v", results[3])
	}
}

func TestRenderBatch_Cancelled(t *testing.T) {
	conv := newTestConverter(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job{{ID: "a", Formula: "x"}, {ID: "b", Formula: "y"}}
	results, err := conv.RenderBatch(ctx, jobs, BatchOptions{Workers: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RenderBatch() error = %v, want context.Canceled", err)
	}
	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Fatalf("job %s: err = %v", r.Job.ID, r.Err)
		}
	}
}

func TestRenderBatch_Empty(t *testing.T) {
	conv := newTestConverter(t, testConfig())
	results, err := conv.RenderBatch(context.Background(), nil, BatchOptions{})
	if err != nil || len(results) != 0 {
		t.Fatalf("RenderBatch(nil) = %v, %v", results, err)
	}
}
