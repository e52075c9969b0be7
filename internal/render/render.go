package render

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/ZanzyTHEbar/profile-insights/internal/errors"
)

// Renderer renders already validated data to w
type Renderer interface {
	Render(w io.Writer, v any) error
}

// RendererFunc adapts a plain function to Renderer
type RendererFunc func(w io.Writer, v any) error

func (f RendererFunc) Render(w io.Writer, v any) error {
	return f(w, v)
}

// RenderFailure describes why the primary renderer could not draw a value.
// It is what the fallback renderer receives.
type RenderFailure struct {
	Err   error
	Panic any
	Value any
}

func (f RenderFailure) Error() string {
	if f.Panic != nil {
		return fmt.Sprintf("render panic: %v", f.Panic)
	}
	if f.Err != nil {
		return f.Err.Error()
	}
	return "render failed"
}

func (f RenderFailure) Unwrap() error {
	return f.Err
}

// Guard runs Primary in a protected scope and switches to Fallback once
// Primary fails. It stays on Fallback until Retry is called.
type Guard struct {
	Primary  Renderer
	Fallback Renderer

	mu      sync.Mutex
	failure *RenderFailure
	last    any
	hasLast bool
}

// NewGuard creates a guard. A nil fallback renders the failure as plain text.
func NewGuard(primary, fallback Renderer) *Guard {
	if fallback == nil {
		fallback = NewFailureRenderer()
	}
	return &Guard{Primary: primary, Fallback: fallback}
}

// Render draws v with Primary, or with Fallback when Primary fails or has
// already failed. Primary output is buffered so a failed attempt never
// leaves partial output in w.
func (g *Guard) Render(w io.Writer, v any) error {
	g.mu.Lock()
	g.last, g.hasLast = v, true
	failure := g.failure
	g.mu.Unlock()

	if failure != nil {
		return g.Fallback.Render(w, *failure)
	}

	var buf bytes.Buffer
	if f := g.protected(&buf, v); f != nil {
		g.mu.Lock()
		g.failure = f
		g.mu.Unlock()
		return g.Fallback.Render(w, *f)
	}

	_, err := buf.WriteTo(w)
	return err
}

// Retry clears the recorded failure and re-enters Primary with the last
// rendered value
func (g *Guard) Retry(w io.Writer) error {
	g.mu.Lock()
	g.failure = nil
	v, ok := g.last, g.hasLast
	g.mu.Unlock()

	if !ok {
		return nil
	}
	return g.Render(w, v)
}

// Failure returns the recorded failure, or nil while Primary is healthy
func (g *Guard) Failure() *RenderFailure {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failure == nil {
		return nil
	}
	f := *g.failure
	return &f
}

// Failed reports whether the guard is showing its fallback
func (g *Guard) Failed() bool {
	return g.Failure() != nil
}

func (g *Guard) protected(w io.Writer, v any) (failure *RenderFailure) {
	var err error
	errors.SafeExecute(func() {
		err = g.Primary.Render(w, v)
	}, func(r interface{}) {
		failure = &RenderFailure{Panic: r, Value: v}
	})
	if failure != nil {
		return failure
	}
	if err != nil {
		return &RenderFailure{Err: err, Value: v}
	}
	return nil
}
