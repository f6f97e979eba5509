// Package llm wraps the hosted language models used for classification,
// definitions and image transcription.
package llm

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"
)

// Request is a single prompt sent to a model.
type Request struct {
	System    string
	Prompt    string
	JSON      bool // ask the model for a JSON-only response
	MaxTokens int
}

// Generator produces one text completion per request. Implementations make
// exactly one attempt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
	Close()
}

// ServiceError is a failed call to a model provider: network failure,
// non-success status, or a response with no usable text.
type ServiceError struct {
	Provider   string
	StatusCode int // 0 when no HTTP status was received
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, Truncate(msg, 200))
	}
	return fmt.Sprintf("%s: %s", e.Provider, Truncate(msg, 200))
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Timed records the latency of every call to G in Stats.
type Timed struct {
	G     Generator
	Stats *Stats
}

func (t *Timed) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := t.G.Generate(ctx, req)
	t.Stats.Record(time.Since(start), err)
	return out, err
}

// RecognizeImage transcribes a page image when G supports it, recording the
// call like Generate.
func (t *Timed) RecognizeImage(ctx context.Context, imagePath string) (string, error) {
	r, ok := t.G.(interface {
		RecognizeImage(ctx context.Context, imagePath string) (string, error)
	})
	if !ok {
		return "", fmt.Errorf("%s: model cannot read images", t.G.Model())
	}
	start := time.Now()
	out, err := r.RecognizeImage(ctx, imagePath)
	t.Stats.Record(time.Since(start), err)
	return out, err
}

func (t *Timed) Model() string { return t.G.Model() }
func (t *Timed) Close()        { t.G.Close() }

// Truncate shortens s to at most n runes for logs and error messages.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
