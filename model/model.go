package model

import (
	"context"
	"fmt"
	"sync"
)

// Message is a single chat message in a generation request.
// Role is one of "system", "user" or "assistant".
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Request captures the normalized model input produced by the pipeline stages.
type Request struct {
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"` // nil means provider default
	MaxTokens   int64     `json:"max_tokens,omitempty"`  // 0 means provider default
	Stream      bool      `json:"stream,omitempty"`
}

// Response is a (partial or final) chunk emitted by a model. Non-streaming
// providers emit exactly one final response; streaming providers emit partial
// text deltas followed by a final response carrying the accumulated text.
type Response struct {
	Partial      bool   `json:"partial"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"` // "stop", "length", etc.
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface the pipeline stages use to drive generation.
// Generate returns a response channel and an error channel; implementations
// close both when done and send at most one error.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Complete drives a non-streaming generation to completion and returns the
// final response text. Every pipeline stage calls the model through here;
// streaming is only exercised by interactive consumers.
func Complete(ctx context.Context, m Model, req Request) (string, error) {
	req.Stream = false

	respCh, errCh := m.Generate(ctx, req)

	var text string
	for resp := range respCh {
		if !resp.Partial {
			text = resp.Text
		}
	}
	if err := <-errCh; err != nil {
		return "", err
	}

	return text, nil
}

// lastUserText returns the text of the last user message in req, or "".
func lastUserText(req Request) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return req.Messages[i].Text
		}
	}
	return ""
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Canned responses and errors are consumed in FIFO order; once the queue is
// drained every call falls back to "Mock response to: <last user message>".
// All received requests are recorded for assertions.
type MockModel struct {
	mu       sync.Mutex
	info     Info
	queue    []canned
	requests []Request
}

type canned struct {
	text string
	err  error
}

// NewMockModel constructs a MockModel.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{info: Info{Name: name, Provider: provider}}
}

// Enqueue registers a canned completion, consumed in FIFO order.
func (m *MockModel) Enqueue(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, canned{text: text})
}

// EnqueueError registers a canned failure, consumed in FIFO order.
func (m *MockModel) EnqueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, canned{err: err})
}

// Requests returns a copy of all requests received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// LastRequest returns the most recent request, if any.
func (m *MockModel) LastRequest() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return Request{}, false
	}
	return m.requests[len(m.requests)-1], true
}

// next records the request and pops the next canned entry, synthesizing the
// fallback response when the queue is empty.
func (m *MockModel) next(req Request) canned {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if len(m.queue) > 0 {
		c := m.queue[0]
		m.queue = m.queue[1:]
		return c
	}

	return canned{text: fmt.Sprintf("Mock response to: %s", lastUserText(req))}
}

// Generate implements Model; emits optional streaming rune chunks then the
// final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		c := m.next(req)
		if c.err != nil {
			errCh <- c.err
			return
		}

		if req.Stream {
			for _, r := range c.text {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Text: string(r)}:
				}
			}
		}

		respCh <- Response{Partial: false, Text: c.text, FinishReason: "stop"}
	}()

	return respCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
