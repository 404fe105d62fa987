// Package notify carries operator feedback for manual hologram commands.
//
// Scheduled refreshes run with Silent; commands issued by an operator pass a
// Feedback notifier so the outcome reaches whoever asked.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Level classifies a feedback message.
type Level string

// Message levels.
const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Message is one line of operator feedback.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Notifier receives operator-facing feedback.
type Notifier interface {
	Feedback(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
}

// Sink consumes feedback messages.
type Sink interface {
	Send(ctx context.Context, m Message)
}

type silent struct{}

func (silent) Feedback(context.Context, string) {}
func (silent) Error(context.Context, string)    {}

// Silent returns a Notifier that discards everything.
func Silent() Notifier { return silent{} }

type feedback struct {
	sink Sink
}

func (f feedback) Feedback(ctx context.Context, msg string) {
	f.sink.Send(ctx, Message{Level: LevelInfo, Text: msg})
}

func (f feedback) Error(ctx context.Context, msg string) {
	f.sink.Send(ctx, Message{Level: LevelError, Text: msg})
}

// Feedback returns a Notifier delivering every message to sink.
func Feedback(sink Sink) Notifier {
	if sink == nil {
		return Silent()
	}
	return feedback{sink: sink}
}

// Collector is a Sink that keeps messages in order.
type Collector struct {
	mu       sync.Mutex
	messages []Message
}

// Send implements Sink.
func (c *Collector) Send(_ context.Context, m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, m)
}

// Messages returns a copy of the collected messages.
func (c *Collector) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// HasErrors reports whether any error message was collected.
func (c *Collector) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.messages {
		if m.Level == LevelError {
			return true
		}
	}
	return false
}

// WriterSink writes messages to w, one per line, errors prefixed.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink returns a Sink printing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Send implements Sink.
func (s *WriterSink) Send(_ context.Context, m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.Level == LevelError {
		_, _ = fmt.Fprintf(s.w, "error: %s\n", m.Text)
		return
	}
	_, _ = fmt.Fprintln(s.w, m.Text)
}
