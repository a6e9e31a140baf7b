package logger

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

type contextKey string

const traceIDKey contextKey = "trace_id"

type Entry struct {
	Timestamp string `json:"timestamp"`
	TraceID   string `json:"trace_id,omitempty"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Method    string `json:"method,omitempty"`
	Path      string `json:"path,omitempty"`
	Status    int    `json:"status,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Error     string `json:"error,omitempty"`
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		return id
	}
	return ""
}

func Request(traceID, method, path string, status int, duration time.Duration) {
	write(Entry{
		TraceID:  traceID,
		Level:    "INFO",
		Message:  "HTTP Request",
		Method:   method,
		Path:     path,
		Status:   status,
		Duration: duration.String(),
	})
}

func Info(ctx context.Context, message string) {
	write(Entry{TraceID: TraceID(ctx), Level: "INFO", Message: message})
}

func Warn(ctx context.Context, message string, err error) {
	write(withErr(Entry{TraceID: TraceID(ctx), Level: "WARN", Message: message}, err))
}

func Error(ctx context.Context, message string, err error) {
	write(withErr(Entry{TraceID: TraceID(ctx), Level: "ERROR", Message: message}, err))
}

func withErr(e Entry, err error) Entry {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

func write(entry Entry) {
	entry.Timestamp = time.Now().UTC().Format(time.RFC3339)
	b, err := json.Marshal(entry)
	if err != nil {
		log.Printf("Error marshaling log entry: %v", err)
		return
	}
	log.Println(string(b))
}
