package logging

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Setup builds a logger writing to w in the given format ("json" or "text")
// and installs it as the slog default.
func Setup(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if format == "text" {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

type contextKey string

const (
	loggerKey contextKey = "logger"
	fieldsKey contextKey = "fields"
)

// WithLogger returns a context with the given logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from the context, falling back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// RequestFields holds all fields logged per conversion request.
type RequestFields struct {
	Method      string
	Path        string
	Status      int
	Cache       string
	Format      string
	Source      string
	Resources   int
	FetchMs     int64
	TransformMs int64
	TotalMs     int64
	Bytes       int64
}

// Fields returns the request fields the logging middleware attached to ctx,
// so handlers can fill in what only they know. Outside the middleware a
// detached value is returned.
func Fields(ctx context.Context) *RequestFields {
	if f, ok := ctx.Value(fieldsKey).(*RequestFields); ok {
		return f
	}
	return &RequestFields{}
}

// LogRequest logs a completed request with structured fields.
func LogRequest(logger *slog.Logger, f RequestFields) {
	level := slog.LevelInfo
	if f.Status >= 500 {
		level = slog.LevelError
	} else if f.Status >= 400 {
		level = slog.LevelWarn
	}

	logger.Log(context.Background(), level, "request",
		"method", f.Method,
		"path", f.Path,
		"status", f.Status,
		"cache", f.Cache,
		"format", f.Format,
		"source", f.Source,
		"resources", f.Resources,
		"fetch_ms", f.FetchMs,
		"transform_ms", f.TransformMs,
		"total_ms", f.TotalMs,
		"bytes", f.Bytes,
	)
}

// ByteCountingWriter wraps http.ResponseWriter to capture status code and bytes written.
type ByteCountingWriter struct {
	http.ResponseWriter
	StatusCode int
	Bytes      int64
}

// WriteHeader captures the status code.
func (w *ByteCountingWriter) WriteHeader(code int) {
	w.StatusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Write captures bytes written.
func (w *ByteCountingWriter) Write(b []byte) (int, error) {
	if w.StatusCode == 0 {
		w.StatusCode = 200
	}
	n, err := w.ResponseWriter.Write(b)
	w.Bytes += int64(n)
	return n, err
}

// Middleware logs one line per request through logger once next returns.
func Middleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		fields := &RequestFields{Method: r.Method, Path: r.URL.Path}
		ctx := context.WithValue(r.Context(), fieldsKey, fields)
		ctx = WithLogger(ctx, logger.With("method", r.Method, "path", r.URL.Path))

		wrapped := &ByteCountingWriter{ResponseWriter: w}
		next.ServeHTTP(wrapped, r.WithContext(ctx))

		if wrapped.StatusCode == 0 {
			wrapped.StatusCode = 200
		}
		fields.Status = wrapped.StatusCode
		fields.Bytes = wrapped.Bytes
		fields.TotalMs = time.Since(start).Milliseconds()
		LogRequest(logger, *fields)
	})
}
