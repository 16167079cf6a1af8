package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSetup_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(&buf, "json", slog.LevelInfo)
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))) })

	logger.Info("test message", "key", "value")
	logger.Debug("hidden")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v\nbody: %s", err, buf.String())
	}

	if entry["msg"] != "test message" {
		t.Errorf("msg = %v, want test message", entry["msg"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want value", entry["key"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("missing time field")
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
	if slog.Default() != logger {
		t.Error("Setup should install the default logger")
	}
}

func TestSetup_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(&buf, "text", slog.LevelDebug)
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))) })

	logger.Debug("converted", "resources", 2)

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") || !strings.Contains(out, "resources=2") {
		t.Errorf("unexpected text output: %q", out)
	}
}

func TestLogRequest_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	LogRequest(logger, RequestFields{
		Method:      "POST",
		Path:        "/v1/notes",
		Status:      200,
		Cache:       "miss",
		Format:      "markdown",
		Source:      "https://moodle.example.edu/export.md",
		Resources:   3,
		FetchMs:     45,
		TransformMs: 12,
		TotalMs:     57,
		Bytes:       14832,
	})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	checks := map[string]any{
		"msg":    "request",
		"method": "POST",
		"path":   "/v1/notes",
		"cache":  "miss",
		"format": "markdown",
		"source": "https://moodle.example.edu/export.md",
	}
	for k, want := range checks {
		if entry[k] != want {
			t.Errorf("%s = %v, want %v", k, entry[k], want)
		}
	}

	// Numeric fields come as float64 from JSON
	numChecks := map[string]float64{
		"status":       200,
		"resources":    3,
		"fetch_ms":     45,
		"transform_ms": 12,
		"total_ms":     57,
		"bytes":        14832,
	}
	for k, want := range numChecks {
		got, ok := entry[k].(float64)
		if !ok {
			t.Errorf("%s is not a number: %v", k, entry[k])
			continue
		}
		if got != want {
			t.Errorf("%s = %v, want %v", k, got, want)
		}
	}
}

func TestLogRequest_Levels(t *testing.T) {
	tests := []struct {
		status    int
		wantLevel string
	}{
		{200, "INFO"},
		{400, "WARN"},
		{413, "WARN"},
		{500, "ERROR"},
		{502, "ERROR"},
	}

	for _, tc := range tests {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		LogRequest(logger, RequestFields{Status: tc.status})

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("status %d: not valid JSON: %v", tc.status, err)
		}
		if entry["level"] != tc.wantLevel {
			t.Errorf("status %d: level = %v, want %v", tc.status, entry["level"], tc.wantLevel)
		}
	}
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := Middleware(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f := Fields(r.Context())
		f.Cache = "hit"
		f.Resources = 2
		if FromContext(r.Context()) == slog.Default() {
			t.Error("handler should see the request logger")
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("created"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/notes", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v\nbody: %s", err, buf.String())
	}
	if entry["path"] != "/v1/notes" || entry["method"] != "POST" {
		t.Errorf("method/path = %v %v", entry["method"], entry["path"])
	}
	if entry["cache"] != "hit" {
		t.Errorf("cache = %v, want hit", entry["cache"])
	}
	if entry["status"] != float64(201) || entry["bytes"] != float64(7) || entry["resources"] != float64(2) {
		t.Errorf("status/bytes/resources = %v %v %v", entry["status"], entry["bytes"], entry["resources"])
	}
}

func TestFields_Detached(t *testing.T) {
	f := Fields(context.Background())
	if f == nil {
		t.Fatal("Fields returned nil outside middleware")
	}
	f.Cache = "miss"
}

func TestContextLogger(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	ctx := WithLogger(context.Background(), logger)
	got := FromContext(ctx)
	if got != logger {
		t.Error("FromContext did not return the logger set with WithLogger")
	}
}

func TestFromContext_Default(t *testing.T) {
	got := FromContext(context.Background())
	if got == nil {
		t.Error("FromContext returned nil for empty context")
	}
}

func TestByteCountingWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &ByteCountingWriter{ResponseWriter: rec}

	w.WriteHeader(201)
	if w.StatusCode != 201 {
		t.Errorf("StatusCode = %d, want 201", w.StatusCode)
	}

	n, err := w.Write([]byte("hello world"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 11 {
		t.Errorf("Write returned %d, want 11", n)
	}
	if w.Bytes != 11 {
		t.Errorf("Bytes = %d, want 11", w.Bytes)
	}
}

func TestByteCountingWriter_DefaultStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &ByteCountingWriter{ResponseWriter: rec}

	w.Write([]byte("hi"))
	if w.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200 (default)", w.StatusCode)
	}
}
