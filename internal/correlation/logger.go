// Package correlation writes the paired start/end lines that frame every
// pipeline execution.
package correlation

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// TimestampLayout renders wall-clock timestamps in log lines.
const TimestampLayout = "2006-01-02 15:04:05.000"

// LoggerName is attached to every line as the "logger" attribute.
const LoggerName = "REQUEST_LOGGER"

// Outcome classifications.
const (
	StatusSuccess   = "SUCCESS"
	StatusError     = "ERROR"
	StatusException = "EXCEPTION"
)

const (
	methodInternal = "INTERNAL"
	unknown        = "UNKNOWN"
	unavailable    = "N/A"
)

// Context is the state of one open correlation scope.
type Context struct {
	RequestID      string
	StartTimestamp string
	FullURL        string
	ParamSummary   string
	Method         string

	start time.Time
}

// Outcome describes how an execution ended.
type Outcome struct {
	// Body is the response body; its length in bytes is logged.
	Body []byte

	// StatusCode is the HTTP status, zero if none was produced.
	StatusCode int

	// Err is the failure, if any.
	Err error
}

// Option configures a Logger.
type Option func(*Logger)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		l.now = now
	}
}

// Logger emits REQUEST_START, REQUEST_END and REQUEST_SUMMARY lines.
// It holds no per-execution state and is safe for concurrent use.
type Logger struct {
	logger *slog.Logger
	now    func() time.Time
}

// New creates a correlation logger writing through logger.
func New(logger *slog.Logger, opts ...Option) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Logger{
		logger: logger.With(slog.String("logger", LoggerName)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Begin opens a scope for requestID and logs REQUEST_START.
func (l *Logger) Begin(requestID string, h Headers) *Context {
	start := l.now()

	method := methodInternal
	if m, ok := h.Lookup(HeaderMethod); ok && m != "" {
		method = m
	}

	c := &Context{
		RequestID:      requestID,
		StartTimestamp: start.Format(TimestampLayout),
		FullURL:        displayURL(h),
		ParamSummary:   paramSummary(h),
		Method:         method,
		start:          start,
	}

	line := fmt.Sprintf("REQUEST_START | %s | %s | %s  | Parameters: %s | RequestId: %s",
		c.StartTimestamp, c.Method, c.FullURL, c.ParamSummary, c.RequestID)

	l.logger.LogAttrs(context.Background(), slog.LevelInfo, line,
		slog.String("request_id", c.RequestID),
		slog.String("method", c.Method),
		slog.String("url", c.FullURL),
	)
	return c
}

// End closes c and logs REQUEST_END followed by REQUEST_SUMMARY.
// A nil c is reported with an unavailable duration and UNKNOWN identity.
func (l *Logger) End(c *Context, out Outcome) {
	end := l.now()
	endTimestamp := end.Format(TimestampLayout)

	code := out.StatusCode
	if code == 0 {
		code = http.StatusOK
		if out.Err != nil {
			code = http.StatusInternalServerError
		}
	}

	status := StatusError
	if code >= 200 && code < 300 {
		status = StatusSuccess
	}
	if out.Err != nil {
		status = StatusException
	}

	size := len(out.Body)

	requestID, fullURL, params := unknown, unknown, ""
	startTimestamp, duration := unavailable, unavailable
	var elapsed time.Duration
	if c != nil {
		requestID, fullURL, params = c.RequestID, c.FullURL, c.ParamSummary
		startTimestamp = c.StartTimestamp
		elapsed = end.Sub(c.start)
		duration = fmt.Sprintf("%dms", elapsed.Milliseconds())
	}

	attrs := []slog.Attr{
		slog.String("request_id", requestID),
		slog.String("status", status),
		slog.Int("http_code", code),
		slog.Int("size_bytes", size),
	}
	if c != nil {
		attrs = append(attrs, slog.Int64("duration_ms", elapsed.Milliseconds()))
	}
	if out.Err != nil {
		attrs = append(attrs, slog.String("error", out.Err.Error()))
	}

	endLine := fmt.Sprintf("REQUEST_END | %s | %s | %s | HTTP %d | %s | %dB | %s | RequestId: %s",
		endTimestamp, status, fullURL, code, duration, size, params, requestID)
	summaryLine := fmt.Sprintf("REQUEST_SUMMARY | StartTime: %s | EndTime: %s | URL: %s | Params: %s | HTTPCode: %d | Duration: %s | Size: %dB | Status: %s | RequestId: %s",
		startTimestamp, endTimestamp, fullURL, params, code, duration, size, status, requestID)

	level := slog.LevelInfo
	if status != StatusSuccess {
		level = slog.LevelWarn
	}
	l.logger.LogAttrs(context.Background(), level, endLine, attrs...)
	l.logger.LogAttrs(context.Background(), level, summaryLine, attrs...)
}

// displayURL joins uri, path and ?query, skipping absent parts.
func displayURL(h Headers) string {
	var b strings.Builder
	if uri, ok := h.Lookup(HeaderURI); ok {
		b.WriteString(uri)
	}
	if path, ok := h.Lookup(HeaderPath); ok {
		b.WriteString(path)
	}
	if query, ok := h.Lookup(HeaderQuery); ok && query != "" {
		b.WriteString("?")
		b.WriteString(query)
	}
	return b.String()
}

// paramSummary renders "personId=<id>, type=<type>" for the keys present.
func paramSummary(h Headers) string {
	var parts []string
	if id, ok := h.Lookup(HeaderPersonID); ok {
		parts = append(parts, HeaderPersonID+"="+id)
	}
	if typ, ok := h.Lookup(HeaderType); ok {
		parts = append(parts, HeaderType+"="+typ)
	}
	return strings.Join(parts, ", ")
}
