package server

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/untranslatable/internal/infrastructure/config"
)

const requestIDHeader = "X-Request-Id"

// RequestLogger logs one line per request with status-derived level and a request id.
func RequestLogger() mux.MiddlewareFunc {
	return requestLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func requestLogger(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = ulid.MustNew(ulid.Now(), rand.Reader).String()
				r.Header.Set(requestIDHeader, id)
			}
			w.Header().Set(requestIDHeader, id)

			m := httpsnoop.CaptureMetrics(next, w, r)
			attrs := requestAttributes(r, m.Code, m.Duration)
			attrs = append(attrs, slog.Int64("response_bytes", m.Written))
			logger.LogAttrs(r.Context(), determineLogLevel(m.Code), "request completed", attrs...)
		})
	}
}

func determineLogLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func requestAttributes(r *http.Request, status int, duration time.Duration) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Duration("duration", duration),
	}

	appendStringAttr(&attrs, "query", r.URL.RawQuery)
	appendStringAttr(&attrs, "peer_addr", r.RemoteAddr)
	appendStringAttr(&attrs, "user_agent", r.Header.Get("User-Agent"))
	appendStringAttr(&attrs, "request_id", r.Header.Get(requestIDHeader))
	appendStringAttr(&attrs, "client_ip", firstForwardedFor(r.Header))
	appendStringAttr(&attrs, "content_type", r.Header.Get("Content-Type"))

	attrs = append(attrs, slog.Int("request_header_count", headerCount(r.Header)))
	if cl := contentLength(r.Header); cl >= 0 {
		attrs = append(attrs, slog.Int("request_bytes", cl))
	}
	return attrs
}

func appendStringAttr(attrs *[]slog.Attr, key, value string) {
	if value == "" {
		return
	}
	*attrs = append(*attrs, slog.String(key, value))
}

func firstForwardedFor(header http.Header) string {
	forwarded := header.Get("X-Forwarded-For")
	if forwarded == "" {
		return ""
	}
	for _, part := range strings.Split(forwarded, ",") {
		if candidate := strings.TrimSpace(part); candidate != "" {
			return candidate
		}
	}
	return ""
}

func headerCount(header http.Header) int {
	count := 0
	for key := range header {
		count += len(header[key])
	}
	return count
}

func contentLength(header http.Header) int {
	if header == nil {
		return -1
	}
	if cl := header.Get("Content-Length"); cl != "" {
		if parsed, err := strconv.Atoi(cl); err == nil {
			return parsed
		}
	}
	return -1
}

// NewLogger builds a configured logrus logger from application config.
func NewLogger(cfg *config.Config) (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(level)
	switch cfg.Log.Format {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}
