// Package middleware provides HTTP middleware for the adapters layer.
package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bnema/previewgate/internal/adapters/dto"
	"github.com/bnema/previewgate/internal/domain"
	"github.com/bnema/previewgate/internal/logging"
)

// maxRequestIDLen bounds a client-supplied request ID.
const maxRequestIDLen = 128

// ResponseWriter wraps http.ResponseWriter to capture status code and bytes written.
type ResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	bytes       int
	wroteHeader bool
}

// NewResponseWriter creates a new wrapped response writer.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code.
func (rw *ResponseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = code >= 200
	}
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures bytes written.
func (rw *ResponseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// StatusCode returns the captured status code.
func (rw *ResponseWriter) StatusCode() int {
	return rw.statusCode
}

// BytesWritten returns the number of bytes written.
func (rw *ResponseWriter) BytesWritten() int {
	return rw.bytes
}

// Flush implements http.Flusher by delegating to the underlying ResponseWriter.
func (rw *ResponseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (rw *ResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// RequestLogger logs one line per request and attaches a request-scoped
// logger (request ID and client IP) to the context. Proxy headers are only
// trusted from trustedNets.
func RequestLogger(log zerolog.Logger, trustedNets []*net.IPNet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(domain.HeaderRequestID)
			if requestID == "" || len(requestID) > maxRequestIDLen {
				requestID = uuid.NewString()
			}
			w.Header().Set(domain.HeaderRequestID, requestID)

			rw := NewResponseWriter(w)
			clientIP := GetClientIP(r, trustedNets)

			reqLog := log.With().
				Str(logging.FieldRequestID, requestID).
				Str(logging.FieldClientIP, clientIP).
				Logger()
			r = r.WithContext(logging.WithCtx(r.Context(), reqLog))

			next.ServeHTTP(rw, r)

			reqLog.Info().
				Str(logging.FieldLayer, "adapter").
				Str(logging.FieldAdapter, "http").
				Str(logging.FieldMethod, r.Method).
				Str(logging.FieldPath, r.URL.Path).
				Str(logging.FieldHost, r.Host).
				Str("user_agent", r.UserAgent()).
				Int(logging.FieldStatus, rw.StatusCode()).
				Int("bytes", rw.BytesWritten()).
				Dur(logging.FieldDuration, time.Since(start)).
				Str("proto", r.Proto).
				Msg("HTTP request")
		})
	}
}

// PanicRecovery middleware recovers from panics and logs them.
// http.ErrAbortHandler is re-raised so the server aborts the connection.
func PanicRecovery(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				err := recover()
				if err == nil {
					return
				}
				if err == http.ErrAbortHandler {
					panic(err)
				}
				log.Error().
					Str(logging.FieldLayer, "adapter").
					Str(logging.FieldAdapter, "http").
					Interface("panic", err).
					Str(logging.FieldMethod, r.Method).
					Str(logging.FieldPath, r.URL.Path).
					Str(logging.FieldHost, r.Host).
					Msg("panic recovered")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: "Internal Server Error"})
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// Chain combines multiple middleware functions. The first one runs outermost.
func Chain(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
