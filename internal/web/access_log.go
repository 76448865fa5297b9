package web

import (
	"bufio"
	"net"
	"net/http"
	"time"
)

// accessLogWriter wraps http.ResponseWriter to capture the status code
// and bytes written.
type accessLogWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *accessLogWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *accessLogWriter) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// Hijack passes through so the websocket upgrade still works behind
// the wrapper.
func (rw *accessLogWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return h.Hijack()
}

// accessLogger logs every request and feeds the HTTP request metrics.
func (s *Server) accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &accessLogWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"ip", getClientIP(r),
			"status", rw.status,
			"size", rw.size,
			"duration", duration,
		)
		s.registry.RecordWebRequest(r.Method, r.URL.Path, rw.status, duration.Seconds())
	})
}

// maxBodyMiddleware caps request body size. Reads are unaffected.
func maxBodyMiddleware(next http.Handler, maxBytes int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
		default:
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
		}
		next.ServeHTTP(w, r)
	})
}
