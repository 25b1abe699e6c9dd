package httputil

import "net/http"

// StreamWriter commits the response status and headers on the first Write.
// Until then the handler may still answer with a problem response instead.
type StreamWriter struct {
	w       http.ResponseWriter
	prepare func(h http.Header)
	started bool
}

// NewStreamWriter wraps w. prepare runs once, right before the first byte is written.
func NewStreamWriter(w http.ResponseWriter, prepare func(h http.Header)) *StreamWriter {
	return &StreamWriter{w: w, prepare: prepare}
}

func (s *StreamWriter) Write(p []byte) (int, error) {
	if !s.started {
		s.started = true
		if s.prepare != nil {
			s.prepare(s.w.Header())
		}
		s.w.WriteHeader(http.StatusOK)
	}
	return s.w.Write(p)
}

// Started reports whether any byte reached the client
func (s *StreamWriter) Started() bool {
	return s.started
}

// StatusRecorder captures the status code written through it.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

// NewStatusRecorder wraps w with a default status of 200.
func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
}

func (r *StatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer
func (r *StatusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
