package httputil

import (
	"encoding/json"
	"net/http"
)

// RespondJSON marshals data before touching w, so an encoding failure still
// produces a clean 500 instead of a truncated body.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// ProblemDetail is an RFC 7807 body. Extra members (code, resource_id,
// limit_bytes...) are flattened next to the standard ones.
type ProblemDetail struct {
	Type   string
	Title  string
	Status int
	Detail string
	Extra  map[string]any
}

func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(p.Extra)+4)
	for k, v := range p.Extra {
		m[k] = v
	}
	// Standard members win over extras with the same name
	m["type"] = p.Type
	m["title"] = p.Title
	m["status"] = p.Status
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	return json.Marshal(m)
}

// RespondError writes an RFC 7807 problem without extra members
func RespondError(w http.ResponseWriter, status int, detail string) {
	RespondErrorWithExtras(w, status, detail, nil)
}

// RespondErrorWithExtras writes an RFC 7807 problem carrying extras
func RespondErrorWithExtras(w http.ResponseWriter, status int, detail string, extras map[string]any) {
	payload, err := json.Marshal(ProblemDetail{
		Type:   problemType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Extra:  extras,
	})
	if err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	w.Write(payload)
}

var problemTypes = map[int]string{
	http.StatusBadRequest:            "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.1",
	http.StatusUnauthorized:          "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.2",
	http.StatusForbidden:             "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.4",
	http.StatusNotFound:              "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.5",
	http.StatusConflict:              "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.10",
	http.StatusRequestEntityTooLarge: "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.14",
	http.StatusInternalServerError:   "https://datatracker.ietf.org/doc/html/rfc9110#section-15.6.1",
}

// problemType returns the RFC 9110 section describing status, or about:blank
func problemType(status int) string {
	if t, ok := problemTypes[status]; ok {
		return t
	}
	return "about:blank"
}
