package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// MaxJSONBodyBytes caps JSON request bodies. Uploads use multipart and their own limit.
const MaxJSONBodyBytes = 1 << 20

// ParseJSON decodes a single JSON value from the request body into dest.
// Semantic validation is left to the services. An empty body surfaces as io.EOF
// (wrapped) so optional bodies can be detected with errors.Is.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
