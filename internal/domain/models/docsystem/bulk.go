package docsystem

import (
	"fmt"
	"net/http"
)

// BulkItemResult reports the outcome for one id of a bulk call
type BulkItemResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// BulkResult aggregates per-item outcomes of a best-effort batch
type BulkResult struct {
	Operation string           `json:"operation"`
	Items     []BulkItemResult `json:"items"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
}

// NewBulkResult creates an empty result for operation
func NewBulkResult(operation string) *BulkResult {
	return &BulkResult{Operation: operation, Items: []BulkItemResult{}}
}

// Succeed records a successful item
func (r *BulkResult) Succeed(id string) {
	r.Items = append(r.Items, BulkItemResult{ID: id, OK: true})
	r.Succeeded++
}

// Fail records a failed item with a stable code and message
func (r *BulkResult) Fail(id, code string, err error) {
	r.Items = append(r.Items, BulkItemResult{ID: id, Code: code, Error: err.Error()})
	r.Failed++
}

// Item returns the result recorded for id
func (r *BulkResult) Item(id string) (BulkItemResult, bool) {
	for _, it := range r.Items {
		if it.ID == id {
			return it, true
		}
	}
	return BulkItemResult{}, false
}

// Err returns a *PartialBatchFailure when at least one item failed, nil otherwise
func (r *BulkResult) Err() error {
	if r.Failed == 0 {
		return nil
	}
	return &PartialBatchFailure{Result: r}
}

// PartialBatchFailure carries the per-item results of a batch where some items failed.
// It is never returned as an abort: the other items were still processed.
type PartialBatchFailure struct {
	Result *BulkResult
}

func (e *PartialBatchFailure) Error() string {
	return fmt.Sprintf("%s: %d of %d items failed", e.Result.Operation, e.Result.Failed, e.Result.Failed+e.Result.Succeeded)
}

// StatusCode implements domain.HTTPError (207 Multi-Status)
func (e *PartialBatchFailure) StatusCode() int {
	return http.StatusMultiStatus
}
