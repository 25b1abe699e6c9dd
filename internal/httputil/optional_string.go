package httputil

import "encoding/json"

// OptionalString distinguishes the three states of a JSON merge-patch member
// (RFC 7396): absent (Present=false), null (Present, Value=nil) and a string.
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON only runs when the member is present in the body.
// Unmarshaling null into a *string leaves it nil.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true
	o.Value = nil
	return json.Unmarshal(data, &o.Value)
}
