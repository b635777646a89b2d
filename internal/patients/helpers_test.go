package patients

import "encoding/json"

func jsonUnmarshal(s string, v any) error {
	return json.Unmarshal([]byte(s), v)
}

func strPtr(s string) *string { return &s }

func statusPtr(s Status) *Status { return &s }
