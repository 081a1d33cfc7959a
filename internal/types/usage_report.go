package types

import (
	"encoding/json"
	"fmt"
)

// UnmarshalJSON decodes a usage report leniently: the report is best-effort
// model output, so values may arrive as strings or numbers and under legacy
// snake_case keys. Unrecognized shapes decode to the zero value rather than
// failing the stage.
func (u *UsageReport) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	u.EstimatedTokens = flexibleString(raw, "estimatedTokens", "estimated_tokens", "tokens_used")
	u.EstimatedTime = flexibleString(raw, "estimatedTime", "estimated_time", "generation_time")
	return nil
}

func flexibleString(raw map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			return s
		}
		var n float64
		if err := json.Unmarshal(value, &n); err == nil {
			return fmt.Sprintf("%v", n)
		}
	}
	return ""
}
