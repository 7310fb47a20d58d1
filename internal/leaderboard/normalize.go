package leaderboard

import (
	"bytes"
	"encoding/json"
)

// Normalize maps a raw leaderboard payload into the canonical Update
// shape. The backend pushes several shapes: an object carrying the
// entries under "leaderboard" or "data", or a bare entry array. The
// first truthy source wins; everything missing becomes its zero form
// and Data is never nil.
func Normalize(raw json.RawMessage) Update {
	u := Update{Data: []json.RawMessage{}}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return u
	}

	// Bare array payload: the payload itself is the entry list.
	if raw[0] == '[' {
		var entries []json.RawMessage
		if err := json.Unmarshal(raw, &entries); err == nil && entries != nil {
			u.Data = entries
		}
		return u
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return u
	}

	if d, ok := fields["difficulty"]; ok {
		var s string
		if err := json.Unmarshal(d, &s); err == nil {
			u.Difficulty = s
		}
	}

	for _, key := range []string{"leaderboard", "data"} {
		src, ok := fields[key]
		if !ok || !truthy(src) {
			continue
		}
		// A truthy non-array source still yields an empty list.
		var entries []json.RawMessage
		if err := json.Unmarshal(src, &entries); err == nil && entries != nil {
			u.Data = entries
		}
		break
	}

	if ts, ok := fields["timestamp"]; ok {
		var v any
		if err := json.Unmarshal(ts, &v); err == nil {
			u.Timestamp = v
		}
	}
	if uu, ok := fields["updated_user"]; ok {
		var v any
		if err := json.Unmarshal(uu, &v); err == nil {
			u.UpdatedUser = v
		}
	}

	return u
}

// truthy reports whether a JSON value counts as a usable fallback
// source: null, false, 0 and "" do not.
func truthy(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}
