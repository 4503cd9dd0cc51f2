package entity

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount coerces a stored monetary value (JSON string or number) to a
// decimal. Anything that is not numeric, including an absent value, is zero.
func ParseAmount(raw json.RawMessage) decimal.Decimal {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return decimal.Zero
	}

	var text string
	switch raw[0] {
	case '"':
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		text = string(raw)
	default:
		return decimal.Zero
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// looseString returns a JSON string's value, the literal text of a JSON
// number, or "" for anything else.
func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(raw)
	default:
		return ""
	}
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// orderedValues returns the non-null members of a list that the store may
// hold either as a JSON array or as an object keyed by position.
func orderedValues(raw json.RawMessage) []json.RawMessage {
	if isNull(raw) {
		return nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		out := list[:0]
		for _, v := range list {
			if !isNull(v) {
				out = append(out, v)
			}
		}
		return out
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
	out := make([]json.RawMessage, 0, len(keys))
	for _, k := range keys {
		if !isNull(obj[k]) {
			out = append(out, obj[k])
		}
	}
	return out
}
